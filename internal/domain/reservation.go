package domain

import "time"

// Reservation is a claim on a single court time slot. The (Date, TimeSlot)
// pair is unique among live reservations; the unique constraint in the
// store is the only concurrency control on the booking path.
type Reservation struct {
	ID           int64
	Date         string
	TimeSlot     string
	PlayerName   string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// Protected reports whether a cancellation password was set at booking
// time. Unprotected reservations can be cancelled by anyone.
func (r Reservation) Protected() bool {
	return r.PasswordHash != ""
}
