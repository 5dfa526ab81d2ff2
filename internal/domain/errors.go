// Package domain holds the reservation entity and the outcome errors
// shared by the repository, service and HTTP layers. The four booking
// outcomes are sentinel values so callers can branch with errors.Is
// instead of matching message strings.
package domain

import "errors"

var (
	// ErrSlotTaken is returned when a reservation already exists for the
	// requested (date, time slot) pair.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrNotFound is returned when a cancellation targets a slot with no
	// live reservation. A repeat cancel after a successful one gets this
	// same error.
	ErrNotFound = errors.New("reservation not found")

	// ErrPasswordRequired is returned when cancelling a protected
	// reservation without supplying a password.
	ErrPasswordRequired = errors.New("password required")

	// ErrPasswordMismatch is returned when the supplied password's digest
	// does not equal the stored one.
	ErrPasswordMismatch = errors.New("password mismatch")

	// ErrInvalidInput marks validation failures on the request boundary
	// (empty player name, malformed date, unknown slot label).
	ErrInvalidInput = errors.New("invalid input")
)
