package repository

import (
	"context"
	"errors"

	"courtsched/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository interface {
	EnsureSchema(ctx context.Context) error
	ListForDate(ctx context.Context, date string) (map[string]domain.Reservation, error)
	ListForRange(ctx context.Context, start, end string) (map[string]map[string]domain.Reservation, error)
	Create(ctx context.Context, res *domain.Reservation) error
	Cancel(ctx context.Context, date, timeSlot, digest string) (*domain.Reservation, error)
	DeleteBefore(ctx context.Context, date string) (int64, error)
}

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

// uniqueViolation is the SQLSTATE Postgres reports when an insert loses
// the race for a slot.
const uniqueViolation = "23505"

// EnsureSchema creates the reservations table if it does not exist. The
// UNIQUE(date, time_slot) constraint is the sole arbiter between
// concurrent bookings; Create never checks for a free slot first.
func (r *PGReservationRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS reservations (
		id BIGSERIAL PRIMARY KEY,
		date TEXT NOT NULL,
		time_slot TEXT NOT NULL,
		player_name TEXT NOT NULL,
		phone TEXT,
		password_hash TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (date, time_slot)
	)`)
	return err
}

func (r *PGReservationRepository) ListForDate(ctx context.Context, date string) (map[string]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT id, date, time_slot, player_name, COALESCE(phone, ''), COALESCE(password_hash, ''), created_at
		FROM reservations WHERE date=$1`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bySlot := make(map[string]domain.Reservation)
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.Date, &res.TimeSlot, &res.PlayerName, &res.Phone, &res.PasswordHash, &res.CreatedAt); err != nil {
			return nil, err
		}
		bySlot[res.TimeSlot] = res
	}
	return bySlot, rows.Err()
}

// ListForRange fetches every reservation with start <= date <= end in one
// round trip. Dates without reservations are absent from the result.
func (r *PGReservationRepository) ListForRange(ctx context.Context, start, end string) (map[string]map[string]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT id, date, time_slot, player_name, COALESCE(phone, ''), COALESCE(password_hash, ''), created_at
		FROM reservations WHERE date >= $1 AND date <= $2 ORDER BY date, time_slot`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byDate := make(map[string]map[string]domain.Reservation)
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.Date, &res.TimeSlot, &res.PlayerName, &res.Phone, &res.PasswordHash, &res.CreatedAt); err != nil {
			return nil, err
		}
		if byDate[res.Date] == nil {
			byDate[res.Date] = make(map[string]domain.Reservation)
		}
		byDate[res.Date][res.TimeSlot] = res
	}
	return byDate, rows.Err()
}

// Create inserts the reservation and fills in the generated ID and
// creation time. When two callers race for the same slot, exactly one
// insert succeeds and the other gets ErrSlotTaken from the constraint.
func (r *PGReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	err := r.db.QueryRow(ctx, `INSERT INTO reservations (date, time_slot, player_name, phone, password_hash)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		RETURNING id, created_at`,
		res.Date, res.TimeSlot, res.PlayerName, res.Phone, res.PasswordHash).
		Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrSlotTaken
		}
		return err
	}
	return nil
}

// Cancel deletes the reservation for the slot after the password digest
// check. An empty digest means no password was supplied. The row stays
// locked for the duration of the transaction so a concurrent
// cancel-and-rebook cannot slip between the check and the delete. The
// deleted reservation is returned for event publication.
func (r *PGReservationRepository) Cancel(ctx context.Context, date, timeSlot, digest string) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var res domain.Reservation
	err = tx.QueryRow(ctx, `SELECT id, date, time_slot, player_name, COALESCE(phone, ''), COALESCE(password_hash, ''), created_at
		FROM reservations WHERE date=$1 AND time_slot=$2 FOR UPDATE`, date, timeSlot).
		Scan(&res.ID, &res.Date, &res.TimeSlot, &res.PlayerName, &res.Phone, &res.PasswordHash, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if res.PasswordHash != "" {
		if digest == "" {
			return nil, domain.ErrPasswordRequired
		}
		if digest != res.PasswordHash {
			return nil, domain.ErrPasswordMismatch
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM reservations WHERE id=$1`, res.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteBefore purges reservations dated strictly before the given day.
// Used by the retention sweep in the worker.
func (r *PGReservationRepository) DeleteBefore(ctx context.Context, date string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM reservations WHERE date < $1`, date)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
