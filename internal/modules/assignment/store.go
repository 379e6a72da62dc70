package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"nexttransport/internal/types"
)

type PgStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

// Create inserts a new assignment. The partial unique index on
// (booking_id) WHERE status IN ('assigned','accepted') turns a
// concurrent duplicate into a 23505, reported here as ErrConflict.
func (s *PgStore) Create(ctx context.Context, a *Assignment) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO job_assignments (
			id, booking_id, carrier_ref, driver_id, assigned_by,
			assigned_at, status, responded_at, cancelled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(a.ID), string(a.BookingID), a.CarrierRef, string(a.DriverID), string(a.AssignedBy),
		a.AssignedAt, string(a.Status), a.RespondedAt, a.CancelledAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}

func (s *PgStore) Get(ctx context.Context, id types.ID) (*Assignment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, booking_id, carrier_ref, driver_id, assigned_by,
		       assigned_at, status, responded_at, cancelled_at
		FROM job_assignments
		WHERE id = $1`, string(id),
	)
	return scanAssignment(row)
}

func (s *PgStore) ListByBooking(ctx context.Context, bookingID types.ID) ([]*Assignment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, booking_id, carrier_ref, driver_id, assigned_by,
		       assigned_at, status, responded_at, cancelled_at
		FROM job_assignments
		WHERE booking_id = $1
		ORDER BY assigned_at ASC`, string(bookingID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateStatus moves an assignment between states, stamping the
// matching timestamp. The status guard in the WHERE clause makes the
// transition race-safe.
func (s *PgStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE job_assignments
		SET status = $1,
		    responded_at = CASE WHEN $1 IN ($4, $5) THEN $6 ELSE responded_at END,
		    cancelled_at = CASE WHEN $1 = $7 THEN $6 ELSE cancelled_at END
		WHERE id = $2 AND status = $3`,
		string(to), string(id), string(from),
		string(StatusAccepted), string(StatusRejected), at, string(StatusCancelled),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	err := row.Scan(
		&a.ID, &a.BookingID, &a.CarrierRef, &a.DriverID, &a.AssignedBy,
		&a.AssignedAt, &a.Status, &a.RespondedAt, &a.CancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
