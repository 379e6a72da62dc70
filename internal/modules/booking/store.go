package booking

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

const bookingColumns = `
	id, number, quote_id, customer_ref, status, status_version,
	pickup_address_id, dropoff_address_id, vehicle_id,
	pickup_window_start, pickup_window_end, special_instructions,
	total_inc_gst, deposit_required, balance_due, currency,
	tracking_token, source, internal_cost, internal_margin,
	deposit_paid_at, actual_pickup_at, actual_delivery_at,
	created_at, updated_at`

func (s *PgStore) Create(ctx context.Context, b *Booking) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20,
			$21, $22, $23,
			$24, $25
		)`,
		string(b.ID), b.Number, string(b.QuoteID), b.CustomerRef, string(b.Status), b.StatusVersion,
		string(b.PickupAddressID), string(b.DropoffAddressID), string(b.VehicleID),
		b.PickupWindowStart, b.PickupWindowEnd, b.SpecialInstructions,
		b.TotalIncGST, b.DepositRequired, b.BalanceDue, b.Currency,
		b.TrackingToken, b.Source, b.InternalCost, b.InternalMargin,
		b.DepositPaidAt, b.ActualPickupAt, b.ActualDeliveryAt,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return mapPgError(err)
	}

	for _, h := range b.History {
		if err := insertHistory(ctx, tx, b.ID, h); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PgStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.getWhere(ctx, "id = $1", string(id))
}

func (s *PgStore) GetByNumber(ctx context.Context, number string) (*Booking, error) {
	return s.getWhere(ctx, "number = $1", number)
}

func (s *PgStore) GetByTrackingToken(ctx context.Context, token string) (*Booking, error) {
	return s.getWhere(ctx, "tracking_token = $1", token)
}

func (s *PgStore) getWhere(ctx context.Context, where string, arg any) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE `+where, arg)
	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadHistory(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PgStore) List(ctx context.Context, filter ListFilter) ([]*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC LIMIT $1`
	args := []any{filter.Limit}
	if filter.Status != nil {
		query = `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $2 ORDER BY created_at DESC LIMIT $1`
		args = append(args, string(*filter.Status))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if err := s.loadHistory(ctx, b); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

// UpdateStatus applies the transition and the history append in one
// transaction so a crash can never separate them. The WHERE clause on
// (status, status_version) is the optimistic concurrency check; the
// COALESCE keeps the first pickup/delivery stamps idempotent.
func (s *PgStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, entry HistoryEntry) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    actual_pickup_at = CASE WHEN $1 = $5 THEN COALESCE(actual_pickup_at, $6) ELSE actual_pickup_at END,
		    actual_delivery_at = CASE WHEN $1 = $7 THEN COALESCE(actual_delivery_at, $6) ELSE actual_delivery_at END,
		    updated_at = $6
		WHERE id = $2 AND status = $3 AND status_version = $4`,
		string(to), string(id), string(from), version,
		string(StatusPickedUp), entry.CreatedAt, string(StatusDelivered),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if err := insertHistory(ctx, tx, id, entry); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (s *PgStore) SetDepositPaid(ctx context.Context, id types.ID, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET deposit_paid_at = COALESCE(deposit_paid_at, $1), updated_at = $1
		WHERE id = $2`,
		at, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) loadHistory(ctx context.Context, b *Booking) error {
	rows, err := s.db.Query(ctx, `
		SELECT status, note, actor, created_at
		FROM booking_history
		WHERE booking_id = $1
		ORDER BY id ASC`, string(b.ID),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	b.History = nil
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.Status, &h.Note, &h.Actor, &h.CreatedAt); err != nil {
			return err
		}
		b.History = append(b.History, h)
	}
	return rows.Err()
}

func insertHistory(ctx context.Context, tx pgx.Tx, bookingID types.ID, h HistoryEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO booking_history (booking_id, status, note, actor, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		string(bookingID), string(h.Status), h.Note, h.Actor, h.CreatedAt,
	)
	return err
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.Number, &b.QuoteID, &b.CustomerRef, &b.Status, &b.StatusVersion,
		&b.PickupAddressID, &b.DropoffAddressID, &b.VehicleID,
		&b.PickupWindowStart, &b.PickupWindowEnd, &b.SpecialInstructions,
		&b.TotalIncGST, &b.DepositRequired, &b.BalanceDue, &b.Currency,
		&b.TrackingToken, &b.Source, &b.InternalCost, &b.InternalMargin,
		&b.DepositPaidAt, &b.ActualPickupAt, &b.ActualDeliveryAt,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrConflict
	}
	return err
}
