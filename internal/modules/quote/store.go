package quote

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"nexttransport/internal/modules/pricing"
	"nexttransport/internal/types"
)

type PgStore struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Create(ctx context.Context, q *Quote) error {
	breakdown, err := json.Marshal(q.Breakdown)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO quotes (
			id, number, customer_ref,
			pickup_address_id, dropoff_address_id, vehicle_id,
			preferred_pickup_date, transport_type, distance_km,
			subtotal_ex_gst, gst_amount, total_inc_gst, currency,
			breakdown, source, expires_at, created_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17
		)`,
		string(q.ID), q.Number, q.CustomerRef,
		string(q.PickupAddressID), string(q.DropoffAddressID), string(q.VehicleID),
		q.PreferredPickupDate, q.TransportType, q.DistanceKm,
		q.SubtotalExGST, q.GSTAmount, q.TotalIncGST, q.Currency,
		breakdown, q.Source, q.ExpiresAt, q.CreatedAt,
	)
	return err
}

func (s *PgStore) Get(ctx context.Context, id types.ID) (*Quote, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, number, customer_ref,
		       pickup_address_id, dropoff_address_id, vehicle_id,
		       preferred_pickup_date, transport_type, distance_km,
		       subtotal_ex_gst, gst_amount, total_inc_gst, currency,
		       breakdown, source, expires_at, created_at
		FROM quotes
		WHERE id = $1`, string(id),
	)
	return scanQuote(row)
}

func (s *PgStore) ListRecent(ctx context.Context, limit int) ([]*Quote, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, number, customer_ref,
		       pickup_address_id, dropoff_address_id, vehicle_id,
		       preferred_pickup_date, transport_type, distance_km,
		       subtotal_ex_gst, gst_amount, total_inc_gst, currency,
		       breakdown, source, expires_at, created_at
		FROM quotes
		ORDER BY created_at DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []*Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// DeleteExpired reclaims lapsed quotes. Quotes already converted into a
// booking are kept so the booking's price snapshot stays traceable.
func (s *PgStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM quotes
		WHERE expires_at < $1
		  AND id NOT IN (SELECT quote_id FROM bookings)`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	var breakdown []byte
	err := row.Scan(
		&q.ID, &q.Number, &q.CustomerRef,
		&q.PickupAddressID, &q.DropoffAddressID, &q.VehicleID,
		&q.PreferredPickupDate, &q.TransportType, &q.DistanceKm,
		&q.SubtotalExGST, &q.GSTAmount, &q.TotalIncGST, &q.Currency,
		&breakdown, &q.Source, &q.ExpiresAt, &q.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(breakdown, &q.Breakdown); err != nil {
		// A corrupt snapshot must not hide the quote itself.
		q.Breakdown = pricing.Result{}
	}
	return &q, nil
}
