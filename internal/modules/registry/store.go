package registry

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"nexttransport/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// ResolveAddress returns the id of the address matching (suburb,
// postcode, state) exactly, inserting it first if absent. The upsert
// rides on the unique index so two concurrent resolvers converge on
// one row.
func (s *Store) ResolveAddress(ctx context.Context, in AddressInput) (types.ID, error) {
	var id string
	err := s.db.QueryRow(ctx, `
		INSERT INTO addresses (id, line1, suburb, postcode, state)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (suburb, postcode, state)
		DO UPDATE SET suburb = EXCLUDED.suburb
		RETURNING id`,
		uuid.NewString(), in.Line1, in.Suburb, in.Postcode, in.State,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return types.ID(id), nil
}

// ResolveVehicle is the vehicle counterpart of ResolveAddress, keyed on
// (type, make, model, year, transport_type, is_running).
func (s *Store) ResolveVehicle(ctx context.Context, in VehicleInput) (types.ID, error) {
	var id string
	err := s.db.QueryRow(ctx, `
		INSERT INTO vehicles (id, type, make, model, year, transport_type, is_running)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (type, make, model, year, transport_type, is_running)
		DO UPDATE SET type = EXCLUDED.type
		RETURNING id`,
		uuid.NewString(), in.Type, in.Make, in.Model, in.Year, in.TransportType, in.IsRunning,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return types.ID(id), nil
}
