package quote

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"nexttransport/internal/modules/pricing"
	"nexttransport/internal/modules/registry"
	"nexttransport/internal/types"
)

var (
	ErrNotFound   = errors.New("quote not found")
	ErrExpired    = errors.New("quote expired")
	ErrBadRequest = errors.New("bad quote request")
)

type Store interface {
	Create(ctx context.Context, q *Quote) error
	Get(ctx context.Context, id types.ID) (*Quote, error)
	ListRecent(ctx context.Context, limit int) ([]*Quote, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Resolver deduplicates raw address/vehicle payloads into canonical rows.
type Resolver interface {
	ResolveAddress(ctx context.Context, in registry.AddressInput) (types.ID, error)
	ResolveVehicle(ctx context.Context, in registry.VehicleInput) (types.ID, error)
}

// Sequencer issues day-scoped reference numbers.
type Sequencer interface {
	Next(ctx context.Context, prefix string) (string, error)
}

type Service struct {
	store    Store
	engine   *pricing.Engine
	resolver Resolver
	seq      Sequencer
	now      func() time.Time
}

func NewService(store Store, engine *pricing.Engine, resolver Resolver, seq Sequencer) *Service {
	return &Service{store: store, engine: engine, resolver: resolver, seq: seq, now: time.Now}
}

type CreateCommand struct {
	CustomerRef         string
	Pickup              registry.AddressInput
	Dropoff             registry.AddressInput
	Vehicle             registry.VehicleInput
	PreferredPickupDate time.Time
	AddOns              map[string]bool
	Source              string
}

// Create prices the request and persists the offer. The breakdown is
// stored as-is so a later booking freezes exactly what was quoted.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Quote, error) {
	if cmd.Pickup.Postcode == "" || cmd.Dropoff.Postcode == "" || cmd.Vehicle.Type == "" {
		return nil, ErrBadRequest
	}
	if cmd.Source == "" {
		cmd.Source = "web"
	}

	result, err := s.engine.Calculate(ctx, pricing.Input{
		PickupPostcode:   cmd.Pickup.Postcode,
		DeliveryPostcode: cmd.Dropoff.Postcode,
		VehicleType:      pricing.VehicleType(cmd.Vehicle.Type),
		IsRunning:        cmd.Vehicle.IsRunning,
		TransportType:    pricing.TransportType(cmd.Vehicle.TransportType),
		AddOns:           cmd.AddOns,
	})
	if err != nil {
		return nil, err
	}

	pickupID, err := s.resolver.ResolveAddress(ctx, cmd.Pickup)
	if err != nil {
		return nil, err
	}
	dropoffID, err := s.resolver.ResolveAddress(ctx, cmd.Dropoff)
	if err != nil {
		return nil, err
	}
	vehicleID, err := s.resolver.ResolveVehicle(ctx, cmd.Vehicle)
	if err != nil {
		return nil, err
	}

	number, err := s.seq.Next(ctx, "QT")
	if err != nil {
		return nil, err
	}

	now := s.now()
	q := &Quote{
		ID:                  types.ID(uuid.NewString()),
		Number:              number,
		CustomerRef:         cmd.CustomerRef,
		PickupAddressID:     pickupID,
		DropoffAddressID:    dropoffID,
		VehicleID:           vehicleID,
		PreferredPickupDate: cmd.PreferredPickupDate,
		TransportType:       cmd.Vehicle.TransportType,
		DistanceKm:          result.DistanceKm,
		SubtotalExGST:       result.Subtotal,
		GSTAmount:           result.GST,
		TotalIncGST:         result.TotalPrice,
		Currency:            result.Currency,
		Breakdown:           result,
		Source:              cmd.Source,
		ExpiresAt:           now.Add(TTL),
		CreatedAt:           now,
	}
	if err := s.store.Create(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Quote, error) {
	return s.store.Get(ctx, id)
}

// GetValid fetches a quote and rejects it if the offer has lapsed.
// Expiry is evaluated at read time; the sweeper only reclaims storage.
func (s *Service) GetValid(ctx context.Context, id types.ID) (*Quote, error) {
	q, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Expired(s.now()) {
		return nil, ErrExpired
	}
	return q, nil
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]*Quote, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListRecent(ctx, limit)
}

// RunExpirySweeper deletes lapsed quotes on a fixed cadence until the
// context is cancelled.
func (s *Service) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.DeleteExpired(ctx, s.now())
			if err != nil {
				log.Printf("quote expiry sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("quote expiry sweep removed %d quotes", n)
			}
		}
	}
}
