package assignment

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"nexttransport/internal/modules/booking"
	"nexttransport/internal/types"
)

var (
	ErrNotFound     = errors.New("assignment not found")
	ErrConflict     = errors.New("booking already has an active assignment")
	ErrInvalidState = errors.New("invalid assignment state")
	ErrBadRequest   = errors.New("bad assignment request")
)

// Store persists assignments. Create must fail with ErrConflict when an
// active assignment already exists for the booking (the partial unique
// index makes this safe under concurrency).
type Store interface {
	Create(ctx context.Context, a *Assignment) error
	Get(ctx context.Context, id types.ID) (*Assignment, error)
	ListByBooking(ctx context.Context, bookingID types.ID) ([]*Assignment, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, at time.Time) (bool, error)
}

// Bookings is the slice of the booking lifecycle this module drives.
type Bookings interface {
	Get(ctx context.Context, id types.ID) (*booking.Booking, error)
	Transition(ctx context.Context, id types.ID, to booking.Status, actor, note string) (*booking.Booking, error)
}

type Service struct {
	store    Store
	bookings Bookings
	now      func() time.Time
}

func NewService(store Store, bookings Bookings) *Service {
	return &Service{store: store, bookings: bookings, now: time.Now}
}

type AssignCommand struct {
	BookingID  types.ID
	DriverID   types.ID
	CarrierRef *string
	AssignedBy types.ID
}

// Assign creates a new active assignment and pushes the booking toward
// driver_assigned. The booking-side transition is a business rule, not
// an invariant: if the booking is not in a state that can accept it the
// assignment still stands and the mismatch is logged for the operator.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*Assignment, error) {
	if cmd.BookingID == "" || cmd.DriverID == "" {
		return nil, ErrBadRequest
	}
	if _, err := s.bookings.Get(ctx, cmd.BookingID); err != nil {
		return nil, err
	}

	a := &Assignment{
		ID:         types.ID(uuid.NewString()),
		BookingID:  cmd.BookingID,
		CarrierRef: cmd.CarrierRef,
		DriverID:   cmd.DriverID,
		AssignedBy: cmd.AssignedBy,
		AssignedAt: s.now(),
		Status:     StatusAssigned,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}

	if _, err := s.bookings.Transition(ctx, cmd.BookingID, booking.StatusDriverAssigned, "admin", "driver assigned"); err != nil {
		log.Printf("assignment %s created but booking %s not moved to driver_assigned: %v", a.ID, cmd.BookingID, err)
	}
	return a, nil
}

type RespondCommand struct {
	AssignmentID types.ID
	DriverID     types.ID
	Accept       bool
}

// Respond records the driver's accept or reject. Rejection frees the
// booking for re-assignment but does not create a replacement.
func (s *Service) Respond(ctx context.Context, cmd RespondCommand) (*Assignment, error) {
	a, err := s.store.Get(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}
	if a.DriverID != cmd.DriverID {
		return nil, ErrBadRequest
	}
	if a.Status != StatusAssigned {
		return nil, ErrInvalidState
	}

	to := StatusAccepted
	if !cmd.Accept {
		to = StatusRejected
	}
	now := s.now()
	ok, err := s.store.UpdateStatus(ctx, a.ID, StatusAssigned, to, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	if !cmd.Accept {
		if _, err := s.bookings.Transition(ctx, a.BookingID, booking.StatusAwaitingAssignment, "driver", "assignment rejected"); err != nil {
			log.Printf("assignment %s rejected but booking %s not re-opened: %v", a.ID, a.BookingID, err)
		}
	}
	return s.store.Get(ctx, a.ID)
}

type CancelCommand struct {
	AssignmentID types.ID
	CancelledBy  types.ID
}

// Cancel withdraws an active assignment, freeing the booking for a new
// one.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*Assignment, error) {
	a, err := s.store.Get(ctx, cmd.AssignmentID)
	if err != nil {
		return nil, err
	}
	if !Active(a.Status) {
		return nil, ErrInvalidState
	}

	ok, err := s.store.UpdateStatus(ctx, a.ID, a.Status, StatusCancelled, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	note := "assignment cancelled"
	if cmd.CancelledBy != "" {
		note = "assignment cancelled by " + string(cmd.CancelledBy)
	}
	if _, err := s.bookings.Transition(ctx, a.BookingID, booking.StatusAwaitingAssignment, "admin", note); err != nil {
		log.Printf("assignment %s cancelled but booking %s not re-opened: %v", a.ID, a.BookingID, err)
	}
	return s.store.Get(ctx, a.ID)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Assignment, error) {
	return s.store.Get(ctx, id)
}

// ListViews returns outward-safe projections for a booking's assignment
// history. Internal callers needing carrier detail use the store
// directly inside this package.
func (s *Service) ListViews(ctx context.Context, bookingID types.ID) ([]View, error) {
	assignments, err := s.store.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	views := make([]View, len(assignments))
	for i, a := range assignments {
		views[i] = a.View()
	}
	return views, nil
}
