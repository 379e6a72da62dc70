package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"nexttransport/internal/modules/quote"
	"nexttransport/internal/notify"
	"nexttransport/internal/types"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrConflict          = errors.New("booking state conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownStatus     = errors.New("unknown booking status")
	ErrBadRequest        = errors.New("bad booking request")
	ErrUnknownPayMethod  = errors.New("unknown payment method")
)

// Store persists bookings. Create must fail with ErrConflict when the
// quote is already referenced by a booking (quote_id is unique).
// UpdateStatus must atomically set the new status, bump the version,
// append the history entry, and stamp the actual pickup/delivery
// timestamp the first time those statuses are reached; it reports false
// when the optimistic version check fails.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	GetByNumber(ctx context.Context, number string) (*Booking, error)
	GetByTrackingToken(ctx context.Context, token string) (*Booking, error)
	List(ctx context.Context, filter ListFilter) ([]*Booking, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, entry HistoryEntry) (bool, error)
	SetDepositPaid(ctx context.Context, id types.ID, at time.Time) error
}

// Quotes is the slice of the quote module the booking lifecycle needs.
type Quotes interface {
	GetValid(ctx context.Context, id types.ID) (*quote.Quote, error)
}

type Sequencer interface {
	Next(ctx context.Context, prefix string) (string, error)
}

type ListFilter struct {
	Status *Status
	Limit  int
}

type Service struct {
	store    Store
	quotes   Quotes
	seq      Sequencer
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(store Store, quotes Quotes, seq Sequencer, notifier notify.Notifier) *Service {
	return &Service{store: store, quotes: quotes, seq: seq, notifier: notifier, now: time.Now}
}

type CreateCommand struct {
	QuoteID             types.ID
	CustomerRef         string
	PickupWindowStart   time.Time
	PickupWindowEnd     time.Time
	SpecialInstructions string
	Source              string
}

// CreateFromQuote converts a valid quote into a booking. Price fields
// are copied verbatim from the quoted breakdown; nothing is recomputed.
// A quote converts at most once; a second attempt fails with ErrConflict.
// The booking is written at quote_created and then advanced through the
// normal transition path to booking_pending_payment.
func (s *Service) CreateFromQuote(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if cmd.QuoteID == "" {
		return nil, ErrBadRequest
	}
	if cmd.Source == "" {
		cmd.Source = "nexttransport"
	}

	q, err := s.quotes.GetValid(ctx, cmd.QuoteID)
	if err != nil {
		return nil, err
	}

	number, err := s.seq.Next(ctx, "BK")
	if err != nil {
		return nil, err
	}

	customer := cmd.CustomerRef
	if customer == "" {
		customer = q.CustomerRef
	}

	now := s.now()
	b := &Booking{
		ID:                  types.ID(uuid.NewString()),
		Number:              number,
		QuoteID:             q.ID,
		CustomerRef:         customer,
		Status:              StatusQuoteCreated,
		StatusVersion:       0,
		PickupAddressID:     q.PickupAddressID,
		DropoffAddressID:    q.DropoffAddressID,
		VehicleID:           q.VehicleID,
		PickupWindowStart:   cmd.PickupWindowStart,
		PickupWindowEnd:     cmd.PickupWindowEnd,
		SpecialInstructions: cmd.SpecialInstructions,
		TotalIncGST:         q.TotalIncGST,
		DepositRequired:     q.Breakdown.DepositAmount,
		BalanceDue:          q.Breakdown.BalanceAmount,
		Currency:            q.Currency,
		TrackingToken:       newTrackingToken(),
		Source:              cmd.Source,
		CreatedAt:           now,
		UpdatedAt:           now,
		History: []HistoryEntry{
			{Status: StatusQuoteCreated, Note: "booking created from quote " + q.Number, Actor: "system", CreatedAt: now},
		},
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}

	updated, err := s.Transition(ctx, b.ID, StatusPendingPayment, "system", "awaiting payment")
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, updated, notify.KindBookingCreated)
	return updated, nil
}

// Transition moves a booking to a new status. Disallowed moves are
// rejected against the transition table; concurrent writers lose on the
// version check and get ErrConflict so they can re-read and retry.
func (s *Service) Transition(ctx context.Context, id types.ID, to Status, actor, note string) (*Booking, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, to) {
		return nil, ErrInvalidTransition
	}

	entry := HistoryEntry{Status: to, Note: note, Actor: actor, CreatedAt: s.now()}
	ok, err := s.store.UpdateStatus(ctx, b.ID, b.Status, to, b.StatusVersion, entry)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	updated, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, updated, notify.KindStatusChanged)
	return updated, nil
}

// PaymentSucceeded reacts to a successful payment event. A full (or
// balance-clearing) payment confirms the booking; a deposit-only payment
// stamps the deposit and leaves the status untouched.
func (s *Service) PaymentSucceeded(ctx context.Context, id types.ID, method string) (*Booking, error) {
	switch method {
	case "full":
		return s.Transition(ctx, id, StatusConfirmed, "payment", "payment received in full")
	case "deposit":
		b, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.store.SetDepositPaid(ctx, b.ID, s.now()); err != nil {
			return nil, err
		}
		return s.store.Get(ctx, id)
	default:
		return nil, ErrUnknownPayMethod
	}
}

// PaymentFailed records the failure for operator follow-up. The booking
// keeps its current status.
func (s *Service) PaymentFailed(ctx context.Context, id types.ID) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	log.Printf("payment failed for booking %s (status %s)", b.Number, b.Status)
	return nil
}

// Track serves the public tracking lookup. The reference may be a
// booking number or a tracking token; the error does not say which
// lookup missed.
func (s *Service) Track(ctx context.Context, ref string) (PublicView, error) {
	b, err := s.store.GetByNumber(ctx, ref)
	if errors.Is(err, ErrNotFound) {
		b, err = s.store.GetByTrackingToken(ctx, ref)
	}
	if err != nil {
		return PublicView{}, err
	}
	return b.PublicView(), nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Booking, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.store.List(ctx, filter)
}

// dispatch sends a customer notification. Failures are logged and
// swallowed: notification must never affect a committed transition.
func (s *Service) dispatch(ctx context.Context, b *Booking, kind notify.Kind) {
	if s.notifier == nil {
		return
	}
	payload := map[string]any{
		"booking_number": b.Number,
		"status":         string(b.Status),
		"tracking_token": b.TrackingToken,
	}
	if err := s.notifier.Notify(ctx, b.CustomerRef, kind, payload); err != nil {
		log.Printf("notify %s for booking %s: %v", kind, b.Number, err)
	}
}

// newTrackingToken returns a 32-char random hex token.
func newTrackingToken() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
