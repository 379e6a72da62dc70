package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexttransport/internal/modules/pricing"
	"nexttransport/internal/modules/quote"
	"nexttransport/internal/notify"
	"nexttransport/internal/types"
)

// fakeStore mimics the persistence contract in memory, including the
// optimistic version check and the idempotent pickup/delivery stamps.
type fakeStore struct {
	bookings map[types.ID]*Booking
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: make(map[types.ID]*Booking)}
}

func (f *fakeStore) Create(_ context.Context, b *Booking) error {
	for _, existing := range f.bookings {
		if existing.Number == b.Number || existing.TrackingToken == b.TrackingToken {
			return ErrConflict
		}
		if existing.QuoteID == b.QuoteID {
			return ErrConflict
		}
	}
	cp := *b
	cp.History = append([]HistoryEntry(nil), b.History...)
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	cp.History = append([]HistoryEntry(nil), b.History...)
	return &cp, nil
}

func (f *fakeStore) GetByNumber(ctx context.Context, number string) (*Booking, error) {
	for id, b := range f.bookings {
		if b.Number == number {
			return f.Get(ctx, id)
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) GetByTrackingToken(ctx context.Context, token string) (*Booking, error) {
	for id, b := range f.bookings {
		if b.TrackingToken == token {
			return f.Get(ctx, id)
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) List(ctx context.Context, filter ListFilter) ([]*Booking, error) {
	var out []*Booking
	for id, b := range f.bookings {
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		cp, _ := f.Get(ctx, id)
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, entry HistoryEntry) (bool, error) {
	b, ok := f.bookings[id]
	if !ok {
		return false, ErrNotFound
	}
	if b.Status != from || b.StatusVersion != version {
		return false, nil
	}
	b.Status = to
	b.StatusVersion++
	if to == StatusPickedUp && b.ActualPickupAt == nil {
		at := entry.CreatedAt
		b.ActualPickupAt = &at
	}
	if to == StatusDelivered && b.ActualDeliveryAt == nil {
		at := entry.CreatedAt
		b.ActualDeliveryAt = &at
	}
	b.UpdatedAt = entry.CreatedAt
	b.History = append(b.History, entry)
	return true, nil
}

func (f *fakeStore) SetDepositPaid(_ context.Context, id types.ID, at time.Time) error {
	b, ok := f.bookings[id]
	if !ok {
		return ErrNotFound
	}
	if b.DepositPaidAt == nil {
		b.DepositPaidAt = &at
	}
	return nil
}

type fakeQuotes struct {
	quotes map[types.ID]*quote.Quote
}

func (f *fakeQuotes) GetValid(_ context.Context, id types.ID) (*quote.Quote, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, quote.ErrNotFound
	}
	return q, nil
}

type fakeSequencer struct{ n int }

func (f *fakeSequencer) Next(_ context.Context, prefix string) (string, error) {
	f.n++
	return fmt.Sprintf("%s-20260829-%04d", prefix, f.n), nil
}

type recordingNotifier struct {
	calls []notify.Kind
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, _ string, kind notify.Kind, _ map[string]any) error {
	r.calls = append(r.calls, kind)
	return r.err
}

func testQuote(id types.ID) *quote.Quote {
	return &quote.Quote{
		ID:               id,
		Number:           "QT-20260829-0001",
		CustomerRef:      "cust-1",
		PickupAddressID:  "addr-1",
		DropoffAddressID: "addr-2",
		VehicleID:        "veh-1",
		TransportType:    "open",
		SubtotalExGST:    300,
		GSTAmount:        30,
		TotalIncGST:      330,
		Currency:         "AUD",
		Breakdown: pricing.Result{
			BasePrice:     300,
			Subtotal:      300,
			GST:           30,
			TotalPrice:    330,
			DepositAmount: 50,
			BalanceAmount: 280,
			Currency:      "AUD",
		},
		ExpiresAt: time.Now().Add(quote.TTL),
		CreatedAt: time.Now(),
	}
}

func newTestService(store Store, notifier notify.Notifier) *Service {
	quotes := &fakeQuotes{quotes: map[types.ID]*quote.Quote{
		"q1": testQuote("q1"),
		"q2": testQuote("q2"),
	}}
	return NewService(store, quotes, &fakeSequencer{}, notifier)
}

func TestService_CreateFromQuote(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	b, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	require.NoError(t, err)

	assert.Equal(t, "BK-20260829-0001", b.Number)
	assert.Equal(t, StatusPendingPayment, b.Status)
	assert.Equal(t, int64(330), b.TotalIncGST)
	assert.Equal(t, int64(50), b.DepositRequired)
	assert.Equal(t, int64(280), b.BalanceDue)
	assert.Equal(t, b.TotalIncGST, b.DepositRequired+b.BalanceDue)
	assert.Len(t, b.TrackingToken, 32)
	assert.NotContains(t, b.TrackingToken, b.Number)

	// quote_created entry plus the immediate advance to pending payment
	require.Len(t, b.History, 2)
	assert.Equal(t, StatusQuoteCreated, b.History[0].Status)
	assert.Equal(t, StatusPendingPayment, b.History[1].Status)

	// creation notifies twice: once for the transition, once for creation
	assert.Contains(t, notifier.calls, notify.KindBookingCreated)
	assert.Contains(t, notifier.calls, notify.KindStatusChanged)
}

func TestService_CreateFromQuoteUnknownQuote(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	_, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "nope"})
	assert.ErrorIs(t, err, quote.ErrNotFound)
}

func TestService_TrackingTokensDiffer(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	first, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	require.NoError(t, err)
	second, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q2"})
	require.NoError(t, err)

	assert.NotEqual(t, first.TrackingToken, second.TrackingToken)
	assert.NotEqual(t, first.Number, second.Number)
}

func TestService_CreateFromQuoteOnlyOnce(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	_, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	require.NoError(t, err)

	// The unique index on quote_id rejects a second conversion.
	_, err = svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestService_TransitionAppendsHistory(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	b, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	require.NoError(t, err)

	before := len(b.History)
	updated, err := svc.Transition(context.Background(), b.ID, StatusConfirmed, "admin", "paid by bank transfer")
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, updated.Status)
	require.Len(t, updated.History, before+1)
	last := updated.History[len(updated.History)-1]
	assert.Equal(t, StatusConfirmed, last.Status)
	assert.Equal(t, "admin", last.Actor)
	assert.Equal(t, "paid by bank transfer", last.Note)
}

func TestService_TransitionRejected(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	b, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	require.NoError(t, err)

	// pending payment cannot jump straight to in_transit
	_, err = svc.Transition(context.Background(), b.ID, StatusInTransit, "admin", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, got.Status)
	assert.Len(t, got.History, len(b.History), "failed transition must not append history")
}

func TestService_TerminalStateLocked(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	b, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), b.ID, StatusCancelled, "admin", "customer withdrew")
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), b.ID, StatusPendingPayment, "admin", "oops")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestService_PickupAndDeliveryStampsIdempotent(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	b, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	require.NoError(t, err)

	ctx := context.Background()
	steps := []Status{
		StatusConfirmed, StatusAwaitingAssignment, StatusDriverAssigned,
		StatusDriverEnRoute, StatusPickedUp,
	}
	for _, next := range steps {
		_, err = svc.Transition(ctx, b.ID, next, "admin", "")
		require.NoError(t, err, "transition to %s", next)
	}

	got, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActualPickupAt)
	firstPickup := *got.ActualPickupAt

	// Detour through failed_delivery and back to picked_up: the original
	// stamp must survive.
	_, err = svc.Transition(ctx, b.ID, StatusFailedDelivery, "admin", "receiver absent")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, b.ID, StatusPickedUp, "admin", "retry")
	require.NoError(t, err)

	got, err = svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActualPickupAt)
	assert.Equal(t, firstPickup, *got.ActualPickupAt)
	assert.Nil(t, got.ActualDeliveryAt)

	for _, next := range []Status{StatusInDepot, StatusInTransit, StatusDelivered} {
		_, err = svc.Transition(ctx, b.ID, next, "admin", "")
		require.NoError(t, err)
	}
	got, err = svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ActualDeliveryAt)
}

func TestService_PaymentFlow(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	b, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	require.NoError(t, err)

	// Deposit payment: status unchanged, deposit stamped, no history entry.
	got, err := svc.PaymentSucceeded(context.Background(), b.ID, "deposit")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, got.Status)
	assert.NotNil(t, got.DepositPaidAt)
	assert.Len(t, got.History, len(b.History))

	// Payment failure: still no movement.
	require.NoError(t, svc.PaymentFailed(context.Background(), b.ID))
	got, err = svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingPayment, got.Status)

	// Balance payment clears the booking.
	got, err = svc.PaymentSucceeded(context.Background(), b.ID, "full")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)

	_, err = svc.PaymentSucceeded(context.Background(), b.ID, "bitcoin")
	assert.ErrorIs(t, err, ErrUnknownPayMethod)
}

func TestService_NotifierFailureDoesNotBlockTransition(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	svc := newTestService(newFakeStore(), notifier)

	b, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	require.NoError(t, err)

	updated, err := svc.Transition(context.Background(), b.ID, StatusConfirmed, "payment", "")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
	assert.NotEmpty(t, notifier.calls)
}

func TestService_Track(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	b, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	require.NoError(t, err)

	byNumber, err := svc.Track(context.Background(), b.Number)
	require.NoError(t, err)
	assert.Equal(t, b.Number, byNumber.Number)

	byToken, err := svc.Track(context.Background(), b.TrackingToken)
	require.NoError(t, err)
	assert.Equal(t, b.Number, byToken.Number)

	_, err = svc.Track(context.Background(), "BK-19990101-9999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ConcurrentTransitionLosesVersionCheck(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)
	b, err := svc.CreateFromQuote(context.Background(), CreateCommand{QuoteID: "q1"})
	require.NoError(t, err)

	// Simulate a writer that committed between our read and our update.
	stale := b.StatusVersion
	ok, err := store.UpdateStatus(context.Background(), b.ID, StatusPendingPayment, StatusConfirmed, stale,
		HistoryEntry{Status: StatusConfirmed, Actor: "payment", CreatedAt: time.Now()})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.UpdateStatus(context.Background(), b.ID, StatusPendingPayment, StatusCancelled, stale,
		HistoryEntry{Status: StatusCancelled, Actor: "admin", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, ok, "stale writer must lose the optimistic check")
}
