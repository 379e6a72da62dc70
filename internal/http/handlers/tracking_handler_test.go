package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexttransport/internal/modules/booking"
	"nexttransport/internal/types"
)

// stubBookingStore serves a single booking; a non-nil err fails every
// lookup, standing in for an unreachable database.
type stubBookingStore struct {
	b   *booking.Booking
	err error
}

func (s *stubBookingStore) lookup(match bool) (*booking.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.b != nil && match {
		return s.b, nil
	}
	return nil, booking.ErrNotFound
}

func (s *stubBookingStore) Create(context.Context, *booking.Booking) error { return nil }

func (s *stubBookingStore) Get(_ context.Context, id types.ID) (*booking.Booking, error) {
	return s.lookup(s.b != nil && s.b.ID == id)
}

func (s *stubBookingStore) GetByNumber(_ context.Context, number string) (*booking.Booking, error) {
	return s.lookup(s.b != nil && s.b.Number == number)
}

func (s *stubBookingStore) GetByTrackingToken(_ context.Context, token string) (*booking.Booking, error) {
	return s.lookup(s.b != nil && s.b.TrackingToken == token)
}

func (s *stubBookingStore) List(context.Context, booking.ListFilter) ([]*booking.Booking, error) {
	return nil, nil
}

func (s *stubBookingStore) UpdateStatus(context.Context, types.ID, booking.Status, booking.Status, int, booking.HistoryEntry) (bool, error) {
	return true, nil
}

func (s *stubBookingStore) SetDepositPaid(context.Context, types.ID, time.Time) error {
	return nil
}

func trackingRouter(store booking.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTrackingHandler(booking.NewService(store, nil, nil, nil))
	r := gin.New()
	r.GET("/api/tracking/:ref", h.Get)
	return r
}

func trackedBooking() *booking.Booking {
	return &booking.Booking{
		ID:            "b1",
		Number:        "BK-20260829-0007",
		Status:        booking.StatusInTransit,
		TrackingToken: "5f2b9c41d8e3a67004b1c9d2e8f3a601",
		CreatedAt:     time.Now(),
	}
}

func TestTrackingHandler_Get(t *testing.T) {
	b := trackedBooking()
	router := trackingRouter(&stubBookingStore{b: b})

	for _, ref := range []string{b.Number, b.TrackingToken} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tracking/"+ref, nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, "lookup by %s", ref)
		assert.Contains(t, w.Body.String(), b.Number)
	}
}

func TestTrackingHandler_GetMissing(t *testing.T) {
	router := trackingRouter(&stubBookingStore{b: trackedBooking()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tracking/BK-19990101-9999", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
}

// A store failure is a server fault, not a missed lookup, and must not
// masquerade as a 404.
func TestTrackingHandler_GetStoreFailure(t *testing.T) {
	router := trackingRouter(&stubBookingStore{err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tracking/BK-20260829-0007", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "not found")
}
