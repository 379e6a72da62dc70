package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nexttransport/internal/modules/booking"
)

// TrackingHandler serves the unauthenticated tracking lookup. The
// response is the public projection only; lookups that fail return a
// uniform "not found" so references cannot be enumerated.
type TrackingHandler struct {
	bookings *booking.Service
}

func NewTrackingHandler(bookings *booking.Service) *TrackingHandler {
	return &TrackingHandler{bookings: bookings}
}

func (h *TrackingHandler) Get(c *gin.Context) {
	view, err := h.bookings.Track(c.Request.Context(), c.Param("ref"))
	if errors.Is(err, booking.ErrNotFound) {
		// Same body for a missing and a malformed reference.
		writeError(c, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
