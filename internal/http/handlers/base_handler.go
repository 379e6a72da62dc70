// Package handlers maps the HTTP surface onto the lifecycle services.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nexttransport/internal/modules/assignment"
	"nexttransport/internal/modules/booking"
	"nexttransport/internal/modules/pricing"
	"nexttransport/internal/modules/quote"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// respondError translates domain sentinels to HTTP statuses. Conflicts
// are distinct from validation failures so callers know a retry can
// succeed.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidPostcode),
		errors.Is(err, pricing.ErrUnknownVehicleType),
		errors.Is(err, pricing.ErrUnknownTransportType),
		errors.Is(err, quote.ErrBadRequest),
		errors.Is(err, quote.ErrExpired),
		errors.Is(err, booking.ErrBadRequest),
		errors.Is(err, booking.ErrUnknownStatus),
		errors.Is(err, booking.ErrUnknownPayMethod),
		errors.Is(err, assignment.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, quote.ErrNotFound),
		errors.Is(err, booking.ErrNotFound),
		errors.Is(err, assignment.ErrNotFound):
		writeError(c, http.StatusNotFound, "not found")
	case errors.Is(err, booking.ErrConflict),
		errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, assignment.ErrConflict),
		errors.Is(err, assignment.ErrInvalidState):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
