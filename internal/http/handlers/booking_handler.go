package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nexttransport/internal/modules/booking"
	"nexttransport/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
}

func NewBookingHandler(bookings *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type createBookingReq struct {
	QuoteID             string    `json:"quote_id" binding:"required"`
	CustomerRef         string    `json:"customer_ref"`
	PickupWindowStart   time.Time `json:"pickup_window_start" binding:"required"`
	PickupWindowEnd     time.Time `json:"pickup_window_end" binding:"required"`
	SpecialInstructions string    `json:"special_instructions"`
	Source              string    `json:"source" binding:"omitempty,oneof=nexttransport intraffic dealer fleet"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.bookings.CreateFromQuote(c.Request.Context(), booking.CreateCommand{
		QuoteID:             types.ID(req.QuoteID),
		CustomerRef:         req.CustomerRef,
		PickupWindowStart:   req.PickupWindowStart,
		PickupWindowEnd:     req.PickupWindowEnd,
		SpecialInstructions: req.SpecialInstructions,
		Source:              req.Source,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":             b.ID,
		"number":         b.Number,
		"status":         b.Status,
		"total_inc_gst":  b.TotalIncGST,
		"deposit":        b.DepositRequired,
		"balance":        b.BalanceDue,
		"currency":       b.Currency,
		"tracking_token": b.TrackingToken,
	})
}
