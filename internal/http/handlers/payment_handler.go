package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nexttransport/internal/modules/booking"
	"nexttransport/internal/types"
)

// PaymentHandler receives payment-processor callbacks. The processor
// integration owns retries and signatures; only the two lifecycle
// events land here.
type PaymentHandler struct {
	bookings *booking.Service
}

func NewPaymentHandler(bookings *booking.Service) *PaymentHandler {
	return &PaymentHandler{bookings: bookings}
}

type paymentEventReq struct {
	BookingID string `json:"booking_id" binding:"required"`
	Event     string `json:"event" binding:"required,oneof=payment_succeeded payment_failed"`
	Method    string `json:"method" binding:"omitempty,oneof=full deposit"`
}

func (h *PaymentHandler) Event(c *gin.Context) {
	var req paymentEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	id := types.ID(req.BookingID)
	switch req.Event {
	case "payment_succeeded":
		b, err := h.bookings.PaymentSucceeded(c.Request.Context(), id, req.Method)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"number": b.Number, "status": b.Status})
	case "payment_failed":
		if err := h.bookings.PaymentFailed(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"recorded": true})
	}
}
