package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nexttransport/internal/modules/quote"
	"nexttransport/internal/modules/registry"
	"nexttransport/internal/types"
)

type QuoteHandler struct {
	quotes *quote.Service
}

func NewQuoteHandler(quotes *quote.Service) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

type addressReq struct {
	Line1    string `json:"line1"`
	Suburb   string `json:"suburb" binding:"required"`
	Postcode string `json:"postcode" binding:"required"`
	State    string `json:"state" binding:"required"`
}

type vehicleReq struct {
	Type          string `json:"type" binding:"required"`
	Make          string `json:"make"`
	Model         string `json:"model"`
	Year          int    `json:"year"`
	TransportType string `json:"transport_type" binding:"required,oneof=open enclosed"`
	IsRunning     *bool  `json:"is_running" binding:"required"`
}

type createQuoteReq struct {
	CustomerRef         string          `json:"customer_ref"`
	Pickup              addressReq      `json:"pickup" binding:"required"`
	Dropoff             addressReq      `json:"dropoff" binding:"required"`
	Vehicle             vehicleReq      `json:"vehicle" binding:"required"`
	PreferredPickupDate time.Time       `json:"preferred_pickup_date"`
	AddOns              map[string]bool `json:"add_ons"`
	Source              string          `json:"source" binding:"omitempty,oneof=web admin"`
}

type quoteResp struct {
	ID                         types.ID  `json:"id"`
	Number                     string    `json:"number"`
	DistanceKm                 float64   `json:"distance_km"`
	SubtotalExGST              int64     `json:"subtotal_ex_gst"`
	GSTAmount                  int64     `json:"gst_amount"`
	TotalIncGST                int64     `json:"total_inc_gst"`
	DepositRequired            int64     `json:"deposit_required"`
	BalanceDue                 int64     `json:"balance_due"`
	Currency                   string    `json:"currency"`
	EstimatedPickupWindow      string    `json:"estimated_pickup_window"`
	EstimatedDeliveryTimeframe string    `json:"estimated_delivery_timeframe"`
	ExpiresAt                  time.Time `json:"expires_at"`
}

func toQuoteResp(q *quote.Quote) quoteResp {
	return quoteResp{
		ID:                         q.ID,
		Number:                     q.Number,
		DistanceKm:                 q.DistanceKm,
		SubtotalExGST:              q.SubtotalExGST,
		GSTAmount:                  q.GSTAmount,
		TotalIncGST:                q.TotalIncGST,
		DepositRequired:            q.Breakdown.DepositAmount,
		BalanceDue:                 q.Breakdown.BalanceAmount,
		Currency:                   q.Currency,
		EstimatedPickupWindow:      q.Breakdown.EstimatedPickupWindow,
		EstimatedDeliveryTimeframe: q.Breakdown.EstimatedDeliveryTimeframe,
		ExpiresAt:                  q.ExpiresAt,
	}
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req createQuoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	q, err := h.quotes.Create(c.Request.Context(), quote.CreateCommand{
		CustomerRef: req.CustomerRef,
		Pickup: registry.AddressInput{
			Line1: req.Pickup.Line1, Suburb: req.Pickup.Suburb,
			Postcode: req.Pickup.Postcode, State: req.Pickup.State,
		},
		Dropoff: registry.AddressInput{
			Line1: req.Dropoff.Line1, Suburb: req.Dropoff.Suburb,
			Postcode: req.Dropoff.Postcode, State: req.Dropoff.State,
		},
		Vehicle: registry.VehicleInput{
			Type: req.Vehicle.Type, Make: req.Vehicle.Make, Model: req.Vehicle.Model,
			Year: req.Vehicle.Year, TransportType: req.Vehicle.TransportType,
			IsRunning: *req.Vehicle.IsRunning,
		},
		PreferredPickupDate: req.PreferredPickupDate,
		AddOns:              req.AddOns,
		Source:              req.Source,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toQuoteResp(q))
}

func (h *QuoteHandler) Get(c *gin.Context) {
	q, err := h.quotes.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toQuoteResp(q))
}
