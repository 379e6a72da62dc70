package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nexttransport/internal/modules/assignment"
	"nexttransport/internal/modules/booking"
	"nexttransport/internal/modules/quote"
	"nexttransport/internal/types"
)

// AdminHandler serves the operator dashboard. Everything it returns
// goes through the admin projections: internal cost, margin and
// carrier identity never appear here.
type AdminHandler struct {
	bookings    *booking.Service
	quotes      *quote.Service
	assignments *assignment.Service
}

func NewAdminHandler(bookings *booking.Service, quotes *quote.Service, assignments *assignment.Service) *AdminHandler {
	return &AdminHandler{bookings: bookings, quotes: quotes, assignments: assignments}
}

func (h *AdminHandler) ListBookings(c *gin.Context) {
	filter := booking.ListFilter{}
	if raw := c.Query("status"); raw != "" {
		status, err := booking.ParseStatus(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}

	bookings, err := h.bookings.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]booking.AdminView, len(bookings))
	for i, b := range bookings {
		views[i] = b.AdminView()
	}
	c.JSON(http.StatusOK, gin.H{"bookings": views})
}

func (h *AdminHandler) ListQuotes(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	quotes, err := h.quotes.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]quoteResp, len(quotes))
	for i, q := range quotes {
		out[i] = toQuoteResp(q)
	}
	c.JSON(http.StatusOK, gin.H{"quotes": out})
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

func (h *AdminHandler) UpdateBookingStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	status, err := booking.ParseStatus(req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	b, err := h.bookings.Transition(c.Request.Context(), types.ID(c.Param("id")), status, "admin", req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b.AdminView())
}

type assignDriverReq struct {
	DriverID   string  `json:"driver_id" binding:"required"`
	CarrierRef *string `json:"carrier_ref"`
	AssignedBy string  `json:"assigned_by" binding:"required"`
}

func (h *AdminHandler) AssignDriver(c *gin.Context) {
	var req assignDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.assignments.Assign(c.Request.Context(), assignment.AssignCommand{
		BookingID:  types.ID(c.Param("id")),
		DriverID:   types.ID(req.DriverID),
		CarrierRef: req.CarrierRef,
		AssignedBy: types.ID(req.AssignedBy),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a.View())
}

func (h *AdminHandler) ListAssignments(c *gin.Context) {
	views, err := h.assignments.ListViews(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": views})
}

type cancelAssignmentReq struct {
	CancelledBy string `json:"cancelled_by" binding:"required"`
}

func (h *AdminHandler) CancelAssignment(c *gin.Context) {
	var req cancelAssignmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.assignments.Cancel(c.Request.Context(), assignment.CancelCommand{
		AssignmentID: types.ID(c.Param("id")),
		CancelledBy:  types.ID(req.CancelledBy),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.View())
}
