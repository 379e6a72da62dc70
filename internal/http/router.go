// Package http wires the gin router over the lifecycle services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nexttransport/internal/http/handlers"
	"nexttransport/internal/http/middleware"
	"nexttransport/internal/modules/assignment"
	"nexttransport/internal/modules/booking"
	"nexttransport/internal/modules/quote"
)

type RouterDeps struct {
	Quotes      *quote.Service
	Bookings    *booking.Service
	Assignments *assignment.Service
	AdminToken  string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	quoteHandler := handlers.NewQuoteHandler(deps.Quotes)
	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	paymentHandler := handlers.NewPaymentHandler(deps.Bookings)
	trackingHandler := handlers.NewTrackingHandler(deps.Bookings)
	driverHandler := handlers.NewDriverHandler(deps.Assignments)
	adminHandler := handlers.NewAdminHandler(deps.Bookings, deps.Quotes, deps.Assignments)

	api := r.Group("/api")
	{
		api.POST("/quotes", quoteHandler.Create)
		api.GET("/quotes/:id", quoteHandler.Get)

		api.POST("/bookings", bookingHandler.Create)
		api.GET("/tracking/:ref", trackingHandler.Get)

		api.POST("/payments/events", paymentHandler.Event)

		api.POST("/driver/assignments/:id/respond", driverHandler.Respond)
	}

	admin := api.Group("/admin", middleware.AdminAuth(deps.AdminToken))
	{
		admin.GET("/bookings", adminHandler.ListBookings)
		admin.POST("/bookings/:id/status", adminHandler.UpdateBookingStatus)
		admin.POST("/bookings/:id/assignments", adminHandler.AssignDriver)
		admin.GET("/bookings/:id/assignments", adminHandler.ListAssignments)
		admin.POST("/assignments/:id/cancel", adminHandler.CancelAssignment)
		admin.GET("/quotes", adminHandler.ListQuotes)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
