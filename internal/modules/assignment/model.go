// Package assignment binds drivers to bookings. A booking can have at
// most one assignment in an active status at a time; the database
// enforces this with a partial unique index, not application logic.
package assignment

import (
	"time"

	"nexttransport/internal/types"
)

type Status string

const (
	StatusAssigned  Status = "assigned"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Active reports whether the status counts against the one-active-
// assignment-per-booking constraint.
func Active(s Status) bool {
	return s == StatusAssigned || s == StatusAccepted
}

// Assignment is the internal record. CarrierRef is commercially
// sensitive and must never travel beyond this package except through
// View, which does not carry it.
type Assignment struct {
	ID          types.ID
	BookingID   types.ID
	CarrierRef  *string
	DriverID    types.ID
	AssignedBy  types.ID
	AssignedAt  time.Time
	Status      Status
	RespondedAt *time.Time
	CancelledAt *time.Time
}

// View is the outward-facing projection used by admin dashboards and
// driver APIs. It structurally excludes the carrier reference, so a
// serializer cannot leak what the type does not hold.
type View struct {
	ID          types.ID   `json:"id"`
	BookingID   types.ID   `json:"booking_id"`
	DriverID    types.ID   `json:"driver_id"`
	AssignedAt  time.Time  `json:"assigned_at"`
	Status      Status     `json:"status"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func (a *Assignment) View() View {
	return View{
		ID:          a.ID,
		BookingID:   a.BookingID,
		DriverID:    a.DriverID,
		AssignedAt:  a.AssignedAt,
		Status:      a.Status,
		RespondedAt: a.RespondedAt,
		CancelledAt: a.CancelledAt,
	}
}
