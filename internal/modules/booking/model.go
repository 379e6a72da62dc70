// Package booking owns the transport-order lifecycle: the status state
// machine, the append-only history log, and the projections served to
// admins and to unauthenticated tracking.
package booking

import (
	"time"

	"nexttransport/internal/types"
)

type Status string

// Normal lifecycle, in forward order.
const (
	StatusQuoteCreated       Status = "quote_created"
	StatusPendingPayment     Status = "booking_pending_payment"
	StatusConfirmed          Status = "booked_confirmed"
	StatusAwaitingAssignment Status = "awaiting_driver_assignment"
	StatusDriverAssigned     Status = "driver_assigned"
	StatusDriverEnRoute      Status = "driver_en_route"
	StatusPickedUp           Status = "picked_up"
	StatusInDepot            Status = "in_depot"
	StatusInTransit          Status = "in_transit"
	StatusDelivered          Status = "delivered"
)

// Exception states, reachable from any non-terminal normal state.
const (
	StatusCancelled        Status = "cancelled"
	StatusRefunded         Status = "refunded"
	StatusOnHoldCustomer   Status = "on_hold_customer"
	StatusOnHoldOperations Status = "on_hold_operations"
	StatusFailedPickup     Status = "failed_pickup"
	StatusFailedDelivery   Status = "failed_delivery"
	StatusRebookRequired   Status = "rebook_required"
)

var forwardOrder = []Status{
	StatusQuoteCreated,
	StatusPendingPayment,
	StatusConfirmed,
	StatusAwaitingAssignment,
	StatusDriverAssigned,
	StatusDriverEnRoute,
	StatusPickedUp,
	StatusInDepot,
	StatusInTransit,
	StatusDelivered,
}

var exceptionStates = []Status{
	StatusCancelled,
	StatusRefunded,
	StatusOnHoldCustomer,
	StatusOnHoldOperations,
	StatusFailedPickup,
	StatusFailedDelivery,
	StatusRebookRequired,
}

// terminalStates have no outgoing transitions.
var terminalStates = map[Status]bool{
	StatusDelivered: true,
	StatusCancelled: true,
	StatusRefunded:  true,
}

// allowedTransitions encodes the lifecycle: one step forward along the
// chain, a sideways move into any exception state, and recovery from a
// non-terminal exception state back onto the chain (or a re-assignment
// retreat from driver_assigned when the driver rejects).
var allowedTransitions = buildTransitions()

func buildTransitions() map[Status]map[Status]bool {
	t := make(map[Status]map[Status]bool)
	allow := func(from, to Status) {
		if t[from] == nil {
			t[from] = make(map[Status]bool)
		}
		t[from][to] = true
	}

	for i := 0; i < len(forwardOrder)-1; i++ {
		allow(forwardOrder[i], forwardOrder[i+1])
	}
	for _, s := range forwardOrder {
		if terminalStates[s] {
			continue
		}
		for _, e := range exceptionStates {
			allow(s, e)
		}
	}
	// Driver rejection or assignment cancellation re-opens the booking.
	allow(StatusDriverAssigned, StatusAwaitingAssignment)
	// Recoverable exception states may resume anywhere past creation,
	// or move to another exception state (e.g. a hold becoming a cancel).
	for _, e := range exceptionStates {
		if terminalStates[e] {
			continue
		}
		for _, s := range forwardOrder[1:] {
			allow(e, s)
		}
		for _, other := range exceptionStates {
			if other != e {
				allow(e, other)
			}
		}
	}
	return t
}

func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

func Terminal(s Status) bool {
	return terminalStates[s]
}

// ParseStatus validates a raw status string from an API caller.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := allowedTransitions[s]; ok || terminalStates[s] {
		return s, nil
	}
	return "", ErrUnknownStatus
}

// HistoryEntry is one line of the append-only status log.
type HistoryEntry struct {
	Status    Status    `json:"status"`
	Note      string    `json:"note"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

type Booking struct {
	ID          types.ID
	Number      string
	QuoteID     types.ID
	CustomerRef string

	Status        Status
	StatusVersion int

	PickupAddressID  types.ID
	DropoffAddressID types.ID
	VehicleID        types.ID

	PickupWindowStart   time.Time
	PickupWindowEnd     time.Time
	SpecialInstructions string

	TotalIncGST     int64
	DepositRequired int64
	BalanceDue      int64
	Currency        string

	// TrackingToken is the only identifier exposed for unauthenticated
	// tracking. Random, never derived from the booking number.
	TrackingToken string

	Source string // nexttransport | intraffic | dealer | fleet

	// InternalCost and InternalMargin never leave the service: neither
	// projection type below carries them.
	InternalCost   *int64
	InternalMargin *int64

	DepositPaidAt    *time.Time
	ActualPickupAt   *time.Time
	ActualDeliveryAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	History []HistoryEntry
}

// PublicView is the unauthenticated tracking projection. It structurally
// excludes carrier identity, internal cost and margin.
type PublicView struct {
	Number            string             `json:"number"`
	Status            Status             `json:"status"`
	PickupWindowStart time.Time          `json:"pickup_window_start"`
	PickupWindowEnd   time.Time          `json:"pickup_window_end"`
	ActualPickupAt    *time.Time         `json:"actual_pickup_at,omitempty"`
	ActualDeliveryAt  *time.Time         `json:"actual_delivery_at,omitempty"`
	History           []PublicHistoryRow `json:"history"`
}

type PublicHistoryRow struct {
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminView is the dashboard projection: full commercial detail, but
// still no internal cost or margin.
type AdminView struct {
	ID                  types.ID       `json:"id"`
	Number              string         `json:"number"`
	QuoteID             types.ID       `json:"quote_id"`
	CustomerRef         string         `json:"customer_ref"`
	Status              Status         `json:"status"`
	PickupAddressID     types.ID       `json:"pickup_address_id"`
	DropoffAddressID    types.ID       `json:"dropoff_address_id"`
	VehicleID           types.ID       `json:"vehicle_id"`
	PickupWindowStart   time.Time      `json:"pickup_window_start"`
	PickupWindowEnd     time.Time      `json:"pickup_window_end"`
	SpecialInstructions string         `json:"special_instructions"`
	Total               types.Money    `json:"total"`
	DepositRequired     types.Money    `json:"deposit_required"`
	BalanceDue          types.Money    `json:"balance_due"`
	Source              string         `json:"source"`
	DepositPaidAt       *time.Time     `json:"deposit_paid_at,omitempty"`
	ActualPickupAt      *time.Time     `json:"actual_pickup_at,omitempty"`
	ActualDeliveryAt    *time.Time     `json:"actual_delivery_at,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	History             []HistoryEntry `json:"history"`
}

func (b *Booking) PublicView() PublicView {
	rows := make([]PublicHistoryRow, len(b.History))
	for i, h := range b.History {
		rows[i] = PublicHistoryRow{Status: h.Status, CreatedAt: h.CreatedAt}
	}
	return PublicView{
		Number:            b.Number,
		Status:            b.Status,
		PickupWindowStart: b.PickupWindowStart,
		PickupWindowEnd:   b.PickupWindowEnd,
		ActualPickupAt:    b.ActualPickupAt,
		ActualDeliveryAt:  b.ActualDeliveryAt,
		History:           rows,
	}
}

func (b *Booking) AdminView() AdminView {
	return AdminView{
		ID:                  b.ID,
		Number:              b.Number,
		QuoteID:             b.QuoteID,
		CustomerRef:         b.CustomerRef,
		Status:              b.Status,
		PickupAddressID:     b.PickupAddressID,
		DropoffAddressID:    b.DropoffAddressID,
		VehicleID:           b.VehicleID,
		PickupWindowStart:   b.PickupWindowStart,
		PickupWindowEnd:     b.PickupWindowEnd,
		SpecialInstructions: b.SpecialInstructions,
		Total:               types.Money{Amount: b.TotalIncGST, Currency: b.Currency},
		DepositRequired:     types.Money{Amount: b.DepositRequired, Currency: b.Currency},
		BalanceDue:          types.Money{Amount: b.BalanceDue, Currency: b.Currency},
		Source:              b.Source,
		DepositPaidAt:       b.DepositPaidAt,
		ActualPickupAt:      b.ActualPickupAt,
		ActualDeliveryAt:    b.ActualDeliveryAt,
		CreatedAt:           b.CreatedAt,
		History:             b.History,
	}
}
