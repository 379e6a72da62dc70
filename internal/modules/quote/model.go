// Package quote manages priced, time-boxed transport offers. A quote's
// monetary fields are immutable once written; repricing means a new quote.
package quote

import (
	"time"

	"nexttransport/internal/modules/pricing"
	"nexttransport/internal/types"
)

// TTL is how long a quote remains valid after creation.
const TTL = 7 * 24 * time.Hour

type Quote struct {
	ID                  types.ID
	Number              string
	CustomerRef         string
	PickupAddressID     types.ID
	DropoffAddressID    types.ID
	VehicleID           types.ID
	PreferredPickupDate time.Time
	TransportType       string
	DistanceKm          float64

	SubtotalExGST int64
	GSTAmount     int64
	TotalIncGST   int64
	Currency      string

	// Breakdown is the full pricing-engine output at creation time,
	// kept verbatim for audit and for price-frozen booking conversion.
	Breakdown pricing.Result

	Source    string // "web" or "admin"
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (q *Quote) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}
