// Package registry keeps canonical address and vehicle records.
// Resolution is deduplication by exact field match, not normalization:
// case or whitespace variants produce distinct rows.
package registry

import (
	"time"

	"nexttransport/internal/types"
)

type Address struct {
	ID        types.ID
	Line1     string
	Suburb    string
	Postcode  string
	State     string
	CreatedAt time.Time
}

type Vehicle struct {
	ID            types.ID
	Type          string
	Make          string
	Model         string
	Year          int
	TransportType string
	IsRunning     bool
	CreatedAt     time.Time
}

type AddressInput struct {
	Line1    string
	Suburb   string
	Postcode string
	State    string
}

type VehicleInput struct {
	Type          string
	Make          string
	Model         string
	Year          int
	TransportType string
	IsRunning     bool
}
