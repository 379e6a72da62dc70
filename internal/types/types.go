// Package types holds small value objects shared across modules.
package types

// ID is an opaque record identifier.
type ID string

// Money is an amount in whole currency units.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
