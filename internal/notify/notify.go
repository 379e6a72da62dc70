// Package notify defines the outbound customer-notification port.
// Delivery transports (email, SMS) live behind this interface; the
// lifecycle services treat every call as best-effort.
package notify

import (
	"context"
	"log"
)

type Kind string

const (
	KindBookingCreated Kind = "booking_created"
	KindStatusChanged  Kind = "status_changed"
)

type Notifier interface {
	Notify(ctx context.Context, recipient string, kind Kind, payload map[string]any) error
}

// LogNotifier writes notifications to the process log. It stands in for
// the real delivery integration in development and tests.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, recipient string, kind Kind, payload map[string]any) error {
	log.Printf("notify %s kind=%s payload=%v", recipient, kind, payload)
	return nil
}
