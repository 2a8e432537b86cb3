package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventPaymentSucceeded EventKind = "payment_succeeded"
	EventPaymentFailed    EventKind = "payment_failed"
	EventChargeRefunded   EventKind = "charge_refunded"
	EventIgnored          EventKind = "ignored"
)

// WebhookEvent is a processor callback decoded into a closed set of kinds.
// Unrecognized processor event types land in EventIgnored rather than being
// branched on by raw type string. InvoiceID and PayerID come from session
// metadata and are zero when the processor sent none.
type WebhookEvent struct {
	Kind              EventKind
	Type              string // raw processor event type, for logging
	ProviderPaymentID string
	InvoiceID         uuid.UUID
	PayerID           uuid.UUID
	Amount            decimal.Decimal
	FailureMessage    string
}

// HasMetadata reports whether the event carries enough metadata to be routed
// back to a ledger record.
func (e *WebhookEvent) HasMetadata() bool {
	return e.InvoiceID != uuid.Nil && e.PayerID != uuid.Nil
}
