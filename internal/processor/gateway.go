package processor

import (
	"github.com/shopspring/decimal"
)

// PaymentSession is a processor-side payment handle for the client SDK.
type PaymentSession struct {
	SessionID    string
	ClientSecret string
}

// SessionStatus is the processor's view of a payment session, used to verify
// a client-asserted settlement before trusting it.
type SessionStatus struct {
	Succeeded bool
	Status    string
	Amount    decimal.Decimal
}

// RefundResult is the processor's acknowledgment of a refund.
type RefundResult struct {
	RefundID string
	Amount   decimal.Decimal
	Status   string
}
