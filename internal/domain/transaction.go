package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusSucceeded TransactionStatus = "succeeded"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// Transaction records a single settlement against an invoice.
// ProviderPaymentID is the processor's identifier for the payment and acts
// as the idempotency key: at most one succeeded transaction may exist per
// provider payment id, enforced by a unique index in the store.
type Transaction struct {
	ID                uuid.UUID
	Number            string
	ProviderPaymentID string
	InvoiceID         uuid.UUID
	PayerID           uuid.UUID
	Amount            decimal.Decimal
	RefundedAmount    *decimal.Decimal
	Status            TransactionStatus
	ProcessedAt       time.Time
	CreatedAt         time.Time
}
