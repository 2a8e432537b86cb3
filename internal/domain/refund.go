package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Refund is the result of a processor-side refund tied to a settled
// transaction. Amount may be less than the settled amount; the ledger still
// marks both transaction and invoice refunded, with the amount preserved
// for auditing.
type Refund struct {
	ProviderRefundID string
	TransactionID    uuid.UUID
	InvoiceID        uuid.UUID
	Amount           decimal.Decimal
	Reason           string
	CreatedAt        time.Time
}
