package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "pending"
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusRefunded InvoiceStatus = "refunded"
)

// Invoice is a billing record for an amount owed. Financial fields are
// immutable after creation; status moves pending -> paid -> refunded and
// never backwards.
type Invoice struct {
	ID           uuid.UUID
	Number       string
	PayerID      uuid.UUID
	BillableItem string
	Amount       decimal.Decimal
	TaxAmount    decimal.Decimal
	TotalAmount  decimal.Decimal
	Description  string
	Status       InvoiceStatus
	IssuedAt     time.Time
	DueAt        time.Time
	PaidAt       *time.Time
	CreatedAt    time.Time
}
