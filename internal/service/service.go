// Package service holds the billing engine's business rules: invoice
// creation, settlement reconciliation and refunds. Correctness under
// concurrent settlement attempts comes from the store's uniqueness
// constraint on the provider payment id, not from in-process locking.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/billing-engine/internal/domain"
	"github.com/clubledger/billing-engine/internal/processor"
	"github.com/clubledger/billing-engine/internal/repository"
)

// LedgerStore is the durable invoice/transaction store. Implemented by
// repository.Ledger.
type LedgerStore interface {
	CreateInvoice(ctx context.Context, p repository.CreateInvoiceParams) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetTransactionByProviderPaymentID(ctx context.Context, providerPaymentID string) (*domain.Transaction, error)
	SettleInvoice(ctx context.Context, p repository.SettleParams) (*domain.Transaction, error)
	MarkRefunded(ctx context.Context, transactionID uuid.UUID, amount decimal.Decimal) (*domain.Transaction, error)
}

// Gateway is the payment processor adapter. Implemented by
// processor.StripeGateway.
type Gateway interface {
	CreatePaymentSession(ctx context.Context, inv *domain.Invoice) (*processor.PaymentSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*processor.SessionStatus, error)
	CreateRefund(ctx context.Context, providerPaymentID string, amount *decimal.Decimal, reason string) (*processor.RefundResult, error)
}
