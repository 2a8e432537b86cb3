package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/billing-engine/internal/domain"
	"github.com/clubledger/billing-engine/internal/processor"
	"github.com/clubledger/billing-engine/internal/repository"
)

// InvoiceManager creates and reads invoices. Financial fields are immutable
// after creation; corrections happen via refund, never via mutation.
type InvoiceManager struct {
	store   LedgerStore
	gateway Gateway
	dueDays int
}

func NewInvoiceManager(store LedgerStore, gateway Gateway, dueDays int) *InvoiceManager {
	return &InvoiceManager{store: store, gateway: gateway, dueDays: dueDays}
}

type CreateInvoiceInput struct {
	PayerID      uuid.UUID
	BillableItem string
	Amount       decimal.Decimal
	TaxAmount    decimal.Decimal
	Description  string
	DueAt        *time.Time
}

func (m *InvoiceManager) Create(ctx context.Context, in CreateInvoiceInput) (*domain.Invoice, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	if in.TaxAmount.IsNegative() {
		return nil, fmt.Errorf("%w: tax must not be negative", domain.ErrInvalidAmount)
	}
	if in.PayerID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing payer", domain.ErrInvalidAmount)
	}

	dueAt := time.Now().AddDate(0, 0, m.dueDays)
	if in.DueAt != nil {
		dueAt = *in.DueAt
	}

	inv, err := m.store.CreateInvoice(ctx, repository.CreateInvoiceParams{
		PayerID:      in.PayerID,
		BillableItem: in.BillableItem,
		Amount:       in.Amount,
		TaxAmount:    in.TaxAmount,
		Description:  in.Description,
		DueAt:        dueAt,
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (m *InvoiceManager) Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return m.store.GetInvoice(ctx, id)
}

// CreatePaymentSession opens a processor session for a pending invoice. The
// session carries invoice and payer ids so the webhook can be routed back.
func (m *InvoiceManager) CreatePaymentSession(ctx context.Context, invoiceID, payerID uuid.UUID) (*processor.PaymentSession, error) {
	inv, err := m.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.PayerID != payerID {
		return nil, domain.ErrInvoiceNotFound
	}
	if inv.Status != domain.InvoiceStatusPending {
		return nil, domain.ErrAlreadySettled
	}

	return m.gateway.CreatePaymentSession(ctx, inv)
}
