package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/billing-engine/internal/domain"
	"github.com/clubledger/billing-engine/internal/processor"
	"github.com/clubledger/billing-engine/internal/service"
)

// Func-field mocks for the handler's service interfaces.

type mockInvoices struct {
	CreateFunc        func(ctx context.Context, in service.CreateInvoiceInput) (*domain.Invoice, error)
	GetFunc           func(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	CreateSessionFunc func(ctx context.Context, invoiceID, payerID uuid.UUID) (*processor.PaymentSession, error)
}

func (m *mockInvoices) Create(ctx context.Context, in service.CreateInvoiceInput) (*domain.Invoice, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, in)
	}
	return nil, domain.ErrInvalidAmount
}

func (m *mockInvoices) Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, domain.ErrInvoiceNotFound
}

func (m *mockInvoices) CreatePaymentSession(ctx context.Context, invoiceID, payerID uuid.UUID) (*processor.PaymentSession, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, invoiceID, payerID)
	}
	return nil, domain.ErrInvoiceNotFound
}

type mockSettler struct {
	SettleFunc       func(ctx context.Context, req service.SettleRequest) (*domain.Transaction, error)
	NotifyFailedFunc func(ctx context.Context, event *domain.WebhookEvent)
}

func (m *mockSettler) Settle(ctx context.Context, req service.SettleRequest) (*domain.Transaction, error) {
	if m.SettleFunc != nil {
		return m.SettleFunc(ctx, req)
	}
	return nil, domain.ErrSettlementNotConfirmed
}

func (m *mockSettler) NotifyPaymentFailed(ctx context.Context, event *domain.WebhookEvent) {
	if m.NotifyFailedFunc != nil {
		m.NotifyFailedFunc(ctx, event)
	}
}

type mockRefunder struct {
	RefundFunc         func(ctx context.Context, transactionID uuid.UUID, amount *decimal.Decimal, reason string) (*domain.Refund, error)
	RecordExternalFunc func(ctx context.Context, providerPaymentID string, amount decimal.Decimal) error
}

func (m *mockRefunder) Refund(ctx context.Context, transactionID uuid.UUID, amount *decimal.Decimal, reason string) (*domain.Refund, error) {
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, transactionID, amount, reason)
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *mockRefunder) RecordExternal(ctx context.Context, providerPaymentID string, amount decimal.Decimal) error {
	if m.RecordExternalFunc != nil {
		return m.RecordExternalFunc(ctx, providerPaymentID, amount)
	}
	return nil
}

type mockVerifier struct {
	VerifyFunc func(payload []byte, sigHeader string) (*domain.WebhookEvent, error)
}

func (m *mockVerifier) VerifyWebhook(payload []byte, sigHeader string) (*domain.WebhookEvent, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(payload, sigHeader)
	}
	return nil, domain.ErrSignatureInvalid
}

type testDeps struct {
	invoices *mockInvoices
	settler  *mockSettler
	refunder *mockRefunder
	verifier *mockVerifier
}

func newTestRouter() (*testDeps, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	deps := &testDeps{
		invoices: &mockInvoices{},
		settler:  &mockSettler{},
		refunder: &mockRefunder{},
		verifier: &mockVerifier{},
	}
	h := New(Deps{
		Invoices: deps.invoices,
		Settler:  deps.settler,
		Refunder: deps.refunder,
		Verifier: deps.verifier,
	})
	return deps, h.Router()
}
