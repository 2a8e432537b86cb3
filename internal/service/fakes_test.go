package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/billing-engine/internal/domain"
	"github.com/clubledger/billing-engine/internal/notify"
	"github.com/clubledger/billing-engine/internal/processor"
	"github.com/clubledger/billing-engine/internal/repository"
)

// fakeLedger is an in-memory LedgerStore that simulates the database
// constraints: pending-only settlement, one settled transaction per provider
// payment id, one per invoice.
type fakeLedger struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*domain.Invoice
	txns     map[uuid.UUID]*domain.Transaction
	seq      int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		invoices: make(map[uuid.UUID]*domain.Invoice),
		txns:     make(map[uuid.UUID]*domain.Transaction),
	}
}

func (f *fakeLedger) addInvoice(amount, tax decimal.Decimal) *domain.Invoice {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	inv := &domain.Invoice{
		ID:          uuid.New(),
		Number:      fmt.Sprintf("INV-%06d", f.seq),
		PayerID:     uuid.New(),
		Amount:      amount,
		TaxAmount:   tax,
		TotalAmount: amount.Add(tax),
		Status:      domain.InvoiceStatusPending,
		IssuedAt:    time.Now(),
		DueAt:       time.Now().AddDate(0, 0, 14),
		CreatedAt:   time.Now(),
	}
	f.invoices[inv.ID] = inv
	return inv
}

func (f *fakeLedger) CreateInvoice(ctx context.Context, p repository.CreateInvoiceParams) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	inv := &domain.Invoice{
		ID:           uuid.New(),
		Number:       fmt.Sprintf("INV-%06d", f.seq),
		PayerID:      p.PayerID,
		BillableItem: p.BillableItem,
		Amount:       p.Amount,
		TaxAmount:    p.TaxAmount,
		TotalAmount:  p.Amount.Add(p.TaxAmount),
		Description:  p.Description,
		Status:       domain.InvoiceStatusPending,
		IssuedAt:     time.Now(),
		DueAt:        p.DueAt,
		CreatedAt:    time.Now(),
	}
	f.invoices[inv.ID] = inv
	return copyInvoice(inv), nil
}

func (f *fakeLedger) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return copyInvoice(inv), nil
}

func (f *fakeLedger) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn, ok := f.txns[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return copyTransaction(txn), nil
}

func (f *fakeLedger) GetTransactionByProviderPaymentID(ctx context.Context, providerPaymentID string) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, txn := range f.txns {
		if txn.ProviderPaymentID == providerPaymentID {
			return copyTransaction(txn), nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (f *fakeLedger) SettleInvoice(ctx context.Context, p repository.SettleParams) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inv, ok := f.invoices[p.InvoiceID]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	if inv.Status != domain.InvoiceStatusPending {
		return nil, domain.ErrAlreadySettled
	}
	for _, txn := range f.txns {
		if txn.ProviderPaymentID == p.ProviderPaymentID {
			return nil, domain.ErrDuplicateTransaction
		}
	}

	f.seq++
	now := time.Now()
	txn := &domain.Transaction{
		ID:                uuid.New(),
		Number:            fmt.Sprintf("TXN-%06d", f.seq),
		ProviderPaymentID: p.ProviderPaymentID,
		InvoiceID:         p.InvoiceID,
		PayerID:           p.PayerID,
		Amount:            p.Amount,
		Status:            domain.TransactionStatusSucceeded,
		ProcessedAt:       now,
		CreatedAt:         now,
	}
	f.txns[txn.ID] = txn

	inv.Status = domain.InvoiceStatusPaid
	inv.PaidAt = &now
	return copyTransaction(txn), nil
}

func (f *fakeLedger) MarkRefunded(ctx context.Context, transactionID uuid.UUID, amount decimal.Decimal) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	txn, ok := f.txns[transactionID]
	if !ok || txn.Status != domain.TransactionStatusSucceeded {
		return nil, domain.ErrTransactionNotFound
	}
	txn.Status = domain.TransactionStatusRefunded
	txn.RefundedAmount = &amount

	if inv, ok := f.invoices[txn.InvoiceID]; ok {
		inv.Status = domain.InvoiceStatusRefunded
	}
	return copyTransaction(txn), nil
}

func (f *fakeLedger) transactionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.txns)
}

func copyInvoice(inv *domain.Invoice) *domain.Invoice {
	out := *inv
	return &out
}

func copyTransaction(txn *domain.Transaction) *domain.Transaction {
	out := *txn
	return &out
}

// fakeGateway implements Gateway with overridable behavior per test.
type fakeGateway struct {
	CreateSessionFunc   func(ctx context.Context, inv *domain.Invoice) (*processor.PaymentSession, error)
	RetrieveSessionFunc func(ctx context.Context, sessionID string) (*processor.SessionStatus, error)
	CreateRefundFunc    func(ctx context.Context, providerPaymentID string, amount *decimal.Decimal, reason string) (*processor.RefundResult, error)
}

func (f *fakeGateway) CreatePaymentSession(ctx context.Context, inv *domain.Invoice) (*processor.PaymentSession, error) {
	if f.CreateSessionFunc != nil {
		return f.CreateSessionFunc(ctx, inv)
	}
	return &processor.PaymentSession{SessionID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (f *fakeGateway) RetrieveSession(ctx context.Context, sessionID string) (*processor.SessionStatus, error) {
	if f.RetrieveSessionFunc != nil {
		return f.RetrieveSessionFunc(ctx, sessionID)
	}
	return &processor.SessionStatus{Succeeded: true, Status: "succeeded"}, nil
}

func (f *fakeGateway) CreateRefund(ctx context.Context, providerPaymentID string, amount *decimal.Decimal, reason string) (*processor.RefundResult, error) {
	if f.CreateRefundFunc != nil {
		return f.CreateRefundFunc(ctx, providerPaymentID, amount, reason)
	}
	return &processor.RefundResult{RefundID: "re_test", Status: "succeeded"}, nil
}

// recordingNotifier captures enqueued notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingNotifier) Enqueue(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) byKind(kind notify.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.sent {
		if n.Kind == kind {
			count++
		}
	}
	return count
}
