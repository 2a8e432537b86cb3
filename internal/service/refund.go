package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/billing-engine/internal/domain"
	"github.com/clubledger/billing-engine/internal/notify"
)

// RefundProcessor issues processor-side refunds and flips ledger state to
// refunded. Refunds are strictly ordered after settlement: without a
// succeeded transaction there is nothing to refund.
//
// A partial amount is recorded on the transaction but still transitions both
// transaction and invoice to refunded; the ledger keeps a three-state
// lifecycle and preserves the amount for auditing.
type RefundProcessor struct {
	store    LedgerStore
	gateway  Gateway
	notifier notify.Notifier
}

func NewRefundProcessor(store LedgerStore, gateway Gateway, notifier notify.Notifier) *RefundProcessor {
	return &RefundProcessor{store: store, gateway: gateway, notifier: notifier}
}

// Refund refunds a settled transaction. A nil amount means full refund.
func (p *RefundProcessor) Refund(ctx context.Context, transactionID uuid.UUID, amount *decimal.Decimal, reason string) (*domain.Refund, error) {
	txn, err := p.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	switch txn.Status {
	case domain.TransactionStatusRefunded:
		return nil, domain.ErrAlreadyRefunded
	case domain.TransactionStatusSucceeded:
	default:
		return nil, domain.ErrRefundNotSettled
	}

	if amount != nil {
		if amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: refund amount must be positive", domain.ErrInvalidAmount)
		}
		if amount.GreaterThan(txn.Amount) {
			return nil, fmt.Errorf("%w: refund exceeds settled amount", domain.ErrInvalidAmount)
		}
	}

	result, err := p.gateway.CreateRefund(ctx, txn.ProviderPaymentID, amount, reason)
	if err != nil {
		return nil, err
	}

	updated, err := p.store.MarkRefunded(ctx, txn.ID, result.Amount)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			// Status changed underneath us; the processor refund went
			// through, so a concurrent refund already recorded it.
			return nil, domain.ErrAlreadyRefunded
		}
		return nil, err
	}

	slog.Info("refund recorded",
		"transaction", updated.Number,
		"provider_refund_id", result.RefundID,
		"amount", result.Amount.String(),
		"reason", reason,
	)

	p.notifier.Enqueue(notify.Notification{
		Kind:    notify.KindRefund,
		PayerID: updated.PayerID,
		Data: map[string]string{
			"transaction_number": updated.Number,
			"amount":             result.Amount.String(),
			"reason":             reason,
		},
	})

	return &domain.Refund{
		ProviderRefundID: result.RefundID,
		TransactionID:    updated.ID,
		InvoiceID:        updated.InvoiceID,
		Amount:           result.Amount,
		Reason:           reason,
		CreatedAt:        time.Now(),
	}, nil
}

// RecordExternal finalizes a refund reported by the processor: either the
// confirmation of a refund initiated here, or a processor-initiated one.
// Idempotent; already-refunded transactions are left untouched.
func (p *RefundProcessor) RecordExternal(ctx context.Context, providerPaymentID string, amount decimal.Decimal) error {
	txn, err := p.store.GetTransactionByProviderPaymentID(ctx, providerPaymentID)
	if err != nil {
		return err
	}
	if txn.Status == domain.TransactionStatusRefunded {
		return nil
	}

	updated, err := p.store.MarkRefunded(ctx, txn.ID, amount)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			// Raced with another refund writer; the ledger is already where
			// this event wanted it.
			return nil
		}
		return err
	}

	slog.Info("processor refund recorded",
		"transaction", updated.Number,
		"provider_payment_id", providerPaymentID,
		"amount", amount.String(),
	)

	p.notifier.Enqueue(notify.Notification{
		Kind:    notify.KindRefund,
		PayerID: updated.PayerID,
		Data: map[string]string{
			"transaction_number": updated.Number,
			"amount":             amount.String(),
		},
	})
	return nil
}
