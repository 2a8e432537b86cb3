package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/billing-engine/internal/domain"
	"github.com/clubledger/billing-engine/internal/notify"
	"github.com/clubledger/billing-engine/internal/repository"
)

// Reconciler durably records that a payment succeeded. It is the single
// authoritative settlement entry point for both the client-confirm path and
// the webhook path, and is idempotent per provider payment id: any number of
// concurrent or repeated calls converges on one succeeded transaction and a
// paid invoice.
type Reconciler struct {
	store    LedgerStore
	gateway  Gateway
	notifier notify.Notifier
}

func NewReconciler(store LedgerStore, gateway Gateway, notifier notify.Notifier) *Reconciler {
	return &Reconciler{store: store, gateway: gateway, notifier: notifier}
}

type SettleRequest struct {
	ProviderPaymentID string
	InvoiceID         uuid.UUID
	PayerID           uuid.UUID

	// ConfirmedAmount is the processor-confirmed amount when the assertion
	// already carries processor authority (signature-verified webhook). When
	// nil the claim is client-asserted and is re-verified with the processor
	// before anything is written.
	ConfirmedAmount *decimal.Decimal
}

func (r *Reconciler) Settle(ctx context.Context, req SettleRequest) (*domain.Transaction, error) {
	if req.ProviderPaymentID == "" {
		return nil, fmt.Errorf("%w: missing provider payment id", domain.ErrInvalidRequest)
	}

	// Duplicate delivery: the payment is already settled, return it as-is.
	existing, err := r.store.GetTransactionByProviderPaymentID(ctx, req.ProviderPaymentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, err
	}

	inv, err := r.store.GetInvoice(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvoiceStatusPending {
		// Settled between the lookup above and here, or settled by a
		// different payment attempt. Re-read to tell the two apart.
		if txn, lookupErr := r.store.GetTransactionByProviderPaymentID(ctx, req.ProviderPaymentID); lookupErr == nil {
			return txn, nil
		}
		return nil, domain.ErrAlreadySettled
	}

	confirmed := req.ConfirmedAmount
	if confirmed == nil {
		// A client must never be trusted to assert its own success. Any
		// failure to confirm, including a processor timeout, means no
		// settlement: the system never assumes success on ambiguity.
		session, err := r.gateway.RetrieveSession(ctx, req.ProviderPaymentID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSettlementNotConfirmed, err)
		}
		if !session.Succeeded {
			return nil, fmt.Errorf("%w: session status is %s",
				domain.ErrSettlementNotConfirmed, session.Status)
		}
		confirmed = &session.Amount
	}

	if !confirmed.Equal(inv.TotalAmount) {
		return nil, fmt.Errorf("%w: confirmed %s, invoice total %s",
			domain.ErrAmountMismatch, confirmed.String(), inv.TotalAmount.String())
	}

	txn, err := r.store.SettleInvoice(ctx, repository.SettleParams{
		ProviderPaymentID: req.ProviderPaymentID,
		InvoiceID:         req.InvoiceID,
		PayerID:           req.PayerID,
		Amount:            *confirmed,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateTransaction) || errors.Is(err, domain.ErrAlreadySettled) {
			// A concurrent caller won the race. Settlement is convergent,
			// not competitive: if the winner settled the same payment,
			// return its transaction.
			if txn, lookupErr := r.store.GetTransactionByProviderPaymentID(ctx, req.ProviderPaymentID); lookupErr == nil {
				return txn, nil
			}
			return nil, domain.ErrAlreadySettled
		}
		return nil, err
	}

	slog.Info("settlement recorded",
		"transaction", txn.Number,
		"invoice", inv.Number,
		"provider_payment_id", req.ProviderPaymentID,
		"amount", txn.Amount.String(),
	)

	r.notifier.Enqueue(notify.Notification{
		Kind:    notify.KindReceipt,
		PayerID: req.PayerID,
		Data: map[string]string{
			"invoice_number":     inv.Number,
			"transaction_number": txn.Number,
			"amount":             txn.Amount.String(),
		},
	})

	return txn, nil
}

// NotifyPaymentFailed records a failed payment attempt for the payer. No
// ledger state changes: a failed attempt settles nothing.
func (r *Reconciler) NotifyPaymentFailed(ctx context.Context, event *domain.WebhookEvent) {
	slog.Warn("payment attempt failed",
		"provider_payment_id", event.ProviderPaymentID,
		"invoice_id", event.InvoiceID,
		"reason", event.FailureMessage,
	)

	r.notifier.Enqueue(notify.Notification{
		Kind:    notify.KindPaymentFailed,
		PayerID: event.PayerID,
		Data: map[string]string{
			"invoice_id": event.InvoiceID.String(),
			"reason":     event.FailureMessage,
		},
	})
}
