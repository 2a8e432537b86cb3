package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubledger/billing-engine/internal/domain"
	"github.com/clubledger/billing-engine/internal/service"
)

const maxWebhookBody = 1 << 16 // 64KB, Stripe events are small

// handleStripeWebhook ingests processor callbacks. Signature verification
// happens before any branching; a recognized-but-non-actionable event is
// still acknowledged with 200 so the processor stops redelivering it. Only
// genuine processing failures return 5xx and trigger a retry.
func (h *Handler) handleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	event, err := h.verifier.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		// Rejected outright, ledger untouched. Configuration failure is
		// also a 4xx here: redelivery cannot succeed until an operator
		// supplies the signing secret.
		slog.Warn("webhook rejected", "error", err)
		code := "signature_invalid"
		if errors.Is(err, domain.ErrProcessorConfig) {
			code = "processor_config"
		}
		c.JSON(http.StatusBadRequest, errorResponse{Code: code, Error: err.Error()})
		return
	}

	ctx := c.Request.Context()

	switch event.Kind {
	case domain.EventPaymentSucceeded:
		if !event.HasMetadata() {
			// Unrouteable: rejecting would make the processor retry an
			// event we can never place.
			slog.Warn("webhook missing ledger metadata, dropping",
				"type", event.Type, "provider_payment_id", event.ProviderPaymentID)
			break
		}

		amount := event.Amount
		_, err := h.settler.Settle(ctx, service.SettleRequest{
			ProviderPaymentID: event.ProviderPaymentID,
			InvoiceID:         event.InvoiceID,
			PayerID:           event.PayerID,
			ConfirmedAmount:   &amount,
		})
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrAlreadySettled),
			errors.Is(err, domain.ErrAmountMismatch),
			errors.Is(err, domain.ErrInvoiceNotFound):
			// Deliberate rejection; redelivery would change nothing.
			slog.Warn("webhook settlement dropped",
				"provider_payment_id", event.ProviderPaymentID, "error", err)
		default:
			writeError(c, err)
			return
		}

	case domain.EventPaymentFailed:
		h.settler.NotifyPaymentFailed(ctx, event)

	case domain.EventChargeRefunded:
		err := h.refunder.RecordExternal(ctx, event.ProviderPaymentID, event.Amount)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrTransactionNotFound):
			slog.Warn("refund webhook for unknown payment, dropping",
				"provider_payment_id", event.ProviderPaymentID)
		default:
			writeError(c, err)
			return
		}

	default:
		slog.Debug("webhook ignored", "type", event.Type)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
