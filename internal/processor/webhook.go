package processor

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/clubledger/billing-engine/internal/domain"
)

// VerifyWebhook checks the signature of a raw processor callback and decodes
// it into a closed set of event kinds. An absent signing secret is a hard
// configuration error: no inbound payload is ever trusted unverified.
func (g *StripeGateway) VerifyWebhook(payload []byte, sigHeader string) (*domain.WebhookEvent, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("%w: missing webhook signing secret", domain.ErrProcessorConfig)
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}

	return normalizeEvent(&event)
}

func normalizeEvent(event *stripe.Event) (*domain.WebhookEvent, error) {
	out := &domain.WebhookEvent{
		Kind: domain.EventIgnored,
		Type: string(event.Type),
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent event: %w", err)
		}

		out.ProviderPaymentID = pi.ID
		out.Amount = fromCents(pi.Amount)
		out.InvoiceID = metadataUUID(pi.Metadata, "invoice_id")
		out.PayerID = metadataUUID(pi.Metadata, "payer_id")

		if event.Type == "payment_intent.succeeded" {
			out.Kind = domain.EventPaymentSucceeded
		} else {
			out.Kind = domain.EventPaymentFailed
			if pi.LastPaymentError != nil {
				out.FailureMessage = pi.LastPaymentError.Msg
			}
		}

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge event: %w", err)
		}

		out.Kind = domain.EventChargeRefunded
		if ch.PaymentIntent != nil {
			out.ProviderPaymentID = ch.PaymentIntent.ID
		}
		out.Amount = fromCents(ch.AmountRefunded)
		out.InvoiceID = metadataUUID(ch.Metadata, "invoice_id")
		out.PayerID = metadataUUID(ch.Metadata, "payer_id")
	}

	return out, nil
}

func metadataUUID(metadata map[string]string, key string) uuid.UUID {
	id, err := uuid.Parse(metadata[key])
	if err != nil {
		return uuid.Nil
	}
	return id
}
