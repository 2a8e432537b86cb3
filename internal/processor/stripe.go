package processor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/clubledger/billing-engine/internal/domain"
)

// StripeGateway adapts the Stripe API to the ledger's needs. It is an
// explicit dependency of the reconciler and refund processor, never reached
// through package-level state, and every call carries a bounded timeout.
type StripeGateway struct {
	client        *client.API
	webhookSecret string
	currency      string
	timeout       time.Duration
}

func NewStripeGateway(apiKey, webhookSecret, currency string, timeout time.Duration) (*StripeGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key", domain.ErrProcessorConfig)
	}

	sc := &client.API{}
	sc.Init(apiKey, nil)

	return &StripeGateway{
		client:        sc,
		webhookSecret: webhookSecret,
		currency:      currency,
		timeout:       timeout,
	}, nil
}

// CreatePaymentSession creates a payment intent carrying the invoice and
// payer ids as metadata so later callbacks are traceable back to the ledger.
func (g *StripeGateway) CreatePaymentSession(ctx context.Context, inv *domain.Invoice) (*PaymentSession, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(toCents(inv.TotalAmount)),
		Currency:    stripe.String(g.currency),
		Description: stripe.String(inv.Description),
		Metadata: map[string]string{
			"invoice_id": inv.ID.String(),
			"payer_id":   inv.PayerID.String(),
		},
	}
	params.Context = ctx

	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		return nil, g.mapError(err)
	}

	return &PaymentSession{SessionID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// RetrieveSession fetches the processor's authoritative view of a session.
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.client.PaymentIntents.Get(sessionID, params)
	if err != nil {
		return nil, g.mapError(err)
	}

	return &SessionStatus{
		Succeeded: pi.Status == stripe.PaymentIntentStatusSucceeded,
		Status:    string(pi.Status),
		Amount:    fromCents(pi.Amount),
	}, nil
}

// CreateRefund issues a processor-side refund. A nil amount means full refund.
func (g *StripeGateway) CreateRefund(ctx context.Context, providerPaymentID string, amount *decimal.Decimal, reason string) (*RefundResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(providerPaymentID),
	}
	if amount != nil {
		params.Amount = stripe.Int64(toCents(*amount))
	}
	if reason != "" {
		params.Metadata = map[string]string{"reason": reason}
	}
	params.Context = ctx

	r, err := g.client.Refunds.New(params)
	if err != nil {
		return nil, g.mapError(err)
	}

	return &RefundResult{
		RefundID: r.ID,
		Amount:   fromCents(r.Amount),
		Status:   string(r.Status),
	}, nil
}

// mapError translates Stripe library errors into domain errors so the SDK
// never leaks into the service layer.
func (g *StripeGateway) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrProcessorUnavailable, err)
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.HTTPStatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", domain.ErrProcessorConfig, stripeErr.Msg)
		case stripeErr.HTTPStatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %s", domain.ErrProcessorUnavailable, stripeErr.Msg)
		}
		// Deterministic client-class rejection, retrying cannot help.
		return fmt.Errorf("%w: %s", domain.ErrProcessorRejected, stripeErr.Msg)
	}

	// Transport-level failure, no HTTP response at all.
	return fmt.Errorf("%w: %v", domain.ErrProcessorUnavailable, err)
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}
