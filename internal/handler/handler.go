package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/billing-engine/internal/domain"
	"github.com/clubledger/billing-engine/internal/middleware"
	"github.com/clubledger/billing-engine/internal/processor"
	"github.com/clubledger/billing-engine/internal/service"
)

// InvoiceService creates and reads invoices and opens processor sessions.
type InvoiceService interface {
	Create(ctx context.Context, in service.CreateInvoiceInput) (*domain.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	CreatePaymentSession(ctx context.Context, invoiceID, payerID uuid.UUID) (*processor.PaymentSession, error)
}

// Settler records confirmed settlements.
type Settler interface {
	Settle(ctx context.Context, req service.SettleRequest) (*domain.Transaction, error)
	NotifyPaymentFailed(ctx context.Context, event *domain.WebhookEvent)
}

// Refunder issues and finalizes refunds.
type Refunder interface {
	Refund(ctx context.Context, transactionID uuid.UUID, amount *decimal.Decimal, reason string) (*domain.Refund, error)
	RecordExternal(ctx context.Context, providerPaymentID string, amount decimal.Decimal) error
}

// WebhookVerifier authenticates raw processor callbacks.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (*domain.WebhookEvent, error)
}

type Handler struct {
	invoices InvoiceService
	settler  Settler
	refunder Refunder
	verifier WebhookVerifier
	ping     func(ctx context.Context) error
}

type Deps struct {
	Invoices InvoiceService
	Settler  Settler
	Refunder Refunder
	Verifier WebhookVerifier
	Ping     func(ctx context.Context) error
}

func New(deps Deps) *Handler {
	return &Handler{
		invoices: deps.Invoices,
		settler:  deps.Settler,
		refunder: deps.Refunder,
		verifier: deps.Verifier,
		ping:     deps.Ping,
	}
}

// Router builds the engine's HTTP surface.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recover(), middleware.Logging())

	router.GET("/healthz", h.handleHealth)

	api := router.Group("/api/v1")
	{
		api.POST("/invoices", h.handleCreateInvoice)
		api.GET("/invoices/:id", h.handleGetInvoice)
		api.POST("/payment-sessions", h.handleCreatePaymentSession)
		api.POST("/settlements", h.handleConfirmSettlement)
		api.POST("/webhooks/stripe", h.handleStripeWebhook)
		api.POST("/refunds", h.handleRefund)
	}

	return router
}
