package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clubledger/billing-engine/internal/domain"
	"github.com/clubledger/billing-engine/internal/service"
)

type createInvoiceRequest struct {
	PayerID      uuid.UUID       `json:"payer_id" binding:"required"`
	BillableItem string          `json:"billable_item"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	Description  string          `json:"description"`
	DueAt        *time.Time      `json:"due_at"`
}

type invoiceResponse struct {
	ID           uuid.UUID       `json:"id"`
	Number       string          `json:"number"`
	PayerID      uuid.UUID       `json:"payer_id"`
	BillableItem string          `json:"billable_item,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Description  string          `json:"description,omitempty"`
	Status       string          `json:"status"`
	IssuedAt     time.Time       `json:"issued_at"`
	DueAt        time.Time       `json:"due_at"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
}

func toInvoiceResponse(inv *domain.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:           inv.ID,
		Number:       inv.Number,
		PayerID:      inv.PayerID,
		BillableItem: inv.BillableItem,
		Amount:       inv.Amount,
		TaxAmount:    inv.TaxAmount,
		TotalAmount:  inv.TotalAmount,
		Description:  inv.Description,
		Status:       string(inv.Status),
		IssuedAt:     inv.IssuedAt,
		DueAt:        inv.DueAt,
		PaidAt:       inv.PaidAt,
	}
}

func (h *Handler) handleCreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	inv, err := h.invoices.Create(c.Request.Context(), service.CreateInvoiceInput{
		PayerID:      req.PayerID,
		BillableItem: req.BillableItem,
		Amount:       req.Amount,
		TaxAmount:    req.TaxAmount,
		Description:  req.Description,
		DueAt:        req.DueAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInvoiceResponse(inv))
}

func (h *Handler) handleGetInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	inv, err := h.invoices.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) handleHealth(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
