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

type createSessionRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required"`
	PayerID   uuid.UUID `json:"payer_id" binding:"required"`
}

type confirmSettlementRequest struct {
	SessionID string    `json:"session_id" binding:"required"`
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required"`
	PayerID   uuid.UUID `json:"payer_id" binding:"required"`
}

type refundRequest struct {
	TransactionID uuid.UUID        `json:"transaction_id" binding:"required"`
	Amount        *decimal.Decimal `json:"amount"`
	Reason        string           `json:"reason"`
}

type transactionResponse struct {
	ID                uuid.UUID        `json:"id"`
	Number            string           `json:"number"`
	ProviderPaymentID string           `json:"provider_payment_id"`
	InvoiceID         uuid.UUID        `json:"invoice_id"`
	PayerID           uuid.UUID        `json:"payer_id"`
	Amount            decimal.Decimal  `json:"amount"`
	RefundedAmount    *decimal.Decimal `json:"refunded_amount,omitempty"`
	Status            string           `json:"status"`
	ProcessedAt       time.Time        `json:"processed_at"`
}

func toTransactionResponse(txn *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:                txn.ID,
		Number:            txn.Number,
		ProviderPaymentID: txn.ProviderPaymentID,
		InvoiceID:         txn.InvoiceID,
		PayerID:           txn.PayerID,
		Amount:            txn.Amount,
		RefundedAmount:    txn.RefundedAmount,
		Status:            string(txn.Status),
		ProcessedAt:       txn.ProcessedAt,
	}
}

func (h *Handler) handleCreatePaymentSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	session, err := h.invoices.CreatePaymentSession(c.Request.Context(), req.InvoiceID, req.PayerID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id":    session.SessionID,
		"client_secret": session.ClientSecret,
	})
}

func (h *Handler) handleConfirmSettlement(c *gin.Context) {
	var req confirmSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	// Client-asserted success: the reconciler re-verifies with the processor
	// before trusting it.
	txn, err := h.settler.Settle(c.Request.Context(), service.SettleRequest{
		ProviderPaymentID: req.SessionID,
		InvoiceID:         req.InvoiceID,
		PayerID:           req.PayerID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTransactionResponse(txn))
}

func (h *Handler) handleRefund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	refund, err := h.refunder.Refund(c.Request.Context(), req.TransactionID, req.Amount, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refund_id":      refund.ProviderRefundID,
		"transaction_id": refund.TransactionID,
		"invoice_id":     refund.InvoiceID,
		"amount":         refund.Amount,
		"reason":         refund.Reason,
	})
}
