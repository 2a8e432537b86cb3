package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clubledger/billing-engine/internal/domain"
)

type errorResponse struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// writeError maps the domain error taxonomy onto stable HTTP codes.
// Processor unavailability is marked retryable: no ledger mutation happened,
// so repeating the request is always safe.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Code: "internal_error", Error: err.Error()}

	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidRequest):
		status, resp.Code = http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, domain.ErrInvoiceNotFound), errors.Is(err, domain.ErrTransactionNotFound):
		status, resp.Code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrAlreadySettled):
		status, resp.Code = http.StatusConflict, "already_settled"
	case errors.Is(err, domain.ErrAlreadyRefunded):
		status, resp.Code = http.StatusConflict, "already_refunded"
	case errors.Is(err, domain.ErrRefundNotSettled):
		status, resp.Code = http.StatusConflict, "refund_not_settled"
	case errors.Is(err, domain.ErrAmountMismatch):
		status, resp.Code = http.StatusConflict, "amount_mismatch"
	case errors.Is(err, domain.ErrSettlementNotConfirmed):
		status, resp.Code = http.StatusPaymentRequired, "settlement_not_confirmed"
		resp.Retryable = errors.Is(err, domain.ErrProcessorUnavailable)
	case errors.Is(err, domain.ErrProcessorUnavailable):
		status, resp.Code = http.StatusBadGateway, "processor_unavailable"
		resp.Retryable = true
	case errors.Is(err, domain.ErrProcessorRejected):
		status, resp.Code = http.StatusUnprocessableEntity, "processor_rejected"
	case errors.Is(err, domain.ErrProcessorConfig):
		status, resp.Code = http.StatusInternalServerError, "processor_config"
	case errors.Is(err, domain.ErrSignatureInvalid):
		status, resp.Code = http.StatusBadRequest, "signature_invalid"
	}

	c.JSON(status, resp)
}

func writeBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Code: "bad_request", Error: err.Error()})
}
