package domain

import "errors"

var (
	ErrInvalidAmount          = errors.New("billing: invalid amount")
	ErrInvalidRequest         = errors.New("billing: invalid request")
	ErrInvoiceNotFound        = errors.New("billing: invoice not found")
	ErrTransactionNotFound    = errors.New("billing: transaction not found")
	ErrProcessorUnavailable   = errors.New("billing: payment processor unavailable")
	ErrProcessorRejected      = errors.New("billing: payment processor rejected the request")
	ErrProcessorConfig        = errors.New("billing: payment processor misconfigured")
	ErrSignatureInvalid       = errors.New("billing: webhook signature invalid")
	ErrSettlementNotConfirmed = errors.New("billing: settlement not confirmed by processor")
	ErrAmountMismatch         = errors.New("billing: confirmed amount does not match invoice total")
	ErrAlreadySettled         = errors.New("billing: invoice already settled by another payment")
	ErrAlreadyRefunded        = errors.New("billing: transaction already refunded")
	ErrRefundNotSettled       = errors.New("billing: refund requires a succeeded transaction")
	ErrDuplicateTransaction   = errors.New("billing: transaction already recorded for this payment")
)
