package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clubledger/billing-engine/internal/domain"
)

const uniqueViolation = "23505"

// Ledger is the durable store for invoices and transactions. Settlement and
// refund writes span both tables in a single database transaction; the
// partial unique index on provider_payment_id is the only mutual exclusion
// between racing settlers.
type Ledger struct {
	db *pgxpool.Pool
}

func NewLedger(db *pgxpool.Pool) *Ledger {
	return &Ledger{db: db}
}

type CreateInvoiceParams struct {
	PayerID      uuid.UUID
	BillableItem string
	Amount       decimal.Decimal
	TaxAmount    decimal.Decimal
	Description  string
	DueAt        time.Time
}

const invoiceColumns = `id, number, payer_id, billable_item, amount, tax_amount,
	total_amount, description, status, issued_at, due_at, paid_at, created_at`

const transactionColumns = `id, number, provider_payment_id, invoice_id, payer_id,
	amount, refunded_amount, status, processed_at, created_at`

func (l *Ledger) CreateInvoice(ctx context.Context, p CreateInvoiceParams) (*domain.Invoice, error) {
	row := l.db.QueryRow(ctx, `
		INSERT INTO invoices (id, number, payer_id, billable_item, amount,
			tax_amount, total_amount, description, due_at)
		VALUES ($1, 'INV-' || to_char(nextval('invoice_number_seq'), 'FM000000'),
			$2, $3, $4, $5, $4 + $5, $6, $7)
		RETURNING `+invoiceColumns,
		uuid.New(), p.PayerID, p.BillableItem, p.Amount, p.TaxAmount, p.Description, p.DueAt)

	inv, err := scanInvoice(row)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	return inv, nil
}

func (l *Ledger) GetInvoice(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	row := l.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (l *Ledger) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := l.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactionByProviderPaymentID returns the settled (succeeded or
// refunded) transaction for a provider payment id.
func (l *Ledger) GetTransactionByProviderPaymentID(ctx context.Context, providerPaymentID string) (*domain.Transaction, error) {
	row := l.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE provider_payment_id = $1 AND status IN ('succeeded', 'refunded')`,
		providerPaymentID)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction by provider payment id: %w", err)
	}
	return txn, nil
}

type SettleParams struct {
	ProviderPaymentID string
	InvoiceID         uuid.UUID
	PayerID           uuid.UUID
	Amount            decimal.Decimal
}

// SettleInvoice records a succeeded transaction and marks its invoice paid
// in one atomic unit. A concurrent settlement of the same provider payment
// id surfaces as domain.ErrDuplicateTransaction; the caller re-reads the
// winner's row instead of failing. An invoice concurrently settled by a
// different payment surfaces as domain.ErrAlreadySettled.
func (l *Ledger) SettleInvoice(ctx context.Context, p SettleParams) (*domain.Transaction, error) {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var status domain.InvoiceStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM invoices WHERE id = $1 FOR UPDATE`,
		p.InvoiceID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("lock invoice: %w", err)
	}
	if status != domain.InvoiceStatusPending {
		// Another settlement committed between the caller's idempotency
		// check and here. The caller distinguishes same-payment duplicates
		// from a genuinely different payment.
		return nil, domain.ErrAlreadySettled
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO transactions (id, number, provider_payment_id, invoice_id,
			payer_id, amount, status)
		VALUES ($1, 'TXN-' || to_char(nextval('transaction_number_seq'), 'FM000000'),
			$2, $3, $4, $5, 'succeeded')
		RETURNING `+transactionColumns,
		uuid.New(), p.ProviderPaymentID, p.InvoiceID, p.PayerID, p.Amount)

	txn, err := scanTransaction(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if pgErr.ConstraintName == "uq_transactions_invoice_settled" {
				return nil, domain.ErrAlreadySettled
			}
			return nil, domain.ErrDuplicateTransaction
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE invoices SET status = 'paid', paid_at = now() WHERE id = $1`,
		p.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("mark invoice paid: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrDuplicateTransaction
		}
		return nil, fmt.Errorf("commit: %w", err)
	}
	return txn, nil
}

// MarkRefunded flips a transaction and its invoice to refunded in one atomic
// unit, recording the refunded amount.
func (l *Ledger) MarkRefunded(ctx context.Context, transactionID uuid.UUID, amount decimal.Decimal) (*domain.Transaction, error) {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE transactions
		SET status = 'refunded', refunded_amount = $2
		WHERE id = $1 AND status = 'succeeded'
		RETURNING `+transactionColumns,
		transactionID, amount)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("mark transaction refunded: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE invoices SET status = 'refunded' WHERE id = $1`,
		txn.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("mark invoice refunded: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return txn, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.PayerID, &inv.BillableItem,
		&inv.Amount, &inv.TaxAmount, &inv.TotalAmount, &inv.Description,
		&inv.Status, &inv.IssuedAt, &inv.DueAt, &inv.PaidAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := row.Scan(&txn.ID, &txn.Number, &txn.ProviderPaymentID, &txn.InvoiceID,
		&txn.PayerID, &txn.Amount, &txn.RefundedAmount, &txn.Status,
		&txn.ProcessedAt, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
