package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmarchuk/assetmarket/internal/domain/model"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

type InvoiceRepo struct {
	pool *pgxpool.Pool
}

type CreateInvoiceParams struct {
	InvoiceNumber string
	PurchaseID    string
	UserID        string
	AmountCents   int64
	Currency      string
	Status        string
	HTMLContent   string
}

func NewInvoiceRepo(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

// NextSequence pulls the next invoice-number suffix from the store sequence,
// so concurrent invoice creation never reuses a number.
func (r *InvoiceRepo) NextSequence(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var next int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&next); err != nil {
		return 0, fmt.Errorf("next invoice sequence: %w", err)
	}

	return next, nil
}

func (r *InvoiceRepo) Create(ctx context.Context, params CreateInvoiceParams) (model.Invoice, error) {
	if r.pool == nil {
		return model.Invoice{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(params.InvoiceNumber) == "" || strings.TrimSpace(params.PurchaseID) == "" || strings.TrimSpace(params.UserID) == "" {
		return model.Invoice{}, fmt.Errorf("invalid invoice create payload")
	}

	var invoice model.Invoice
	err := r.pool.QueryRow(ctx, `
INSERT INTO invoices (id, invoice_number, purchase_id, user_id, amount_cents, currency, status, html_content, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
RETURNING id, invoice_number, purchase_id, user_id, amount_cents, currency, status, html_content, created_at
`, uuid.NewString(), params.InvoiceNumber, params.PurchaseID, params.UserID,
		params.AmountCents, params.Currency, params.Status, params.HTMLContent).Scan(
		&invoice.ID, &invoice.InvoiceNumber, &invoice.PurchaseID, &invoice.UserID,
		&invoice.AmountCents, &invoice.Currency, &invoice.Status, &invoice.HTMLContent, &invoice.CreatedAt)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}

	return invoice, nil
}

func (r *InvoiceRepo) FindByID(ctx context.Context, invoiceID string) (model.Invoice, error) {
	if r.pool == nil {
		return model.Invoice{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(invoiceID) == "" {
		return model.Invoice{}, fmt.Errorf("invalid invoice id")
	}

	var invoice model.Invoice
	err := r.pool.QueryRow(ctx, `
SELECT id, invoice_number, purchase_id, user_id, amount_cents, currency, status, html_content, created_at
FROM invoices
WHERE id = $1
LIMIT 1
`, invoiceID).Scan(
		&invoice.ID, &invoice.InvoiceNumber, &invoice.PurchaseID, &invoice.UserID,
		&invoice.AmountCents, &invoice.Currency, &invoice.Status, &invoice.HTMLContent, &invoice.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Invoice{}, ErrInvoiceNotFound
		}
		return model.Invoice{}, fmt.Errorf("find invoice by id: %w", err)
	}

	return invoice, nil
}

func (r *InvoiceRepo) ListByUser(ctx context.Context, userID string) ([]model.Invoice, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, invoice_number, purchase_id, user_id, amount_cents, currency, status, html_content, created_at
FROM invoices
WHERE user_id = $1
ORDER BY created_at
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]model.Invoice, 0)
	for rows.Next() {
		var invoice model.Invoice
		if err := rows.Scan(
			&invoice.ID, &invoice.InvoiceNumber, &invoice.PurchaseID, &invoice.UserID,
			&invoice.AmountCents, &invoice.Currency, &invoice.Status, &invoice.HTMLContent, &invoice.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}

	return invoices, nil
}
