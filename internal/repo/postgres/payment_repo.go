package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPaymentNotFound = errors.New("payment not found")

type PaymentRepo struct {
	pool *pgxpool.Pool
}

// PaymentRecord carries the buyer and asset so the capture step can create
// the purchase row without trusting webhook payload fields.
type PaymentRecord struct {
	ID              string
	ProviderOrderID string
	UserID          string
	AssetID         string
	AmountCents     int64
	Currency        string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

func (r *PaymentRepo) CreatePending(ctx context.Context, providerOrderID, userID, assetID string, amountCents int64, currency string) (PaymentRecord, error) {
	if r.pool == nil {
		return PaymentRecord{}, fmt.Errorf("postgres pool is nil")
	}
	providerOrderID = strings.TrimSpace(providerOrderID)
	if providerOrderID == "" || strings.TrimSpace(userID) == "" || strings.TrimSpace(assetID) == "" || amountCents <= 0 {
		return PaymentRecord{}, fmt.Errorf("invalid payment create payload")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}

	record, err := scanPayment(r.pool.QueryRow(ctx, `
INSERT INTO payments (id, provider_order_id, user_id, asset_id, amount_cents, currency, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, 'pending', NOW(), NOW())
RETURNING id, provider_order_id, user_id, asset_id, amount_cents, currency, status, created_at, updated_at
`, uuid.NewString(), providerOrderID, userID, assetID, amountCents, currency))
	if err != nil {
		return PaymentRecord{}, fmt.Errorf("insert pending payment: %w", err)
	}

	return record, nil
}

func (r *PaymentRepo) FindByProviderOrderID(ctx context.Context, providerOrderID string) (PaymentRecord, error) {
	if r.pool == nil {
		return PaymentRecord{}, fmt.Errorf("postgres pool is nil")
	}
	providerOrderID = strings.TrimSpace(providerOrderID)
	if providerOrderID == "" {
		return PaymentRecord{}, fmt.Errorf("invalid provider order id")
	}

	record, err := scanPayment(r.pool.QueryRow(ctx, `
SELECT id, provider_order_id, user_id, asset_id, amount_cents, currency, status, created_at, updated_at
FROM payments
WHERE provider_order_id = $1
LIMIT 1
`, providerOrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PaymentRecord{}, ErrPaymentNotFound
		}
		return PaymentRecord{}, fmt.Errorf("find payment by provider order id: %w", err)
	}

	return record, nil
}

func scanPayment(row pgx.Row) (PaymentRecord, error) {
	var record PaymentRecord
	if err := row.Scan(
		&record.ID,
		&record.ProviderOrderID,
		&record.UserID,
		&record.AssetID,
		&record.AmountCents,
		&record.Currency,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return PaymentRecord{}, err
	}
	return record, nil
}
