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

var ErrPurchaseNotFound = errors.New("purchase not found")

type PurchaseRepo struct {
	pool *pgxpool.Pool
}

// PurchaseDetails is the purchase joined with the asset, payment and buyer
// rows the invoice needs.
type PurchaseDetails struct {
	Purchase   model.Purchase
	AssetTitle string
	Payment    PaymentRecord
	BuyerName  string
	BuyerEmail string
}

// PurchaseListing is a purchase joined with its asset title for the
// purchases page.
type PurchaseListing struct {
	Purchase   model.Purchase
	AssetTitle string
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

func (r *PurchaseRepo) Exists(ctx context.Context, userID, assetID string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(assetID) == "" {
		return false, fmt.Errorf("invalid purchase lookup payload")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS(
	SELECT 1 FROM purchases WHERE user_id = $1 AND asset_id = $2
)
`, userID, assetID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existing purchase: %w", err)
	}

	return exists, nil
}

// Finalize marks the pending payment completed and inserts the purchase row
// in one transaction. Re-delivery of the same capture returns the existing
// purchase with created=false.
func (r *PurchaseRepo) Finalize(ctx context.Context, providerOrderID string) (model.Purchase, bool, error) {
	if r.pool == nil {
		return model.Purchase{}, false, fmt.Errorf("postgres pool is nil")
	}
	providerOrderID = strings.TrimSpace(providerOrderID)
	if providerOrderID == "" {
		return model.Purchase{}, false, fmt.Errorf("invalid provider order id")
	}

	var (
		purchase model.Purchase
		created  bool
	)
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var payment PaymentRecord
		err := tx.QueryRow(ctx, `
SELECT id, provider_order_id, user_id, asset_id, amount_cents, currency, status, created_at, updated_at
FROM payments
WHERE provider_order_id = $1
FOR UPDATE
`, providerOrderID).Scan(
			&payment.ID, &payment.ProviderOrderID, &payment.UserID, &payment.AssetID,
			&payment.AmountCents, &payment.Currency, &payment.Status, &payment.CreatedAt, &payment.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("lock payment row: %w", err)
		}

		if payment.Status != "completed" {
			if _, err := tx.Exec(ctx, `
UPDATE payments SET status = 'completed', updated_at = NOW() WHERE id = $1
`, payment.ID); err != nil {
				return fmt.Errorf("mark payment completed: %w", err)
			}
		}

		err = tx.QueryRow(ctx, `
INSERT INTO purchases (id, user_id, asset_id, payment_id, price_cents, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
ON CONFLICT (user_id, asset_id) DO NOTHING
RETURNING id, user_id, asset_id, payment_id, price_cents, created_at
`, uuid.NewString(), payment.UserID, payment.AssetID, payment.ID, payment.AmountCents).Scan(
			&purchase.ID, &purchase.UserID, &purchase.AssetID, &purchase.PaymentID,
			&purchase.PriceCents, &purchase.CreatedAt)
		if err == nil {
			created = true
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("insert purchase: %w", err)
		}

		err = tx.QueryRow(ctx, `
SELECT id, user_id, asset_id, payment_id, price_cents, created_at
FROM purchases
WHERE user_id = $1 AND asset_id = $2
`, payment.UserID, payment.AssetID).Scan(
			&purchase.ID, &purchase.UserID, &purchase.AssetID, &purchase.PaymentID,
			&purchase.PriceCents, &purchase.CreatedAt)
		if err != nil {
			return fmt.Errorf("load existing purchase: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Purchase{}, false, err
	}

	return purchase, created, nil
}

func (r *PurchaseRepo) FindDetails(ctx context.Context, purchaseID string) (PurchaseDetails, error) {
	if r.pool == nil {
		return PurchaseDetails{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(purchaseID) == "" {
		return PurchaseDetails{}, fmt.Errorf("invalid purchase id")
	}

	var details PurchaseDetails
	err := r.pool.QueryRow(ctx, `
SELECT
	p.id, p.user_id, p.asset_id, p.payment_id, p.price_cents, p.created_at,
	a.title,
	pay.id, pay.provider_order_id, pay.user_id, pay.asset_id, pay.amount_cents, pay.currency, pay.status, pay.created_at, pay.updated_at,
	u.name, u.email
FROM purchases p
INNER JOIN assets a ON p.asset_id = a.id
INNER JOIN payments pay ON p.payment_id = pay.id
INNER JOIN users u ON p.user_id = u.id
WHERE p.id = $1
LIMIT 1
`, purchaseID).Scan(
		&details.Purchase.ID, &details.Purchase.UserID, &details.Purchase.AssetID,
		&details.Purchase.PaymentID, &details.Purchase.PriceCents, &details.Purchase.CreatedAt,
		&details.AssetTitle,
		&details.Payment.ID, &details.Payment.ProviderOrderID, &details.Payment.UserID,
		&details.Payment.AssetID, &details.Payment.AmountCents, &details.Payment.Currency,
		&details.Payment.Status, &details.Payment.CreatedAt, &details.Payment.UpdatedAt,
		&details.BuyerName, &details.BuyerEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseDetails{}, ErrPurchaseNotFound
		}
		return PurchaseDetails{}, fmt.Errorf("find purchase details: %w", err)
	}

	return details, nil
}

func (r *PurchaseRepo) ListByUser(ctx context.Context, userID string) ([]PurchaseListing, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT p.id, p.user_id, p.asset_id, p.payment_id, p.price_cents, p.created_at, a.title
FROM purchases p
INNER JOIN assets a ON p.asset_id = a.id
WHERE p.user_id = $1
ORDER BY p.created_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	listings := make([]PurchaseListing, 0)
	for rows.Next() {
		var listing PurchaseListing
		if err := rows.Scan(
			&listing.Purchase.ID, &listing.Purchase.UserID, &listing.Purchase.AssetID,
			&listing.Purchase.PaymentID, &listing.Purchase.PriceCents, &listing.Purchase.CreatedAt,
			&listing.AssetTitle); err != nil {
			return nil, fmt.Errorf("scan purchase listing: %w", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase listings: %w", err)
	}

	return listings, nil
}
