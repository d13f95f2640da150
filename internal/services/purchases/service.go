package purchases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
	"github.com/dmarchuk/assetmarket/internal/domain/model"
	"github.com/dmarchuk/assetmarket/internal/infra/paypal"
	"github.com/dmarchuk/assetmarket/internal/repo/postgres"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrAssetNotFound    = errors.New("asset not found")
	ErrAssetUnavailable = errors.New("asset is not available for purchase")
	ErrAlreadyPurchased = errors.New("asset already purchased")
	ErrPaymentNotFound  = errors.New("payment not found")
)

type Gateway interface {
	CreateOrder(ctx context.Context, amountCents int64, currency, description string) (paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (paypal.CaptureResult, error)
}

type AssetStore interface {
	FindByID(ctx context.Context, assetID string) (postgres.AssetDetails, error)
}

type PaymentStore interface {
	CreatePending(ctx context.Context, providerOrderID, userID, assetID string, amountCents int64, currency string) (postgres.PaymentRecord, error)
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (postgres.PaymentRecord, error)
}

type PurchaseStore interface {
	Exists(ctx context.Context, userID, assetID string) (bool, error)
	Finalize(ctx context.Context, providerOrderID string) (model.Purchase, bool, error)
	ListByUser(ctx context.Context, userID string) ([]postgres.PurchaseListing, error)
}

type Service struct {
	gateway    Gateway
	assets     AssetStore
	payments   PaymentStore
	purchases  PurchaseStore
	priceCents int64
	currency   string
	logger     *zap.Logger
}

// Order is the pending checkout handed back to the client.
type Order struct {
	ProviderOrderID string
	ApprovalURL     string
	AmountCents     int64
	Currency        string
}

// Receipt is the outcome of a completed capture.
type Receipt struct {
	Purchase model.Purchase
	Repeated bool
}

func NewService(gateway Gateway, assets AssetStore, payments PaymentStore, purchases PurchaseStore, priceCents int64, currency string, logger *zap.Logger) *Service {
	if priceCents <= 0 {
		priceCents = 500
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		gateway:    gateway,
		assets:     assets,
		payments:   payments,
		purchases:  purchases,
		priceCents: priceCents,
		currency:   currency,
		logger:     logger,
	}
}

func (s *Service) CheckExisting(ctx context.Context, userID, assetID string) (bool, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(assetID) == "" {
		return false, ErrValidation
	}

	exists, err := s.purchases.Exists(ctx, userID, assetID)
	if err != nil {
		return false, fmt.Errorf("check existing purchase: %w", err)
	}
	return exists, nil
}

// CreateOrder opens a checkout for the fixed asset price. Already-owned
// assets short-circuit before any gateway call.
func (s *Service) CreateOrder(ctx context.Context, userID, assetID string) (Order, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(assetID) == "" {
		return Order{}, ErrValidation
	}
	if s.gateway == nil {
		return Order{}, fmt.Errorf("payment gateway is not configured")
	}

	owned, err := s.purchases.Exists(ctx, userID, assetID)
	if err != nil {
		return Order{}, fmt.Errorf("check existing purchase: %w", err)
	}
	if owned {
		return Order{}, ErrAlreadyPurchased
	}

	details, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, postgres.ErrAssetNotFound) {
			return Order{}, ErrAssetNotFound
		}
		return Order{}, fmt.Errorf("load asset: %w", err)
	}
	if details.Asset.Status != enums.ApprovalStatusApproved {
		return Order{}, ErrAssetUnavailable
	}

	gatewayOrder, err := s.gateway.CreateOrder(ctx, s.priceCents, s.currency, details.Asset.Title)
	if err != nil {
		return Order{}, fmt.Errorf("create gateway order: %w", err)
	}

	if _, err := s.payments.CreatePending(ctx, gatewayOrder.ID, userID, assetID, s.priceCents, s.currency); err != nil {
		return Order{}, fmt.Errorf("record pending payment: %w", err)
	}

	s.logger.Info("checkout opened",
		zap.String("asset_id", assetID),
		zap.String("user_id", userID),
		zap.String("provider_order_id", gatewayOrder.ID))

	return Order{
		ProviderOrderID: gatewayOrder.ID,
		ApprovalURL:     gatewayOrder.ApprovalURL,
		AmountCents:     s.priceCents,
		Currency:        s.currency,
	}, nil
}

// CompleteOrder captures the approved order and finalizes the purchase.
// Repeated deliveries of the same order id return the existing purchase.
func (s *Service) CompleteOrder(ctx context.Context, providerOrderID string) (Receipt, error) {
	providerOrderID = strings.TrimSpace(providerOrderID)
	if providerOrderID == "" {
		return Receipt{}, ErrValidation
	}
	if s.gateway == nil {
		return Receipt{}, fmt.Errorf("payment gateway is not configured")
	}

	payment, err := s.payments.FindByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		if errors.Is(err, postgres.ErrPaymentNotFound) {
			return Receipt{}, ErrPaymentNotFound
		}
		return Receipt{}, fmt.Errorf("load payment: %w", err)
	}

	// A re-delivered webhook arrives after the payment is completed, and the
	// gateway rejects a second capture of the same order. Skip straight to the
	// existing purchase.
	if payment.Status != string(enums.PaymentStatusCompleted) {
		if _, err := s.gateway.CaptureOrder(ctx, providerOrderID); err != nil {
			return Receipt{}, fmt.Errorf("capture gateway order: %w", err)
		}
	}

	purchase, created, err := s.purchases.Finalize(ctx, providerOrderID)
	if err != nil {
		if errors.Is(err, postgres.ErrPaymentNotFound) {
			return Receipt{}, ErrPaymentNotFound
		}
		return Receipt{}, fmt.Errorf("finalize purchase: %w", err)
	}

	s.logger.Info("purchase finalized",
		zap.String("purchase_id", purchase.ID),
		zap.String("provider_order_id", providerOrderID),
		zap.Bool("repeated", !created))

	return Receipt{Purchase: purchase, Repeated: !created}, nil
}

func (s *Service) ListPurchases(ctx context.Context, userID string) ([]postgres.PurchaseListing, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrValidation
	}

	listings, err := s.purchases.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return listings, nil
}
