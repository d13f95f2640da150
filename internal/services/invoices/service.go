package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
	"github.com/dmarchuk/assetmarket/internal/domain/model"
	"github.com/dmarchuk/assetmarket/internal/repo/postgres"
	"github.com/dmarchuk/assetmarket/internal/services/auth"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrForbidden        = errors.New("forbidden")
)

type PurchaseStore interface {
	FindDetails(ctx context.Context, purchaseID string) (postgres.PurchaseDetails, error)
}

type InvoiceStore interface {
	NextSequence(ctx context.Context) (int64, error)
	Create(ctx context.Context, params postgres.CreateInvoiceParams) (model.Invoice, error)
	FindByID(ctx context.Context, invoiceID string) (model.Invoice, error)
	ListByUser(ctx context.Context, userID string) ([]model.Invoice, error)
}

type Service struct {
	purchases PurchaseStore
	invoices  InvoiceStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(purchases PurchaseStore, invoices InvoiceStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		purchases: purchases,
		invoices:  invoices,
		logger:    logger,
		now:       time.Now,
	}
}

// Create issues an invoice for a purchase the caller owns (admins may issue
// for anyone). The number comes from a store sequence, so it is unique even
// under concurrent creation.
func (s *Service) Create(ctx context.Context, identity auth.Identity, purchaseID string) (model.Invoice, error) {
	if strings.TrimSpace(purchaseID) == "" {
		return model.Invoice{}, fmt.Errorf("invalid purchase id: %w", ErrValidation)
	}

	details, err := s.purchases.FindDetails(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, postgres.ErrPurchaseNotFound) {
			return model.Invoice{}, ErrPurchaseNotFound
		}
		return model.Invoice{}, fmt.Errorf("load purchase: %w", err)
	}

	if !auth.CanAccessOwned(identity, details.Purchase.UserID) {
		return model.Invoice{}, ErrForbidden
	}

	number, err := s.nextNumber(ctx)
	if err != nil {
		return model.Invoice{}, err
	}

	issuedAt := s.now().UTC()
	html, err := renderInvoiceHTML(
		number,
		issuedAt,
		string(enums.InvoiceStatusPaid),
		details.BuyerName,
		details.BuyerEmail,
		details.AssetTitle,
		details.Purchase.PriceCents,
		details.Payment.Currency,
	)
	if err != nil {
		return model.Invoice{}, err
	}

	invoice, err := s.invoices.Create(ctx, postgres.CreateInvoiceParams{
		InvoiceNumber: number,
		PurchaseID:    details.Purchase.ID,
		UserID:        details.Purchase.UserID,
		AmountCents:   details.Purchase.PriceCents,
		Currency:      details.Payment.Currency,
		Status:        string(enums.InvoiceStatusPaid),
		HTMLContent:   html,
	})
	if err != nil {
		return model.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}

	s.logger.Info("invoice issued",
		zap.String("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("purchase_id", purchaseID))

	return invoice, nil
}

// GetByID returns the invoice when the caller owns it or is an admin.
func (s *Service) GetByID(ctx context.Context, identity auth.Identity, invoiceID string) (model.Invoice, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return model.Invoice{}, fmt.Errorf("invalid invoice id: %w", ErrValidation)
	}

	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, postgres.ErrInvoiceNotFound) {
			return model.Invoice{}, ErrInvoiceNotFound
		}
		return model.Invoice{}, fmt.Errorf("load invoice: %w", err)
	}

	if !auth.CanAccessOwned(identity, invoice.UserID) {
		return model.Invoice{}, ErrForbidden
	}

	return invoice, nil
}

// GetHTML returns the persisted invoice document for rendering.
func (s *Service) GetHTML(ctx context.Context, identity auth.Identity, invoiceID string) (string, error) {
	invoice, err := s.GetByID(ctx, identity, invoiceID)
	if err != nil {
		return "", err
	}
	return invoice.HTMLContent, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]model.Invoice, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("invalid user id: %w", ErrValidation)
	}

	invoices, err := s.invoices.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (s *Service) nextNumber(ctx context.Context) (string, error) {
	seq, err := s.invoices.NextSequence(ctx)
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}
	return fmt.Sprintf("INV-%s-%04d", s.now().UTC().Format("200601"), seq), nil
}
