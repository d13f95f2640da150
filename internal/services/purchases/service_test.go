package purchases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
	"github.com/dmarchuk/assetmarket/internal/domain/model"
	"github.com/dmarchuk/assetmarket/internal/infra/paypal"
	"github.com/dmarchuk/assetmarket/internal/repo/postgres"
	"github.com/dmarchuk/assetmarket/internal/services/purchases"
)

type fakeGateway struct {
	created  int
	captured []string
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountCents int64, currency, _ string) (paypal.Order, error) {
	f.created++
	return paypal.Order{
		ID:          "ORDER-1",
		Status:      "CREATED",
		ApprovalURL: "https://gateway.local/approve/ORDER-1",
	}, nil
}

// CaptureOrder rejects a second capture of the same order, like the real
// gateway does.
func (f *fakeGateway) CaptureOrder(_ context.Context, orderID string) (paypal.CaptureResult, error) {
	for _, captured := range f.captured {
		if captured == orderID {
			return paypal.CaptureResult{}, errors.New("unexpected paypal status 422 for POST /v2/checkout/orders/" + orderID + "/capture")
		}
	}
	f.captured = append(f.captured, orderID)
	return paypal.CaptureResult{OrderID: orderID, Status: "COMPLETED"}, nil
}

type fakeAssetFinder struct {
	assets map[string]postgres.AssetDetails
}

func (f *fakeAssetFinder) FindByID(_ context.Context, assetID string) (postgres.AssetDetails, error) {
	details, ok := f.assets[assetID]
	if !ok {
		return postgres.AssetDetails{}, postgres.ErrAssetNotFound
	}
	return details, nil
}

type fakePaymentStore struct {
	pending []postgres.PaymentRecord
	records map[string]*postgres.PaymentRecord
}

func (f *fakePaymentStore) CreatePending(_ context.Context, providerOrderID, userID, assetID string, amountCents int64, currency string) (postgres.PaymentRecord, error) {
	record := postgres.PaymentRecord{
		ID:              "pay-1",
		ProviderOrderID: providerOrderID,
		UserID:          userID,
		AssetID:         assetID,
		AmountCents:     amountCents,
		Currency:        currency,
		Status:          "pending",
	}
	f.pending = append(f.pending, record)
	if f.records == nil {
		f.records = map[string]*postgres.PaymentRecord{}
	}
	stored := record
	f.records[providerOrderID] = &stored
	return record, nil
}

func (f *fakePaymentStore) FindByProviderOrderID(_ context.Context, providerOrderID string) (postgres.PaymentRecord, error) {
	record, ok := f.records[providerOrderID]
	if !ok {
		return postgres.PaymentRecord{}, postgres.ErrPaymentNotFound
	}
	return *record, nil
}

type fakePurchaseStore struct {
	owned     map[string]bool
	finalized map[string]model.Purchase
	payments  *fakePaymentStore
}

func (f *fakePurchaseStore) Exists(_ context.Context, userID, assetID string) (bool, error) {
	return f.owned[userID+"/"+assetID], nil
}

// Finalize mirrors the real repo: the payment row flips to completed in the
// same step that creates the purchase.
func (f *fakePurchaseStore) Finalize(_ context.Context, providerOrderID string) (model.Purchase, bool, error) {
	if f.payments != nil {
		record, ok := f.payments.records[providerOrderID]
		if !ok {
			return model.Purchase{}, false, postgres.ErrPaymentNotFound
		}
		record.Status = string(enums.PaymentStatusCompleted)
	}
	if existing, ok := f.finalized[providerOrderID]; ok {
		return existing, false, nil
	}
	purchase := model.Purchase{ID: "purchase-" + providerOrderID, PriceCents: 500}
	if f.finalized == nil {
		f.finalized = map[string]model.Purchase{}
	}
	f.finalized[providerOrderID] = purchase
	return purchase, true, nil
}

func (f *fakePurchaseStore) ListByUser(_ context.Context, _ string) ([]postgres.PurchaseListing, error) {
	return nil, nil
}

func approvedAsset(id string) postgres.AssetDetails {
	return postgres.AssetDetails{
		Asset: model.Asset{ID: id, Title: "Pack", Status: enums.ApprovalStatusApproved},
	}
}

func newPurchasesForTest(gateway *fakeGateway, assets *fakeAssetFinder, payments *fakePaymentStore, store *fakePurchaseStore) *purchases.Service {
	return purchases.NewService(gateway, assets, payments, store, 500, "USD", nil)
}

func TestCreateOrderRecordsPendingPayment(t *testing.T) {
	gateway := &fakeGateway{}
	payments := &fakePaymentStore{}
	svc := newPurchasesForTest(gateway,
		&fakeAssetFinder{assets: map[string]postgres.AssetDetails{"a1": approvedAsset("a1")}},
		payments,
		&fakePurchaseStore{})

	order, err := svc.CreateOrder(context.Background(), "user-1", "a1")
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.ApprovalURL == "" {
		t.Fatalf("expected approval url")
	}
	if order.AmountCents != 500 || order.Currency != "USD" {
		t.Fatalf("unexpected order terms: %+v", order)
	}
	if len(payments.pending) != 1 {
		t.Fatalf("expected one pending payment, got %d", len(payments.pending))
	}
	if payments.pending[0].UserID != "user-1" || payments.pending[0].AssetID != "a1" {
		t.Fatalf("pending payment must carry buyer and asset: %+v", payments.pending[0])
	}
}

func TestCreateOrderShortCircuitsWhenOwned(t *testing.T) {
	gateway := &fakeGateway{}
	payments := &fakePaymentStore{}
	svc := newPurchasesForTest(gateway,
		&fakeAssetFinder{assets: map[string]postgres.AssetDetails{"a1": approvedAsset("a1")}},
		payments,
		&fakePurchaseStore{owned: map[string]bool{"user-1/a1": true}})

	if _, err := svc.CreateOrder(context.Background(), "user-1", "a1"); !errors.Is(err, purchases.ErrAlreadyPurchased) {
		t.Fatalf("expected ErrAlreadyPurchased, got %v", err)
	}
	if gateway.created != 0 || len(payments.pending) != 0 {
		t.Fatalf("owned asset must not reach the gateway")
	}
}

func TestCreateOrderRejectsUnapprovedAsset(t *testing.T) {
	pendingAsset := postgres.AssetDetails{
		Asset: model.Asset{ID: "a2", Title: "Draft", Status: enums.ApprovalStatusPending},
	}
	svc := newPurchasesForTest(&fakeGateway{},
		&fakeAssetFinder{assets: map[string]postgres.AssetDetails{"a2": pendingAsset}},
		&fakePaymentStore{},
		&fakePurchaseStore{})

	if _, err := svc.CreateOrder(context.Background(), "user-1", "a2"); !errors.Is(err, purchases.ErrAssetUnavailable) {
		t.Fatalf("expected ErrAssetUnavailable, got %v", err)
	}
	if _, err := svc.CreateOrder(context.Background(), "user-1", "missing"); !errors.Is(err, purchases.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestCompleteOrderIsIdempotent(t *testing.T) {
	gateway := &fakeGateway{}
	payments := &fakePaymentStore{}
	store := &fakePurchaseStore{payments: payments}
	svc := newPurchasesForTest(gateway,
		&fakeAssetFinder{assets: map[string]postgres.AssetDetails{"a1": approvedAsset("a1")}},
		payments,
		store)
	ctx := context.Background()

	if _, err := svc.CreateOrder(ctx, "user-1", "a1"); err != nil {
		t.Fatalf("create order: %v", err)
	}

	first, err := svc.CompleteOrder(ctx, "ORDER-1")
	if err != nil {
		t.Fatalf("first capture: %v", err)
	}
	if first.Repeated {
		t.Fatalf("first capture should not be repeated")
	}

	// The gateway fake fails a second capture outright, so passing here means
	// the re-delivered webhook never reached it.
	second, err := svc.CompleteOrder(ctx, "ORDER-1")
	if err != nil {
		t.Fatalf("re-delivered webhook should return the existing purchase, got error: %v", err)
	}
	if !second.Repeated {
		t.Fatalf("second capture should report repeated delivery")
	}
	if second.Purchase.ID != first.Purchase.ID {
		t.Fatalf("repeated capture must return the same purchase")
	}
	if len(gateway.captured) != 1 {
		t.Fatalf("completed payment must not be captured again, captures: %v", gateway.captured)
	}
}

func TestCompleteOrderUnknownPayment(t *testing.T) {
	svc := newPurchasesForTest(&fakeGateway{},
		&fakeAssetFinder{},
		&fakePaymentStore{},
		&fakePurchaseStore{})

	if _, err := svc.CompleteOrder(context.Background(), "ORDER-MISSING"); !errors.Is(err, purchases.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}
