package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
	"github.com/dmarchuk/assetmarket/internal/domain/model"
	"github.com/dmarchuk/assetmarket/internal/infra/paypal"
	"github.com/dmarchuk/assetmarket/internal/repo/postgres"
	authsvc "github.com/dmarchuk/assetmarket/internal/services/auth"
	"github.com/dmarchuk/assetmarket/internal/services/catalog"
	"github.com/dmarchuk/assetmarket/internal/services/purchases"
)

type assetStoreStub struct {
	details map[string]postgres.AssetDetails
}

func (s *assetStoreStub) Create(_ context.Context, params postgres.CreateAssetParams) (model.Asset, error) {
	return model.Asset{}, nil
}

func (s *assetStoreStub) FindByID(_ context.Context, assetID string) (postgres.AssetDetails, error) {
	details, ok := s.details[assetID]
	if !ok {
		return postgres.AssetDetails{}, postgres.ErrAssetNotFound
	}
	return details, nil
}

func (s *assetStoreStub) ListPublic(_ context.Context, _ *int64) ([]postgres.AssetListing, error) {
	return nil, nil
}

func (s *assetStoreStub) ListByUser(_ context.Context, _ string) ([]model.Asset, error) {
	return nil, nil
}

func (s *assetStoreStub) Count(_ context.Context) (int64, error) { return 0, nil }

type categoryStoreStub struct{}

func (categoryStoreStub) Create(_ context.Context, name string) (model.Category, error) {
	return model.Category{ID: 1, Name: name}, nil
}

func (categoryStoreStub) FindByName(_ context.Context, _ string) (model.Category, error) {
	return model.Category{}, postgres.ErrCategoryNotFound
}

func (categoryStoreStub) List(_ context.Context) ([]model.Category, error) { return nil, nil }

func (categoryStoreStub) Delete(_ context.Context, _ int64) error { return nil }

type userCounterStub struct{}

func (userCounterStub) Count(_ context.Context) (int64, error) { return 0, nil }

type purchaseStoreStub struct {
	owned map[string]bool
}

func (s *purchaseStoreStub) Exists(_ context.Context, userID, assetID string) (bool, error) {
	return s.owned[userID+"/"+assetID], nil
}

func (s *purchaseStoreStub) Finalize(_ context.Context, providerOrderID string) (model.Purchase, bool, error) {
	return model.Purchase{ID: "purchase-1"}, true, nil
}

func (s *purchaseStoreStub) ListByUser(_ context.Context, _ string) ([]postgres.PurchaseListing, error) {
	return nil, nil
}

type gatewayStub struct{}

func (gatewayStub) CreateOrder(_ context.Context, _ int64, _, _ string) (paypal.Order, error) {
	return paypal.Order{ID: "ORDER-1", ApprovalURL: "https://gateway.local/approve"}, nil
}

func (gatewayStub) CaptureOrder(_ context.Context, orderID string) (paypal.CaptureResult, error) {
	return paypal.CaptureResult{OrderID: orderID, Status: "COMPLETED"}, nil
}

type paymentStoreStub struct{}

func (paymentStoreStub) CreatePending(_ context.Context, providerOrderID, userID, assetID string, amountCents int64, currency string) (postgres.PaymentRecord, error) {
	return postgres.PaymentRecord{ID: "pay-1", ProviderOrderID: providerOrderID}, nil
}

func (paymentStoreStub) FindByProviderOrderID(_ context.Context, providerOrderID string) (postgres.PaymentRecord, error) {
	return postgres.PaymentRecord{ID: "pay-1", ProviderOrderID: providerOrderID, Status: "pending"}, nil
}

func withURLParam(ctx context.Context, key, value string) context.Context {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return context.WithValue(ctx, chi.RouteCtxKey, rctx)
}

func newDownloadHandlerForTest(owned map[string]bool) *DownloadHandler {
	assets := &assetStoreStub{details: map[string]postgres.AssetDetails{
		"a1": {Asset: model.Asset{
			ID:      "a1",
			Title:   "Pack",
			FileURL: "https://cdn.local/assets/u1/pack.zip",
			Status:  enums.ApprovalStatusApproved,
		}},
	}}
	catalogSvc := catalog.NewService(categoryStoreStub{}, assets, userCounterStub{}, nil, nil)
	purchaseSvc := purchases.NewService(gatewayStub{}, assets, paymentStoreStub{}, &purchaseStoreStub{owned: owned}, 500, "USD", nil)
	return NewDownloadHandler(catalogSvc, purchaseSvc)
}

func TestDownloadRedirectsAnonymousToLogin(t *testing.T) {
	handler := newDownloadHandlerForTest(nil)

	req := httptest.NewRequest(http.MethodGet, "/download/a1", nil)
	req = req.WithContext(withURLParam(req.Context(), "assetID", "a1"))
	rr := httptest.NewRecorder()

	handler.Handle(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusFound)
	}
	if location := rr.Header().Get("Location"); location != "/login" {
		t.Fatalf("unexpected redirect: %q", location)
	}
}

func TestDownloadRedirectsUnpurchasedToAssetPage(t *testing.T) {
	handler := newDownloadHandlerForTest(nil)

	req := httptest.NewRequest(http.MethodGet, "/download/a1", nil)
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: "user-1",
		SID:    "sid-1",
		Role:   "user",
	}))
	req = req.WithContext(withURLParam(req.Context(), "assetID", "a1"))
	rr := httptest.NewRecorder()

	handler.Handle(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusFound)
	}
	if location := rr.Header().Get("Location"); location != "/gallery/a1" {
		t.Fatalf("unexpected redirect: %q", location)
	}
}

func TestDownloadServesFileURLToBuyer(t *testing.T) {
	handler := newDownloadHandlerForTest(map[string]bool{"user-1/a1": true})

	req := httptest.NewRequest(http.MethodGet, "/download/a1", nil)
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: "user-1",
		SID:    "sid-1",
		Role:   "user",
	}))
	req = req.WithContext(withURLParam(req.Context(), "assetID", "a1"))
	rr := httptest.NewRecorder()

	handler.Handle(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusFound)
	}
	if location := rr.Header().Get("Location"); location != "https://cdn.local/assets/u1/pack.zip" {
		t.Fatalf("unexpected redirect: %q", location)
	}
}

func TestDownloadUnknownAsset(t *testing.T) {
	handler := newDownloadHandlerForTest(nil)

	req := httptest.NewRequest(http.MethodGet, "/download/missing", nil)
	req = req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: "user-1",
		SID:    "sid-1",
		Role:   "user",
	}))
	req = req.WithContext(withURLParam(req.Context(), "assetID", "missing"))
	rr := httptest.NewRecorder()

	handler.Handle(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
}
