package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/dmarchuk/assetmarket/internal/services/auth"
	"github.com/dmarchuk/assetmarket/internal/services/purchases"
	"github.com/dmarchuk/assetmarket/internal/transport/http/dto"
	httperrors "github.com/dmarchuk/assetmarket/internal/transport/http/errors"
)

type PurchaseHandler struct {
	service *purchases.Service
}

func NewPurchaseHandler(service *purchases.Service) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PURCHASE_SERVICE_UNAVAILABLE", "purchase service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.CreatePurchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), identity.UserID, req.AssetID)
	if err != nil {
		switch {
		case errors.Is(err, purchases.ErrAlreadyPurchased):
			writeConflict(w, "ALREADY_PURCHASED", "asset already purchased")
		case errors.Is(err, purchases.ErrAssetNotFound):
			writeNotFound(w, "ASSET_NOT_FOUND", "asset not found")
		case errors.Is(err, purchases.ErrAssetUnavailable):
			writeConflict(w, "ASSET_UNAVAILABLE", "asset is not available for purchase")
		case errors.Is(err, purchases.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid purchase request")
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.CreatePurchaseResponse{
		ProviderOrderID: order.ProviderOrderID,
		ApprovalURL:     order.ApprovalURL,
		AmountCents:     order.AmountCents,
		Currency:        order.Currency,
	})
}

func (h *PurchaseHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PURCHASE_SERVICE_UNAVAILABLE", "purchase service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	purchased, err := h.service.CheckExisting(r.Context(), identity.UserID, chi.URLParam(r, "assetID"))
	if err != nil {
		if errors.Is(err, purchases.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid asset id")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PurchaseCheckResponse{Purchased: purchased})
}

// Webhook is the gateway capture callback. It carries only the provider order
// id; buyer and asset come from the pending payment row.
func (h *PurchaseHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PURCHASE_SERVICE_UNAVAILABLE", "purchase service is unavailable")
		return
	}

	var req dto.PurchaseWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	receipt, err := h.service.CompleteOrder(r.Context(), req.ProviderOrderID)
	if err != nil {
		switch {
		case errors.Is(err, purchases.ErrPaymentNotFound):
			writeNotFound(w, "PAYMENT_NOT_FOUND", "payment not found")
		case errors.Is(err, purchases.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid webhook payload")
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PurchaseWebhookResponse{
		PurchaseID: receipt.Purchase.ID,
		Repeated:   receipt.Repeated,
	})
}

func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "PURCHASE_SERVICE_UNAVAILABLE", "purchase service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	listings, err := h.service.ListPurchases(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	out := make([]dto.PurchaseResponse, 0, len(listings))
	for _, listing := range listings {
		out = append(out, dto.PurchaseResponse{
			ID:         listing.Purchase.ID,
			AssetID:    listing.Purchase.AssetID,
			AssetTitle: listing.AssetTitle,
			PriceCents: listing.Purchase.PriceCents,
			CreatedAt:  listing.Purchase.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.PurchaseListResponse{Purchases: out})
}
