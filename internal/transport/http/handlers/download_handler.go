package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authsvc "github.com/dmarchuk/assetmarket/internal/services/auth"
	"github.com/dmarchuk/assetmarket/internal/services/catalog"
	"github.com/dmarchuk/assetmarket/internal/services/purchases"
)

type DownloadHandler struct {
	catalog   *catalog.Service
	purchases *purchases.Service
}

func NewDownloadHandler(catalogService *catalog.Service, purchaseService *purchases.Service) *DownloadHandler {
	return &DownloadHandler{
		catalog:   catalogService,
		purchases: purchaseService,
	}
}

// Handle resolves a download click. Anonymous callers go to login, buyers
// without a purchase go back to the asset page, owners get the file.
func (h *DownloadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil || h.purchases == nil {
		writeInternal(w, "DOWNLOAD_UNAVAILABLE", "download is unavailable")
		return
	}

	assetID := chi.URLParam(r, "assetID")

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}

	details, err := h.catalog.GetAsset(r.Context(), assetID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, catalog.ErrValidation) {
			writeNotFound(w, "ASSET_NOT_FOUND", "asset not found")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	purchased, err := h.purchases.CheckExisting(r.Context(), identity.UserID, assetID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}
	if !purchased {
		http.Redirect(w, r, "/gallery/"+assetID, http.StatusFound)
		return
	}

	http.Redirect(w, r, details.Asset.FileURL, http.StatusFound)
}
