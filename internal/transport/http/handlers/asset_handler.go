package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmarchuk/assetmarket/internal/domain/model"
	"github.com/dmarchuk/assetmarket/internal/repo/postgres"
	authsvc "github.com/dmarchuk/assetmarket/internal/services/auth"
	"github.com/dmarchuk/assetmarket/internal/services/catalog"
	"github.com/dmarchuk/assetmarket/internal/transport/http/dto"
	httperrors "github.com/dmarchuk/assetmarket/internal/transport/http/errors"
)

type AssetHandler struct {
	service *catalog.Service
}

func NewAssetHandler(service *catalog.Service) *AssetHandler {
	return &AssetHandler{service: service}
}

// Gallery is the public approved-asset listing, optionally filtered by
// category_id.
func (h *AssetHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	var categoryID *int64
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid category_id")
			return
		}
		categoryID = &parsed
	}

	listings, err := h.service.ListPublicAssets(r.Context(), categoryID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AssetListResponse{
		Assets: toListingResponses(listings),
	})
}

func (h *AssetHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	details, err := h.service.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeNotFound(w, "ASSET_NOT_FOUND", "asset not found")
		case errors.Is(err, catalog.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid asset id")
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	resp := toAssetResponse(details.Asset)
	resp.CategoryName = details.CategoryName
	resp.UploaderName = details.UploaderName
	httperrors.Write(w, http.StatusOK, resp)
}

func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.UploadAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	asset, err := h.service.UploadAsset(r.Context(), identity.UserID, catalog.UploadInput{
		Title:        req.Title,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		FileURL:      req.FileURL,
		ThumbnailURL: req.ThumbnailURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, catalog.ErrUploadQuota):
			writeTooManyRequests(w, "UPLOAD_QUOTA_EXCEEDED", "daily upload limit reached")
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	httperrors.Write(w, http.StatusCreated, toAssetResponse(asset))
}

// ListOwn returns the caller's uploads in every status.
func (h *AssetHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	assets, err := h.service.ListUserAssets(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	out := make([]dto.AssetResponse, 0, len(assets))
	for _, asset := range assets {
		out = append(out, toAssetResponse(asset))
	}
	httperrors.Write(w, http.StatusOK, dto.AssetListResponse{Assets: out})
}

func (h *AssetHandler) AdminTotals(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	totals, err := h.service.CountTotals(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AdminTotalsResponse{
		Users:  totals.Users,
		Assets: totals.Assets,
	})
}

func toAssetResponse(asset model.Asset) dto.AssetResponse {
	return dto.AssetResponse{
		ID:           asset.ID,
		Title:        asset.Title,
		Description:  asset.Description,
		CategoryID:   asset.CategoryID,
		ThumbnailURL: asset.ThumbnailURL,
		Status:       string(asset.Status),
		CreatedAt:    asset.CreatedAt,
		UpdatedAt:    asset.UpdatedAt,
	}
}

func toListingResponses(listings []postgres.AssetListing) []dto.AssetResponse {
	out := make([]dto.AssetResponse, 0, len(listings))
	for _, listing := range listings {
		resp := toAssetResponse(listing.Asset)
		resp.CategoryName = listing.CategoryName
		resp.UploaderName = listing.UploaderName
		out = append(out, resp)
	}
	return out
}
