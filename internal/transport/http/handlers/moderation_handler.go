package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarchuk/assetmarket/internal/services/moderation"
	"github.com/dmarchuk/assetmarket/internal/transport/http/dto"
	httperrors "github.com/dmarchuk/assetmarket/internal/transport/http/errors"
)

type ModerationHandler struct {
	service *moderation.Service
}

func NewModerationHandler(service *moderation.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

func (h *ModerationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	listings, err := h.service.ListPending(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.AssetListResponse{
		Assets: toListingResponses(listings),
	})
}

func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *ModerationHandler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	assetID := chi.URLParam(r, "id")

	decide := h.service.Reject
	if approve {
		decide = h.service.Approve
	}

	asset, err := decide(r.Context(), assetID)
	if err != nil {
		switch {
		case errors.Is(err, moderation.ErrAssetNotFound):
			writeNotFound(w, "ASSET_NOT_FOUND", "asset not found")
		case errors.Is(err, moderation.ErrNotPending):
			writeConflict(w, "ASSET_NOT_PENDING", "asset is not pending moderation")
		case errors.Is(err, moderation.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid asset id")
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, toAssetResponse(asset))
}
