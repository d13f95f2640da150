package handlers

import (
	"errors"
	"net/http"

	authsvc "github.com/dmarchuk/assetmarket/internal/services/auth"
	"github.com/dmarchuk/assetmarket/internal/services/media"
	"github.com/dmarchuk/assetmarket/internal/transport/http/dto"
	httperrors "github.com/dmarchuk/assetmarket/internal/transport/http/errors"
)

// maxUploadBytes caps direct uploads through the API; larger files should use
// the presigned route.
const maxUploadBytes = 25 << 20

type MediaHandler struct {
	service *media.Service
}

func NewMediaHandler(service *media.Service) *MediaHandler {
	return &MediaHandler{service: service}
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file field is required")
		return
	}
	defer file.Close()

	obj, err := h.service.Upload(r.Context(), identity.UserID, header.Filename,
		header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		if errors.Is(err, media.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid upload")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.MediaUploadResponse{
		Key: obj.Key,
		URL: obj.URL,
	})
}

func (h *MediaHandler) Sign(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.SignUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	ticket, err := h.service.SignUpload(r.Context(), identity.UserID, req.FileName)
	if err != nil {
		if errors.Is(err, media.ErrValidation) {
			writeBadRequest(w, "VALIDATION_ERROR", "invalid upload request")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SignUploadResponse{
		Key:       ticket.Key,
		UploadURL: ticket.UploadURL,
		PublicURL: ticket.PublicURL,
	})
}
