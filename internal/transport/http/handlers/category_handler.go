package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmarchuk/assetmarket/internal/domain/model"
	"github.com/dmarchuk/assetmarket/internal/services/catalog"
	"github.com/dmarchuk/assetmarket/internal/transport/http/dto"
	httperrors "github.com/dmarchuk/assetmarket/internal/transport/http/errors"
)

type CategoryHandler struct {
	service *catalog.Service
}

func NewCategoryHandler(service *catalog.Service) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CategoryListResponse{
		Categories: toCategoryResponses(categories),
	})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	var req dto.CreateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	category, err := h.service.AddCategory(r.Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrCategoryExists):
			writeConflict(w, "CATEGORY_EXISTS", "Category already exists")
		case errors.Is(err, catalog.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "category name must be between 2 and 50 characters")
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	httperrors.Write(w, http.StatusCreated, toCategoryResponse(category))
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	categoryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || categoryID <= 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid category id")
		return
	}

	if err := h.service.DeleteCategory(r.Context(), categoryID); err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			writeNotFound(w, "CATEGORY_NOT_FOUND", "category not found")
		case errors.Is(err, catalog.ErrValidation):
			writeBadRequest(w, "VALIDATION_ERROR", "invalid category id")
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

func toCategoryResponse(category model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		CreatedAt: category.CreatedAt,
	}
}

func toCategoryResponses(categories []model.Category) []dto.CategoryResponse {
	out := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, toCategoryResponse(category))
	}
	return out
}
