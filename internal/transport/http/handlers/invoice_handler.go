package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarchuk/assetmarket/internal/domain/model"
	authsvc "github.com/dmarchuk/assetmarket/internal/services/auth"
	"github.com/dmarchuk/assetmarket/internal/services/invoices"
	"github.com/dmarchuk/assetmarket/internal/transport/http/dto"
	httperrors "github.com/dmarchuk/assetmarket/internal/transport/http/errors"
)

const (
	loginPath     = "/login"
	purchasesPath = "/dashboard/purchases"
)

type InvoiceHandler struct {
	service *invoices.Service
}

func NewInvoiceHandler(service *invoices.Service) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "INVOICE_SERVICE_UNAVAILABLE", "invoice service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	var req dto.CreateInvoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	invoice, err := h.service.Create(r.Context(), identity, req.PurchaseID)
	if err != nil {
		handleInvoiceError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, toInvoiceResponse(invoice))
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "INVOICE_SERVICE_UNAVAILABLE", "invoice service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	records, err := h.service.List(r.Context(), identity.UserID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	out := make([]dto.InvoiceResponse, 0, len(records))
	for _, invoice := range records {
		out = append(out, toInvoiceResponse(invoice))
	}
	httperrors.Write(w, http.StatusOK, dto.InvoiceListResponse{Invoices: out})
}

func (h *InvoiceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "INVOICE_SERVICE_UNAVAILABLE", "invoice service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return
	}

	invoice, err := h.service.GetByID(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		handleInvoiceError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, toInvoiceResponse(invoice))
}

// Document serves the persisted invoice HTML the way a browser expects:
// anonymous callers go to login, anything the caller cannot read goes back to
// the purchases page.
func (h *InvoiceHandler) Document(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "INVOICE_SERVICE_UNAVAILABLE", "invoice service is unavailable")
		return
	}

	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}

	html, err := h.service.GetHTML(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, invoices.ErrInvoiceNotFound) ||
			errors.Is(err, invoices.ErrForbidden) ||
			errors.Is(err, invoices.ErrValidation) {
			http.Redirect(w, r, purchasesPath, http.StatusFound)
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func handleInvoiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invoices.ErrPurchaseNotFound):
		writeNotFound(w, "PURCHASE_NOT_FOUND", "purchase not found")
	case errors.Is(err, invoices.ErrInvoiceNotFound):
		writeNotFound(w, "INVOICE_NOT_FOUND", "invoice not found")
	case errors.Is(err, invoices.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "access denied")
	case errors.Is(err, invoices.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid request")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}

func toInvoiceResponse(invoice model.Invoice) dto.InvoiceResponse {
	return dto.InvoiceResponse{
		ID:            invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		PurchaseID:    invoice.PurchaseID,
		AmountCents:   invoice.AmountCents,
		Currency:      invoice.Currency,
		Status:        string(invoice.Status),
		CreatedAt:     invoice.CreatedAt,
	}
}
