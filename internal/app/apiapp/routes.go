package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/dmarchuk/assetmarket/internal/services/auth"
	catalogsvc "github.com/dmarchuk/assetmarket/internal/services/catalog"
	invoicesvc "github.com/dmarchuk/assetmarket/internal/services/invoices"
	mediasvc "github.com/dmarchuk/assetmarket/internal/services/media"
	modsvc "github.com/dmarchuk/assetmarket/internal/services/moderation"
	purchasesvc "github.com/dmarchuk/assetmarket/internal/services/purchases"
	"github.com/dmarchuk/assetmarket/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService       *authsvc.Service
	CatalogService    *catalogsvc.Service
	ModerationService *modsvc.Service
	MediaService      *mediasvc.Service
	PurchaseService   *purchasesvc.Service
	InvoiceService    *invoicesvc.Service
	Logger            *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	categoryHandler := handlers.NewCategoryHandler(deps.CatalogService)
	assetHandler := handlers.NewAssetHandler(deps.CatalogService)
	moderationHandler := handlers.NewModerationHandler(deps.ModerationService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService)
	purchaseHandler := handlers.NewPurchaseHandler(deps.PurchaseService)
	invoiceHandler := handlers.NewInvoiceHandler(deps.InvoiceService)
	downloadHandler := handlers.NewDownloadHandler(deps.CatalogService, deps.PurchaseService)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)
	optionalAuthMW := OptionalAuthMiddleware(deps.AuthService)
	adminMW := RequireRole("admin")

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
	})

	r.Get("/gallery", assetHandler.Gallery)
	r.Get("/gallery/{id}", assetHandler.GetByID)
	r.Get("/categories", categoryHandler.List)

	r.With(authMW).Post("/assets", assetHandler.Upload)
	r.With(authMW).Get("/assets", assetHandler.ListOwn)

	r.With(authMW).Post("/media/upload", mediaHandler.Upload)
	r.With(authMW).Post("/media/sign", mediaHandler.Sign)

	r.Route("/admin", func(r chi.Router) {
		r.Use(authMW, adminMW)
		r.Get("/categories", categoryHandler.List)
		r.Post("/categories", categoryHandler.Create)
		r.Delete("/categories/{id}", categoryHandler.Delete)
		r.Get("/assets/pending", moderationHandler.ListPending)
		r.Post("/assets/{id}/approve", moderationHandler.Approve)
		r.Post("/assets/{id}/reject", moderationHandler.Reject)
		r.Get("/stats", assetHandler.AdminTotals)
	})

	r.With(authMW).Post("/purchase/create", purchaseHandler.Create)
	r.With(authMW).Get("/purchase/check/{assetID}", purchaseHandler.Check)
	r.Post("/purchase/webhook", purchaseHandler.Webhook)
	r.With(authMW).Get("/purchases", purchaseHandler.List)

	r.Route("/invoices", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/", invoiceHandler.Create)
		r.Get("/", invoiceHandler.List)
		r.Get("/{id}", invoiceHandler.GetByID)
	})

	// Browser-facing routes redirect anonymous callers instead of returning
	// JSON errors.
	r.With(optionalAuthMW).Get("/invoice/{id}", invoiceHandler.Document)
	r.With(optionalAuthMW).Get("/download/{assetID}", downloadHandler.Handle)
}
