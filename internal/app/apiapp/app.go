package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dmarchuk/assetmarket/internal/config"
	"github.com/dmarchuk/assetmarket/internal/infra/paypal"
	s3infra "github.com/dmarchuk/assetmarket/internal/infra/s3"
	pgrepo "github.com/dmarchuk/assetmarket/internal/repo/postgres"
	redrepo "github.com/dmarchuk/assetmarket/internal/repo/redis"
	authsvc "github.com/dmarchuk/assetmarket/internal/services/auth"
	catalogsvc "github.com/dmarchuk/assetmarket/internal/services/catalog"
	invoicesvc "github.com/dmarchuk/assetmarket/internal/services/invoices"
	mediasvc "github.com/dmarchuk/assetmarket/internal/services/media"
	modsvc "github.com/dmarchuk/assetmarket/internal/services/moderation"
	purchasesvc "github.com/dmarchuk/assetmarket/internal/services/purchases"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	var redisClient *goredis.Client
	if c, err := redrepo.NewClient(ctx, cfg.Redis); err != nil {
		log.Warn("redis init failed, continuing in degraded mode", zap.Error(err))
	} else {
		redisClient = c
	}

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	userRepo := pgrepo.NewUserRepo(pool)
	categoryRepo := pgrepo.NewCategoryRepo(pool)
	assetRepo := pgrepo.NewAssetRepo(pool)
	paymentRepo := pgrepo.NewPaymentRepo(pool)
	purchaseRepo := pgrepo.NewPurchaseRepo(pool)
	invoiceRepo := pgrepo.NewInvoiceRepo(pool)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	cacheRepo := redrepo.NewCacheRepo(redisClient)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, userRepo, cfg.Auth.ProviderSecret, cfg.Auth.RefreshTTL)

	var viewCache catalogsvc.ViewCache
	if redisClient != nil {
		viewCache = cacheRepo
	}
	catalogService := catalogsvc.NewService(categoryRepo, assetRepo, userRepo, viewCache, log)
	if redisClient != nil {
		catalogService.AttachUploadQuota(cacheRepo, 0)
	}

	var moderationCache modsvc.ViewCache
	if redisClient != nil {
		moderationCache = cacheRepo
	}
	moderationService := modsvc.NewService(assetRepo, moderationCache, log)

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket, cfg.S3.PublicBase)
	mediaService := mediasvc.NewService(mediaStorage)
	catalogService.AttachMediaCleanup(mediaService)

	var gateway purchasesvc.Gateway
	if client, err := paypal.NewClient(paypal.Config{
		BaseURL:      cfg.PayPal.BaseURL,
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		ReturnURL:    cfg.PayPal.ReturnURL,
		CancelURL:    cfg.PayPal.CancelURL,
		Timeout:      cfg.PayPal.Timeout,
	}); err != nil {
		log.Warn("paypal init failed, purchases disabled", zap.Error(err))
	} else {
		gateway = client
	}

	purchaseService := purchasesvc.NewService(gateway, assetRepo, paymentRepo, purchaseRepo,
		cfg.Pricing.AssetPriceCents, cfg.Pricing.Currency, log)
	invoiceService := invoicesvc.NewService(purchaseRepo, invoiceRepo, log)

	RegisterRoutes(r, Dependencies{
		AuthService:       authService,
		CatalogService:    catalogService,
		ModerationService: moderationService,
		MediaService:      mediaService,
		PurchaseService:   purchaseService,
		InvoiceService:    invoiceService,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
