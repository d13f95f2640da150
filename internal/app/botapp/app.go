package botapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/dmarchuk/assetmarket/internal/config"
	s3infra "github.com/dmarchuk/assetmarket/internal/infra/s3"
	tginfra "github.com/dmarchuk/assetmarket/internal/infra/telegram"
	"github.com/dmarchuk/assetmarket/internal/jobs/cleanup"
	pgrepo "github.com/dmarchuk/assetmarket/internal/repo/postgres"
	catalogsvc "github.com/dmarchuk/assetmarket/internal/services/catalog"
	mediasvc "github.com/dmarchuk/assetmarket/internal/services/media"
	modsvc "github.com/dmarchuk/assetmarket/internal/services/moderation"
)

const (
	queueEmptyInstruction = "Moderation queue is empty."
	notAllowedInstruction = "This chat is not allowed to moderate."
)

type App struct {
	cfg               config.Config
	logger            *zap.Logger
	postgres          *pgxpool.Pool
	s3                *minio.Client
	bot               *tginfra.Bot
	storage           *mediasvc.S3Storage
	mediaService      *mediasvc.Service
	moderationService *modsvc.Service
	catalogService    *catalogsvc.Service
	cleanupJob        *cleanup.Job
	adminChats        map[int64]bool
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres for bot app: %w", err)
	}

	s3Client, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init s3 for bot app: %w", err)
	}

	storage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket, cfg.S3.PublicBase)
	userRepo := pgrepo.NewUserRepo(pool)
	categoryRepo := pgrepo.NewCategoryRepo(pool)
	assetRepo := pgrepo.NewAssetRepo(pool)

	mediaService := mediasvc.NewService(storage)
	moderationService := modsvc.NewService(assetRepo, nil, logger)
	catalogService := catalogsvc.NewService(categoryRepo, assetRepo, userRepo, nil, logger)
	cleanupJob := cleanup.NewOrphanMediaJob(storage, assetRepo, cfg.Bot.OrphanRetention, logger)

	var bot *tginfra.Bot
	if strings.TrimSpace(cfg.Bot.Token) != "" {
		bot, err = tginfra.NewBot(cfg.Bot.Token)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init telegram bot: %w", err)
		}
	} else {
		logger.Warn("BOT_TOKEN is empty, moderation commands disabled")
	}

	adminChats := make(map[int64]bool, len(cfg.Bot.AdminChatIDs))
	for _, chatID := range cfg.Bot.AdminChatIDs {
		adminChats[chatID] = true
	}

	return &App{
		cfg:               cfg,
		logger:            logger,
		postgres:          pool,
		s3:                s3Client,
		bot:               bot,
		storage:           storage,
		mediaService:      mediaService,
		moderationService: moderationService,
		catalogService:    catalogService,
		cleanupJob:        cleanupJob,
		adminChats:        adminChats,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started")

	errCh := make(chan error, 2)
	go func() {
		errCh <- a.runCleanupLoop(ctx)
	}()

	if a.bot != nil {
		go func() {
			errCh <- a.bot.Listen(ctx, tginfra.Handlers{
				OnCommand:  a.handleCommand,
				OnCallback: a.handleCallback,
			})
		}()
	}

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("bot app stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

func (a *App) runCleanupLoop(ctx context.Context) error {
	if a.cleanupJob == nil {
		return nil
	}

	interval := a.cfg.Bot.CleanupInterval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	if err := a.cleanupJob.Run(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.cleanupJob.Run(ctx); err != nil {
				return err
			}
		}
	}
}

func (a *App) handleCommand(ctx context.Context, update tginfra.CommandUpdate) error {
	if a.bot == nil {
		return nil
	}
	if !a.isAdminChat(update.ChatID) {
		return a.bot.SendText(ctx, update.ChatID, notAllowedInstruction)
	}

	switch strings.ToLower(strings.TrimSpace(update.Command)) {
	case "queue":
		return a.sendNextQueueItem(ctx, update.ChatID)
	case "stats":
		return a.sendStats(ctx, update.ChatID)
	default:
		return nil
	}
}

func (a *App) handleCallback(ctx context.Context, update tginfra.CallbackUpdate) error {
	if a.bot == nil {
		return nil
	}
	if !a.isAdminChat(update.ChatID) {
		return a.bot.AnswerCallback(ctx, update.CallbackID, "Not allowed")
	}

	parts := strings.SplitN(strings.TrimSpace(update.Data), ":", 3)
	if len(parts) != 3 || parts[0] != "mod" {
		return a.bot.AnswerCallback(ctx, update.CallbackID, "Unknown action")
	}

	action := parts[1]
	assetID := parts[2]

	var verdict string
	var err error
	switch action {
	case "approve":
		_, err = a.moderationService.Approve(ctx, assetID)
		verdict = "Approved"
	case "reject":
		_, err = a.moderationService.Reject(ctx, assetID)
		verdict = "Rejected"
	default:
		return a.bot.AnswerCallback(ctx, update.CallbackID, "Unknown action")
	}

	if err != nil {
		switch {
		case errors.Is(err, modsvc.ErrNotPending):
			return a.bot.AnswerCallback(ctx, update.CallbackID, "Already decided")
		case errors.Is(err, modsvc.ErrAssetNotFound):
			return a.bot.AnswerCallback(ctx, update.CallbackID, "Asset not found")
		default:
			a.logger.Error("moderation decision failed", zap.Error(err), zap.String("asset_id", assetID))
			return a.bot.AnswerCallback(ctx, update.CallbackID, "Decision failed")
		}
	}

	if err := a.bot.AnswerCallback(ctx, update.CallbackID, verdict); err != nil {
		return err
	}
	return a.sendNextQueueItem(ctx, update.ChatID)
}

func (a *App) sendNextQueueItem(ctx context.Context, chatID int64) error {
	listings, err := a.moderationService.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		return a.bot.SendText(ctx, chatID, queueEmptyInstruction)
	}

	listing := listings[0]
	text := modsvc.ReviewCard(listing)

	// Bucket keys need a signed link; anything else is already public.
	if key, ok := a.storage.KeyFromURL(listing.Asset.ThumbnailURL); ok {
		if previewURL, err := a.mediaService.PresignView(ctx, key); err == nil {
			text += "\nPreview: " + previewURL
		} else {
			a.logger.Warn("presign thumbnail failed", zap.Error(err), zap.String("asset_id", listing.Asset.ID))
		}
	} else if strings.TrimSpace(listing.Asset.ThumbnailURL) != "" {
		text += "\nPreview: " + listing.Asset.ThumbnailURL
	}

	return a.bot.SendReviewCard(ctx, chatID, text, listing.Asset.ID)
}

func (a *App) sendStats(ctx context.Context, chatID int64) error {
	size, err := a.moderationService.QueueSize(ctx)
	if err != nil {
		return err
	}
	totals, err := a.catalogService.CountTotals(ctx)
	if err != nil {
		return err
	}

	text := strings.Join([]string{
		tginfra.FormatQueueSize(int(size)),
		fmt.Sprintf("Users: %d", totals.Users),
		fmt.Sprintf("Assets: %d", totals.Assets),
	}, "\n")

	return a.bot.SendText(ctx, chatID, text)
}

func (a *App) isAdminChat(chatID int64) bool {
	if len(a.adminChats) == 0 {
		return false
	}
	return a.adminChats[chatID]
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}
