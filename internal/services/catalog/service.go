package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmarchuk/assetmarket/internal/domain/model"
	"github.com/dmarchuk/assetmarket/internal/domain/rules"
	"github.com/dmarchuk/assetmarket/internal/pkg/validate"
	"github.com/dmarchuk/assetmarket/internal/repo/postgres"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrCategoryExists = errors.New("category already exists")
	ErrNotFound       = errors.New("not found")
	ErrUploadQuota    = errors.New("daily upload limit reached")
)

const (
	categoryNameMin = 2
	categoryNameMax = 50

	galleryView    = "gallery"
	categoriesView = "categories"

	viewTTL = 5 * time.Minute
)

type CategoryStore interface {
	Create(ctx context.Context, name string) (model.Category, error)
	FindByName(ctx context.Context, name string) (model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Delete(ctx context.Context, categoryID int64) error
}

type AssetStore interface {
	Create(ctx context.Context, params postgres.CreateAssetParams) (model.Asset, error)
	FindByID(ctx context.Context, assetID string) (postgres.AssetDetails, error)
	ListPublic(ctx context.Context, categoryID *int64) ([]postgres.AssetListing, error)
	ListByUser(ctx context.Context, userID string) ([]model.Asset, error)
	Count(ctx context.Context) (int64, error)
}

type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

type ViewCache interface {
	GetView(ctx context.Context, view string, out interface{}) error
	SetView(ctx context.Context, view string, value interface{}, ttl time.Duration) error
	InvalidateViews(ctx context.Context, views ...string) error
}

type UploadCounter interface {
	IncrementCounter(ctx context.Context, name string, expireAt time.Time) (int64, error)
}

type ObjectRemover interface {
	DeleteByURL(ctx context.Context, fileURL string) error
}

type Service struct {
	categories  CategoryStore
	assets      AssetStore
	users       UserCounter
	cache       ViewCache
	uploads     UploadCounter
	uploadLimit int
	media       ObjectRemover
	now         func() time.Time
	logger      *zap.Logger
}

type UploadInput struct {
	Title        string
	Description  *string
	CategoryID   int64
	FileURL      string
	ThumbnailURL string
}

// Totals feeds the admin dashboard counters.
type Totals struct {
	Users  int64
	Assets int64
}

func NewService(categories CategoryStore, assets AssetStore, users UserCounter, cache ViewCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		categories:  categories,
		assets:      assets,
		users:       users,
		cache:       cache,
		uploadLimit: rules.FreeUploadsPerDay,
		now:         time.Now,
		logger:      logger,
	}
}

// AttachMediaCleanup enables the compensating delete: when the asset insert
// fails after the file already landed in the bucket, the object is removed.
func (s *Service) AttachMediaCleanup(remover ObjectRemover) {
	s.media = remover
}

// AttachUploadQuota enables the per-creator daily upload cap. Without a
// counter uploads are unlimited.
func (s *Service) AttachUploadQuota(counter UploadCounter, perDay int) {
	s.uploads = counter
	if perDay > 0 {
		s.uploadLimit = perDay
	}
}

func (s *Service) AddCategory(ctx context.Context, name string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if !validate.LengthBetween(name, categoryNameMin, categoryNameMax) {
		return model.Category{}, fmt.Errorf("category name must be between %d and %d characters: %w", categoryNameMin, categoryNameMax, ErrValidation)
	}

	// Exact-match pre-check keeps the duplicate error deterministic; the
	// unique index still backstops races.
	if _, err := s.categories.FindByName(ctx, name); err == nil {
		return model.Category{}, ErrCategoryExists
	} else if !errors.Is(err, postgres.ErrCategoryNotFound) {
		return model.Category{}, fmt.Errorf("check category name: %w", err)
	}

	category, err := s.categories.Create(ctx, name)
	if err != nil {
		if errors.Is(err, postgres.ErrCategoryExists) {
			return model.Category{}, ErrCategoryExists
		}
		return model.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.invalidate(ctx, categoriesView, galleryView)

	return category, nil
}

// DeleteCategory removes the category row only. Assets keep their category_id;
// listings fall back to an empty category name.
func (s *Service) DeleteCategory(ctx context.Context, categoryID int64) error {
	if categoryID <= 0 {
		return fmt.Errorf("invalid category id: %w", ErrValidation)
	}

	if err := s.categories.Delete(ctx, categoryID); err != nil {
		if errors.Is(err, postgres.ErrCategoryNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}

	s.invalidate(ctx, categoriesView, galleryView)

	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	if s.cache != nil {
		var cached []model.Category
		if err := s.cache.GetView(ctx, categoriesView, &cached); err == nil {
			return cached, nil
		}
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetView(ctx, categoriesView, categories, viewTTL); err != nil {
			s.logger.Warn("cache categories view", zap.Error(err))
		}
	}

	return categories, nil
}

func (s *Service) UploadAsset(ctx context.Context, userID string, in UploadInput) (model.Asset, error) {
	if strings.TrimSpace(userID) == "" {
		return model.Asset{}, fmt.Errorf("invalid user id: %w", ErrValidation)
	}
	title := strings.TrimSpace(in.Title)
	if !validate.Required(title) {
		return model.Asset{}, fmt.Errorf("title is required: %w", ErrValidation)
	}
	if in.CategoryID <= 0 {
		return model.Asset{}, fmt.Errorf("please select a category: %w", ErrValidation)
	}
	fileURL := strings.TrimSpace(in.FileURL)
	if !validate.URL(fileURL) {
		return model.Asset{}, fmt.Errorf("file url is invalid: %w", ErrValidation)
	}
	thumbnailURL := strings.TrimSpace(in.ThumbnailURL)
	if thumbnailURL == "" {
		thumbnailURL = fileURL
	} else if !validate.URL(thumbnailURL) {
		return model.Asset{}, fmt.Errorf("thumbnail url is invalid: %w", ErrValidation)
	}

	if s.uploads != nil {
		now := s.now()
		key := fmt.Sprintf("uploads:%s:%s", userID, rules.DayKey(now, nil))
		count, err := s.uploads.IncrementCounter(ctx, key, rules.NextResetAt(now, nil))
		if err != nil {
			// Quota is an abuse guard, not a ledger. Fail open.
			s.logger.Warn("upload quota check failed", zap.Error(err))
		} else if count > int64(s.uploadLimit) {
			return model.Asset{}, ErrUploadQuota
		}
	}

	asset, err := s.assets.Create(ctx, postgres.CreateAssetParams{
		Title:        title,
		Description:  in.Description,
		UserID:       userID,
		CategoryID:   in.CategoryID,
		FileURL:      fileURL,
		ThumbnailURL: thumbnailURL,
	})
	if err != nil {
		if s.media != nil {
			if derr := s.media.DeleteByURL(ctx, fileURL); derr != nil {
				s.logger.Warn("compensating object delete failed",
					zap.Error(derr),
					zap.String("file_url", fileURL))
			}
		}
		return model.Asset{}, fmt.Errorf("create asset: %w", err)
	}

	s.logger.Info("asset submitted for review",
		zap.String("asset_id", asset.ID),
		zap.String("user_id", userID))

	return asset, nil
}

// ListPublicAssets returns the approved gallery. The unfiltered view is
// cached; category filters always hit postgres.
func (s *Service) ListPublicAssets(ctx context.Context, categoryID *int64) ([]postgres.AssetListing, error) {
	if categoryID == nil && s.cache != nil {
		var cached []postgres.AssetListing
		if err := s.cache.GetView(ctx, galleryView, &cached); err == nil {
			return cached, nil
		}
	}

	listings, err := s.assets.ListPublic(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list public assets: %w", err)
	}

	if categoryID == nil && s.cache != nil {
		if err := s.cache.SetView(ctx, galleryView, listings, viewTTL); err != nil {
			s.logger.Warn("cache gallery view", zap.Error(err))
		}
	}

	return listings, nil
}

func (s *Service) GetAsset(ctx context.Context, assetID string) (postgres.AssetDetails, error) {
	if strings.TrimSpace(assetID) == "" {
		return postgres.AssetDetails{}, fmt.Errorf("invalid asset id: %w", ErrValidation)
	}

	details, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, postgres.ErrAssetNotFound) {
			return postgres.AssetDetails{}, ErrNotFound
		}
		return postgres.AssetDetails{}, fmt.Errorf("get asset: %w", err)
	}

	return details, nil
}

func (s *Service) ListUserAssets(ctx context.Context, userID string) ([]model.Asset, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("invalid user id: %w", ErrValidation)
	}

	assets, err := s.assets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user assets: %w", err)
	}

	return assets, nil
}

func (s *Service) CountTotals(ctx context.Context) (Totals, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("count users: %w", err)
	}
	assets, err := s.assets.Count(ctx)
	if err != nil {
		return Totals{}, fmt.Errorf("count assets: %w", err)
	}

	return Totals{Users: users, Assets: assets}, nil
}

func (s *Service) invalidate(ctx context.Context, views ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateViews(ctx, views...); err != nil {
		s.logger.Warn("invalidate cached views", zap.Error(err))
	}
}
