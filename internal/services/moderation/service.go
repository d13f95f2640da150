package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
	"github.com/dmarchuk/assetmarket/internal/domain/model"
	"github.com/dmarchuk/assetmarket/internal/repo/postgres"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrAssetNotFound = errors.New("asset not found")
	ErrNotPending    = errors.New("asset is not pending moderation")
)

type AssetStore interface {
	ListPending(ctx context.Context) ([]postgres.AssetListing, error)
	UpdateStatus(ctx context.Context, assetID string, status enums.ApprovalStatus) (model.Asset, error)
	CountPending(ctx context.Context) (int64, error)
}

type ViewCache interface {
	InvalidateViews(ctx context.Context, views ...string) error
}

// Service applies moderation decisions. Pending is the only mutable state;
// approve and reject are terminal.
type Service struct {
	assets AssetStore
	cache  ViewCache
	logger *zap.Logger
}

func NewService(assets AssetStore, cache ViewCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{assets: assets, cache: cache, logger: logger}
}

func (s *Service) ListPending(ctx context.Context) ([]postgres.AssetListing, error) {
	listings, err := s.assets.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending assets: %w", err)
	}
	return listings, nil
}

func (s *Service) QueueSize(ctx context.Context) (int64, error) {
	count, err := s.assets.CountPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending assets: %w", err)
	}
	return count, nil
}

func (s *Service) Approve(ctx context.Context, assetID string) (model.Asset, error) {
	return s.decide(ctx, assetID, enums.ApprovalStatusApproved)
}

func (s *Service) Reject(ctx context.Context, assetID string) (model.Asset, error) {
	return s.decide(ctx, assetID, enums.ApprovalStatusRejected)
}

func (s *Service) decide(ctx context.Context, assetID string, status enums.ApprovalStatus) (model.Asset, error) {
	if strings.TrimSpace(assetID) == "" {
		return model.Asset{}, fmt.Errorf("invalid asset id: %w", ErrValidation)
	}

	asset, err := s.assets.UpdateStatus(ctx, assetID, status)
	if err != nil {
		if errors.Is(err, postgres.ErrAssetNotFound) {
			return model.Asset{}, ErrAssetNotFound
		}
		if errors.Is(err, postgres.ErrAssetNotPending) {
			return model.Asset{}, ErrNotPending
		}
		return model.Asset{}, fmt.Errorf("update asset status: %w", err)
	}

	s.logger.Info("moderation decision applied",
		zap.String("asset_id", asset.ID),
		zap.String("status", string(status)))

	if s.cache != nil && status == enums.ApprovalStatusApproved {
		if err := s.cache.InvalidateViews(ctx, "gallery"); err != nil {
			s.logger.Warn("invalidate gallery view", zap.Error(err))
		}
	}

	return asset, nil
}

// ReviewCard renders the text shown with an inline approve/reject keyboard.
func ReviewCard(listing postgres.AssetListing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New asset pending review\n\n")
	fmt.Fprintf(&b, "Title: %s\n", listing.Asset.Title)
	if listing.Asset.Description != nil && strings.TrimSpace(*listing.Asset.Description) != "" {
		fmt.Fprintf(&b, "Description: %s\n", strings.TrimSpace(*listing.Asset.Description))
	}
	if listing.CategoryName != "" {
		fmt.Fprintf(&b, "Category: %s\n", listing.CategoryName)
	}
	if listing.UploaderName != "" {
		fmt.Fprintf(&b, "Uploader: %s\n", listing.UploaderName)
	}
	fmt.Fprintf(&b, "Submitted: %s", listing.Asset.CreatedAt.Format(time.RFC822))
	return b.String()
}
