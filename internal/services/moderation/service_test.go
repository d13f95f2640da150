package moderation_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
	"github.com/dmarchuk/assetmarket/internal/domain/model"
	"github.com/dmarchuk/assetmarket/internal/repo/postgres"
	"github.com/dmarchuk/assetmarket/internal/services/moderation"
)

type fakeModerationStore struct {
	assets map[string]model.Asset
}

func (f *fakeModerationStore) ListPending(_ context.Context) ([]postgres.AssetListing, error) {
	listings := make([]postgres.AssetListing, 0)
	for _, asset := range f.assets {
		if asset.Status == enums.ApprovalStatusPending {
			listings = append(listings, postgres.AssetListing{Asset: asset})
		}
	}
	return listings, nil
}

func (f *fakeModerationStore) UpdateStatus(_ context.Context, assetID string, status enums.ApprovalStatus) (model.Asset, error) {
	asset, ok := f.assets[assetID]
	if !ok {
		return model.Asset{}, postgres.ErrAssetNotFound
	}
	if asset.Status != enums.ApprovalStatusPending {
		return model.Asset{}, postgres.ErrAssetNotPending
	}
	asset.Status = status
	f.assets[assetID] = asset
	return asset, nil
}

func (f *fakeModerationStore) CountPending(_ context.Context) (int64, error) {
	var n int64
	for _, asset := range f.assets {
		if asset.Status == enums.ApprovalStatusPending {
			n++
		}
	}
	return n, nil
}

func newModerationForTest(assets map[string]model.Asset) *moderation.Service {
	return moderation.NewService(&fakeModerationStore{assets: assets}, nil, nil)
}

func TestApprovePendingAsset(t *testing.T) {
	svc := newModerationForTest(map[string]model.Asset{
		"a1": {ID: "a1", Title: "Pack", Status: enums.ApprovalStatusPending},
	})

	asset, err := svc.Approve(context.Background(), "a1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if asset.Status != enums.ApprovalStatusApproved {
		t.Fatalf("expected approved, got %q", asset.Status)
	}
}

func TestDecisionsAreTerminal(t *testing.T) {
	svc := newModerationForTest(map[string]model.Asset{
		"a1": {ID: "a1", Title: "Pack", Status: enums.ApprovalStatusPending},
	})
	ctx := context.Background()

	if _, err := svc.Reject(ctx, "a1"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := svc.Approve(ctx, "a1"); !errors.Is(err, moderation.ErrNotPending) {
		t.Fatalf("re-deciding should fail with ErrNotPending, got err=%v", err)
	}
}

func TestDecideUnknownAsset(t *testing.T) {
	svc := newModerationForTest(map[string]model.Asset{})

	if _, err := svc.Approve(context.Background(), "missing"); !errors.Is(err, moderation.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestQueueSize(t *testing.T) {
	svc := newModerationForTest(map[string]model.Asset{
		"a1": {ID: "a1", Status: enums.ApprovalStatusPending},
		"a2": {ID: "a2", Status: enums.ApprovalStatusApproved},
		"a3": {ID: "a3", Status: enums.ApprovalStatusPending},
	})

	size, err := svc.QueueSize(context.Background())
	if err != nil {
		t.Fatalf("queue size: %v", err)
	}
	if size != 2 {
		t.Fatalf("expected 2 pending, got %d", size)
	}
}

func TestReviewCardContents(t *testing.T) {
	description := "A tidy icon set"
	card := moderation.ReviewCard(postgres.AssetListing{
		Asset:        model.Asset{Title: "Icons", Description: &description},
		CategoryName: "UI Kits",
		UploaderName: "Alice",
	})

	for _, want := range []string{"Icons", "A tidy icon set", "UI Kits", "Alice"} {
		if !strings.Contains(card, want) {
			t.Fatalf("review card missing %q:\n%s", want, card)
		}
	}
}
