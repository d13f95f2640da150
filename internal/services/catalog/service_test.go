package catalog_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmarchuk/assetmarket/internal/domain/model"
	"github.com/dmarchuk/assetmarket/internal/repo/postgres"
	"github.com/dmarchuk/assetmarket/internal/services/catalog"
)

type fakeCategoryStore struct {
	byName  map[string]model.Category
	created []string
	deleted []int64
}

func (f *fakeCategoryStore) Create(_ context.Context, name string) (model.Category, error) {
	if _, ok := f.byName[name]; ok {
		return model.Category{}, postgres.ErrCategoryExists
	}
	category := model.Category{ID: int64(len(f.byName) + 1), Name: name, CreatedAt: time.Now()}
	if f.byName == nil {
		f.byName = map[string]model.Category{}
	}
	f.byName[name] = category
	f.created = append(f.created, name)
	return category, nil
}

func (f *fakeCategoryStore) FindByName(_ context.Context, name string) (model.Category, error) {
	if category, ok := f.byName[name]; ok {
		return category, nil
	}
	return model.Category{}, postgres.ErrCategoryNotFound
}

func (f *fakeCategoryStore) List(_ context.Context) ([]model.Category, error) {
	out := make([]model.Category, 0, len(f.byName))
	for _, category := range f.byName {
		out = append(out, category)
	}
	return out, nil
}

func (f *fakeCategoryStore) Delete(_ context.Context, categoryID int64) error {
	for name, category := range f.byName {
		if category.ID == categoryID {
			delete(f.byName, name)
			f.deleted = append(f.deleted, categoryID)
			return nil
		}
	}
	return postgres.ErrCategoryNotFound
}

type fakeAssetStore struct {
	created   []postgres.CreateAssetParams
	public    []postgres.AssetListing
	createErr error
}

func (f *fakeAssetStore) Create(_ context.Context, params postgres.CreateAssetParams) (model.Asset, error) {
	if f.createErr != nil {
		return model.Asset{}, f.createErr
	}
	f.created = append(f.created, params)
	return model.Asset{
		ID:           "asset-1",
		Title:        params.Title,
		UserID:       params.UserID,
		CategoryID:   params.CategoryID,
		FileURL:      params.FileURL,
		ThumbnailURL: params.ThumbnailURL,
		Status:       "pending",
	}, nil
}

func (f *fakeAssetStore) FindByID(_ context.Context, assetID string) (postgres.AssetDetails, error) {
	return postgres.AssetDetails{}, postgres.ErrAssetNotFound
}

func (f *fakeAssetStore) ListPublic(_ context.Context, _ *int64) ([]postgres.AssetListing, error) {
	return f.public, nil
}

func (f *fakeAssetStore) ListByUser(_ context.Context, _ string) ([]model.Asset, error) {
	return nil, nil
}

func (f *fakeAssetStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.created)), nil
}

type fakeUserCounter struct{ n int64 }

func (f *fakeUserCounter) Count(_ context.Context) (int64, error) { return f.n, nil }

func newCatalogForTest(categories *fakeCategoryStore, assets *fakeAssetStore) *catalog.Service {
	return catalog.NewService(categories, assets, &fakeUserCounter{n: 3}, nil, nil)
}

func TestAddCategoryValidatesLength(t *testing.T) {
	svc := newCatalogForTest(&fakeCategoryStore{}, &fakeAssetStore{})

	for _, name := range []string{"x", strings.Repeat("a", 51), "  "} {
		if _, err := svc.AddCategory(context.Background(), name); !errors.Is(err, catalog.ErrValidation) {
			t.Fatalf("name %q should fail validation, got err=%v", name, err)
		}
	}

	if _, err := svc.AddCategory(context.Background(), "  Icons  "); err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
}

func TestAddCategoryDuplicate(t *testing.T) {
	categories := &fakeCategoryStore{}
	svc := newCatalogForTest(categories, &fakeAssetStore{})

	if _, err := svc.AddCategory(context.Background(), "Icons"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.AddCategory(context.Background(), "Icons"); !errors.Is(err, catalog.ErrCategoryExists) {
		t.Fatalf("duplicate should return ErrCategoryExists, got err=%v", err)
	}
	// Case-sensitive match: a different casing is a different category.
	if _, err := svc.AddCategory(context.Background(), "icons"); err != nil {
		t.Fatalf("different casing rejected: %v", err)
	}
}

func TestUploadAssetValidation(t *testing.T) {
	assets := &fakeAssetStore{}
	svc := newCatalogForTest(&fakeCategoryStore{}, assets)
	ctx := context.Background()

	cases := []struct {
		name string
		in   catalog.UploadInput
	}{
		{"missing title", catalog.UploadInput{CategoryID: 1, FileURL: "https://cdn.example.com/a.png"}},
		{"missing category", catalog.UploadInput{Title: "Pack", FileURL: "https://cdn.example.com/a.png"}},
		{"bad file url", catalog.UploadInput{Title: "Pack", CategoryID: 1, FileURL: "not-a-url"}},
	}
	for _, tc := range cases {
		if _, err := svc.UploadAsset(ctx, "user-1", tc.in); !errors.Is(err, catalog.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	if len(assets.created) != 0 {
		t.Fatalf("invalid uploads must not reach the store")
	}
}

func TestUploadAssetThumbnailDefaultsToFileURL(t *testing.T) {
	assets := &fakeAssetStore{}
	svc := newCatalogForTest(&fakeCategoryStore{}, assets)

	asset, err := svc.UploadAsset(context.Background(), "user-1", catalog.UploadInput{
		Title:      "Icon Pack",
		CategoryID: 2,
		FileURL:    "https://cdn.example.com/pack.zip",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if asset.ThumbnailURL != "https://cdn.example.com/pack.zip" {
		t.Fatalf("thumbnail should default to file url, got %q", asset.ThumbnailURL)
	}
	if asset.Status != "pending" {
		t.Fatalf("new asset should be pending, got %q", asset.Status)
	}
}

type fakeObjectRemover struct {
	deleted []string
}

func (f *fakeObjectRemover) DeleteByURL(_ context.Context, fileURL string) error {
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func TestUploadAssetDeletesObjectWhenInsertFails(t *testing.T) {
	assets := &fakeAssetStore{createErr: errors.New("insert failed")}
	remover := &fakeObjectRemover{}
	svc := newCatalogForTest(&fakeCategoryStore{}, assets)
	svc.AttachMediaCleanup(remover)

	_, err := svc.UploadAsset(context.Background(), "user-1", catalog.UploadInput{
		Title:      "Pack",
		CategoryID: 1,
		FileURL:    "https://cdn.example.com/assets/user-1/pack.zip",
	})
	if err == nil {
		t.Fatalf("expected insert failure to propagate")
	}

	if len(remover.deleted) != 1 || remover.deleted[0] != "https://cdn.example.com/assets/user-1/pack.zip" {
		t.Fatalf("stored object should be deleted on insert failure, got %v", remover.deleted)
	}
}

func TestUploadAssetValidationSkipsCompensation(t *testing.T) {
	remover := &fakeObjectRemover{}
	svc := newCatalogForTest(&fakeCategoryStore{}, &fakeAssetStore{})
	svc.AttachMediaCleanup(remover)

	if _, err := svc.UploadAsset(context.Background(), "user-1", catalog.UploadInput{
		Title:   "Pack",
		FileURL: "https://cdn.example.com/pack.zip",
	}); !errors.Is(err, catalog.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(remover.deleted) != 0 {
		t.Fatalf("validation failures must not delete objects")
	}
}

type fakeUploadCounter struct {
	counts map[string]int64
}

func (f *fakeUploadCounter) IncrementCounter(_ context.Context, name string, _ time.Time) (int64, error) {
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[name]++
	return f.counts[name], nil
}

func TestUploadAssetEnforcesDailyQuota(t *testing.T) {
	assets := &fakeAssetStore{}
	svc := newCatalogForTest(&fakeCategoryStore{}, assets)
	svc.AttachUploadQuota(&fakeUploadCounter{}, 2)

	in := catalog.UploadInput{
		Title:      "Pack",
		CategoryID: 1,
		FileURL:    "https://cdn.example.com/p.zip",
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.UploadAsset(context.Background(), "user-1", in); err != nil {
			t.Fatalf("upload %d: %v", i+1, err)
		}
	}

	if _, err := svc.UploadAsset(context.Background(), "user-1", in); !errors.Is(err, catalog.ErrUploadQuota) {
		t.Fatalf("third upload should hit the quota, got err=%v", err)
	}

	// A different creator has an independent window.
	if _, err := svc.UploadAsset(context.Background(), "user-2", in); err != nil {
		t.Fatalf("other user upload: %v", err)
	}
}

func TestCountTotals(t *testing.T) {
	assets := &fakeAssetStore{}
	svc := newCatalogForTest(&fakeCategoryStore{}, assets)

	if _, err := svc.UploadAsset(context.Background(), "user-1", catalog.UploadInput{
		Title:      "Pack",
		CategoryID: 1,
		FileURL:    "https://cdn.example.com/p.zip",
	}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	totals, err := svc.CountTotals(context.Background())
	if err != nil {
		t.Fatalf("count totals: %v", err)
	}
	if totals.Users != 3 || totals.Assets != 1 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}
