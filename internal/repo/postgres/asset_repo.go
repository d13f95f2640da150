package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
	"github.com/dmarchuk/assetmarket/internal/domain/model"
)

var (
	ErrAssetNotFound   = errors.New("asset not found")
	ErrAssetNotPending = errors.New("asset is not pending moderation")
)

type AssetRepo struct {
	pool *pgxpool.Pool
}

// AssetListing is an asset row joined with its category and uploader names.
type AssetListing struct {
	Asset        model.Asset
	CategoryName string
	UploaderName string
}

// AssetDetails extends AssetListing with uploader identity for the asset page.
type AssetDetails struct {
	Asset         model.Asset
	CategoryName  string
	UploaderName  string
	UploaderImage string
	UploaderID    string
}

type CreateAssetParams struct {
	Title        string
	Description  *string
	UserID       string
	CategoryID   int64
	FileURL      string
	ThumbnailURL string
}

func NewAssetRepo(pool *pgxpool.Pool) *AssetRepo {
	return &AssetRepo{pool: pool}
}

func (r *AssetRepo) Create(ctx context.Context, params CreateAssetParams) (model.Asset, error) {
	if r.pool == nil {
		return model.Asset{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(params.Title) == "" || strings.TrimSpace(params.UserID) == "" || params.CategoryID <= 0 {
		return model.Asset{}, fmt.Errorf("invalid asset create payload")
	}

	var asset model.Asset
	err := r.pool.QueryRow(ctx, `
INSERT INTO assets (id, title, description, user_id, category_id, file_url, thumbnail_url, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', NOW(), NOW())
RETURNING id, title, description, user_id, category_id, file_url, thumbnail_url, status, created_at, updated_at
`, uuid.NewString(), strings.TrimSpace(params.Title), params.Description, params.UserID, params.CategoryID,
		params.FileURL, params.ThumbnailURL).Scan(
		&asset.ID, &asset.Title, &asset.Description, &asset.UserID, &asset.CategoryID,
		&asset.FileURL, &asset.ThumbnailURL, &asset.Status, &asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return model.Asset{}, fmt.Errorf("insert asset: %w", err)
	}

	return asset, nil
}

func (r *AssetRepo) FindByID(ctx context.Context, assetID string) (AssetDetails, error) {
	if r.pool == nil {
		return AssetDetails{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(assetID) == "" {
		return AssetDetails{}, fmt.Errorf("invalid asset id")
	}

	var details AssetDetails
	err := r.pool.QueryRow(ctx, `
SELECT
	a.id, a.title, a.description, a.user_id, a.category_id,
	a.file_url, a.thumbnail_url, a.status, a.created_at, a.updated_at,
	COALESCE(c.name, ''), COALESCE(u.name, ''), COALESCE(u.image, ''), COALESCE(u.id, '')
FROM assets a
LEFT JOIN categories c ON a.category_id = c.id
LEFT JOIN users u ON a.user_id = u.id
WHERE a.id = $1
`, assetID).Scan(
		&details.Asset.ID, &details.Asset.Title, &details.Asset.Description, &details.Asset.UserID,
		&details.Asset.CategoryID, &details.Asset.FileURL, &details.Asset.ThumbnailURL,
		&details.Asset.Status, &details.Asset.CreatedAt, &details.Asset.UpdatedAt,
		&details.CategoryName, &details.UploaderName, &details.UploaderImage, &details.UploaderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AssetDetails{}, ErrAssetNotFound
		}
		return AssetDetails{}, fmt.Errorf("find asset by id: %w", err)
	}

	return details, nil
}

// ListPublic returns approved assets, optionally filtered by category.
func (r *AssetRepo) ListPublic(ctx context.Context, categoryID *int64) ([]AssetListing, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	query := `
SELECT
	a.id, a.title, a.description, a.user_id, a.category_id,
	a.file_url, a.thumbnail_url, a.status, a.created_at, a.updated_at,
	COALESCE(c.name, ''), COALESCE(u.name, '')
FROM assets a
LEFT JOIN categories c ON a.category_id = c.id
LEFT JOIN users u ON a.user_id = u.id
WHERE a.status = 'approved'
`
	args := []any{}
	if categoryID != nil {
		query += ` AND a.category_id = $1`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY a.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list public assets: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

func (r *AssetRepo) ListByUser(ctx context.Context, userID string) ([]model.Asset, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, title, description, user_id, category_id, file_url, thumbnail_url, status, created_at, updated_at
FROM assets
WHERE user_id = $1
ORDER BY created_at
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user assets: %w", err)
	}
	defer rows.Close()

	assets := make([]model.Asset, 0)
	for rows.Next() {
		var asset model.Asset
		if err := rows.Scan(
			&asset.ID, &asset.Title, &asset.Description, &asset.UserID, &asset.CategoryID,
			&asset.FileURL, &asset.ThumbnailURL, &asset.Status, &asset.CreatedAt, &asset.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user assets: %w", err)
	}

	return assets, nil
}

func (r *AssetRepo) ListPending(ctx context.Context) ([]AssetListing, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT
	a.id, a.title, a.description, a.user_id, a.category_id,
	a.file_url, a.thumbnail_url, a.status, a.created_at, a.updated_at,
	COALESCE(c.name, ''), COALESCE(u.name, '')
FROM assets a
LEFT JOIN categories c ON a.category_id = c.id
LEFT JOIN users u ON a.user_id = u.id
WHERE a.status = 'pending'
ORDER BY a.created_at
`)
	if err != nil {
		return nil, fmt.Errorf("list pending assets: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// UpdateStatus applies a moderation decision. Only pending assets transition;
// approved and rejected are terminal.
func (r *AssetRepo) UpdateStatus(ctx context.Context, assetID string, status enums.ApprovalStatus) (model.Asset, error) {
	if r.pool == nil {
		return model.Asset{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(assetID) == "" {
		return model.Asset{}, fmt.Errorf("invalid asset id")
	}

	var asset model.Asset
	err := r.pool.QueryRow(ctx, `
UPDATE assets
SET status = $2, updated_at = NOW()
WHERE id = $1
  AND status = 'pending'
RETURNING id, title, description, user_id, category_id, file_url, thumbnail_url, status, created_at, updated_at
`, assetID, string(status)).Scan(
		&asset.ID, &asset.Title, &asset.Description, &asset.UserID, &asset.CategoryID,
		&asset.FileURL, &asset.ThumbnailURL, &asset.Status, &asset.CreatedAt, &asset.UpdatedAt)
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Asset{}, fmt.Errorf("update asset status: %w", err)
	}

	var exists bool
	if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM assets WHERE id = $1)`, assetID).Scan(&exists); checkErr != nil {
		return model.Asset{}, fmt.Errorf("check asset existence: %w", checkErr)
	}
	if !exists {
		return model.Asset{}, ErrAssetNotFound
	}

	return model.Asset{}, ErrAssetNotPending
}

func (r *AssetRepo) Count(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM assets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count assets: %w", err)
	}

	return count, nil
}

func (r *AssetRepo) CountPending(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM assets WHERE status = 'pending'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending assets: %w", err)
	}

	return count, nil
}

// ExistsByFileURL reports whether any asset row references the given stored
// file. Used by the orphan cleanup job.
func (r *AssetRepo) ExistsByFileURL(ctx context.Context, fileURL string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(fileURL) == "" {
		return false, nil
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS(
	SELECT 1 FROM assets WHERE file_url = $1 OR thumbnail_url = $1
)
`, fileURL).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check asset by file url: %w", err)
	}

	return exists, nil
}

func scanListings(rows pgx.Rows) ([]AssetListing, error) {
	listings := make([]AssetListing, 0)
	for rows.Next() {
		var listing AssetListing
		if err := rows.Scan(
			&listing.Asset.ID, &listing.Asset.Title, &listing.Asset.Description, &listing.Asset.UserID,
			&listing.Asset.CategoryID, &listing.Asset.FileURL, &listing.Asset.ThumbnailURL,
			&listing.Asset.Status, &listing.Asset.CreatedAt, &listing.Asset.UpdatedAt,
			&listing.CategoryName, &listing.UploaderName); err != nil {
			return nil, fmt.Errorf("scan asset listing: %w", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asset listings: %w", err)
	}

	return listings, nil
}
