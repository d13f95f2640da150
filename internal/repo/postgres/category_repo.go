package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmarchuk/assetmarket/internal/domain/model"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

func (r *CategoryRepo) Create(ctx context.Context, name string) (model.Category, error) {
	if r.pool == nil {
		return model.Category{}, fmt.Errorf("postgres pool is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Category{}, fmt.Errorf("invalid category name")
	}

	var category model.Category
	err := r.pool.QueryRow(ctx, `
INSERT INTO categories (name, created_at)
VALUES ($1, NOW())
RETURNING id, name, created_at
`, name).Scan(&category.ID, &category.Name, &category.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.Category{}, ErrCategoryExists
		}
		return model.Category{}, fmt.Errorf("insert category: %w", err)
	}

	return category, nil
}

// FindByName is a case-sensitive exact match.
func (r *CategoryRepo) FindByName(ctx context.Context, name string) (model.Category, error) {
	if r.pool == nil {
		return model.Category{}, fmt.Errorf("postgres pool is nil")
	}

	var category model.Category
	err := r.pool.QueryRow(ctx, `
SELECT id, name, created_at
FROM categories
WHERE name = $1
LIMIT 1
`, strings.TrimSpace(name)).Scan(&category.ID, &category.Name, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Category{}, ErrCategoryNotFound
		}
		return model.Category{}, fmt.Errorf("find category by name: %w", err)
	}

	return category, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, name, created_at
FROM categories
ORDER BY name
`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		var category model.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

func (r *CategoryRepo) Delete(ctx context.Context, categoryID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if categoryID <= 0 {
		return fmt.Errorf("invalid category id")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}
