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

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) FindByID(ctx context.Context, userID string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(userID) == "" {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
SELECT id, email, name, COALESCE(image, ''), role, created_at
FROM users
WHERE id = $1
`, userID).Scan(&user.ID, &user.Email, &user.Name, &user.Image, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}

	return user, nil
}

// GetOrCreateByEmail upserts the identity-provider user on login. Role is
// never downgraded by a login.
func (r *UserRepo) GetOrCreateByEmail(ctx context.Context, email, name, image string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return model.User{}, fmt.Errorf("invalid email")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (id, email, name, image, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'user', NOW(), NOW())
ON CONFLICT (email) DO UPDATE SET
	name = EXCLUDED.name,
	image = EXCLUDED.image,
	updated_at = NOW()
RETURNING id, email, name, COALESCE(image, ''), role, created_at
`, uuid.NewString(), email, strings.TrimSpace(name), strings.TrimSpace(image)).Scan(
		&user.ID, &user.Email, &user.Name, &user.Image, &user.Role, &user.CreatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("get or create user by email: %w", err)
	}
	if strings.TrimSpace(string(user.Role)) == "" {
		user.Role = enums.RoleUser
	}

	return user, nil
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}
