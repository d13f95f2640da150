package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	viewPrefix    = "views:"
	counterPrefix = "counters:"
)

var ErrCacheMiss = errors.New("cache miss")

// CacheRepo stores rendered view payloads (gallery, category list) so public
// reads skip postgres until a write invalidates them.
type CacheRepo struct {
	client *goredis.Client
}

func NewCacheRepo(client *goredis.Client) *CacheRepo {
	return &CacheRepo{client: client}
}

func (r *CacheRepo) GetView(ctx context.Context, view string, out interface{}) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, viewKey(view)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("get cached view: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode cached view: %w", err)
	}

	return nil
}

func (r *CacheRepo) SetView(ctx context.Context, view string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached view: %w", err)
	}

	if err := r.client.Set(ctx, viewKey(view), raw, ttl).Err(); err != nil {
		return fmt.Errorf("set cached view: %w", err)
	}

	return nil
}

// InvalidateViews drops the named views after a write that changes what the
// public pages show.
func (r *CacheRepo) InvalidateViews(ctx context.Context, views ...string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if len(views) == 0 {
		return nil
	}

	keys := make([]string, 0, len(views))
	for _, view := range views {
		keys = append(keys, viewKey(view))
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate cached views: %w", err)
	}

	return nil
}

// IncrementCounter bumps a named counter and, on first increment, schedules
// its expiry. Quota windows reset by letting the key lapse.
func (r *CacheRepo) IncrementCounter(ctx context.Context, name string, expireAt time.Time) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	key := counterPrefix + name
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}

	if count == 1 && !expireAt.IsZero() {
		if err := r.client.ExpireAt(ctx, key, expireAt).Err(); err != nil {
			return 0, fmt.Errorf("expire counter: %w", err)
		}
	}

	return count, nil
}

func viewKey(view string) string {
	return viewPrefix + view
}
