package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	mediasvc "github.com/dmarchuk/assetmarket/internal/services/media"
)

// Job removes uploaded files that never made it onto an asset row. Uploads go
// to the bucket before the asset is created, so an abandoned upload leaves an
// object nothing references.
type Job struct {
	storage   objectStorage
	assets    assetChecker
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

type objectStorage interface {
	ListOlderThan(ctx context.Context, prefix string, cutoff time.Time) ([]mediasvc.StoredObject, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type assetChecker interface {
	ExistsByFileURL(ctx context.Context, fileURL string) (bool, error)
}

func NewOrphanMediaJob(storage objectStorage, assets assetChecker, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		storage:   storage,
		assets:    assets,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.storage == nil || j.assets == nil {
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	objects, err := j.storage.ListOlderThan(ctx, mediasvc.ObjectPrefix, cutoff)
	if err != nil {
		return fmt.Errorf("list stale objects: %w", err)
	}

	if len(objects) == 0 {
		return nil
	}

	var deleted int
	for _, object := range objects {
		referenced, err := j.assets.ExistsByFileURL(ctx, j.storage.PublicURL(object.Key))
		if err != nil {
			return fmt.Errorf("check object reference: %w", err)
		}
		if referenced {
			continue
		}

		if err := j.storage.Delete(ctx, object.Key); err != nil {
			j.logger.Warn("failed to delete orphan object", zap.Error(err), zap.String("object_key", object.Key))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		j.logger.Info("cleanup orphan media completed", zap.Int("deleted", deleted))
	}
	return nil
}
