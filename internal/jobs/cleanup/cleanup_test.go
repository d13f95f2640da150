package cleanup

import (
	"context"
	"testing"
	"time"

	mediasvc "github.com/dmarchuk/assetmarket/internal/services/media"
)

type fakeObjectStorage struct {
	objects []mediasvc.StoredObject
	deleted []string
}

func (f *fakeObjectStorage) ListOlderThan(_ context.Context, _ string, cutoff time.Time) ([]mediasvc.StoredObject, error) {
	var stale []mediasvc.StoredObject
	for _, object := range f.objects {
		if object.LastModified.Before(cutoff) {
			stale = append(stale, object)
		}
	}
	return stale, nil
}

func (f *fakeObjectStorage) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStorage) PublicURL(key string) string {
	return "http://cdn.local/" + key
}

type fakeAssetChecker struct {
	referenced map[string]bool
}

func (f *fakeAssetChecker) ExistsByFileURL(_ context.Context, fileURL string) (bool, error) {
	return f.referenced[fileURL], nil
}

func TestRunDeletesStaleUnreferencedObjects(t *testing.T) {
	now := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

	storage := &fakeObjectStorage{
		objects: []mediasvc.StoredObject{
			{Key: "assets/u1/old_orphan.png", LastModified: now.Add(-48 * time.Hour)},
			{Key: "assets/u1/old_linked.png", LastModified: now.Add(-48 * time.Hour)},
			{Key: "assets/u2/fresh_orphan.png", LastModified: now.Add(-1 * time.Hour)},
		},
	}
	assets := &fakeAssetChecker{
		referenced: map[string]bool{
			"http://cdn.local/assets/u1/old_linked.png": true,
		},
	}

	job := NewOrphanMediaJob(storage, assets, 24*time.Hour, nil)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup job: %v", err)
	}

	if len(storage.deleted) != 1 || storage.deleted[0] != "assets/u1/old_orphan.png" {
		t.Fatalf("unexpected deletions: %v", storage.deleted)
	}
}

func TestRunWithoutStorageIsNoOp(t *testing.T) {
	job := NewOrphanMediaJob(nil, nil, time.Hour, nil)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run cleanup job: %v", err)
	}
}
