package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeStorage struct {
	putKeys     []string
	presignPuts []string
	deleteCalls int
	deletedKeys []string
}

func (f *fakeStorage) EnsureBucket(_ context.Context) error {
	return nil
}

func (f *fakeStorage) PutObject(_ context.Context, key string, _ io.Reader, _ int64, _ string) error {
	f.putKeys = append(f.putKeys, key)
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.local/" + key, nil
}

func (f *fakeStorage) PresignPut(_ context.Context, key string, _ time.Duration) (string, error) {
	f.presignPuts = append(f.presignPuts, key)
	return "https://signed.local/put/" + key, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.deleteCalls++
	f.deletedKeys = append(f.deletedKeys, key)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.local/" + key
}

func (f *fakeStorage) KeyFromURL(fileURL string) (string, bool) {
	key, ok := strings.CutPrefix(fileURL, "https://cdn.local/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func TestUploadBuildsScopedKey(t *testing.T) {
	storage := &fakeStorage{}
	svc := NewService(storage)

	obj, err := svc.Upload(context.Background(), "user-7", "pack.png", "image/png", strings.NewReader("abc"), 3)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if !strings.HasPrefix(obj.Key, ObjectPrefix+"user-7/") {
		t.Fatalf("object key not scoped to user: %q", obj.Key)
	}
	if !strings.HasSuffix(obj.Key, ".png") {
		t.Fatalf("object key lost extension: %q", obj.Key)
	}
	if obj.URL != "https://cdn.local/"+obj.Key {
		t.Fatalf("unexpected public url: %q", obj.URL)
	}
	if len(storage.putKeys) != 1 {
		t.Fatalf("expected one put, got %d", len(storage.putKeys))
	}
}

func TestUploadValidatesInput(t *testing.T) {
	svc := NewService(&fakeStorage{})

	if _, err := svc.Upload(context.Background(), "", "a.png", "image/png", strings.NewReader("x"), 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty user id should fail validation, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), "user-1", "a.png", "image/png", nil, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("nil body should fail validation, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), "user-1", "a.png", "image/png", strings.NewReader(""), 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero size should fail validation, got %v", err)
	}
}

func TestDeleteByURL(t *testing.T) {
	storage := &fakeStorage{}
	svc := NewService(storage)

	if err := svc.DeleteByURL(context.Background(), "https://cdn.local/assets/u1/a.png"); err != nil {
		t.Fatalf("delete by url: %v", err)
	}
	if len(storage.deletedKeys) != 1 || storage.deletedKeys[0] != "assets/u1/a.png" {
		t.Fatalf("unexpected deletions: %v", storage.deletedKeys)
	}

	// URLs outside the bucket are left alone.
	if err := svc.DeleteByURL(context.Background(), "https://elsewhere.example.com/a.png"); err != nil {
		t.Fatalf("foreign url: %v", err)
	}
	if storage.deleteCalls != 1 {
		t.Fatalf("foreign url must not reach storage, calls=%d", storage.deleteCalls)
	}
}

func TestSignUpload(t *testing.T) {
	storage := &fakeStorage{}
	svc := NewService(storage)

	ticket, err := svc.SignUpload(context.Background(), "user-7", "scene.jpg")
	if err != nil {
		t.Fatalf("sign upload: %v", err)
	}

	if !strings.HasPrefix(ticket.UploadURL, "https://signed.local/put/") {
		t.Fatalf("unexpected upload url: %q", ticket.UploadURL)
	}
	if ticket.PublicURL != "https://cdn.local/"+ticket.Key {
		t.Fatalf("public url does not match key: %q", ticket.PublicURL)
	}
	if len(storage.presignPuts) != 1 {
		t.Fatalf("expected one presigned put, got %d", len(storage.presignPuts))
	}
}
