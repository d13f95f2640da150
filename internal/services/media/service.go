package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var ErrValidation = errors.New("validation error")

const (
	signedURLTTL = 5 * time.Minute

	// ObjectPrefix is where uploaded asset files live in the bucket.
	ObjectPrefix = "assets/"
)

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	KeyFromURL(fileURL string) (string, bool)
}

type Service struct {
	storage ObjectStorage
	now     func() time.Time
}

// Object describes a stored upload.
type Object struct {
	Key string
	URL string
}

// UploadTicket lets the client push the file straight to the bucket.
type UploadTicket struct {
	Key       string
	UploadURL string
	PublicURL string
}

func NewService(storage ObjectStorage) *Service {
	return &Service{
		storage: storage,
		now:     time.Now,
	}
}

// Upload streams the file into the bucket and returns the stable URL to put
// on the asset row.
func (s *Service) Upload(ctx context.Context, userID, fileName, contentType string, body io.Reader, size int64) (Object, error) {
	if strings.TrimSpace(userID) == "" || body == nil || size <= 0 {
		return Object{}, ErrValidation
	}
	if s.storage == nil {
		return Object{}, fmt.Errorf("media storage is not configured")
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Object{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey, err := buildObjectKey(s.now(), userID, fileName)
	if err != nil {
		return Object{}, fmt.Errorf("build object key: %w", err)
	}

	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	if err := s.storage.PutObject(ctx, objectKey, body, size, contentType); err != nil {
		return Object{}, fmt.Errorf("put object: %w", err)
	}

	return Object{
		Key: objectKey,
		URL: s.storage.PublicURL(objectKey),
	}, nil
}

// SignUpload issues a presigned PUT so large files bypass the API.
func (s *Service) SignUpload(ctx context.Context, userID, fileName string) (UploadTicket, error) {
	if strings.TrimSpace(userID) == "" {
		return UploadTicket{}, ErrValidation
	}
	if s.storage == nil {
		return UploadTicket{}, fmt.Errorf("media storage is not configured")
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return UploadTicket{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey, err := buildObjectKey(s.now(), userID, fileName)
	if err != nil {
		return UploadTicket{}, fmt.Errorf("build object key: %w", err)
	}

	uploadURL, err := s.storage.PresignPut(ctx, objectKey, signedURLTTL)
	if err != nil {
		return UploadTicket{}, fmt.Errorf("presign upload: %w", err)
	}

	return UploadTicket{
		Key:       objectKey,
		UploadURL: uploadURL,
		PublicURL: s.storage.PublicURL(objectKey),
	}, nil
}

// PresignView returns a short-lived GET link for an object key. The bot uses
// it to attach thumbnails to review cards.
func (s *Service) PresignView(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrValidation
	}
	if s.storage == nil {
		return "", fmt.Errorf("media storage is not configured")
	}
	return s.storage.PresignGet(ctx, key, signedURLTTL)
}

// DeleteByURL removes the stored object a public URL points at. URLs outside
// the bucket are ignored, so callers can compensate without checking where a
// file lives.
func (s *Service) DeleteByURL(ctx context.Context, fileURL string) error {
	if s.storage == nil {
		return fmt.Errorf("media storage is not configured")
	}

	key, ok := s.storage.KeyFromURL(fileURL)
	if !ok {
		return nil
	}
	return s.storage.Delete(ctx, key)
}

func buildObjectKey(now time.Time, userID, fileName string) (string, error) {
	rnd := make([]byte, 8)
	if _, err := rand.Read(rnd); err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		ext = ".bin"
	}

	stamp := now.UTC().Format("20060102T150405")
	return fmt.Sprintf("%s%s/%s_%s%s", ObjectPrefix, userID, stamp, hex.EncodeToString(rnd), ext), nil
}
