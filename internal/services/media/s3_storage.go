package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
)

type S3Storage struct {
	client     *minio.Client
	bucket     string
	publicBase string

	ensureOnce sync.Once
	ensureErr  error
}

// StoredObject is a bucket entry as seen by the cleanup job.
type StoredObject struct {
	Key          string
	LastModified time.Time
}

func NewS3Storage(client *minio.Client, bucket, publicBase string) *S3Storage {
	return &S3Storage{
		client:     client,
		bucket:     strings.TrimSpace(bucket),
		publicBase: strings.TrimRight(strings.TrimSpace(publicBase), "/"),
	}
}

func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if s.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	s.ensureOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = err
			return
		}
		if exists {
			return
		}
		s.ensureErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	})

	if s.ensureErr != nil {
		return fmt.Errorf("ensure s3 bucket %q: %w", s.bucket, s.ensureErr)
	}

	return nil
}

func (s *S3Storage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if key == "" || body == nil || size == 0 {
		return ErrValidation
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object to s3: %w", err)
	}

	return nil
}

func (s *S3Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if key == "" {
		return "", ErrValidation
	}
	if ttl <= 0 {
		ttl = signedURLTTL
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}

	return presigned.String(), nil
}

func (s *S3Storage) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if key == "" {
		return "", ErrValidation
	}
	if ttl <= 0 {
		ttl = signedURLTTL
	}

	presigned, err := s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("presign put object: %w", err)
	}

	return presigned.String(), nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if s.client == nil || key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// ListOlderThan walks the bucket under prefix and returns objects last
// modified before cutoff.
func (s *S3Storage) ListOlderThan(ctx context.Context, prefix string, cutoff time.Time) ([]StoredObject, error) {
	if s.client == nil {
		return nil, fmt.Errorf("s3 client is nil")
	}

	objects := make([]StoredObject, 0)
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list objects: %w", info.Err)
		}
		if info.LastModified.Before(cutoff) {
			objects = append(objects, StoredObject{
				Key:          info.Key,
				LastModified: info.LastModified,
			})
		}
	}

	return objects, nil
}

// PublicURL maps an object key to the stable URL stored on asset rows.
func (s *S3Storage) PublicURL(key string) string {
	if s.publicBase == "" || key == "" {
		return ""
	}
	return s.publicBase + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL is the inverse of PublicURL. Returns false for URLs outside the
// public base.
func (s *S3Storage) KeyFromURL(fileURL string) (string, bool) {
	if s.publicBase == "" {
		return "", false
	}
	trimmed := strings.TrimPrefix(fileURL, s.publicBase+"/")
	if trimmed == fileURL || trimmed == "" {
		return "", false
	}
	return trimmed, true
}
