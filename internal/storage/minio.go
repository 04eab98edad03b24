package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const imageObjectPrefix = "community-images"

var (
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload image")
)

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base for objects; defaults to the endpoint.
	PublicURL string
}

// MinIOStore keeps images in an S3-compatible bucket and returns absolute URLs.
type MinIOStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	initMu  sync.Mutex
	ready   bool
}

// NewMinIOStore builds the client. The bucket is checked on first upload so
// startup does not depend on the object store being reachable.
func NewMinIOStore(cfg MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: objectBaseURL(cfg),
	}, nil
}

func objectBaseURL(cfg MinIOConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/") + "/" + cfg.Bucket
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}

// lazyInit makes sure the bucket exists. A failed check is retried on the
// next upload.
func (s *MinIOStore) lazyInit(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.ready {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket: %v", ErrBucketCreationFailed, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
		}
	}
	s.ready = true
	return nil
}

func (s *MinIOStore) Save(ctx context.Context, img Image) (string, error) {
	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s%s", imageObjectPrefix, uuid.NewString(), img.Ext)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType: img.ContentType,
		UserMetadata: map[string]string{
			"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return s.baseURL + "/" + key, nil
}
