// Package storage persists report artifacts and run history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("object not found")

// BlobStore defines the interface for abstract storage backends.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Open returns an S3Store for "s3://bucket/prefix" targets and a LocalStore
// rooted at target otherwise.
func Open(ctx context.Context, target string) (BlobStore, error) {
	if !strings.HasPrefix(target, "s3://") {
		return NewLocalStore(target), nil
	}

	bucket, prefix, _ := strings.Cut(strings.TrimPrefix(target, "s3://"), "/")
	if bucket == "" {
		return nil, fmt.Errorf("invalid s3 target %q: missing bucket", target)
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	store := NewS3Store(cfg, bucket)
	store.Prefix = strings.TrimSuffix(prefix, "/")
	return store, nil
}
