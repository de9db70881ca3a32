// Package objectstore is a thin capability layer over a flat, prefix-addressed
// object store. It carries no filesystem semantics of its own.
package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
)

const defaultContentType = "application/octet-stream"

var (
	// ErrNotFound means the key is absent. It is never used for other faults.
	ErrNotFound = errors.New("object not found")
	// ErrBackend wraps every other object store failure.
	ErrBackend = errors.New("object store failure")
)

// Object is one entry of a listing. CommonPrefix is set for the rolled-up
// entries of a one-level listing.
type Object struct {
	Key          string
	Size         int64
	CommonPrefix bool
}

// IsDir reports whether the entry stands for a directory.
func (o Object) IsDir() bool {
	return o.CommonPrefix || strings.HasSuffix(o.Key, "/")
}

// Gateway is the set of object store operations the filesystem is built on.
type Gateway interface {
	// List returns the objects under prefix. A non-recursive listing uses "/"
	// as delimiter and reports deeper levels as common prefixes.
	List(ctx context.Context, prefix string, recursive bool) ([]Object, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Stat returns the size of key or ErrNotFound.
	Stat(ctx context.Context, key string) (int64, error)
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	// RemoveBatch attempts every key and reports the first item failure.
	RemoveBatch(ctx context.Context, keys []string) error
	Copy(ctx context.Context, srcKey, dstKey string) error
	// HasAnyObjectUnder reports whether some key other than prefix itself
	// starts with prefix.
	HasAnyObjectUnder(ctx context.Context, prefix string) (bool, error)
}

// BucketInitializer is implemented by gateways that can create their bucket.
type BucketInitializer interface {
	EnsureBucket(ctx context.Context) error
}

func contentTypeOrDefault(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return defaultContentType
	}
	return contentType
}

func existsFromStat(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
