package objectstore

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/damacus/iron-drive/internal/metrics"
)

type instrumented struct {
	next    Gateway
	backend string
}

// Instrument wraps gw so every call is recorded in the backend metrics.
// A not-found outcome counts as a successful call.
func Instrument(gw Gateway, backend string) Gateway {
	return &instrumented{next: gw, backend: backend}
}

func (i *instrumented) record(op string, start time.Time, err error) {
	metrics.RecordBackendCall(i.backend, op, time.Since(start), err == nil || errors.Is(err, ErrNotFound))
}

func (i *instrumented) List(ctx context.Context, prefix string, recursive bool) ([]Object, error) {
	start := time.Now()
	objects, err := i.next.List(ctx, prefix, recursive)
	op := "list"
	if recursive {
		op = "list_recursive"
	}
	i.record(op, start, err)
	return objects, err
}

func (i *instrumented) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := i.next.Exists(ctx, key)
	i.record("exists", start, err)
	return ok, err
}

func (i *instrumented) Stat(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	size, err := i.next.Stat(ctx, key)
	i.record("stat", start, err)
	return size, err
}

func (i *instrumented) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	start := time.Now()
	err := i.next.Put(ctx, key, r, size, contentType)
	i.record("put", start, err)
	if err == nil {
		metrics.AddBytesUploaded(size)
	}
	return err
}

func (i *instrumented) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := i.next.Get(ctx, key)
	i.record("get", start, err)
	return rc, err
}

func (i *instrumented) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := i.next.Remove(ctx, key)
	i.record("remove", start, err)
	return err
}

func (i *instrumented) RemoveBatch(ctx context.Context, keys []string) error {
	start := time.Now()
	err := i.next.RemoveBatch(ctx, keys)
	i.record("remove_batch", start, err)
	return err
}

func (i *instrumented) Copy(ctx context.Context, srcKey, dstKey string) error {
	start := time.Now()
	err := i.next.Copy(ctx, srcKey, dstKey)
	i.record("copy", start, err)
	return err
}

func (i *instrumented) HasAnyObjectUnder(ctx context.Context, prefix string) (bool, error) {
	start := time.Now()
	ok, err := i.next.HasAnyObjectUnder(ctx, prefix)
	i.record("has_any", start, err)
	return ok, err
}
