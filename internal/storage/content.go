package storage

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/damacus/iron-drive/internal/metrics"
	"github.com/damacus/iron-drive/internal/objectstore"
)

// ErrContentConsumed is returned when a DownloadContent is streamed twice.
var ErrContentConsumed = errors.New("download content already consumed")

// DownloadContent is a deferred, single-use download. Nothing is read from
// the object store until Stream is called.
type DownloadContent interface {
	FileName() string
	// ContentLength reports the byte length when it is known up front.
	ContentLength() (int64, bool)
	Stream(ctx context.Context, w io.Writer) (int64, error)
}

type fileContent struct {
	name     string
	size     int64
	open     func(ctx context.Context) (io.ReadCloser, error)
	consumed atomic.Bool
}

func (c *fileContent) FileName() string { return c.name }

func (c *fileContent) ContentLength() (int64, bool) { return c.size, true }

func (c *fileContent) Stream(ctx context.Context, w io.Writer) (int64, error) {
	if c.consumed.Swap(true) {
		return 0, ErrContentConsumed
	}

	rc, err := c.open(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()

	n, err := io.Copy(w, rc)
	metrics.AddBytesDownloaded(n)
	if err != nil {
		return n, fmt.Errorf("stream %s: %w", c.name, err)
	}
	return n, nil
}

// zipContent assembles a zip archive of keys while it is being written.
// Entry names are the keys relative to prefix.
type zipContent struct {
	name     string
	prefix   string
	keys     []string
	gw       objectstore.Gateway
	consumed atomic.Bool
}

func (c *zipContent) FileName() string { return c.name }

func (c *zipContent) ContentLength() (int64, bool) { return 0, false }

func (c *zipContent) Stream(ctx context.Context, w io.Writer) (int64, error) {
	if c.consumed.Swap(true) {
		return 0, ErrContentConsumed
	}

	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)

	for _, key := range c.keys {
		entry := strings.TrimPrefix(key, c.prefix)
		if strings.TrimSpace(entry) == "" || strings.HasSuffix(entry, "/") {
			continue
		}
		if err := c.addEntry(ctx, zw, key, entry); err != nil {
			_ = zw.Close()
			metrics.AddBytesDownloaded(cw.n)
			return cw.n, err
		}
	}

	err := zw.Close()
	metrics.AddBytesDownloaded(cw.n)
	if err != nil {
		return cw.n, fmt.Errorf("finish zip %s: %w", c.name, err)
	}
	return cw.n, nil
}

func (c *zipContent) addEntry(ctx context.Context, zw *zip.Writer, key, entry string) error {
	rc, err := c.gw.Get(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	fw, err := zw.Create(entry)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", entry, err)
	}
	if _, err := io.Copy(fw, rc); err != nil {
		return fmt.Errorf("write zip entry %s: %w", entry, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
