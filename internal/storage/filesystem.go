// Package storage implements a per-user hierarchical filesystem on top of a
// flat object store.
//
// Directories are not stored entities. A directory exists when a zero-byte
// marker object sits at its key (ending in "/") or when any object key starts
// with that key. Multi-step operations (move, recursive delete, batch upload)
// are not atomic: a failure part way through is reported, never rolled back.
// No locking is done, so concurrent callers touching the same keys can race.
package storage

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/damacus/iron-drive/internal/metrics"
	"github.com/damacus/iron-drive/internal/objectstore"
	"github.com/damacus/iron-drive/internal/paths"
	"go.uber.org/zap"
)

const defaultMoveConcurrency = 8

// FileSystem is the virtual filesystem service. It is safe for concurrent use
// and holds no state besides its collaborators.
type FileSystem struct {
	gw              objectstore.Gateway
	logger          *zap.Logger
	moveConcurrency int
}

type Option func(*FileSystem)

func WithLogger(logger *zap.Logger) Option {
	return func(fs *FileSystem) {
		if logger != nil {
			fs.logger = logger
		}
	}
}

// WithMoveConcurrency bounds the parallel copies of a directory move.
func WithMoveConcurrency(n int) Option {
	return func(fs *FileSystem) {
		if n > 0 {
			fs.moveConcurrency = n
		}
	}
}

func New(gw objectstore.Gateway, opts ...Option) *FileSystem {
	fs := &FileSystem{
		gw:              gw,
		logger:          zap.NewNop(),
		moveConcurrency: defaultMoveConcurrency,
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

func (fs *FileSystem) observe(op string, userID int64, err error) {
	outcome := Outcome(err)
	metrics.RecordOperation(op, outcome)
	if outcome == "backend" {
		fs.logger.Error("storage operation failed",
			zap.String("op", op), zap.Int64("user_id", userID), zap.Error(err))
	}
}

// presence probes both the marker object and the keys below dirKey.
func (fs *FileSystem) presence(ctx context.Context, dirKey string) (Presence, error) {
	marker, err := fs.gw.Exists(ctx, dirKey)
	if err != nil {
		return Absent, err
	}
	descendants, err := fs.gw.HasAnyObjectUnder(ctx, dirKey)
	if err != nil {
		return Absent, err
	}
	return presenceOf(marker, descendants), nil
}

// List returns the direct children of a directory. The root always exists;
// any other directory with neither marker nor contents is not found.
func (fs *FileSystem) List(ctx context.Context, userID int64, rawDir string) (result []ResourceInfo, err error) {
	defer func() { fs.observe("list", userID, err) }()

	dir, err := paths.NormalizeDirectory(rawDir)
	if err != nil {
		return nil, err
	}
	prefix := paths.UserRootPrefix(userID) + dir

	objects, err := fs.gw.List(ctx, prefix, false)
	if err != nil {
		return nil, err
	}
	if dir != "" && len(objects) == 0 {
		return nil, notFound(dir)
	}

	result = make([]ResourceInfo, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == prefix {
			continue
		}
		relative := strings.TrimPrefix(obj.Key, prefix)
		if obj.IsDir() {
			result = append(result, ResourceInfo{
				Path: dir,
				Name: paths.RemoveTrailingSlash(relative) + "/",
				Type: TypeDirectory,
			})
			continue
		}
		size := obj.Size
		result = append(result, ResourceInfo{Path: dir, Name: relative, Size: &size, Type: TypeFile})
	}
	return result, nil
}

// GetInfo describes a file, or a directory when rawPath ends with "/".
func (fs *FileSystem) GetInfo(ctx context.Context, userID int64, rawPath string) (info ResourceInfo, err error) {
	defer func() { fs.observe("info", userID, err) }()

	root := paths.UserRootPrefix(userID)

	if paths.IsDirectoryForm(rawPath) {
		dir, err := paths.NormalizeDirectory(rawPath)
		if err != nil {
			return ResourceInfo{}, err
		}
		if dir == "" {
			return ResourceInfo{}, invalidf("root directory has no info")
		}
		p, err := fs.presence(ctx, root+dir)
		if err != nil {
			return ResourceInfo{}, err
		}
		if !p.Exists() {
			return ResourceInfo{}, notFound(dir)
		}
		return dirInfo(dir), nil
	}

	file, err := paths.NormalizeFile(rawPath)
	if err != nil {
		return ResourceInfo{}, err
	}
	size, err := fs.gw.Stat(ctx, root+file)
	if errors.Is(err, objectstore.ErrNotFound) {
		return ResourceInfo{}, notFound(file)
	}
	if err != nil {
		return ResourceInfo{}, err
	}
	return fileInfo(file, size), nil
}

// CreateDirectory writes a marker for a new directory whose parent exists.
func (fs *FileSystem) CreateDirectory(ctx context.Context, userID int64, rawPath string) (info ResourceInfo, err error) {
	defer func() { fs.observe("mkdir", userID, err) }()

	dir, err := paths.NormalizeDirectory(rawPath)
	if err != nil {
		return ResourceInfo{}, err
	}
	if dir == "" {
		return ResourceInfo{}, invalidf("path is missing")
	}

	root := paths.UserRootPrefix(userID)
	p, err := fs.presence(ctx, root+dir)
	if err != nil {
		return ResourceInfo{}, err
	}
	if p.Exists() {
		return ResourceInfo{}, alreadyExists(dir)
	}

	if parent := paths.ParentDirectory(paths.RemoveTrailingSlash(dir)); parent != "" {
		pp, err := fs.presence(ctx, root+parent)
		if err != nil {
			return ResourceInfo{}, err
		}
		if !pp.Exists() {
			return ResourceInfo{}, notFound(parent)
		}
	}

	if err := fs.gw.Put(ctx, root+dir, bytes.NewReader(nil), 0, ""); err != nil {
		return ResourceInfo{}, err
	}
	return dirInfo(dir), nil
}
