package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/damacus/iron-drive/internal/objectstore"
	"github.com/damacus/iron-drive/internal/paths"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Upload writes each item below rawDir. Items are independent: when one
// fails, the ones already written stay and are returned with the error.
// Existing keys are never overwritten.
func (fs *FileSystem) Upload(ctx context.Context, userID int64, rawDir string, items []UploadItem) (uploaded []ResourceInfo, err error) {
	defer func() { fs.observe("upload", userID, err) }()

	dir, err := paths.NormalizeDirectory(rawDir)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, invalidf("no files to upload")
	}

	root := paths.UserRootPrefix(userID)
	uploaded = make([]ResourceInfo, 0, len(items))
	for _, item := range items {
		info, err := fs.uploadOne(ctx, root, dir, item)
		if err != nil {
			if len(uploaded) > 0 {
				fs.logger.Warn("upload batch stopped part way",
					zap.Int64("user_id", userID),
					zap.Int("written", len(uploaded)),
					zap.Int("total", len(items)),
					zap.Error(err))
			}
			return uploaded, err
		}
		uploaded = append(uploaded, info)
	}
	return uploaded, nil
}

func (fs *FileSystem) uploadOne(ctx context.Context, root, dir string, item UploadItem) (ResourceInfo, error) {
	if strings.TrimSpace(item.Name) == "" {
		return ResourceInfo{}, invalidf("file name is empty")
	}
	name, err := paths.NormalizeRelativeName(item.Name)
	if err != nil {
		return ResourceInfo{}, err
	}

	relative := dir + name
	key := root + relative

	exists, err := fs.gw.Exists(ctx, key)
	if err != nil {
		return ResourceInfo{}, err
	}
	if exists {
		return ResourceInfo{}, alreadyExists(relative)
	}

	body, err := item.Open()
	if err != nil {
		return ResourceInfo{}, fmt.Errorf("%w: open upload %s: %w", ErrBackend, name, err)
	}
	defer func() { _ = body.Close() }()

	if err := fs.gw.Put(ctx, key, body, item.Size, item.ContentType); err != nil {
		return ResourceInfo{}, err
	}
	return fileInfo(relative, item.Size), nil
}

// Download returns a lazy producer for a file, or for a zip of a directory
// when no file exists at rawPath. Nothing is read until it is streamed.
func (fs *FileSystem) Download(ctx context.Context, userID int64, rawPath string) (content DownloadContent, err error) {
	defer func() { fs.observe("download", userID, err) }()

	normalized, err := paths.NormalizePath(rawPath)
	if err != nil {
		return nil, err
	}
	root := paths.UserRootPrefix(userID)
	fileKey := root + normalized

	size, err := fs.gw.Stat(ctx, fileKey)
	switch {
	case err == nil:
		return &fileContent{
			name: paths.FileName(normalized),
			size: size,
			open: func(ctx context.Context) (io.ReadCloser, error) {
				rc, err := fs.gw.Get(ctx, fileKey)
				if errors.Is(err, objectstore.ErrNotFound) {
					return nil, notFound(normalized)
				}
				return rc, err
			},
		}, nil
	case !errors.Is(err, objectstore.ErrNotFound):
		return nil, err
	}

	dirPrefix := fileKey + "/"
	objects, err := fs.gw.List(ctx, dirPrefix, true)
	if err != nil {
		return nil, err
	}
	if !presenceFromListing(objects, dirPrefix).Exists() {
		return nil, notFound(rawPath)
	}

	keys := lo.FilterMap(objects, func(obj objectstore.Object, _ int) (string, bool) {
		return obj.Key, !obj.IsDir()
	})
	return &zipContent{
		name:   paths.FileName(normalized) + ".zip",
		prefix: dirPrefix,
		keys:   keys,
		gw:     fs.gw,
	}, nil
}
