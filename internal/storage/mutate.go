package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/damacus/iron-drive/internal/objectstore"
	"github.com/damacus/iron-drive/internal/paths"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Delete removes a file, or a whole directory when rawPath ends with "/".
// A directory delete removes every object below it, markers included.
func (fs *FileSystem) Delete(ctx context.Context, userID int64, rawPath string) (err error) {
	defer func() { fs.observe("delete", userID, err) }()

	if strings.TrimSpace(rawPath) == "" {
		return invalidf("path is empty")
	}
	root := paths.UserRootPrefix(userID)

	if paths.IsDirectoryForm(rawPath) {
		dir, err := paths.NormalizeDirectory(rawPath)
		if err != nil {
			return err
		}
		if dir == "" {
			return invalidf("cannot delete root directory")
		}

		objects, err := fs.gw.List(ctx, root+dir, true)
		if err != nil {
			return err
		}
		if len(objects) == 0 {
			return notFound(dir)
		}
		keys := lo.Map(objects, func(obj objectstore.Object, _ int) string { return obj.Key })
		if err := fs.gw.RemoveBatch(ctx, keys); err != nil {
			fs.logger.Warn("directory delete left objects behind",
				zap.Int64("user_id", userID), zap.String("dir", dir), zap.Error(err))
			return err
		}
		return nil
	}

	file, err := paths.NormalizePath(rawPath)
	if err != nil {
		return err
	}
	exists, err := fs.gw.Exists(ctx, root+file)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(file)
	}
	return fs.gw.Remove(ctx, root+file)
}

// Move renames a file or a directory. Both paths must be of the same kind.
// The backend has no rename, so this is copy then delete and can leave
// objects under both names when the delete fails.
func (fs *FileSystem) Move(ctx context.Context, userID int64, from, to string) (info ResourceInfo, err error) {
	defer func() { fs.observe("move", userID, err) }()

	if strings.TrimSpace(from) == "" {
		return ResourceInfo{}, invalidf("parameter 'from' is required")
	}
	if strings.TrimSpace(to) == "" {
		return ResourceInfo{}, invalidf("parameter 'to' is required")
	}
	if paths.IsDirectoryForm(from) != paths.IsDirectoryForm(to) {
		return ResourceInfo{}, invalidf("cannot move directory to file or file to directory")
	}

	if paths.IsDirectoryForm(from) {
		return fs.moveDirectory(ctx, userID, from, to)
	}
	return fs.moveFile(ctx, userID, from, to)
}

func (fs *FileSystem) moveFile(ctx context.Context, userID int64, from, to string) (ResourceInfo, error) {
	src, err := paths.NormalizePath(from)
	if err != nil {
		return ResourceInfo{}, err
	}
	dst, err := paths.NormalizePath(to)
	if err != nil {
		return ResourceInfo{}, err
	}
	root := paths.UserRootPrefix(userID)

	size, err := fs.gw.Stat(ctx, root+src)
	if errors.Is(err, objectstore.ErrNotFound) {
		return ResourceInfo{}, notFound(src)
	}
	if err != nil {
		return ResourceInfo{}, err
	}

	exists, err := fs.gw.Exists(ctx, root+dst)
	if err != nil {
		return ResourceInfo{}, err
	}
	if exists {
		return ResourceInfo{}, alreadyExists(dst)
	}

	if err := fs.gw.Copy(ctx, root+src, root+dst); err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return ResourceInfo{}, notFound(src)
		}
		return ResourceInfo{}, err
	}
	if err := fs.gw.Remove(ctx, root+src); err != nil {
		fs.logger.Error("file move copied but source was not removed",
			zap.Int64("user_id", userID), zap.String("from", src), zap.String("to", dst), zap.Error(err))
		return ResourceInfo{}, fmt.Errorf("copied to %s but %s was not removed: %w", dst, src, err)
	}
	return fileInfo(dst, size), nil
}

func (fs *FileSystem) moveDirectory(ctx context.Context, userID int64, from, to string) (ResourceInfo, error) {
	srcDir, err := paths.NormalizeDirectory(from)
	if err != nil {
		return ResourceInfo{}, err
	}
	dstDir, err := paths.NormalizeDirectory(to)
	if err != nil {
		return ResourceInfo{}, err
	}
	if srcDir == "" {
		return ResourceInfo{}, invalidf("root directory cannot be moved")
	}
	// textual check on normalized "a/b/" forms, so "docs/" and "docs2/" do not collide
	if strings.HasPrefix(dstDir, srcDir) {
		return ResourceInfo{}, invalidf("cannot move directory into itself")
	}

	root := paths.UserRootPrefix(userID)
	srcPrefix := root + srcDir
	dstPrefix := root + dstDir

	sources, err := fs.gw.List(ctx, srcPrefix, true)
	if err != nil {
		return ResourceInfo{}, err
	}
	if len(sources) == 0 {
		return ResourceInfo{}, notFound(srcDir)
	}
	targets, err := fs.gw.List(ctx, dstPrefix, true)
	if err != nil {
		return ResourceInfo{}, err
	}
	if len(targets) > 0 {
		return ResourceInfo{}, alreadyExists(dstDir)
	}

	keys := lo.Map(sources, func(obj objectstore.Object, _ int) string { return obj.Key })

	// every copy is attempted even after a failure; sources are only removed
	// when all of them landed
	var g errgroup.Group
	g.SetLimit(fs.moveConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			target := dstPrefix + strings.TrimPrefix(key, srcPrefix)
			if err := fs.gw.Copy(ctx, key, target); err != nil {
				fs.logger.Warn("directory move copy failed",
					zap.Int64("user_id", userID), zap.String("key", key), zap.Error(err))
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ResourceInfo{}, fmt.Errorf("%w: move %s to %s incomplete, sources kept: %w", ErrBackend, srcDir, dstDir, err)
	}

	if err := fs.gw.RemoveBatch(ctx, keys); err != nil {
		fs.logger.Error("directory move copied but sources were not all removed",
			zap.Int64("user_id", userID), zap.String("from", srcDir), zap.String("to", dstDir), zap.Error(err))
		return ResourceInfo{}, err
	}
	return dirInfo(dstDir), nil
}
