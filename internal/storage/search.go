package storage

import (
	"context"
	"strings"

	"github.com/damacus/iron-drive/internal/paths"
	"github.com/samber/lo"
)

// Search finds files and directories whose own name contains query, case
// insensitively. Directories that exist only through their contents are
// found too. Each resource is reported once, in first-seen order.
func (fs *FileSystem) Search(ctx context.Context, userID int64, query string) (result []ResourceInfo, err error) {
	defer func() { fs.observe("search", userID, err) }()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, invalidf("invalid search query")
	}

	root := paths.UserRootPrefix(userID)
	objects, err := fs.gw.List(ctx, root, true)
	if err != nil {
		return nil, err
	}

	var matches []ResourceInfo
	for _, obj := range objects {
		relative := strings.TrimPrefix(obj.Key, root)
		if relative == "" {
			continue
		}
		for _, info := range entriesAlong(relative, obj.Size) {
			if strings.Contains(strings.ToLower(strings.TrimSuffix(info.Name, "/")), q) {
				matches = append(matches, info)
			}
		}
	}

	return lo.UniqBy(matches, func(info ResourceInfo) string {
		return string(info.Type) + "|" + info.Path + "|" + info.Name
	}), nil
}

// entriesAlong returns every directory on the way to relative, then the
// entry for relative itself.
func entriesAlong(relative string, size int64) []ResourceInfo {
	segments := strings.Split(paths.RemoveTrailingSlash(relative), "/")
	entries := make([]ResourceInfo, 0, len(segments))
	for i := 1; i < len(segments); i++ {
		entries = append(entries, dirInfo(strings.Join(segments[:i], "/")+"/"))
	}
	if strings.HasSuffix(relative, "/") {
		return append(entries, dirInfo(relative))
	}
	return append(entries, fileInfo(relative, size))
}
