package storage

import (
	"io"

	"github.com/damacus/iron-drive/internal/objectstore"
	"github.com/damacus/iron-drive/internal/paths"
)

type ResourceType string

const (
	TypeFile      ResourceType = "FILE"
	TypeDirectory ResourceType = "DIRECTORY"
)

// ResourceInfo describes a file or directory. Path is the parent directory,
// Name of a directory always ends with "/" and Size is set only for files.
type ResourceInfo struct {
	Path string       `json:"path"`
	Name string       `json:"name"`
	Size *int64       `json:"size,omitempty"`
	Type ResourceType `json:"type"`
}

func fileInfo(relPath string, size int64) ResourceInfo {
	return ResourceInfo{
		Path: paths.ParentDirectory(relPath),
		Name: paths.FileName(relPath),
		Size: &size,
		Type: TypeFile,
	}
}

// dirInfo builds the entry for a directory given with its trailing slash.
func dirInfo(relDir string) ResourceInfo {
	trimmed := paths.RemoveTrailingSlash(relDir)
	return ResourceInfo{
		Path: paths.ParentDirectory(trimmed),
		Name: paths.FileName(trimmed) + "/",
		Type: TypeDirectory,
	}
}

// Presence is how a directory exists: through its marker object, through
// objects below it, both, or not at all.
type Presence int

const (
	Absent Presence = iota
	ImplicitOnly
	MarkerOnly
	Both
)

func presenceOf(marker, descendants bool) Presence {
	switch {
	case marker && descendants:
		return Both
	case marker:
		return MarkerOnly
	case descendants:
		return ImplicitOnly
	default:
		return Absent
	}
}

// presenceFromListing derives presence from a recursive listing of prefix.
func presenceFromListing(objects []objectstore.Object, prefix string) Presence {
	var marker, descendants bool
	for _, obj := range objects {
		if obj.Key == prefix {
			marker = true
		} else {
			descendants = true
		}
	}
	return presenceOf(marker, descendants)
}

func (p Presence) Exists() bool {
	return p != Absent
}

func (p Presence) String() string {
	switch p {
	case ImplicitOnly:
		return "implicit"
	case MarkerOnly:
		return "marker"
	case Both:
		return "marker+implicit"
	default:
		return "absent"
	}
}

// UploadItem is one file of an upload batch. Open is called once, right
// before the item is written.
type UploadItem struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}
