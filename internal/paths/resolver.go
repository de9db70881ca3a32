// Package paths normalizes user-facing paths and derives object keys from them.
//
// Every raw path coming from a caller goes through this package before it is
// turned into a backend key. Functions here never perform I/O.
package paths

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for malformed or unsafe paths.
var ErrInvalidPath = errors.New("invalid path")

// NormalizeDirectory returns the canonical form of a directory path: no leading
// slash and exactly one trailing slash. Blank input is the root ("").
func NormalizeDirectory(raw string) (string, error) {
	normalized := strings.TrimLeft(clean(raw), "/")
	if strings.TrimSpace(normalized) == "" {
		return "", nil
	}
	if !strings.HasSuffix(normalized, "/") {
		normalized += "/"
	}
	if !validSegments(strings.TrimSuffix(normalized, "/")) {
		return "", invalid("directory path", raw)
	}
	return normalized, nil
}

// NormalizeFile returns the canonical form of a file path. A trailing slash or
// blank input is rejected.
func NormalizeFile(raw string) (string, error) {
	normalized := strings.TrimLeft(clean(raw), "/")
	if strings.TrimSpace(normalized) == "" || strings.HasSuffix(normalized, "/") {
		return "", invalid("file path", raw)
	}
	if !validSegments(normalized) {
		return "", invalid("file path", raw)
	}
	return normalized, nil
}

// NormalizePath strips leading and trailing slashes and validates what is left.
// Callers decide file vs directory from the raw input before calling it.
func NormalizePath(raw string) (string, error) {
	normalized := strings.Trim(clean(raw), "/")
	if strings.TrimSpace(normalized) == "" {
		return "", fmt.Errorf("%w: path is missing", ErrInvalidPath)
	}
	return NormalizeRelativeName(normalized)
}

// NormalizeRelativeName validates the relative name of an uploaded item.
func NormalizeRelativeName(raw string) (string, error) {
	normalized := strings.TrimLeft(strings.ReplaceAll(raw, `\`, "/"), "/")
	if !validSegments(normalized) {
		return "", invalid("file name", raw)
	}
	return normalized, nil
}

// IsDirectoryForm reports whether raw names a directory, i.e. ends with a slash.
func IsDirectoryForm(raw string) bool {
	return strings.HasSuffix(clean(raw), "/")
}

// UserRootPrefix is the key namespace owned by a single user.
func UserRootPrefix(userID int64) string {
	return fmt.Sprintf("user-%d-files/", userID)
}

// ParentDirectory returns everything up to and including the last slash.
func ParentDirectory(key string) string {
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return ""
	}
	return key[:idx+1]
}

// FileName returns everything after the last slash.
func FileName(key string) string {
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return key
	}
	return key[idx+1:]
}

// RemoveTrailingSlash drops one trailing "/" if present.
func RemoveTrailingSlash(key string) string {
	return strings.TrimSuffix(key, "/")
}

func clean(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), `\`, "/")
}

func validSegments(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if strings.TrimSpace(part) == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

func invalid(kind, raw string) error {
	return fmt.Errorf("%w: invalid %s %q", ErrInvalidPath, kind, raw)
}
