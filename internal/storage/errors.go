package storage

import (
	"errors"
	"fmt"

	"github.com/damacus/iron-drive/internal/objectstore"
	"github.com/damacus/iron-drive/internal/paths"
)

var (
	// ErrInvalidPath covers malformed or unsafe paths and blank required input.
	ErrInvalidPath = paths.ErrInvalidPath
	// ErrNotFound means the target file or directory does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists means the target exists where overwriting is forbidden.
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrBackend is any object store failure that is not a plain miss.
	ErrBackend = objectstore.ErrBackend
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPath, fmt.Sprintf(format, args...))
}

func notFound(path string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, path)
}

func alreadyExists(path string) error {
	return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
}

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidPath):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "conflict"
	default:
		return "backend"
	}
}
