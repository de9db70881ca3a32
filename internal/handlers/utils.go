package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/damacus/iron-drive/internal/storage"
	"github.com/damacus/iron-drive/internal/utils"
	"github.com/labstack/echo/v4"
)

// Drive is the filesystem surface the handlers need.
type Drive interface {
	List(ctx context.Context, userID int64, rawDir string) ([]storage.ResourceInfo, error)
	CreateDirectory(ctx context.Context, userID int64, rawPath string) (storage.ResourceInfo, error)
	Upload(ctx context.Context, userID int64, rawDir string, items []storage.UploadItem) ([]storage.ResourceInfo, error)
	Download(ctx context.Context, userID int64, rawPath string) (storage.DownloadContent, error)
	Delete(ctx context.Context, userID int64, rawPath string) error
	Move(ctx context.Context, userID int64, from, to string) (storage.ResourceInfo, error)
	GetInfo(ctx context.Context, userID int64, rawPath string) (storage.ResourceInfo, error)
	Search(ctx context.Context, userID int64, query string) ([]storage.ResourceInfo, error)
}

// GetUserID retrieves the authenticated user id from the context
func GetUserID(c echo.Context) (int64, error) {
	id, ok := c.Get(utils.ContextKeyUserID).(int64)
	if !ok || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return id, nil
}

// StatusFor maps a filesystem error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// MessageFor is the client-facing message for err. Backend detail stays in
// the logs.
func MessageFor(err error) string {
	if StatusFor(err) == http.StatusInternalServerError {
		return "Unknown error"
	}
	return err.Error()
}

// StorageError converts a filesystem error into an HTTPError, keeping the
// cause as the internal error for the request log.
func StorageError(err error) *echo.HTTPError {
	return echo.NewHTTPError(StatusFor(err), MessageFor(err)).SetInternal(err)
}

func nonNil(infos []storage.ResourceInfo) []storage.ResourceInfo {
	if infos == nil {
		return []storage.ResourceInfo{}
	}
	return infos
}
