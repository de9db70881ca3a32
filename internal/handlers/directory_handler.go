package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type DirectoryHandler struct {
	drive Drive
}

func NewDirectoryHandler(drive Drive) *DirectoryHandler {
	return &DirectoryHandler{drive: drive}
}

// ListDirectory returns the direct children of ?path= (root when empty)
func (h *DirectoryHandler) ListDirectory(c echo.Context) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	infos, err := h.drive.List(c.Request().Context(), userID, c.QueryParam("path"))
	if err != nil {
		return StorageError(err)
	}
	return c.JSON(http.StatusOK, nonNil(infos))
}

// CreateDirectory creates the directory at ?path=
func (h *DirectoryHandler) CreateDirectory(c echo.Context) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	info, err := h.drive.CreateDirectory(c.Request().Context(), userID, c.QueryParam("path"))
	if err != nil {
		return StorageError(err)
	}
	return c.JSON(http.StatusCreated, info)
}
