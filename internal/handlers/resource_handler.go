package handlers

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/damacus/iron-drive/internal/storage"
	"github.com/damacus/iron-drive/internal/utils"
	"github.com/labstack/echo/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// uploadField is the multipart field carrying files; it may repeat.
const uploadField = "object"

type ResourceHandler struct {
	drive  Drive
	logger *zap.Logger
}

func NewResourceHandler(drive Drive, logger *zap.Logger) *ResourceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceHandler{drive: drive, logger: logger.Named("resource")}
}

type uploadFailure struct {
	Message  string                 `json:"message"`
	Uploaded []storage.ResourceInfo `json:"uploaded"`
}

// Upload stores every file of the multipart form below ?path=
func (h *ResourceHandler) Upload(c echo.Context) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart form").SetInternal(err)
	}
	files := form.File[uploadField]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}

	items := lo.Map(files, func(fh *multipart.FileHeader, _ int) storage.UploadItem {
		return storage.UploadItem{
			Name:        clientFilename(fh),
			Size:        fh.Size,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		}
	})

	uploaded, err := h.drive.Upload(c.Request().Context(), userID, c.QueryParam("path"), items)
	if err != nil {
		if len(uploaded) == 0 {
			return StorageError(err)
		}
		h.logger.Warn("partial upload",
			zap.Int64("user_id", userID),
			zap.Int("uploaded", len(uploaded)),
			zap.Int("requested", len(items)),
			zap.Error(err))
		return c.JSON(StatusFor(err), uploadFailure{Message: MessageFor(err), Uploaded: uploaded})
	}

	total := lo.SumBy(uploaded, func(info storage.ResourceInfo) int64 { return lo.FromPtr(info.Size) })
	h.logger.Debug("upload complete",
		zap.Int64("user_id", userID),
		zap.Int("files", len(uploaded)),
		zap.String("size", utils.FormatFileSize(total)))
	return c.JSON(http.StatusCreated, uploaded)
}

// clientFilename returns the filename as sent by the client. The stdlib
// parser keeps only the base name, which would flatten "dir/file.txt".
func clientFilename(fh *multipart.FileHeader) string {
	if _, params, err := mime.ParseMediaType(fh.Header.Get(echo.HeaderContentDisposition)); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	return fh.Filename
}

// Download streams a file, or a zip archive of a directory, at ?path=
func (h *ResourceHandler) Download(c echo.Context) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	content, err := h.drive.Download(c.Request().Context(), userID, c.QueryParam("path"))
	if err != nil {
		return StorageError(err)
	}

	res := c.Response()
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": content.FileName()})
	if disposition == "" {
		disposition = "attachment"
	}
	res.Header().Set(echo.HeaderContentType, echo.MIMEOctetStream)
	res.Header().Set(echo.HeaderContentDisposition, disposition)
	if size, ok := content.ContentLength(); ok {
		res.Header().Set(echo.HeaderContentLength, strconv.FormatInt(size, 10))
	}

	written, err := content.Stream(c.Request().Context(), res)
	if err != nil {
		if !res.Committed {
			res.Header().Del(echo.HeaderContentDisposition)
			res.Header().Del(echo.HeaderContentLength)
			return StorageError(err)
		}
		h.logger.Error("download aborted mid-stream",
			zap.Int64("user_id", userID),
			zap.String("name", content.FileName()),
			zap.Int64("written", written),
			zap.Error(err))
		return err
	}
	if !res.Committed {
		res.WriteHeader(http.StatusOK)
	}

	h.logger.Debug("download complete",
		zap.Int64("user_id", userID),
		zap.String("name", content.FileName()),
		zap.String("size", utils.FormatFileSize(written)))
	return nil
}

// Delete removes the file or directory at ?path=
func (h *ResourceHandler) Delete(c echo.Context) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	if err := h.drive.Delete(c.Request().Context(), userID, c.QueryParam("path")); err != nil {
		return StorageError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Move renames ?from= to ?to=
func (h *ResourceHandler) Move(c echo.Context) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	info, err := h.drive.Move(c.Request().Context(), userID, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return StorageError(err)
	}
	return c.JSON(http.StatusOK, info)
}

// Info describes the file or directory at ?path=
func (h *ResourceHandler) Info(c echo.Context) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	info, err := h.drive.GetInfo(c.Request().Context(), userID, c.QueryParam("path"))
	if err != nil {
		return StorageError(err)
	}
	return c.JSON(http.StatusOK, info)
}

// Search finds resources whose name contains ?query=
func (h *ResourceHandler) Search(c echo.Context) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	infos, err := h.drive.Search(c.Request().Context(), userID, c.QueryParam("query"))
	if err != nil {
		return StorageError(err)
	}
	return c.JSON(http.StatusOK, nonNil(infos))
}
