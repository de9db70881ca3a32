package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type currentUser struct {
	ID int64 `json:"id"`
}

// CurrentUser reports who the request is authenticated as.
func CurrentUser(c echo.Context) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, currentUser{ID: userID})
}
