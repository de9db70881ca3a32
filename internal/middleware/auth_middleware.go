package middleware

import (
	"net/http"
	"strings"

	"github.com/damacus/iron-drive/internal/services"
	"github.com/damacus/iron-drive/internal/utils"
	"github.com/labstack/echo/v4"
)

// AuthMiddleware resolves the caller's user id from a bearer token or the
// session cookie and stores it in the context. Requests without a valid
// token get a 401 before reaching any handler.
func AuthMiddleware(authService *services.AuthService, cookieName string) echo.MiddlewareFunc {
	if cookieName == "" {
		cookieName = utils.DefaultCookieName
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Skip for public routes
			path := c.Request().URL.Path
			if path == "/health" || path == "/metrics" {
				return next(c)
			}

			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				if cookie, err := c.Cookie(cookieName); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			userID, err := authService.ParseToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			c.Set(utils.ContextKeyUserID, userID)
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
