package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderAPIKey carries the admin key on admin API requests.
const HeaderAPIKey = "X-Api-Key"

// AdminKey rejects requests that do not present key. An empty key leaves
// the routes open.
func AdminKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if key == "" {
			return next
		}
		return func(c echo.Context) error {
			provided := c.Request().Header.Get(HeaderAPIKey)
			if provided == "" {
				provided = c.QueryParam("apiKey")
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or missing API key"})
			}
			return next(c)
		}
	}
}
