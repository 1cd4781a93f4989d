package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

var canonicalPaths = map[string]string{
	"/items":                "/Items",
	"/persons":              "/Persons",
	"/artists":              "/Artists",
	"/artists/albumartists": "/Artists/AlbumArtists",
	"/genres":               "/Genres",
}

// CanonicalPaths rewrites the intercepted Jellyfin routes to their canonical
// casing so they match whatever case the client or reverse proxy sent.
// Register it with Echo.Pre so it runs before routing.
func CanonicalPaths() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := c.Request().URL
			if canonical, ok := canonicalize(u.Path); ok && canonical != u.Path {
				u.Path = canonical
				u.RawPath = ""
			}
			return next(c)
		}
	}
}

func canonicalize(path string) (string, bool) {
	lower := strings.ToLower(strings.TrimSuffix(path, "/"))
	if canonical, ok := canonicalPaths[lower]; ok {
		return canonical, true
	}

	// /Users/{userId}/Items keeps the user id as sent.
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
	if len(parts) == 4 && parts[0] == "" && parts[2] != "" &&
		strings.EqualFold(parts[1], "users") && strings.EqualFold(parts[3], "items") {
		return "/Users/" + parts[2] + "/Items", true
	}
	return "", false
}
