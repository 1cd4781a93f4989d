package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// RequestDump logs every header and query parameter of a request. Meant for
// diagnosing client behavior only: it writes credentials to the log.
func RequestDump(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			headers := zerolog.Dict()
			for name, values := range req.Header {
				headers.Strs(name, values)
			}
			params := zerolog.Dict()
			for name, values := range req.URL.Query() {
				params.Strs(name, values)
			}

			logger.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("user_id", c.Param("userId")).
				Dict("headers", headers).
				Dict("query", params).
				Msg("Incoming request")

			return next(c)
		}
	}
}
