package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsHeaders = strings.Join([]string{
		echo.HeaderOrigin, "X-Requested-With", echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization,
	}, ", ")
)

// CORS allows any origin and answers every OPTIONS request with an empty
// 200 without reaching the router.  echo's own CORS middleware replies 204
// to preflights, which some older clients of this API treat as a failure.
// Register it with e.Pre so unknown paths are covered too.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowMethods, corsMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, corsHeaders)
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
