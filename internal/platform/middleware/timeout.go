package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hospease/hospease/pkg/pagination"
)

// RequestTimeout sets a context deadline on each request. The handler runs on
// the calling goroutine and is expected to honour the deadline through its
// context (pgx does). If it returns a deadline error before writing a
// response, a 504 envelope is written. The websocket endpoint is excluded
// because its connections are long-lived.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Request().URL.Path, "/ws") {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err == nil || c.Response().Committed {
				return err
			}
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				var he *echo.HTTPError
				if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
					return err
				}
				return pagination.Error(c, http.StatusGatewayTimeout, "request timed out")
			}
			return err
		}
	}
}
