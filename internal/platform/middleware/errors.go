package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospease/hospease/pkg/pagination"
)

// ErrorHandler renders every error as the standard failure envelope. Messages
// of 5xx errors are replaced with a generic text; the cause is logged instead.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		msg := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = fmt.Sprintf("%v", he.Message)
		}

		if code >= http.StatusInternalServerError {
			rid, _ := c.Get("request_id").(string)
			cause := err
			if he != nil && he.Internal != nil {
				cause = he.Internal
			}
			logger.Error().Err(cause).Str("request_id", rid).Int("status", code).Msg("request failed")
			if code == http.StatusInternalServerError {
				msg = "internal server error"
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = pagination.Error(c, code, msg)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}
