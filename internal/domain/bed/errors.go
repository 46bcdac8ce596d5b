package bed

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrValidation       = errors.New("invalid request")
	ErrNotFound         = errors.New("bed not found")
	ErrBedOccupied      = errors.New("bed is already occupied")
	ErrBedNotOccupied   = errors.New("bed is not occupied")
	ErrBedUnavailable   = errors.New("bed is under maintenance")
	ErrInvalidReference = errors.New("referenced hospital, department or patient does not exist")
	ErrDuplicate        = errors.New("a bed with this number already exists in the ward")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Occupancy conflicts are reported as 400 with the reason in the message.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "))
	case errors.Is(err, ErrBedOccupied), errors.Is(err, ErrBedNotOccupied), errors.Is(err, ErrBedUnavailable),
		errors.Is(err, ErrInvalidReference):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
}
