package appointment

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hospease/hospease/internal/platform/db"
)

var (
	ErrValidation      = errors.New("invalid request")
	ErrNotFound        = errors.New("appointment not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrUnknownDoctor   = errors.New("doctor does not exist")
	ErrUnknownPatient  = errors.New("patient does not exist")
	ErrUnknownHospital = errors.New("hospital does not exist")

	ErrHospitalMismatch = errors.New("doctor does not belong to hospital")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// referenceError names the missing parent of a foreign key violation on
// appointments or queue_days.
func referenceError(err error) error {
	constraint := db.ConstraintName(err)
	switch {
	case strings.Contains(constraint, "patient_id"):
		return ErrUnknownPatient
	case strings.Contains(constraint, "hospital_id"):
		return ErrUnknownHospital
	default:
		return ErrUnknownDoctor
	}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "))
	case errors.Is(err, ErrUnknownDoctor), errors.Is(err, ErrUnknownPatient), errors.Is(err, ErrUnknownHospital),
		errors.Is(err, ErrHospitalMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
}
