package directory

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hospease/hospease/internal/platform/db"
)

var (
	ErrValidation         = errors.New("invalid request")
	ErrHospitalNotFound   = errors.New("hospital not found")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrDoctorNotFound     = errors.New("doctor not found")
	ErrInvalidReference   = errors.New("referenced hospital or department does not exist")
	ErrDuplicate          = errors.New("a department with this name already exists in the hospital")
	ErrInUse              = errors.New("record is still referenced by other records")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// translate maps Postgres errors to package errors. notFound is returned for
// pgx.ErrNoRows.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNotFound(err):
		return notFound
	case db.IsUniqueViolation(err):
		return ErrDuplicate
	default:
		return err
	}
}

// translateWrite is translate for INSERT/UPDATE, where a foreign key
// violation means the request referenced a missing parent.
func translateWrite(err error, notFound error) error {
	if db.IsForeignKeyViolation(err) {
		return ErrInvalidReference
	}
	return translate(err, notFound)
}

// translateDelete is translate for DELETE, where a foreign key violation
// means children still point at the row.
func translateDelete(err error, notFound error) error {
	if db.IsForeignKeyViolation(err) {
		return ErrInUse
	}
	return translate(err, notFound)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidReference):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrHospitalNotFound), errors.Is(err, ErrDepartmentNotFound), errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrInUse):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
}
