package appointment

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hospease/hospease/internal/platform/auth"
	"github.com/hospease/hospease/internal/platform/validate"
	"github.com/hospease/hospease/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/appointments", h.Book)
	api.GET("/appointments", h.List)
	api.GET("/appointments/:id", h.Get)
	api.GET("/patients/:id/appointments", h.ListForPatient)
	api.GET("/doctors/:id/queue", h.Queue)

	clinical := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor, auth.RoleNurse))
	clinical.PUT("/doctors/:id/token", h.SetCurrentToken)
	clinical.GET("/doctors/:id/patients", h.DoctorPatients)
	clinical.PUT("/doctors/appointments/:id/complete", h.Complete)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

// queryDate parses ?date=; absent means today.
func queryDate(c echo.Context) (time.Time, error) {
	d, err := validate.ParseDate(c.QueryParam("date"))
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "date must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

func (h *Handler) Book(c echo.Context) error {
	var req BookRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	b, err := req.toBooking()
	if err != nil {
		return httpError(err)
	}
	a, err := h.svc.Book(c.Request().Context(), b)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusCreated, a, "appointment booked")
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, a, "")
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f Filter
	var err error
	if f.DoctorID, err = queryUUID(c, "doctor_id"); err != nil {
		return err
	}
	if f.PatientID, err = queryUUID(c, "patient_id"); err != nil {
		return err
	}
	if f.HospitalID, err = queryUUID(c, "hospital_id"); err != nil {
		return err
	}
	f.Status = c.QueryParam("status")
	if c.QueryParam("date") != "" {
		d, err := queryDate(c)
		if err != nil {
			return err
		}
		f.Date = &d
	}

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return pagination.List(c, items, total, pg)
}

func (h *Handler) ListForPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), Filter{PatientID: &id}, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return pagination.List(c, items, total, pg)
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Complete(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, a, "appointment completed")
}

func (h *Handler) SetCurrentToken(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req TokenRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	date, err := validate.ParseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be a date in YYYY-MM-DD format")
	}
	q, err := h.svc.SetCurrentToken(c.Request().Context(), id, date, req.CurrentToken)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, q, "token updated")
}

func (h *Handler) Queue(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	date, err := queryDate(c)
	if err != nil {
		return err
	}
	q, err := h.svc.Queue(c.Request().Context(), id, date)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, q, "")
}

func (h *Handler) DoctorPatients(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	date, err := queryDate(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.DoctorPatients(c.Request().Context(), id, date, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return pagination.List(c, items, total, pg)
}
