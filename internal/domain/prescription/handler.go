package prescription

import (
	"net/http"

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
	api.GET("/prescriptions", h.List)
	api.GET("/prescriptions/:id", h.Get)
	api.GET("/prescriptions/:id/pdf", h.PDF)

	prescriber := api.Group("", auth.RequireRole(auth.RoleDoctor))
	prescriber.POST("/prescriptions", h.Create)
	prescriber.PUT("/prescriptions/:id", h.Update)
	prescriber.DELETE("/prescriptions/:id", h.Delete)
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

func (h *Handler) Create(c echo.Context) error {
	var req Request
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := req.toModel()
	if err != nil {
		return httpError(err)
	}
	if err := h.svc.Create(c.Request().Context(), p); err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusCreated, p, "prescription created")
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, p, "")
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f Filter
	var err error
	if f.PatientID, err = queryUUID(c, "patient_id"); err != nil {
		return err
	}
	if f.DoctorID, err = queryUUID(c, "doctor_id"); err != nil {
		return err
	}
	if f.AppointmentID, err = queryUUID(c, "appointment_id"); err != nil {
		return err
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return pagination.List(c, items, total, pg)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req Request
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := req.toModel()
	if err != nil {
		return httpError(err)
	}
	p.ID = id
	if err := h.svc.Update(c.Request().Context(), p); err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, p, "prescription updated")
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) PDF(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	data, err := h.svc.PDF(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="prescription-`+id.String()+`.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", data)
}
