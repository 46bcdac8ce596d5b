package bed

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
	api.GET("/beds", h.List)
	api.GET("/beds/:id", h.Get)

	ward := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleNurse))
	ward.POST("/beds", h.Create)
	ward.DELETE("/beds/:id", h.Delete)
	ward.PUT("/beds/:id/assign", h.Assign)
	ward.PUT("/beds/:id/release", h.Release)
	ward.PUT("/beds/:id/status", h.SetStatus)
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
	var req CreateRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	b, err := req.toModel()
	if err != nil {
		return httpError(err)
	}
	if err := h.svc.Create(c.Request().Context(), b); err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusCreated, b, "bed created")
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, b, "")
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f Filter
	var err error
	if f.HospitalID, err = queryUUID(c, "hospital_id"); err != nil {
		return err
	}
	if f.DepartmentID, err = queryUUID(c, "department_id"); err != nil {
		return err
	}
	f.Ward = c.QueryParam("ward")
	f.Status = c.QueryParam("status")

	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return pagination.List(c, items, total, pg)
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

func (h *Handler) Assign(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req AssignRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id must be a valid UUID")
	}
	b, err := h.svc.Assign(c.Request().Context(), id, patientID)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, b, "bed assigned")
}

func (h *Handler) Release(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.Release(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, b, "bed released")
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req StatusRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	b, err := h.svc.SetStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, b, "bed status updated")
}
