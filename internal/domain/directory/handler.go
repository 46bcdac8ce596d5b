package directory

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
	// Reads are open to any authenticated caller.
	api.GET("/hospitals", h.ListHospitals)
	api.GET("/hospitals/:id", h.GetHospital)
	api.GET("/departments", h.ListDepartments)
	api.GET("/departments/:id", h.GetDepartment)
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)

	write := api.Group("", auth.RequireRole(auth.RoleStaff))
	write.POST("/hospitals", h.CreateHospital)
	write.PUT("/hospitals/:id", h.UpdateHospital)
	write.DELETE("/hospitals/:id", h.DeleteHospital)
	write.POST("/departments", h.CreateDepartment)
	write.PUT("/departments/:id", h.UpdateDepartment)
	write.DELETE("/departments/:id", h.DeleteDepartment)
	write.POST("/doctors", h.CreateDoctor)
	write.PUT("/doctors/:id", h.UpdateDoctor)
	write.DELETE("/doctors/:id", h.DeleteDoctor)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func optionalUUID(c echo.Context, name string) (*uuid.UUID, error) {
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

// -- Hospital Handlers --

func (h *Handler) CreateHospital(c echo.Context) error {
	var req HospitalRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	hosp := req.toModel()
	if err := h.svc.CreateHospital(c.Request().Context(), hosp); err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusCreated, hosp, "hospital created")
}

func (h *Handler) GetHospital(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	hosp, err := h.svc.GetHospital(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, hosp, "")
}

func (h *Handler) ListHospitals(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListHospitals(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return pagination.List(c, items, total, pg)
}

func (h *Handler) UpdateHospital(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req HospitalRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	hosp := req.toModel()
	hosp.ID = id
	if err := h.svc.UpdateHospital(c.Request().Context(), hosp); err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, hosp, "hospital updated")
}

func (h *Handler) DeleteHospital(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteHospital(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Department Handlers --

func (h *Handler) CreateDepartment(c echo.Context) error {
	var req DepartmentRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	dept, err := req.toModel()
	if err != nil {
		return httpError(err)
	}
	if err := h.svc.CreateDepartment(c.Request().Context(), dept); err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusCreated, dept, "department created")
}

func (h *Handler) GetDepartment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	dept, err := h.svc.GetDepartment(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, dept, "")
}

func (h *Handler) ListDepartments(c echo.Context) error {
	pg := pagination.FromContext(c)
	hospitalID, err := optionalUUID(c, "hospital_id")
	if err != nil {
		return err
	}
	items, total, err := h.svc.ListDepartments(c.Request().Context(), DepartmentFilter{HospitalID: hospitalID}, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return pagination.List(c, items, total, pg)
}

func (h *Handler) UpdateDepartment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req DepartmentRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	dept, err := req.toModel()
	if err != nil {
		return httpError(err)
	}
	dept.ID = id
	if err := h.svc.UpdateDepartment(c.Request().Context(), dept); err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, dept, "department updated")
}

func (h *Handler) DeleteDepartment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDepartment(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Doctor Handlers --

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req DoctorRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	doc, err := req.toModel()
	if err != nil {
		return httpError(err)
	}
	if err := h.svc.CreateDoctor(c.Request().Context(), doc); err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusCreated, doc, "doctor created")
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	doc, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, doc, "")
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f DoctorFilter
	var err error
	if f.HospitalID, err = optionalUUID(c, "hospital_id"); err != nil {
		return err
	}
	if f.DepartmentID, err = optionalUUID(c, "department_id"); err != nil {
		return err
	}
	f.Specialty = c.QueryParam("specialty")

	items, total, err := h.svc.ListDoctors(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return pagination.List(c, items, total, pg)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req DoctorRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	doc, err := req.toModel()
	if err != nil {
		return httpError(err)
	}
	doc.ID = id
	if err := h.svc.UpdateDoctor(c.Request().Context(), doc); err != nil {
		return httpError(err)
	}
	return pagination.JSON(c, http.StatusOK, doc, "doctor updated")
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
