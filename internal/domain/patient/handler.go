package patient

import (
	"errors"
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

// RegisterRoutes mounts the patient routes. Appointment history lives with
// the appointment handler.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.Create)
	api.GET("/patients/:id", h.Get)

	staff := api.Group("", auth.RequireRole(auth.RoleStaff, auth.RoleDoctor, auth.RoleNurse))
	staff.GET("/patients", h.List)
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := validate.BindAndValidate(c, &req); err != nil {
		return err
	}
	p := req.toModel()
	if err := h.svc.Create(c.Request().Context(), p); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return pagination.JSON(c, http.StatusCreated, p, "patient registered")
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return pagination.JSON(c, http.StatusOK, p, "")
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
	return pagination.List(c, items, total, pg)
}
