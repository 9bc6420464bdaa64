package delivery

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/crvs/bridge/pkg/pagination"
)

// Handler exposes the admin delivery-log endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the delivery-log routes on an (already guarded)
// admin group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/deliveries", h.ListDeliveries)
	g.GET("/deliveries/:id", h.GetDelivery)
	g.POST("/deliveries/:id/replay", h.ReplayDelivery)
}

func (h *Handler) ListDeliveries(c echo.Context) error {
	p := pagination.FromContext(c)
	status := c.QueryParam("status")

	items, total, err := h.svc.List(c.Request().Context(), status, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) GetDelivery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "delivery not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ReplayDelivery(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Replay(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": StatusProcessed})
}
