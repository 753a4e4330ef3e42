package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler handles GET /health, the liveness probe. It also reports
// the catalogue size so a seeded backend can be told from an empty one.
type HealthHandler struct {
	tourCount func() int
}

func NewHealthHandler(tourCount func() int) *HealthHandler {
	return &HealthHandler{tourCount: tourCount}
}

type healthResponse struct {
	Status string `json:"status"`
	Tours  int    `json:"tours"`
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok", Tours: h.tourCount()})
}
