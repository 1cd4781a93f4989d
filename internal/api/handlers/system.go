package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jellysearch/jellysearch/internal/config"
	"github.com/jellysearch/jellysearch/internal/health"
)

// HealthSource summarizes dependency health.
type HealthSource interface {
	GetSummary() *health.HealthSummary
}

// SystemHandler serves liveness information.
type SystemHandler struct {
	engine  string
	health  HealthSource
	syncing func() bool
}

// NewSystemHandler creates a system handler. healthSrc and syncing may be nil.
func NewSystemHandler(engine string, healthSrc HealthSource, syncing func() bool) *SystemHandler {
	return &SystemHandler{engine: engine, health: healthSrc, syncing: syncing}
}

// Health reports that the process is serving, along with the state of its
// dependencies. It answers 200 even when a dependency is down.
// GET /jellysearch/health
func (h *SystemHandler) Health(c echo.Context) error {
	response := map[string]any{
		"status":  health.StatusOK,
		"version": config.Version,
		"engine":  h.engine,
		"syncing": h.syncing != nil && h.syncing(),
	}
	if h.health != nil {
		summary := h.health.GetSummary()
		response["status"] = summary.Status
		response["components"] = summary.Components
	}
	return c.JSON(http.StatusOK, response)
}
