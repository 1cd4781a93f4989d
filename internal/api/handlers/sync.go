package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jellysearch/jellysearch/internal/database"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

// RunStore reads the sync run history.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]database.SyncRun, error)
	LastSuccessfulRun(ctx context.Context) (*database.SyncRun, error)
}

// SyncHandler exposes index sync history.
type SyncHandler struct {
	runs RunStore
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(runs RunStore) *SyncHandler {
	return &SyncHandler{runs: runs}
}

// RegisterRoutes registers the sync routes on g.
func (h *SyncHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/runs", h.ListRuns)
	g.GET("/status", h.Status)
}

// ListRuns returns recent runs, newest first.
// GET /jellysearch/api/v1/sync/runs?limit=N
func (h *SyncHandler) ListRuns(c echo.Context) error {
	limit := defaultRunsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.runs.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if runs == nil {
		runs = []database.SyncRun{}
	}
	return c.JSON(http.StatusOK, runs)
}

// Status returns the last successful run, if any.
// GET /jellysearch/api/v1/sync/status
func (h *SyncHandler) Status(c echo.Context) error {
	last, err := h.runs.LastSuccessfulRun(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"lastSuccess": last})
}
