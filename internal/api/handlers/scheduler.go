package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jellysearch/jellysearch/internal/scheduler"
)

// TaskScheduler is the part of the scheduler the admin API drives.
type TaskScheduler interface {
	ListTasks() []scheduler.TaskInfo
	GetTask(taskID string) (*scheduler.TaskInfo, error)
	RunNow(taskID string) error
}

// SchedulerHandler handles scheduler-related API requests.
type SchedulerHandler struct {
	scheduler TaskScheduler
}

// NewSchedulerHandler creates a new scheduler handler.
func NewSchedulerHandler(sched TaskScheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: sched}
}

// RegisterRoutes registers the task routes on g.
func (h *SchedulerHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.ListTasks)
	g.GET("/:id", h.GetTask)
	g.POST("/:id/run", h.RunTask)
}

// ListTasks returns all scheduled tasks.
// GET /jellysearch/api/v1/tasks
func (h *SchedulerHandler) ListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.ListTasks())
}

// GetTask returns information about a specific task.
// GET /jellysearch/api/v1/tasks/:id
func (h *SchedulerHandler) GetTask(c echo.Context) error {
	task, err := h.scheduler.GetTask(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, task)
}

// RunTask manually triggers a task to run.
// POST /jellysearch/api/v1/tasks/:id/run
func (h *SchedulerHandler) RunTask(c echo.Context) error {
	taskID := c.Param("id")
	if err := h.scheduler.RunNow(taskID); err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, scheduler.ErrTaskNotFound):
			status = http.StatusNotFound
		case errors.Is(err, scheduler.ErrTaskRunning):
			status = http.StatusConflict
		}
		return c.JSON(status, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Task started",
		"taskId":  taskID,
	})
}
