package tasks

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jellysearch/jellysearch/internal/scheduler"
)

// DependencyHealthTaskID identifies the dependency health task.
const DependencyHealthTaskID = "dependency-health"

// Pinger checks that a dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is one component checked by the health task.
type Dependency struct {
	ID     string
	Pinger Pinger
}

// DependencyHealthTask pings Jellyfin and the search engine and records
// the result in the health service.
type DependencyHealthTask struct {
	deps   []Dependency
	health StatusReporter
	logger zerolog.Logger
}

// NewDependencyHealthTask creates a new dependency health check task.
func NewDependencyHealthTask(deps []Dependency, healthSvc StatusReporter, logger zerolog.Logger) *DependencyHealthTask {
	return &DependencyHealthTask{
		deps:   deps,
		health: healthSvc,
		logger: logger.With().Str("task", DependencyHealthTaskID).Logger(),
	}
}

// Run checks every dependency. Failures are recorded, not returned: an
// unreachable dependency is a health state, not a task failure.
func (t *DependencyHealthTask) Run(ctx context.Context, _ string) error {
	failed := 0
	for _, dep := range t.deps {
		if err := dep.Pinger.Ping(ctx); err != nil {
			t.health.SetError(dep.ID, err.Error())
			t.logger.Warn().Err(err).Str("dependency", dep.ID).Msg("Dependency health check failed")
			failed++
			continue
		}
		t.health.ClearStatus(dep.ID)
	}

	t.logger.Debug().Int("checked", len(t.deps)).Int("failed", failed).Msg("Dependency health check complete")
	return nil
}

// RegisterDependencyHealthTask registers the dependency health task with the scheduler.
func RegisterDependencyHealthTask(sched *scheduler.Scheduler, deps []Dependency, healthSvc StatusReporter, logger zerolog.Logger) error {
	task := NewDependencyHealthTask(deps, healthSvc, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          DependencyHealthTaskID,
		Name:        "Dependency Health",
		Description: "Checks that Jellyfin and the search engine are reachable",
		Cron:        "*/5 * * * *",
		RunOnStart:  true,
		Func:        task.Run,
	})
}
