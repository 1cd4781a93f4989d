package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jellysearch/jellysearch/internal/health"
	"github.com/jellysearch/jellysearch/internal/indexsync"
	"github.com/jellysearch/jellysearch/internal/scheduler"
)

// IndexSyncTaskID identifies the index sync task in the admin API.
const IndexSyncTaskID = "index-sync"

// Syncer runs one index synchronization.
type Syncer interface {
	Run(ctx context.Context, trigger string) (indexsync.Result, error)
}

// StatusReporter receives the outcome of each run.
type StatusReporter interface {
	SetError(id, message string)
	SetWarning(id, message string)
	ClearStatus(id string)
}

// IndexSyncTask copies the Jellyfin library into the search index.
type IndexSyncTask struct {
	syncer Syncer
	health StatusReporter
	logger zerolog.Logger
}

// NewIndexSyncTask creates a new index sync task. healthSvc may be nil.
func NewIndexSyncTask(syncer Syncer, healthSvc StatusReporter, logger zerolog.Logger) *IndexSyncTask {
	return &IndexSyncTask{
		syncer: syncer,
		health: healthSvc,
		logger: logger.With().Str("task", IndexSyncTaskID).Logger(),
	}
}

// Run executes one sync.
func (t *IndexSyncTask) Run(ctx context.Context, trigger string) error {
	result, err := t.syncer.Run(ctx, trigger)
	if errors.Is(err, indexsync.ErrAlreadyRunning) {
		t.logger.Info().Str("trigger", trigger).Msg("Index sync already in progress, skipping")
		return nil
	}
	if err != nil {
		t.report(func(h StatusReporter) { h.SetError(health.ComponentIndexSync, err.Error()) })
		return err
	}

	if result.Failed > 0 {
		t.report(func(h StatusReporter) {
			h.SetWarning(health.ComponentIndexSync, fmt.Sprintf("%d rows could not be indexed", result.Failed))
		})
	} else {
		t.report(func(h StatusReporter) { h.ClearStatus(health.ComponentIndexSync) })
	}

	t.logger.Debug().
		Int("indexed", result.Indexed).
		Int("failed", result.Failed).
		Int("pruned", result.Pruned).
		Msg("Index sync task finished")
	return nil
}

func (t *IndexSyncTask) report(fn func(StatusReporter)) {
	if t.health != nil {
		fn(t.health)
	}
}

// RegisterIndexSyncTask registers the index sync task with the scheduler.
func RegisterIndexSyncTask(sched *scheduler.Scheduler, syncer Syncer, healthSvc StatusReporter, cron string, runOnStart bool, logger zerolog.Logger) error {
	task := NewIndexSyncTask(syncer, healthSvc, logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          IndexSyncTaskID,
		Name:        "Index Sync",
		Description: "Copies every Jellyfin library item into the search index",
		Cron:        cron,
		RunOnStart:  runOnStart,
		Func:        task.Run,
	})
}
