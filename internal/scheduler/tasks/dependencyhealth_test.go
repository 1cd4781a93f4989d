package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jellysearch/jellysearch/internal/health"
	"github.com/jellysearch/jellysearch/internal/scheduler"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestDependencyHealthTask_Run(t *testing.T) {
	healthSvc := health.NewService(zerolog.Nop())
	healthSvc.RegisterItem(health.ComponentJellyfin, "Jellyfin")
	healthSvc.RegisterItem(health.ComponentSearchEngine, "Search engine")

	jellyfinErr := errors.New("dial tcp: connection refused")
	task := NewDependencyHealthTask([]Dependency{
		{ID: health.ComponentJellyfin, Pinger: pingFunc(func(context.Context) error { return jellyfinErr })},
		{ID: health.ComponentSearchEngine, Pinger: pingFunc(func(context.Context) error { return nil })},
	}, healthSvc, zerolog.Nop())

	require.NoError(t, task.Run(context.Background(), scheduler.TriggerSchedule))

	item := healthSvc.GetItem(health.ComponentJellyfin)
	assert.Equal(t, health.StatusError, item.Status)
	assert.Equal(t, jellyfinErr.Error(), item.Message)
	assert.True(t, healthSvc.IsHealthy(health.ComponentSearchEngine))
}

func TestRegisterDependencyHealthTask(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, RegisterDependencyHealthTask(sched, nil, health.NewService(zerolog.Nop()), zerolog.Nop()))

	info, err := sched.GetTask(DependencyHealthTaskID)
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", info.Cron)
}
