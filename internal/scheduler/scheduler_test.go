package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestRegisterTask_Duplicate(t *testing.T) {
	s := newTestScheduler(t)
	cfg := TaskConfig{ID: "index-sync", Name: "Index sync", Cron: "0 3 * * *", Func: func(context.Context, string) error { return nil }}

	require.NoError(t, s.RegisterTask(cfg))
	assert.Error(t, s.RegisterTask(cfg))
}

func TestRegisterTask_InvalidCron(t *testing.T) {
	s := newTestScheduler(t)

	err := s.RegisterTask(TaskConfig{ID: "bad", Cron: "not a cron", Func: func(context.Context, string) error { return nil }})
	assert.Error(t, err)
}

func TestRunNow(t *testing.T) {
	s := newTestScheduler(t)
	triggers := make(chan string, 1)
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:   "index-sync",
		Name: "Index sync",
		Cron: "0 3 * * *",
		Func: func(_ context.Context, trigger string) error {
			triggers <- trigger
			return errors.New("no source")
		},
	}))
	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	require.NoError(t, s.RunNow("index-sync"))
	assert.Equal(t, TriggerManual, <-triggers)

	require.Eventually(t, func() bool {
		info, err := s.GetTask("index-sync")
		return err == nil && info.LastRun != nil && !info.Running
	}, time.Second, 5*time.Millisecond)

	info, err := s.GetTask("index-sync")
	require.NoError(t, err)
	assert.Equal(t, "no source", info.LastError)
}

func TestRunNow_UnknownTask(t *testing.T) {
	s := newTestScheduler(t)

	assert.ErrorIs(t, s.RunNow("missing"), ErrTaskNotFound)
	_, err := s.GetTask("missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRunNow_RejectsWhileRunning(t *testing.T) {
	s := newTestScheduler(t)
	release := make(chan struct{})
	var runs atomic.Int32
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID: "index-sync",
		Func: func(ctx context.Context, _ string) error {
			runs.Add(1)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		},
	}))
	s.Start()

	require.NoError(t, s.RunNow("index-sync"))
	require.Eventually(t, func() bool {
		info, _ := s.GetTask("index-sync")
		return info.Running
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, s.RunNow("index-sync"), ErrTaskRunning)

	close(release)
	require.NoError(t, s.Stop())
	assert.Equal(t, int32(1), runs.Load())
}

func TestStart_RunsStartupTasks(t *testing.T) {
	s := newTestScheduler(t)
	triggers := make(chan string, 1)
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID:         "index-sync",
		RunOnStart: true,
		Func: func(_ context.Context, trigger string) error {
			triggers <- trigger
			return nil
		},
	}))

	s.Start()
	t.Cleanup(func() { _ = s.Stop() })

	select {
	case trigger := <-triggers:
		assert.Equal(t, TriggerStartup, trigger)
	case <-time.After(time.Second):
		t.Fatal("startup task did not run")
	}
}

func TestStop_CancelsRunningTask(t *testing.T) {
	s := newTestScheduler(t)
	started := make(chan struct{})
	var cancelled atomic.Bool
	require.NoError(t, s.RegisterTask(TaskConfig{
		ID: "index-sync",
		Func: func(ctx context.Context, _ string) error {
			close(started)
			<-ctx.Done()
			cancelled.Store(true)
			return ctx.Err()
		},
	}))
	s.Start()

	require.NoError(t, s.RunNow("index-sync"))
	<-started
	require.NoError(t, s.Stop())
	assert.True(t, cancelled.Load())
}

func TestListTasks_Sorted(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context, string) error { return nil }
	require.NoError(t, s.RegisterTask(TaskConfig{ID: "b", Func: noop}))
	require.NoError(t, s.RegisterTask(TaskConfig{ID: "a", Cron: "*/5 * * * *", Func: noop}))

	tasks := s.ListTasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].ID)
	assert.Equal(t, "b", tasks[1].ID)
	assert.Nil(t, tasks[1].NextRun)
}

func TestRegisterTask_NameDefaultsToID(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context, string) error { return nil }

	require.NoError(t, s.RegisterTask(TaskConfig{ID: "x", Cron: "*/5 * * * *", Func: noop}))

	info, err := s.GetTask("x")
	require.NoError(t, err)
	assert.Equal(t, "x", info.Name)
}
