package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskRunning  = errors.New("task is already running")
)

// TaskFunc is the function signature for scheduled tasks. trigger tells
// the task why it is running.
type TaskFunc func(ctx context.Context, trigger string) error

// Triggers passed to TaskFunc.
const (
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
	TriggerManual   = "manual"
)

// TaskConfig contains configuration for a scheduled task.
type TaskConfig struct {
	ID          string
	Name        string
	Description string
	Cron        string // empty for tasks that only run on demand
	Func        TaskFunc
	RunOnStart  bool
}

// TaskInfo contains information about a scheduled task for API responses.
type TaskInfo struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Cron         string     `json:"cron,omitempty"`
	LastRun      *time.Time `json:"lastRun,omitempty"`
	LastDuration string     `json:"lastDuration,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	NextRun      *time.Time `json:"nextRun,omitempty"`
	Running      bool       `json:"running"`
}

type taskEntry struct {
	config       TaskConfig
	job          gocron.Job
	lastRun      *time.Time
	lastDuration time.Duration
	lastErr      error
	running      bool
}

// Scheduler manages background scheduled tasks. A task never runs twice
// at the same time, whether started by its schedule or by hand.
type Scheduler struct {
	gocron gocron.Scheduler
	logger zerolog.Logger
	tasks  map[string]*taskEntry
	mu     sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new scheduler.
func New(logger zerolog.Logger) (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		gocron: gs,
		logger: logger.With().Str("component", "scheduler").Logger(),
		tasks:  make(map[string]*taskEntry),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// RegisterTask registers a new scheduled task.
func (s *Scheduler) RegisterTask(config TaskConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[config.ID]; exists {
		return fmt.Errorf("task with ID %q already registered", config.ID)
	}

	if config.Name == "" {
		config.Name = config.ID
	}
	entry := &taskEntry{config: config}

	if config.Cron != "" {
		job, err := s.gocron.NewJob(
			gocron.CronJob(config.Cron, false),
			gocron.NewTask(func() {
				_ = s.executeTask(config.ID, TriggerSchedule)
			}),
			gocron.WithName(config.Name),
			gocron.WithTags(config.ID),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to create job for task %q: %w", config.ID, err)
		}
		entry.job = job
	}

	s.tasks[config.ID] = entry

	s.logger.Info().
		Str("id", config.ID).
		Str("name", config.Name).
		Str("cron", config.Cron).
		Bool("runOnStart", config.RunOnStart).
		Msg("Registered task")

	return nil
}

// executeTask runs a task unless it is already running.
func (s *Scheduler) executeTask(taskID, trigger string) error {
	s.mu.Lock()
	entry, exists := s.tasks[taskID]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}
	if entry.running {
		s.mu.Unlock()
		s.logger.Warn().Str("id", taskID).Str("trigger", trigger).Msg("Task still running, skipping")
		return fmt.Errorf("%w: %q", ErrTaskRunning, taskID)
	}
	entry.running = true
	s.mu.Unlock()

	startTime := time.Now()
	s.logger.Info().
		Str("id", taskID).
		Str("name", entry.config.Name).
		Str("trigger", trigger).
		Msg("Starting task")

	err := entry.config.Func(s.ctx, trigger)
	duration := time.Since(startTime)

	s.mu.Lock()
	entry.running = false
	entry.lastRun = &startTime
	entry.lastDuration = duration
	entry.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().
			Err(err).
			Str("id", taskID).
			Str("name", entry.config.Name).
			Dur("duration", duration).
			Msg("Task failed")
	} else {
		s.logger.Info().
			Str("id", taskID).
			Str("name", entry.config.Name).
			Dur("duration", duration).
			Msg("Task completed")
	}
	return err
}

func (s *Scheduler) goExecute(taskID, trigger string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.executeTask(taskID, trigger)
	}()
}

// Start starts the scheduler and runs any tasks configured with RunOnStart.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("Starting scheduler")

	s.gocron.Start()

	s.mu.RLock()
	var startup []string
	for id, entry := range s.tasks {
		if entry.config.RunOnStart {
			startup = append(startup, id)
		}
	}
	s.mu.RUnlock()

	for _, taskID := range startup {
		s.goExecute(taskID, TriggerStartup)
	}
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("Stopping scheduler")
	s.cancel()
	err := s.gocron.Shutdown()
	s.wg.Wait()
	return err
}

// RunNow starts a task in the background.
func (s *Scheduler) RunNow(taskID string) error {
	s.mu.RLock()
	entry, exists := s.tasks[taskID]
	running := exists && entry.running
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}
	if running {
		return fmt.Errorf("%w: %q", ErrTaskRunning, taskID)
	}

	s.goExecute(taskID, TriggerManual)
	return nil
}

// ListTasks returns information about all registered tasks, ordered by id.
func (s *Scheduler) ListTasks() []TaskInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]TaskInfo, 0, len(s.tasks))
	for _, entry := range s.tasks {
		tasks = append(tasks, entry.info())
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// GetTask returns information about a specific task.
func (s *Scheduler) GetTask(taskID string) (*TaskInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, taskID)
	}
	info := entry.info()
	return &info, nil
}

// info must be called with the scheduler lock held.
func (e *taskEntry) info() TaskInfo {
	info := TaskInfo{
		ID:          e.config.ID,
		Name:        e.config.Name,
		Description: e.config.Description,
		Cron:        e.config.Cron,
		LastRun:     e.lastRun,
		Running:     e.running,
	}
	if e.lastRun != nil {
		info.LastDuration = e.lastDuration.String()
	}
	if e.lastErr != nil {
		info.LastError = e.lastErr.Error()
	}
	if e.job != nil {
		if nextRun, err := e.job.NextRun(); err == nil && !nextRun.IsZero() {
			info.NextRun = &nextRun
		}
	}
	return info
}
