package indexsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jellysearch/jellysearch/internal/database"
	"github.com/jellysearch/jellysearch/internal/metrics"
	"github.com/jellysearch/jellysearch/internal/search"
)

// ErrAlreadyRunning is returned when a run is requested while one is active.
var ErrAlreadyRunning = errors.New("index sync already running")

// Run triggers recorded in the run history.
const (
	TriggerSchedule = "schedule"
	TriggerStartup  = "startup"
	TriggerManual   = "manual"
	TriggerCLI      = "cli"
)

const topParentSampleSize = 20

// RunRecorder persists run history.
type RunRecorder interface {
	RecordRun(ctx context.Context, run database.SyncRun) (int64, error)
}

// Config configures a Pipeline.
type Config struct {
	ConfigDir  string
	BatchSize  int
	Workers    int
	PruneStale bool
}

// Result summarizes a completed run.
type Result struct {
	Source   string        `json:"source"`
	Indexed  int           `json:"indexed"`
	Failed   int           `json:"failed"`
	Pruned   int           `json:"pruned"`
	Duration time.Duration `json:"duration"`
}

// Pipeline declares the index schema and copies every library item into it.
type Pipeline struct {
	indexer  search.Indexer
	recorder RunRecorder
	cfg      Config
	logger   zerolog.Logger

	running atomic.Bool
}

// NewPipeline creates a pipeline. recorder may be nil.
func NewPipeline(indexer search.Indexer, recorder RunRecorder, cfg Config, logger zerolog.Logger) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Pipeline{
		indexer:  indexer,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger.With().Str("component", "indexsync").Logger(),
	}
}

// Running reports whether a run is in progress.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Run performs one full sync. Runs never overlap; a concurrent call returns
// ErrAlreadyRunning.
func (p *Pipeline) Run(ctx context.Context, trigger string) (Result, error) {
	if !p.running.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRunning
	}
	defer p.running.Store(false)

	started := time.Now()
	p.logger.Info().Str("trigger", trigger).Msg("Indexing items...")

	result, err := p.run(ctx)
	result.Duration = time.Since(started)

	metrics.SyncLastRunDuration.Set(result.Duration.Seconds())
	p.record(ctx, trigger, started, result, err)

	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues("failure").Inc()
		p.logger.Error().Err(err).
			Int("indexed", result.Indexed).
			Int("failed", result.Failed).
			Dur("duration", result.Duration).
			Msg("Index sync failed")
		return result, err
	}

	metrics.SyncRunsTotal.WithLabelValues("success").Inc()
	metrics.SyncLastSuccessTimestamp.SetToCurrentTime()
	p.logger.Info().
		Str("source", result.Source).
		Int("indexed", result.Indexed).
		Int("failed", result.Failed).
		Int("pruned", result.Pruned).
		Dur("duration", result.Duration).
		Msg("Indexed items")
	return result, nil
}

func (p *Pipeline) run(ctx context.Context) (Result, error) {
	var result Result

	if err := p.indexer.ConfigureIndex(ctx, search.DefaultIndexSettings()); err != nil {
		return result, fmt.Errorf("failed to configure index: %w", err)
	}

	source, candidates, err := DetectSource(p.cfg.ConfigDir)
	if err != nil {
		for _, c := range candidates {
			p.logger.Warn().Str("path", c.Path).Bool("exists", c.Exists).Msg("Probed library database")
		}
		return result, err
	}
	result.Source = source.Path
	p.logger.Info().Str("path", source.Path).Str("schema", source.Schema.Name).Msg("Using library database")

	reader, err := newSQLiteReader(source)
	if err != nil {
		return result, err
	}
	defer reader.Close()

	if err := reader.Validate(ctx); err != nil {
		return result, err
	}

	var (
		indexed  atomic.Int64
		upsertMu sync.Mutex
		upsertEr []error
	)
	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Workers)

	submit := func(batch []search.Item) {
		g.Go(func() error {
			if err := p.indexer.Upsert(ctx, batch); err != nil {
				upsertMu.Lock()
				upsertEr = append(upsertEr, err)
				upsertMu.Unlock()
				p.logger.Error().Err(err).Int("size", len(batch)).Msg("Failed to upsert batch")
				return nil
			}
			indexed.Add(int64(len(batch)))
			metrics.SyncDocumentsIndexed.Add(float64(len(batch)))
			return nil
		})
	}

	seen := make(map[string]struct{})
	sampler := newSampler(topParentSampleSize)
	batch := make([]search.Item, 0, p.cfg.BatchSize)

	readErr := reader.Each(ctx, func(ordinal int, row rawRow, scanErr error) error {
		item, convErr := convertRow(row)
		if item.ID != "" {
			seen[item.ID] = struct{}{}
		}
		if scanErr != nil {
			convErr = scanErr
		}
		if convErr != nil {
			result.Failed++
			metrics.SyncRowFailures.Inc()
			p.logger.Error().Err(convErr).
				Int("ordinal", ordinal).
				Str("name", rowName(row)).
				Msg("Could not add an item to the index, ignoring item")
			return nil
		}

		if item.TopParentID != nil {
			sampler.add(*item.TopParentID)
		}

		batch = append(batch, item)
		if len(batch) >= p.cfg.BatchSize {
			submit(batch)
			batch = make([]search.Item, 0, p.cfg.BatchSize)
		}
		return ctx.Err()
	})
	if len(batch) > 0 && readErr == nil {
		submit(batch)
	}
	_ = g.Wait()
	result.Indexed = int(indexed.Load())

	if readErr != nil {
		return result, fmt.Errorf("failed to read items: %w", readErr)
	}

	if ids := sampler.values(); len(ids) > 0 {
		p.logger.Info().Strs("top_parent_ids", ids).Msg("Sample TopParentIds from database")
	}

	if len(upsertEr) > 0 {
		return result, fmt.Errorf("%d of the upsert batches failed: %w", len(upsertEr), errors.Join(upsertEr...))
	}

	if p.cfg.PruneStale {
		pruned, err := p.prune(ctx, seen)
		result.Pruned = pruned
		if err != nil {
			return result, fmt.Errorf("failed to prune stale documents: %w", err)
		}
	}

	return result, nil
}

// prune deletes indexed documents that no longer exist in the library.
func (p *Pipeline) prune(ctx context.Context, seen map[string]struct{}) (int, error) {
	ids, err := p.indexer.DocumentIDs(ctx)
	if err != nil {
		return 0, err
	}

	var stale []string
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			stale = append(stale, id)
		}
	}

	pruned := 0
	for start := 0; start < len(stale); start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, len(stale))
		if err := p.indexer.Delete(ctx, stale[start:end]); err != nil {
			return pruned, err
		}
		pruned += end - start
	}

	if pruned > 0 {
		metrics.SyncDocumentsPruned.Add(float64(pruned))
		p.logger.Info().Int("pruned", pruned).Msg("Removed items no longer in the library")
	}
	return pruned, nil
}

func (p *Pipeline) record(ctx context.Context, trigger string, started time.Time, result Result, runErr error) {
	if p.recorder == nil {
		return
	}

	run := database.SyncRun{
		Trigger:    trigger,
		Source:     result.Source,
		StartedAt:  started,
		FinishedAt: started.Add(result.Duration),
		Indexed:    result.Indexed,
		Failed:     result.Failed,
		Pruned:     result.Pruned,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	// Record even when the run was cancelled
	if _, err := p.recorder.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to record sync run")
	}
}

// sampler keeps the first n distinct values it sees.
type sampler struct {
	n     int
	seen  map[string]struct{}
	order []string
}

func newSampler(n int) *sampler {
	return &sampler{n: n, seen: make(map[string]struct{}, n)}
}

func (s *sampler) add(v string) {
	if len(s.order) >= s.n {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *sampler) values() []string {
	return s.order
}
