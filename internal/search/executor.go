package search

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jellysearch/jellysearch/internal/jellyfin"
	"github.com/jellysearch/jellysearch/internal/metrics"
)

// Executor runs a Plan against a Searcher and collects matching ids.
type Executor struct {
	searcher      Searcher
	limitPerType  int
	limitUnscoped int
	logger        zerolog.Logger
}

// NewExecutor creates an executor. limitPerType caps each per-type query,
// limitUnscoped caps the single query used when no types were requested.
func NewExecutor(searcher Searcher, limitPerType, limitUnscoped int, logger zerolog.Logger) *Executor {
	return &Executor{
		searcher:      searcher,
		limitPerType:  limitPerType,
		limitUnscoped: limitUnscoped,
		logger:        logger.With().Str("component", "search-executor").Logger(),
	}
}

// Execute returns deduplicated ids in relevance order. With explicitly
// requested types one query runs per type and results are concatenated in
// request order; otherwise a single query runs with the combined filter.
// Zero hits is not an error.
func (e *Executor) Execute(ctx context.Context, term string, plan Plan) ([]string, error) {
	if !plan.Explicit || len(plan.Types) == 0 {
		hits, err := e.query(ctx, "unscoped", Query{Term: term, Filter: plan.Filter(), Limit: e.limitUnscoped})
		if err != nil {
			return nil, err
		}
		return collect(hits), nil
	}

	results := make([][]Hit, len(plan.Types))
	g, gctx := errgroup.WithContext(ctx)
	for i, itemType := range plan.Types {
		g.Go(func() error {
			hits, err := e.query(gctx, "typed", Query{Term: term, Filter: plan.TypeFilter(itemType), Limit: e.limitPerType})
			if err != nil {
				return fmt.Errorf("search %s: %w", itemType, err)
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Hit
	for _, hits := range results {
		all = append(all, hits...)
	}
	return collect(all), nil
}

func (e *Executor) query(ctx context.Context, partition string, q Query) ([]Hit, error) {
	start := time.Now()
	hits, err := e.searcher.Search(ctx, q)
	metrics.EngineQueryDuration.WithLabelValues(partition).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("term", q.Term).
		Str("filter", Render(q.Filter)).
		Int("hits", len(hits)).
		Msg("Search query completed")
	return hits, nil
}

// collect normalizes hit ids and drops duplicates, keeping the first occurrence.
func collect(hits []Hit) []string {
	ids := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		id, ok := jellyfin.NormalizeID(h.ID)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
