// Package meili implements the search engine on top of a Meilisearch server.
package meili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"github.com/rs/zerolog"

	"github.com/jellysearch/jellysearch/internal/search"
)

const (
	taskPollInterval = 250 * time.Millisecond
	documentPageSize = 10000
)

// Config configures the Meilisearch engine.
type Config struct {
	URL     string
	APIKey  string
	Index   string
	Timeout time.Duration
}

// Engine is a search.Engine backed by a Meilisearch index.
type Engine struct {
	client meilisearch.ServiceManager
	index  meilisearch.IndexManager
	uid    string
	logger zerolog.Logger
}

// New creates an engine. The underlying HTTP client is shared by every
// request so connections are reused.
func New(cfg Config, logger zerolog.Logger) *Engine {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	client := meilisearch.New(cfg.URL,
		meilisearch.WithAPIKey(cfg.APIKey),
		meilisearch.WithCustomClient(httpClient),
	)
	return &Engine{
		client: client,
		index:  client.Index(cfg.Index),
		uid:    cfg.Index,
		logger: logger.With().Str("component", "meilisearch").Str("index", cfg.Index).Logger(),
	}
}

func (e *Engine) Name() string { return "meilisearch" }

// Ping checks that the server is healthy.
func (e *Engine) Ping(ctx context.Context) error {
	if _, err := e.client.HealthWithContext(ctx); err != nil {
		return fmt.Errorf("meilisearch health check: %w", err)
	}
	return nil
}

// Search runs a query and returns hits in relevance order.
func (e *Engine) Search(ctx context.Context, q search.Query) ([]search.Hit, error) {
	req := &meilisearch.SearchRequest{
		Limit:                int64(q.Limit),
		AttributesToRetrieve: []string{search.FieldID},
	}
	if q.Filter != nil {
		req.Filter = q.Filter.String()
	}

	resp, err := e.index.SearchWithContext(ctx, q.Term, req)
	if err != nil {
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	return decodeHits(resp.Hits)
}

// decodeHits goes through JSON so it does not depend on how the client
// library types individual hits.
func decodeHits(raw any) ([]search.Hit, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode hits: %w", err)
	}

	var docs []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode hits: %w", err)
	}

	hits := make([]search.Hit, 0, len(docs))
	for _, d := range docs {
		if d.ID != "" {
			hits = append(hits, search.Hit{ID: d.ID})
		}
	}
	return hits, nil
}

// ConfigureIndex applies the index schema and waits for it to be processed.
func (e *Engine) ConfigureIndex(ctx context.Context, settings search.IndexSettings) error {
	task, err := e.index.UpdateSettingsWithContext(ctx, &meilisearch.Settings{
		RankingRules:         settings.RankingRules,
		SearchableAttributes: settings.SearchableAttributes,
		DisplayedAttributes:  settings.DisplayedAttributes,
		FilterableAttributes: settings.FilterableAttributes,
		SortableAttributes:   settings.SortableAttributes,
	})
	if err != nil {
		return fmt.Errorf("failed to update index settings: %w", err)
	}
	return e.wait(ctx, "update settings", task)
}

// Upsert adds or replaces documents keyed by id.
func (e *Engine) Upsert(ctx context.Context, items []search.Item) error {
	if len(items) == 0 {
		return nil
	}
	task, err := e.index.AddDocumentsWithContext(ctx, items, search.FieldID)
	if err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return e.wait(ctx, "add documents", task)
}

// DocumentIDs pages through every document id in the index.
func (e *Engine) DocumentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	var offset int64
	for {
		var page meilisearch.DocumentsResult
		err := e.index.GetDocumentsWithContext(ctx, &meilisearch.DocumentsQuery{
			Offset: offset,
			Limit:  documentPageSize,
			Fields: []string{search.FieldID},
		}, &page)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}

		for _, doc := range page.Results {
			if id, ok := doc[search.FieldID].(string); ok {
				ids = append(ids, id)
			}
		}

		offset += int64(len(page.Results))
		if len(page.Results) == 0 || offset >= page.Total {
			return ids, nil
		}
	}
}

// Delete removes documents by id.
func (e *Engine) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	task, err := e.index.DeleteDocumentsWithContext(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return e.wait(ctx, "delete documents", task)
}

func (e *Engine) wait(ctx context.Context, op string, info *meilisearch.TaskInfo) error {
	task, err := e.index.WaitForTaskWithContext(ctx, info.TaskUID, taskPollInterval)
	if err != nil {
		return fmt.Errorf("%s: failed waiting for task %d: %w", op, info.TaskUID, err)
	}
	if task.Status == meilisearch.TaskStatusFailed {
		return fmt.Errorf("%s: task %d failed: %s", op, info.TaskUID, task.Error.Message)
	}

	e.logger.Debug().Str("op", op).Int64("task", info.TaskUID).Str("status", string(task.Status)).Msg("Meilisearch task finished")
	return nil
}
