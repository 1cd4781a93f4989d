// Package embedded implements the search engine in-process with bleve, for
// deployments without a Meilisearch server.
package embedded

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/rs/zerolog"

	"github.com/jellysearch/jellysearch/internal/search"
)

const idPageSize = 10000

// Engine is a search.Engine backed by a bleve index.
type Engine struct {
	index  bleve.Index
	logger zerolog.Logger

	mu         sync.RWMutex
	searchable []string
}

// Open opens the index at path, creating it when missing. An empty path
// keeps the index in memory.
func Open(path string, logger zerolog.Logger) (*Engine, error) {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to build index mapping: %w", err)
	}

	var index bleve.Index
	switch {
	case path == "":
		index, err = bleve.NewMemOnly(indexMapping)
	default:
		index, err = bleve.Open(path)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			index, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open index %q: %w", path, err)
	}

	return &Engine{
		index:      index,
		logger:     logger.With().Str("component", "embedded-search").Logger(),
		searchable: search.DefaultIndexSettings().SearchableAttributes,
	}, nil
}

func (e *Engine) Name() string { return "embedded" }

// Ping fails once the index has been closed.
func (e *Engine) Ping(context.Context) error {
	_, err := e.index.DocCount()
	return err
}

// Close releases the index.
func (e *Engine) Close() error {
	return e.index.Close()
}

// ConfigureIndex records the searchable attribute priority. The field
// mapping itself is fixed when the index is created, so filterable
// attributes must be ones it already indexes.
func (e *Engine) ConfigureIndex(_ context.Context, settings search.IndexSettings) error {
	for _, field := range settings.FilterableAttributes {
		if !isFilterable(field) {
			return fmt.Errorf("attribute %q is not filterable in the embedded index", field)
		}
	}
	for _, field := range settings.SortableAttributes {
		if !isFilterable(field) {
			return fmt.Errorf("attribute %q is not sortable in the embedded index", field)
		}
	}

	e.mu.Lock()
	e.searchable = append([]string(nil), settings.SearchableAttributes...)
	e.mu.Unlock()
	return nil
}

// Upsert indexes documents by id, replacing existing ones.
func (e *Engine) Upsert(ctx context.Context, items []search.Item) error {
	if len(items) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := e.index.NewBatch()
	for _, item := range items {
		doc, err := toDocument(item)
		if err != nil {
			return fmt.Errorf("item %s: %w", item.ID, err)
		}
		if err := batch.Index(item.ID, doc); err != nil {
			return fmt.Errorf("failed to index %s: %w", item.ID, err)
		}
	}
	if err := e.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply batch: %w", err)
	}
	return nil
}

// toDocument flattens an item into the generic form bleve walks, using the
// same field names the JSON documents carry.
func toDocument(item search.Item) (map[string]interface{}, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DocumentIDs returns every indexed id.
func (e *Engine) DocumentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for from := 0; ; from += idPageSize {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), idPageSize, from, false)
		req.SortBy([]string{"_id"})

		res, err := e.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
		if len(res.Hits) < idPageSize {
			return ids, nil
		}
	}
}

// Delete removes documents by id.
func (e *Engine) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := e.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := e.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// Search runs a query, ordering by relevance and then by rating.
func (e *Engine) Search(ctx context.Context, q search.Query) ([]search.Hit, error) {
	filter, err := translate(q.Filter)
	if err != nil {
		return nil, err
	}

	var bq query.Query = e.textQuery(q.Term)
	if filter != nil {
		bq = bleve.NewConjunctionQuery(bq, filter)
	}

	req := bleve.NewSearchRequestOptions(bq, q.Limit, 0, false)
	req.SortBy([]string{"-_score", "-" + search.FieldCommunityRating, "-" + search.FieldCriticRating})

	res, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embedded search: %w", err)
	}

	hits := make([]search.Hit, len(res.Hits))
	for i, h := range res.Hits {
		hits[i] = search.Hit{ID: h.ID}
	}
	return hits, nil
}

// textQuery requires every word of the term to match some searchable
// field. Earlier fields in the searchable list weigh more.
func (e *Engine) textQuery(term string) query.Query {
	words := tokenize(term)
	if len(words) == 0 {
		return bleve.NewMatchAllQuery()
	}

	e.mu.RLock()
	fields := e.searchable
	e.mu.RUnlock()

	perWord := make([]query.Query, 0, len(words))
	for _, word := range words {
		var alternatives []query.Query
		for i, field := range fields {
			boost := float64(len(fields) - i)

			if field == search.FieldProductionYear {
				if year, err := strconv.ParseFloat(word, 64); err == nil {
					inclusive := true
					yq := bleve.NewNumericRangeInclusiveQuery(&year, &year, &inclusive, &inclusive)
					yq.SetField(field)
					yq.SetBoost(boost)
					alternatives = append(alternatives, yq)
				}
				continue
			}
			if !isText(field) {
				continue
			}

			mq := bleve.NewMatchQuery(word)
			mq.SetField(field)
			mq.Analyzer = textAnalyzer
			mq.SetBoost(boost)
			alternatives = append(alternatives, mq)

			if prefixFields[field] {
				pq := bleve.NewPrefixQuery(word)
				pq.SetField(field)
				pq.SetBoost(boost / 2)
				alternatives = append(alternatives, pq)
			}
		}
		if len(alternatives) == 0 {
			continue
		}
		perWord = append(perWord, bleve.NewDisjunctionQuery(alternatives...))
	}

	if len(perWord) == 0 {
		return bleve.NewMatchNoneQuery()
	}
	return bleve.NewConjunctionQuery(perWord...)
}

func tokenize(term string) []string {
	return strings.FieldsFunc(strings.ToLower(term), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// translate converts a filter tree to the equivalent bleve query.
func translate(expr search.Expr) (query.Query, error) {
	switch e := expr.(type) {
	case nil:
		return nil, nil
	case search.Eq:
		return termQuery(e.Field, e.Value)
	case search.In:
		if len(e.Values) == 0 {
			return bleve.NewMatchNoneQuery(), nil
		}
		alternatives := make([]query.Query, 0, len(e.Values))
		for _, v := range e.Values {
			q, err := termQuery(e.Field, v)
			if err != nil {
				return nil, err
			}
			alternatives = append(alternatives, q)
		}
		return bleve.NewDisjunctionQuery(alternatives...), nil
	case search.And:
		clauses, err := translateAll(e)
		if err != nil {
			return nil, err
		}
		return bleve.NewConjunctionQuery(clauses...), nil
	case search.Or:
		clauses, err := translateAll(e)
		if err != nil {
			return nil, err
		}
		return bleve.NewDisjunctionQuery(clauses...), nil
	default:
		return nil, fmt.Errorf("unsupported filter node %T", expr)
	}
}

func translateAll(exprs []search.Expr) ([]query.Query, error) {
	out := make([]query.Query, 0, len(exprs))
	for _, expr := range exprs {
		q, err := translate(expr)
		if err != nil {
			return nil, err
		}
		if q != nil {
			out = append(out, q)
		}
	}
	return out, nil
}

func termQuery(field string, value any) (query.Query, error) {
	if !isFilterable(field) {
		return nil, fmt.Errorf("attribute %q is not filterable", field)
	}

	var n float64
	switch v := value.(type) {
	case string:
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		return tq, nil
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	case bool:
		if v {
			n = 1
		}
	default:
		return nil, fmt.Errorf("unsupported filter value %T for %s", value, field)
	}

	inclusive := true
	nq := bleve.NewNumericRangeInclusiveQuery(&n, &n, &inclusive, &inclusive)
	nq.SetField(field)
	return nq, nil
}
