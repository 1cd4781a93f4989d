package search

import "context"

// Query is a single full-text query against the item index.
type Query struct {
	Term   string
	Filter Expr
	Limit  int
}

// Hit is a matching document, in relevance order.
type Hit struct {
	ID string
}

// Searcher runs full-text queries.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Hit, error)
}

// Indexer maintains the documents and schema of the item index.
type Indexer interface {
	ConfigureIndex(ctx context.Context, settings IndexSettings) error
	Upsert(ctx context.Context, items []Item) error
	DocumentIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, ids []string) error
}

// Engine is a search backend.
type Engine interface {
	Searcher
	Indexer
	Name() string
}
