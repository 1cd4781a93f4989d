package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jellysearch/jellysearch/internal/jellyfin"
)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []Query
	byType  map[string][]Hit
	all     []Hit
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, q Query) ([]Hit, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if eq, ok := typeOf(q.Filter); ok {
		return f.byType[eq], nil
	}
	return f.all, nil
}

func typeOf(e Expr) (string, bool) {
	switch v := e.(type) {
	case Eq:
		if v.Field == FieldType {
			return v.Value.(string), true
		}
	case And:
		for _, c := range v {
			if t, ok := typeOf(c); ok {
				return t, true
			}
		}
	}
	return "", false
}

const (
	idA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	idB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	idC = "cccccccccccccccccccccccccccccccc"
)

func TestExecute_PerTypeConcatenatesInRequestOrder(t *testing.T) {
	searcher := &fakeSearcher{byType: map[string][]Hit{
		jellyfin.TypeMovie:  {{ID: idA}, {ID: idB}},
		jellyfin.TypeSeries: {{ID: idC}, {ID: "AAAAAAAA-AAAA-AAAA-AAAA-AAAAAAAAAAAA"}},
	}}
	exec := NewExecutor(searcher, 15, 20, zerolog.Nop())

	plan := NewFilterBuilder().Build([]string{"Series", "Movie"}, EndpointItems)
	ids, err := exec.Execute(context.Background(), "galaxy", plan)
	require.NoError(t, err)

	assert.Equal(t, []string{idC, idA, idB}, ids)
	require.Len(t, searcher.queries, 2)
	for _, q := range searcher.queries {
		assert.Equal(t, 15, q.Limit)
		assert.Equal(t, "galaxy", q.Term)
	}
}

func TestExecute_UnscopedUsesSingleQuery(t *testing.T) {
	searcher := &fakeSearcher{all: []Hit{{ID: idB}, {ID: idA}, {ID: idB}}}
	exec := NewExecutor(searcher, 15, 20, zerolog.Nop())

	ids, err := exec.Execute(context.Background(), "x", NewFilterBuilder().Build(nil, EndpointItems))
	require.NoError(t, err)

	assert.Equal(t, []string{idB, idA}, ids)
	require.Len(t, searcher.queries, 1)
	assert.Equal(t, 20, searcher.queries[0].Limit)
	assert.Nil(t, searcher.queries[0].Filter)
}

func TestExecute_ImplicitTypeUsesUnscopedLimit(t *testing.T) {
	searcher := &fakeSearcher{byType: map[string][]Hit{jellyfin.TypePerson: {{ID: idA}}}}
	exec := NewExecutor(searcher, 15, 25, zerolog.Nop())

	ids, err := exec.Execute(context.Background(), "hanks", NewFilterBuilder().Build(nil, EndpointPersons))
	require.NoError(t, err)

	assert.Equal(t, []string{idA}, ids)
	require.Len(t, searcher.queries, 1)
	assert.Equal(t, 25, searcher.queries[0].Limit)
}

func TestExecute_ZeroHits(t *testing.T) {
	exec := NewExecutor(&fakeSearcher{}, 15, 20, zerolog.Nop())

	ids, err := exec.Execute(context.Background(), "nothing", NewFilterBuilder().Build([]string{"Movie"}, EndpointItems))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestExecute_EngineError(t *testing.T) {
	boom := errors.New("engine down")
	exec := NewExecutor(&fakeSearcher{err: boom}, 15, 20, zerolog.Nop())

	_, err := exec.Execute(context.Background(), "x", NewFilterBuilder().Build([]string{"Movie", "Series"}, EndpointItems))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, err = exec.Execute(context.Background(), "x", NewFilterBuilder().Build(nil, EndpointItems))
	assert.ErrorIs(t, err, boom)
}

func TestExecute_DropsUnparseableIDs(t *testing.T) {
	exec := NewExecutor(&fakeSearcher{all: []Hit{{ID: "bogus"}, {ID: idC}}}, 15, 20, zerolog.Nop())

	ids, err := exec.Execute(context.Background(), "x", Plan{})
	require.NoError(t, err)
	assert.Equal(t, []string{idC}, ids)
}
