// Package proxy turns search requests into filtered origin item queries.
package proxy

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jellysearch/jellysearch/internal/jellyfin"
)

// Origin is the subset of the Jellyfin API the proxy calls.
type Origin interface {
	GetItems(ctx context.Context, creds jellyfin.Credentials, userID string, query url.Values) ([]byte, error)
	Forward(ctx context.Context, creds jellyfin.Credentials, path, rawQuery string) ([]byte, error)
}

// Outcome describes how a search request was answered.
type Outcome string

const (
	OutcomePassthrough     Outcome = "passthrough"
	OutcomeProxied         Outcome = "proxied"
	OutcomeEmpty           Outcome = "empty"
	OutcomeOriginError     Outcome = "origin_error"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeDenied          Outcome = "denied"
	OutcomeEngineError     Outcome = "engine_error"
)

// searchParams are removed before forwarding: the origin must not filter
// or reorder what the search engine already ranked.
var searchParams = []string{"searchTerm", "sortBy", "sortOrder"}

// StripSearchParams returns a copy of q without search and sort parameters.
// Keys are matched case-insensitively.
func StripSearchParams(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for key, values := range q {
		if matchesAny(key, searchParams) {
			continue
		}
		out[key] = append([]string(nil), values...)
	}
	return out
}

func matchesAny(key string, names []string) bool {
	for _, name := range names {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

// Reconciler rewrites a client query to the matched ids and fetches the
// result from the origin.
type Reconciler struct {
	origin Origin
	logger zerolog.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(origin Origin, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		origin: origin,
		logger: logger.With().Str("component", "reconciler").Logger(),
	}
}

// Reconcile returns the origin's response for ids, unmodified, or the empty
// result when there is nothing to fetch or the origin call fails.
func (r *Reconciler) Reconcile(ctx context.Context, query url.Values, ids []string, userID string, creds jellyfin.Credentials) ([]byte, Outcome) {
	if len(ids) == 0 {
		return []byte(jellyfin.EmptyResult), OutcomeEmpty
	}

	rewritten := StripSearchParams(query)
	for key := range rewritten {
		if strings.EqualFold(key, "ids") {
			delete(rewritten, key)
		}
	}
	rewritten.Set("ids", joinIDs(ids))

	body, err := r.origin.GetItems(ctx, creds, userID, rewritten)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Int("ids", len(ids)).Msg("Origin item query failed")
		return []byte(jellyfin.EmptyResult), OutcomeOriginError
	}
	return body, OutcomeProxied
}

// joinIDs renders ids in the bare hex form the item endpoint accepts.
func joinIDs(ids []string) string {
	bare := make([]string, len(ids))
	for i, id := range ids {
		bare[i] = strings.ReplaceAll(id, "-", "")
	}
	return strings.Join(bare, ",")
}
