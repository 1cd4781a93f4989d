package proxy

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jellysearch/jellysearch/internal/access"
	"github.com/jellysearch/jellysearch/internal/jellyfin"
	"github.com/jellysearch/jellysearch/internal/metrics"
	"github.com/jellysearch/jellysearch/internal/search"
)

// Executor finds matching ids for a plan.
type Executor interface {
	Execute(ctx context.Context, term string, plan search.Plan) ([]string, error)
}

// LibraryResolver reports which libraries a user may see.
type LibraryResolver interface {
	Resolve(ctx context.Context, creds jellyfin.Credentials, userID string) access.LibrarySet
}

// Request is an inbound search-capable request.
type Request struct {
	Path     string
	RawQuery string
	// UserID is the route user id, if the route has one.
	UserID string
	Header http.Header
}

// Response is always a JSON item query result.
type Response struct {
	Body    []byte
	Outcome Outcome
}

// Service answers search-capable requests.
type Service struct {
	builder    *search.FilterBuilder
	executor   Executor
	resolver   LibraryResolver
	reconciler *Reconciler
	origin     Origin
	failOpen   bool
	logger     zerolog.Logger
}

// NewService wires the request pipeline. failOpen decides what happens when
// a user's libraries cannot be determined: search unscoped, or return the
// empty result.
func NewService(executor Executor, resolver LibraryResolver, origin Origin, failOpen bool, logger zerolog.Logger) *Service {
	return &Service{
		builder:    search.NewFilterBuilder(),
		executor:   executor,
		resolver:   resolver,
		reconciler: NewReconciler(origin, logger),
		origin:     origin,
		failOpen:   failOpen,
		logger:     logger.With().Str("component", "search-proxy").Logger(),
	}
}

// Handle answers req. Errors never escape: every failure on the search path
// becomes the empty result.
func (s *Service) Handle(ctx context.Context, req Request) Response {
	endpoint := search.EndpointFromPath(req.Path)
	resp := s.handle(ctx, req, endpoint)
	metrics.SearchRequestsTotal.WithLabelValues(endpoint.String(), string(resp.Outcome)).Inc()
	return resp
}

func (s *Service) handle(ctx context.Context, req Request, endpoint search.Endpoint) Response {
	creds := jellyfin.CredentialsFromHeaders(req.Header)
	if creds.Empty() {
		s.logger.Warn().Err(jellyfin.ErrMissingCredentials).Str("path", req.Path).Msg("Rejecting search request")
		return empty(OutcomeUnauthenticated)
	}

	query, err := url.ParseQuery(req.RawQuery)
	if err != nil {
		s.logger.Debug().Err(err).Str("query", req.RawQuery).Msg("Query string partially parsed")
	}

	term := strings.TrimSpace(firstValue(query, "searchTerm"))
	if term == "" || endpoint == search.EndpointGenres {
		body, err := s.origin.Forward(ctx, creds, req.Path, req.RawQuery)
		if err != nil {
			s.logger.Error().Err(err).Str("path", req.Path).Msg("Pass-through request failed")
			return empty(OutcomeOriginError)
		}
		return Response{Body: body, Outcome: OutcomePassthrough}
	}

	userID := req.UserID
	if userID == "" {
		userID = firstValue(query, "userId")
	}

	log := s.logger.With().Str("endpoint", endpoint.String()).Str("user_id", userID).Logger()

	plan := s.builder.Build(requestedTypes(query), endpoint)
	for _, short := range plan.Unresolved {
		if jellyfin.IsUnsupportedItemType(short) {
			log.Warn().Str("type", short).Msg("Item type is not searchable, skipping")
		} else {
			log.Warn().Str("type", short).Msg("Unknown item type, skipping")
		}
	}

	if endpoint == search.EndpointItems {
		var libraries access.LibrarySet
		if userID != "" {
			libraries = s.resolver.Resolve(ctx, creds, userID)
		}
		switch {
		case libraries.Known:
			plan = plan.WithConstraint(search.In{Field: search.FieldTopParentID, Values: libraries.IDs})
		case !s.failOpen:
			log.Warn().Msg("Accessible libraries unknown, returning no results")
			return empty(OutcomeDenied)
		default:
			log.Debug().Msg("Accessible libraries unknown, searching unscoped")
		}
	}

	ids, err := s.executor.Execute(ctx, term, plan)
	if err != nil {
		log.Error().Err(err).Str("term", term).Msg("Search engine query failed")
		return empty(OutcomeEngineError)
	}
	metrics.SearchMatchedIDs.Observe(float64(len(ids)))

	log.Debug().Str("term", term).Int("matches", len(ids)).Msg("Search completed")

	body, outcome := s.reconciler.Reconcile(ctx, query, ids, userID, creds)
	return Response{Body: body, Outcome: outcome}
}

func empty(outcome Outcome) Response {
	return Response{Body: []byte(jellyfin.EmptyResult), Outcome: outcome}
}

// firstValue looks a parameter up case-insensitively.
func firstValue(q url.Values, name string) string {
	for key, values := range q {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// requestedTypes reads IncludeItemTypes. A single value is a comma
// separated list; repeated values are taken as they are.
func requestedTypes(q url.Values) []string {
	var values []string
	for key, v := range q {
		if strings.EqualFold(key, "includeItemTypes") {
			values = append(values, v...)
		}
	}
	if len(values) == 1 {
		values = strings.Split(values[0], ",")
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
