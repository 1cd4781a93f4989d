package search

import (
	"strings"

	"github.com/jellysearch/jellysearch/internal/jellyfin"
)

// Endpoint identifies which search-capable route a request arrived on.
type Endpoint int

const (
	EndpointItems Endpoint = iota
	EndpointPersons
	EndpointArtists
	EndpointAlbumArtists
	EndpointGenres
)

func (e Endpoint) String() string {
	switch e {
	case EndpointPersons:
		return "Persons"
	case EndpointArtists:
		return "Artists"
	case EndpointAlbumArtists:
		return "AlbumArtists"
	case EndpointGenres:
		return "Genres"
	default:
		return "Items"
	}
}

// EndpointFromPath classifies a request path by its final segment.
func EndpointFromPath(path string) Endpoint {
	p := strings.ToLower(strings.TrimRight(path, "/"))
	switch {
	case strings.HasSuffix(p, "/albumartists"):
		return EndpointAlbumArtists
	case strings.HasSuffix(p, "/artists"):
		return EndpointArtists
	case strings.HasSuffix(p, "/persons"):
		return EndpointPersons
	case strings.HasSuffix(p, "/genres"):
		return EndpointGenres
	default:
		return EndpointItems
	}
}

// Plan is the outcome of translating a request into search terms.
type Plan struct {
	// Types holds resolved types in request order without duplicates.
	Types []string
	// Explicit is true when Types came from the client rather than being
	// implied by the endpoint.
	Explicit bool
	// Constraints are conjoined with the type clauses.
	Constraints []Expr
	// Unresolved lists requested short names that have no index type.
	Unresolved []string
}

// Filter returns the combined filter: the OR of all type clauses, AND every
// constraint. It is nil when the plan has no clauses at all.
func (p Plan) Filter() Expr {
	clauses := make([]Expr, 0, len(p.Types))
	for _, t := range p.Types {
		clauses = append(clauses, Eq{Field: FieldType, Value: t})
	}
	return AllOf(append([]Expr{AnyOf(clauses...)}, p.Constraints...)...)
}

// TypeFilter returns the filter for a single type partition.
func (p Plan) TypeFilter(itemType string) Expr {
	return AllOf(append([]Expr{Eq{Field: FieldType, Value: itemType}}, p.Constraints...)...)
}

// WithConstraint returns a copy of the plan with c appended.
func (p Plan) WithConstraint(c Expr) Plan {
	if c == nil {
		return p
	}
	constraints := make([]Expr, 0, len(p.Constraints)+1)
	constraints = append(constraints, p.Constraints...)
	p.Constraints = append(constraints, c)
	return p
}

// FilterBuilder turns requested item types and the endpoint into a Plan.
type FilterBuilder struct {
	resolve func(string) (string, bool)
}

// NewFilterBuilder creates a builder backed by the Jellyfin type catalog.
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{resolve: jellyfin.ResolveItemType}
}

// Build resolves requestedTypes and derives the implicit type for the
// endpoint when none were requested. Unresolvable names are reported in
// Plan.Unresolved and otherwise ignored.
func (b *FilterBuilder) Build(requestedTypes []string, endpoint Endpoint, extra ...Expr) Plan {
	plan := Plan{}

	seen := make(map[string]struct{}, len(requestedTypes))
	for _, short := range requestedTypes {
		short = strings.TrimSpace(short)
		if short == "" {
			continue
		}
		plan.Explicit = true
		full, ok := b.resolve(short)
		if !ok {
			plan.Unresolved = append(plan.Unresolved, short)
			continue
		}
		if _, dup := seen[full]; dup {
			continue
		}
		seen[full] = struct{}{}
		plan.Types = append(plan.Types, full)
	}

	if !plan.Explicit {
		switch endpoint {
		case EndpointPersons:
			plan.Types = []string{jellyfin.TypePerson}
		case EndpointArtists:
			plan.Types = []string{jellyfin.TypeMusicArtist}
		case EndpointAlbumArtists:
			plan.Types = []string{jellyfin.TypeMusicArtist}
			plan.Constraints = append(plan.Constraints, Eq{Field: FieldIsFolder, Value: 1})
		case EndpointGenres:
			plan.Types = []string{jellyfin.TypeGenre}
		}
	}

	for _, c := range extra {
		if c != nil {
			plan.Constraints = append(plan.Constraints, c)
		}
	}

	return plan
}
