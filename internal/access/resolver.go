// Package access works out which libraries a user may search.
package access

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"github.com/jellysearch/jellysearch/internal/jellyfin"
	"github.com/jellysearch/jellysearch/internal/metrics"
)

// Origin is the subset of the Jellyfin API the resolver needs.
type Origin interface {
	GetUserViews(ctx context.Context, creds jellyfin.Credentials, userID string) ([]jellyfin.View, error)
	GetVirtualFolders(ctx context.Context, creds jellyfin.Credentials) ([]jellyfin.VirtualFolder, error)
}

// LibrarySet is the outcome of a resolution. Known is false when the
// libraries could not be determined, which is distinct from a user who can
// see nothing.
type LibrarySet struct {
	IDs   []string
	Known bool
}

// Resolver resolves library visibility per request. Nothing is cached.
type Resolver struct {
	origin   Origin
	service  jellyfin.Credentials
	failOpen bool
	logger   zerolog.Logger
}

// NewResolver creates a resolver. service credentials, when non-empty, are
// used for the virtual folder listing that ordinary users cannot read.
// failOpen controls whether a failed view lookup falls back to every
// configured library.
func NewResolver(origin Origin, service jellyfin.Credentials, failOpen bool, logger zerolog.Logger) *Resolver {
	return &Resolver{
		origin:   origin,
		service:  service,
		failOpen: failOpen,
		logger:   logger.With().Str("component", "access").Logger(),
	}
}

// Resolve returns the canonical ids of every library visible to userID.
func (r *Resolver) Resolve(ctx context.Context, creds jellyfin.Credentials, userID string) LibrarySet {
	set := r.resolve(ctx, creds, userID)
	if set.Known {
		metrics.PermissionResolutionsTotal.WithLabelValues("known").Inc()
	} else {
		metrics.PermissionResolutionsTotal.WithLabelValues("unknown").Inc()
	}
	return set
}

func (r *Resolver) resolve(ctx context.Context, creds jellyfin.Credentials, userID string) LibrarySet {
	log := r.logger.With().Str("user_id", userID).Logger()

	views, err := r.origin.GetUserViews(ctx, creds, userID)
	if err != nil {
		var statusErr *jellyfin.StatusError
		if !errors.As(err, &statusErr) {
			log.Warn().Err(err).Msg("Failed to fetch user views")
			return LibrarySet{}
		}
		log.Warn().Int("status", statusErr.StatusCode).Msg("User views lookup was rejected, continuing without views")
		views = nil
	}

	folderCreds := creds
	if !r.service.Empty() {
		folderCreds = r.service
	}
	folders, err := r.origin.GetVirtualFolders(ctx, folderCreds)
	if err != nil {
		var statusErr *jellyfin.StatusError
		if !errors.As(err, &statusErr) {
			log.Warn().Err(err).Msg("Failed to fetch virtual folders")
			return LibrarySet{}
		}
		log.Warn().Int("status", statusErr.StatusCode).Msg("Virtual folder lookup was rejected, continuing without folders")
		folders = nil
	}

	viewNames := make(map[string]struct{}, len(views))
	raw := make([]string, 0, 2*len(views)+len(folders))
	for _, v := range views {
		viewNames[v.Name] = struct{}{}
		raw = append(raw, v.ID, v.ParentID)
	}

	includeAll := len(views) == 0 && r.failOpen
	if len(views) == 0 {
		log.Debug().Bool("include_all_folders", includeAll).Msg("No views resolved for user")
	}

	for _, f := range folders {
		if _, visible := viewNames[f.Name]; visible || includeAll {
			raw = append(raw, f.ItemID)
		}
	}

	ids := jellyfin.NormalizeIDs(raw)
	if len(ids) == 0 {
		return LibrarySet{}
	}
	sort.Strings(ids)

	log.Debug().Strs("libraries", ids).Msg("Resolved accessible libraries")
	return LibrarySet{IDs: ids, Known: true}
}
