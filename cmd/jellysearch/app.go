package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jellysearch/jellysearch/internal/config"
	"github.com/jellysearch/jellysearch/internal/database"
	"github.com/jellysearch/jellysearch/internal/indexsync"
	"github.com/jellysearch/jellysearch/internal/jellyfin"
	"github.com/jellysearch/jellysearch/internal/logger"
	"github.com/jellysearch/jellysearch/internal/search"
	"github.com/jellysearch/jellysearch/internal/search/embedded"
	"github.com/jellysearch/jellysearch/internal/search/meili"
	"github.com/jellysearch/jellysearch/internal/startup"
)

// searchEngine is a backend that can also report whether it is reachable.
type searchEngine interface {
	search.Engine
	Ping(ctx context.Context) error
}

// app holds the long-lived components shared by the subcommands.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	engine   searchEngine
	origin   *jellyfin.Client
	pipeline *indexsync.Pipeline

	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, log.Close)

	log.Info().
		Str("version", config.Version).
		Str("engine", cfg.Search.Engine).
		Str("permissions", cfg.Permissions.Policy).
		Msg("starting JellySearch")

	db, err := database.New(ctx, cfg.Database.Path)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	if err := db.Migrate(ctx); err != nil {
		a.Close()
		return nil, err
	}

	engine, err := a.openEngine()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = engine

	httpClient := &http.Client{Timeout: cfg.Jellyfin.Timeout}
	a.origin = jellyfin.NewClient(httpClient, cfg.Jellyfin.URL, cfg.Jellyfin.Token, log.Logger)

	a.pipeline = indexsync.NewPipeline(engine, db, indexsync.Config{
		ConfigDir:  cfg.Jellyfin.ConfigDir,
		BatchSize:  cfg.Index.BatchSize,
		Workers:    cfg.Index.Workers,
		PruneStale: cfg.Index.PruneStale,
	}, log.Logger)

	return a, nil
}

func (a *app) openEngine() (searchEngine, error) {
	switch a.cfg.Search.Engine {
	case config.EngineEmbedded:
		engine, err := embedded.Open(a.cfg.Search.EmbeddedPath, a.log.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded index: %w", err)
		}
		a.closers = append(a.closers, engine.Close)
		return engine, nil
	default:
		return meili.New(meili.Config{
			URL:     a.cfg.Search.URL,
			APIKey:  a.cfg.Search.APIKey,
			Index:   a.cfg.Search.Index,
			Timeout: a.cfg.Search.Timeout,
		}, a.log.Logger), nil
	}
}

// prepareIndex applies the index settings, retrying while the search engine
// is still coming up.
func (a *app) prepareIndex(ctx context.Context) error {
	return startup.WithRetry(ctx, "configure search index", startup.DefaultRetryConfig(),
		func(ctx context.Context) error {
			return a.engine.ConfigureIndex(ctx, search.DefaultIndexSettings())
		}, a.log.Logger)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("Error during shutdown")
		}
	}
	a.closers = nil
}
