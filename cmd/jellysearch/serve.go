package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jellysearch/jellysearch/internal/access"
	"github.com/jellysearch/jellysearch/internal/api"
	"github.com/jellysearch/jellysearch/internal/config"
	"github.com/jellysearch/jellysearch/internal/health"
	"github.com/jellysearch/jellysearch/internal/proxy"
	"github.com/jellysearch/jellysearch/internal/scheduler"
	"github.com/jellysearch/jellysearch/internal/scheduler/tasks"
	"github.com/jellysearch/jellysearch/internal/search"
	"github.com/jellysearch/jellysearch/internal/startup"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the search proxy and the scheduled index sync",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log.Logger

	healthSvc := health.NewService(log)
	healthSvc.RegisterItem(health.ComponentJellyfin, "Jellyfin")
	healthSvc.RegisterItem(health.ComponentSearchEngine, "Search engine ("+a.engine.Name()+")")
	healthSvc.RegisterItem(health.ComponentIndexSync, "Index sync")

	if err := a.prepareIndex(ctx); err != nil {
		return err
	}

	if cfg.Jellyfin.URL == "" {
		log.Warn().Msg("jellyfin.url is not set, searches will return no results")
		healthSvc.SetError(health.ComponentJellyfin, "jellyfin.url is not set")
	} else if err := startup.WithRetry(ctx, "reach jellyfin", startup.DefaultRetryConfig(), a.origin.Ping, log); err != nil {
		log.Warn().Err(err).Msg("Jellyfin is not reachable yet, continuing")
		healthSvc.SetError(health.ComponentJellyfin, err.Error())
	}

	failOpen := cfg.Permissions.FailOpen()
	executor := search.NewExecutor(a.engine, cfg.Search.LimitPerType, cfg.Search.LimitUnscoped, log)
	resolver := access.NewResolver(a.origin, a.origin.Service(), failOpen, log)
	service := proxy.NewService(executor, resolver, a.origin, failOpen, log)

	sched, err := scheduler.New(log)
	if err != nil {
		return err
	}
	if err := tasks.RegisterIndexSyncTask(sched, a.pipeline, healthSvc, cfg.Index.Schedule, cfg.Index.RunOnStart, log); err != nil {
		return err
	}
	deps := []tasks.Dependency{{ID: health.ComponentSearchEngine, Pinger: a.engine}}
	if cfg.Jellyfin.URL != "" {
		deps = append(deps, tasks.Dependency{ID: health.ComponentJellyfin, Pinger: a.origin})
	}
	if err := tasks.RegisterDependencyHealthTask(sched, deps, healthSvc, log); err != nil {
		return err
	}

	server := api.NewServer(cfg.Server, api.Deps{
		Search:    service,
		Scheduler: sched,
		Runs:      a.db,
		Health:    healthSvc,
		Engine:    a.engine.Name(),
		Syncing:   a.pipeline.Running,
	}, log)

	sched.Start()

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown failed")
	}

	log.Info().Msg("JellySearch stopped")
	return nil
}
