package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jellysearch/jellysearch/internal/config"
	"github.com/jellysearch/jellysearch/internal/indexsync"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run one index sync and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		result, err := runIndex(ctx, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d items from %s (%d failed, %d pruned) in %s\n",
			result.Indexed, result.Source, result.Failed, result.Pruned, result.Duration.Round(time.Millisecond))
		return nil
	},
}

func runIndex(ctx context.Context, cfg *config.Config) (indexsync.Result, error) {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return indexsync.Result{}, err
	}
	defer a.Close()

	if err := a.prepareIndex(ctx); err != nil {
		return indexsync.Result{}, err
	}
	return a.pipeline.Run(ctx, indexsync.TriggerCLI)
}
