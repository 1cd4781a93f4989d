package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jellysearch/jellysearch/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "jellysearch",
	Short:         "JellySearch - full-text search proxy for Jellyfin",
	Long:          `JellySearch answers Jellyfin item searches from a dedicated search index and lets Jellyfin render the matches.`,
	Version:       config.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(serveCmd, indexCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
