package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pders01/feedsync/internal/config"
	"github.com/pders01/feedsync/internal/logging"
	"github.com/pders01/feedsync/internal/notion"
	"github.com/pders01/feedsync/internal/records"
	"github.com/pders01/feedsync/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is the version of the application, set at build time
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "feedsync",
	Short:         "Copy new RSS entries from a Notion feeds database into a posts database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("feedsync %s\n", Version)
		fmt.Println("RSS to Notion sync")
		fmt.Println("github.com/pders01/feedsync")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a default configuration file",
	Run: func(_ *cobra.Command, _ []string) {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "feedsync", "config.toml")

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Failed to generate config: %v", err)))
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd, runCmd, serveCmd, scheduleCmd, sourcesCmd, postsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := logging.FromString(cfg.Log.Level, cfg.Log.Output)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openStore returns the record backend selected by backend.kind.
func openStore(cfg *config.Config, logger *zap.Logger) (records.Store, func() error, error) {
	switch cfg.Backend.Kind {
	case config.BackendBolt:
		store, err := storage.NewStore(cfg.Backend.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.BackendNotion:
		store := notion.NewStore(cfg.Notion.Token, cfg.Feed.HTTPTimeout, logger)
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown backend %q", records.ErrConfiguration, cfg.Backend.Kind)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
