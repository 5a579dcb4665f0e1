package main

import (
	"fmt"

	"github.com/pders01/feedsync/internal/schedule"
	"github.com/pders01/feedsync/internal/server"
	"github.com/pders01/feedsync/internal/syncer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	dryRun     bool
	serveAddr  string
	cronSpec   string
	runAtStart bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Synchronize once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()
		if dryRun {
			cfg.Sync.DryRun = true
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		ctx, cancel := signalContext()
		defer cancel()

		result, err := syncer.NewRunner(store, cfg, logger).Run(ctx)
		if result != nil {
			printResult(cmd.OutOrStdout(), result)
		}
		if err != nil {
			return err
		}
		return result.Err()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a sync for every HTTP request on /",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		runner := syncer.NewRunner(store, cfg, logger, syncer.WithMetrics(syncer.NewMetrics(reg)))

		ctx, cancel := signalContext()
		defer cancel()
		return server.New(cfg.Server.Addr, runner, reg, logger).ListenAndServe(ctx)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Synchronize on a cron schedule",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()
		if cronSpec != "" {
			cfg.Schedule.Cron = cronSpec
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		store, closeStore, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		scheduler, err := schedule.New(cfg.Schedule.Cron, syncer.NewRunner(store, cfg, logger), logger)
		if err != nil {
			return fmt.Errorf("invalid schedule: %w", err)
		}

		ctx, cancel := signalContext()
		defer cancel()
		if runAtStart {
			scheduler.RunOnce(ctx)
		}
		return scheduler.Start(ctx)
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log posts instead of creating them")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	scheduleCmd.Flags().StringVar(&cronSpec, "cron", "", "Cron expression (overrides schedule.cron)")
	scheduleCmd.Flags().BoolVar(&runAtStart, "now", false, "Run once immediately before waiting for the schedule")
}
