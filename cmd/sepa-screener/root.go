package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"sepa-screener/internal/app"
	"sepa-screener/internal/slogx"
)

// newRootCmd builds the CLI. Flag defaults come from cfg (the environment),
// so an explicit flag overrides the matching variable.
func newRootCmd(cfg *app.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "sepa-screener",
		Short:         "Screen US equities against the SEPA Trend Template, VCP and breakout rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := root.PersistentFlags()
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug | info | warn | error")
	f.StringVar(&cfg.DataProvider, "provider", cfg.DataProvider, "bar source: polygon | packets")
	f.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "root directory for packets")
	f.StringVar(&cfg.SaveFormat, "save-format", cfg.SaveFormat, "packet format: csv | json | parquet")
	f.StringVar(&cfg.TickersFile, "tickers", cfg.TickersFile, "ticker list (.txt or .json); empty uses the built-in universe")
	f.StringVar(&cfg.Benchmark, "benchmark", cfg.Benchmark, "benchmark symbol for relative strength")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent workers (0 = default)")
	f.IntVar(&cfg.LookbackDays, "lookback", cfg.LookbackDays, "calendar days of history")
	f.StringVar(&cfg.ThresholdsFile, "thresholds", cfg.ThresholdsFile, "YAML file overriding screening thresholds")
	f.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus /metrics on this address")

	root.AddCommand(newScreenCmd(cfg), newFetchCmd(cfg))
	return root
}

func newScreenCmd(cfg *app.Config) *cobra.Command {
	var daily bool
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Evaluate the universe and write graded results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), cfg, daily, func(ctx context.Context, a *App) error {
				_, err := app.Screen(ctx, cfg, a.DP, a.Runner, cmd.OutOrStdout())
				return err
			})
		},
	}
	cmd.Flags().StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for results and run report")
	cmd.Flags().StringVar(&cfg.OutputFormat, "output-format", cfg.OutputFormat, "results format: csv | json | parquet")
	cmd.Flags().IntVar(&cfg.Top, "top", cfg.Top, "rows to print (0 = none)")
	cmd.Flags().BoolVar(&daily, "daily", false, "repeat every day at RUN_HOUR:RUN_MINUTE UTC")
	return cmd
}

func newFetchCmd(cfg *app.Config) *cobra.Command {
	var daily, retryFailed bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download daily bars from Polygon into the packet directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), cfg, daily, func(ctx context.Context, a *App) error {
				_, err := app.Fetch(ctx, cfg, a.DP, a.Crawler, retryFailed)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&retryFailed, "retry-failed", false, "fetch only tickers that failed last run")
	cmd.Flags().BoolVar(&daily, "daily", false, "repeat every day at RUN_HOUR:RUN_MINUTE UTC")
	return cmd
}

// withApp assembles dependencies, starts the metrics endpoint when
// configured, and runs job once or on the daily schedule.
func withApp(ctx context.Context, cfg *app.Config, daily bool, job func(context.Context, *App) error) error {
	slog.SetDefault(slogx.NewDefault(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, cleanup, err := InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := a.Metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				slog.Error("metrics server", "error", err)
			}
		}()
	}

	run := func(ctx context.Context) error { return job(ctx, a) }
	if daily {
		app.RunFlow(ctx, cfg, run)
		return nil
	}
	return run(ctx)
}
