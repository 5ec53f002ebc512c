package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sepa-screener/internal/app"
	"sepa-screener/internal/crawl"
	"sepa-screener/internal/metrics"
	"sepa-screener/internal/provider"
	"sepa-screener/internal/screen"
	"sepa-screener/internal/slogx"
)

// App holds application dependencies built by Wire.
type App struct {
	Config  *app.Config
	DP      provider.DataProvider
	Runner  *screen.Runner
	Crawler *crawl.Crawler
	Metrics *metrics.Metrics
}

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(app.LoadConfig()).ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		return 1
	}
	return 0
}
