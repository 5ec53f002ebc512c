package app

import (
	"log/slog"
	"runtime"

	"sepa-screener/internal/crawl"
	"sepa-screener/internal/metrics"
	"sepa-screener/internal/provider"
	"sepa-screener/internal/screen"
	"sepa-screener/internal/screener"
	"sepa-screener/internal/store"
)

// ProvideThresholds loads screener thresholds, defaults overlaid by THRESHOLDS_FILE (for Wire).
func ProvideThresholds(cfg *Config) (screener.Config, error) {
	return screener.LoadConfig(cfg.ThresholdsFile)
}

// ProvideDataProvider creates the configured DataProvider (for Wire).
// The returned cleanup closes it.
func ProvideDataProvider(cfg *Config) (provider.DataProvider, func(), error) {
	dp, err := CreateProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := dp.Close(); err != nil {
			slog.Warn("close provider", "provider", dp.GetName(), "error", err)
		}
	}
	return dp, cleanup, nil
}

// ProvideMetrics creates the run metrics registry (for Wire).
func ProvideMetrics() *metrics.Metrics {
	return metrics.New()
}

// ProvidePacketDir returns the packet directory in SAVE_FORMAT (for Wire).
func ProvidePacketDir(cfg *Config) (*store.Dir, error) {
	return store.NewDir(cfg.PacketDir(), cfg.SaveFormat)
}

// ProvideRunner builds the screening runner (for Wire).
func ProvideRunner(cfg *Config, thresholds screener.Config, m *metrics.Metrics) *screen.Runner {
	r := screen.NewRunner(thresholds, m, cfg.LogLevel)
	if cfg.Workers > 0 {
		r.Workers = cfg.Workers
	} else {
		r.Workers = runtime.NumCPU()
	}
	return r
}

// ProvideCrawler builds the packet fetch runner (for Wire).
func ProvideCrawler(cfg *Config, dp provider.DataProvider, dir *store.Dir) *crawl.Crawler {
	workers := cfg.Workers
	if p, ok := dp.(*provider.PolygonProvider); ok && workers == 0 {
		workers = p.Workers()
	}
	return &crawl.Crawler{
		Source:       dp,
		Dir:          dir,
		Workers:      workers,
		ProgressPath: cfg.ProgressPath(),
		LogLevel:     cfg.LogLevel,
	}
}
