package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"sepa-screener/internal/crawl"
	"sepa-screener/internal/provider"
	"sepa-screener/internal/screen"
	"sepa-screener/internal/universe"
)

// Screen runs one screening pass: resolve the universe, fetch, evaluate,
// write results and the run report, print the top rows to out.
func Screen(ctx context.Context, cfg *Config, dp provider.DataProvider, r *screen.Runner, out io.Writer) (*screen.Batch, error) {
	tickers, err := universe.Load(cfg.TickersFile)
	if err != nil {
		return nil, err
	}
	tickers = universe.Without(tickers, cfg.Benchmark)

	from, to := cfg.Window(time.Now())
	slog.Info("screen start", "provider", dp.GetName(), "tickers", len(tickers), "benchmark", cfg.Benchmark,
		"from", from.Format("2006-01-02"), "to", to.Format("2006-01-02"))

	b, err := r.Run(ctx, dp, tickers, from, to)
	if err != nil {
		return nil, err
	}

	path, err := screen.WriteResults(cfg.OutputDir, cfg.OutputFormat, b.Results)
	if err != nil {
		return b, err
	}
	if err := screen.WriteRunReport(cfg.OutputDir, b); err != nil {
		slog.Warn("could not write run report", "error", err)
	}
	slog.Info("screen done", "as_of", b.AsOf, "results", len(b.Results), "failed", len(b.Failed),
		"grades", screen.Summary(b.Results), "path", path, "elapsed", b.Elapsed.Round(time.Millisecond))

	if out != nil && cfg.Top > 0 {
		if err := screen.PrintTable(out, b.Results, cfg.Top); err != nil {
			return b, fmt.Errorf("print table: %w", err)
		}
	}
	return b, nil
}

// ErrFetchNeedsPolygon is returned when fetch is asked to read from packets.
var ErrFetchNeedsPolygon = errors.New("fetch requires DATA_PROVIDER=polygon")

// Fetch downloads missing history for the universe and the benchmark into
// the packet directory. With retryFailed only the last run's failures are fetched.
func Fetch(ctx context.Context, cfg *Config, dp provider.DataProvider, c *crawl.Crawler, retryFailed bool) (crawl.Summary, error) {
	if _, ok := dp.(*provider.PacketProvider); ok {
		return crawl.Summary{}, ErrFetchNeedsPolygon
	}
	var (
		tickers []string
		err     error
	)
	if retryFailed {
		tickers, err = crawl.ReadFailed(c.Dir.Root)
	} else {
		tickers, err = universe.Load(cfg.TickersFile)
		tickers = append(universe.Without(tickers, cfg.Benchmark), cfg.Benchmark)
	}
	if err != nil {
		return crawl.Summary{}, err
	}

	jobs := crawl.PlanJobs(tickers, crawl.LoadProgress(cfg.ProgressPath()), cfg.LookbackDays, time.Now().UTC())
	if skipped := len(tickers) - len(jobs); skipped > 0 {
		slog.Info("tickers up to date, jobs to crawl", "skipped", skipped, "jobs", len(jobs))
	} else {
		slog.Info("jobs to crawl", "jobs", len(jobs))
	}
	slog.Info("save dir", "dir", c.Dir.Root, "format", c.Dir.Codec.Extension(), "workers", c.Workers)

	sum, err := c.Run(ctx, jobs)
	slog.Info("crawl done", "success", len(sum.Success), "failed", len(sum.Failed), "bars", sum.TotalBars)
	return sum, err
}
