// Package provider supplies daily bar series to the screener.
package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sepa-screener/internal/model"
)

// DefaultBenchmark is the comparison index used for RS when none is configured.
const DefaultBenchmark = "SPY"

// ErrNoData is returned when a source has no bars for a symbol in the range.
var ErrNoData = errors.New("no data")

// DataProvider is the abstraction used by the application when accessing a data source.
// Implementations own their resources; callers must Close when done.
type DataProvider interface {
	GetName() string
	// FetchSymbol returns ascending daily bars for one symbol in [from, to].
	FetchSymbol(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error)
	// FetchBars fetches many symbols. Symbols without data are absent from the map.
	FetchBars(ctx context.Context, symbols []string, from, to time.Time) (map[string][]model.Bar, error)
	// FetchBenchmark returns the benchmark series for [from, to].
	FetchBenchmark(ctx context.Context, from, to time.Time) ([]model.Bar, error)
	Close() error
}

type symbolFetcher interface {
	FetchSymbol(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error)
}

// fetchAll runs FetchSymbol over symbols with at most workers in flight.
// Per-symbol failures are logged and omitted; only cancellation aborts.
func fetchAll(ctx context.Context, f symbolFetcher, symbols []string, from, to time.Time, workers int, logger *slog.Logger) (map[string][]model.Bar, error) {
	if workers < 1 {
		workers = 1
	}
	type fetched struct {
		symbol string
		bars   []model.Bar
	}
	out := make(chan fetched, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, sym := range symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bars, err := f.FetchSymbol(gctx, sym, from, to)
			switch {
			case err != nil && gctx.Err() != nil:
				return gctx.Err()
			case err != nil:
				logger.Warn("fetch failed", "ticker", sym, "error", err)
			case len(bars) == 0:
				logger.Debug("fetch empty", "ticker", sym)
			default:
				out <- fetched{symbol: sym, bars: bars}
			}
			return nil
		})
	}
	err := g.Wait()
	close(out)
	if err != nil {
		return nil, err
	}

	series := make(map[string][]model.Bar, len(symbols))
	for f := range out {
		series[f.symbol] = f.bars
	}
	return series, nil
}
