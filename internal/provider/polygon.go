package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sepa-screener/internal/model"
	"sepa-screener/internal/provider/polygon"
)

// PolygonProvider is a DataProvider backed by the Polygon aggregates API.
type PolygonProvider struct {
	client    *polygon.Client
	benchmark string
	workers   int
	logger    *slog.Logger
}

// NewPolygonProvider creates a Polygon-backed DataProvider. Workers default to
// one per API key.
func NewPolygonProvider(apiKeys []string, benchmark string, workers int, opts ...polygon.Option) (*PolygonProvider, error) {
	client, err := polygon.NewClient(apiKeys, opts...)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = client.Keys()
	}
	if benchmark == "" {
		benchmark = DefaultBenchmark
	}
	return &PolygonProvider{
		client:    client,
		benchmark: strings.ToUpper(benchmark),
		workers:   workers,
		logger:    slog.Default(),
	}, nil
}

// SetLogger routes per-symbol diagnostics to l (e.g. a fan-in channel logger).
func (p *PolygonProvider) SetLogger(l *slog.Logger) {
	if l != nil {
		p.logger = l
	}
}

// GetName returns provider name
func (p *PolygonProvider) GetName() string {
	return "Polygon"
}

// Workers returns the fetch concurrency.
func (p *PolygonProvider) Workers() int {
	return p.workers
}

func (p *PolygonProvider) FetchSymbol(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	bars, err := p.client.DailyBars(ctx, strings.ToUpper(symbol), from, to)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

func (p *PolygonProvider) FetchBars(ctx context.Context, symbols []string, from, to time.Time) (map[string][]model.Bar, error) {
	return fetchAll(ctx, p, symbols, from, to, p.workers, p.logger)
}

func (p *PolygonProvider) FetchBenchmark(ctx context.Context, from, to time.Time) ([]model.Bar, error) {
	bars, err := p.FetchSymbol(ctx, p.benchmark, from, to)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", p.benchmark, err)
	}
	return bars, nil
}

// Close releases the HTTP client's idle connections.
func (p *PolygonProvider) Close() error {
	return p.client.Close()
}
