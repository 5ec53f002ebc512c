package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sepa-screener/internal/model"
	"sepa-screener/internal/store"
)

// PacketProvider serves bars from a packet directory written by the fetch
// command, so screens can run offline.
type PacketProvider struct {
	dir       *store.Dir
	benchmark string
	workers   int
	logger    *slog.Logger
}

// NewPacketProvider reads packets of format from root.
func NewPacketProvider(root, format, benchmark string, workers int) (*PacketProvider, error) {
	dir, err := store.NewDir(root, format)
	if err != nil {
		return nil, err
	}
	if benchmark == "" {
		benchmark = DefaultBenchmark
	}
	if workers <= 0 {
		workers = 4
	}
	return &PacketProvider{dir: dir, benchmark: strings.ToUpper(benchmark), workers: workers, logger: slog.Default()}, nil
}

func (p *PacketProvider) GetName() string {
	return "Packets"
}

// Symbols lists symbols with a stored packet.
func (p *PacketProvider) Symbols() ([]string, error) {
	return p.dir.Symbols()
}

func (p *PacketProvider) FetchSymbol(_ context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	bars, err := p.dir.Load(symbol)
	if err != nil {
		return nil, err
	}
	bars = InRange(bars, from, to)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

func (p *PacketProvider) FetchBars(ctx context.Context, symbols []string, from, to time.Time) (map[string][]model.Bar, error) {
	return fetchAll(ctx, p, symbols, from, to, p.workers, p.logger)
}

func (p *PacketProvider) FetchBenchmark(ctx context.Context, from, to time.Time) ([]model.Bar, error) {
	bars, err := p.FetchSymbol(ctx, p.benchmark, from, to)
	if err != nil {
		return nil, fmt.Errorf("benchmark %s: %w", p.benchmark, err)
	}
	return bars, nil
}

func (p *PacketProvider) Close() error {
	return nil
}

// InRange returns the bars whose session date falls in [from, to].
func InRange(bars []model.Bar, from, to time.Time) []model.Bar {
	lo := dayKey(from)
	hi := dayKey(to)
	out := make([]model.Bar, 0, len(bars))
	for _, b := range bars {
		if k := b.DayKey(); k >= lo && k <= hi {
			out = append(out, b)
		}
	}
	return out
}

func dayKey(t time.Time) int {
	t = t.UTC()
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
