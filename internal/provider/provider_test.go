package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"sepa-screener/internal/model"
	"sepa-screener/internal/model/modeltest"
	"sepa-screener/internal/provider/polygon"
	"sepa-screener/internal/store"
)

type fakeFetcher struct {
	calls atomic.Int32
	fn    func(symbol string) ([]model.Bar, error)
}

func (f *fakeFetcher) FetchSymbol(_ context.Context, symbol string, _, _ time.Time) ([]model.Bar, error) {
	f.calls.Add(1)
	return f.fn(symbol)
}

func TestFetchAll_OmitsFailures(t *testing.T) {
	f := &fakeFetcher{fn: func(symbol string) ([]model.Bar, error) {
		switch symbol {
		case "BAD":
			return nil, errors.New("boom")
		case "EMPTY":
			return nil, nil
		default:
			return modeltest.Flat(3, 10, 100), nil
		}
	}}
	got, err := fetchAll(context.Background(), f, []string{"AAA", "BAD", "EMPTY", "BBB"}, time.Time{}, time.Time{}, 2, slog.Default())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "AAA")
	assert.Contains(t, got, "BBB")
	assert.Equal(t, int32(4), f.calls.Load())
}

func TestFetchAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeFetcher{fn: func(string) ([]model.Bar, error) { return nil, context.Canceled }}
	_, err := fetchAll(ctx, f, []string{"AAA", "BBB"}, time.Time{}, time.Time{}, 1, slog.Default())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInRange(t *testing.T) {
	bars := modeltest.Flat(10, 10, 100) // 2023-01-02 .. 2023-01-13
	from := time.Date(2023, 1, 4, 15, 0, 0, 0, time.UTC)
	to := time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)
	got := InRange(bars, from, to)
	require.Len(t, got, 4)
	assert.Equal(t, "2023-01-04", got[0].Date())
	assert.Equal(t, "2023-01-09", got[3].Date())
	assert.Empty(t, InRange(bars, to, from))
}

func TestPacketProvider(t *testing.T) {
	root := t.TempDir()
	dir, err := store.NewDir(root, "json")
	require.NoError(t, err)
	require.NoError(t, dir.Save("AAPL", modeltest.Flat(20, 150, 1_000_000)))
	require.NoError(t, dir.Save("SPY", modeltest.Flat(20, 400, 50_000_000)))

	p, err := NewPacketProvider(root, "json", "", 2)
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, "Packets", p.GetName())

	syms, err := p.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "SPY"}, syms)

	from := modeltest.Start
	to := modeltest.Start.AddDate(0, 0, 6)
	got, err := p.FetchBars(context.Background(), []string{"AAPL", "MSFT"}, from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got["AAPL"], 5)

	bench, err := p.FetchBenchmark(context.Background(), from, to)
	require.NoError(t, err)
	assert.Len(t, bench, 5)
	assert.Equal(t, 400.0, bench[0].Close)

	_, err = p.FetchSymbol(context.Background(), "MSFT", from, to)
	assert.ErrorIs(t, err, store.ErrNoPacket)

	_, err = p.FetchSymbol(context.Background(), "AAPL", from.AddDate(2, 0, 0), to.AddDate(2, 0, 0))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestNewPacketProvider_BadFormat(t *testing.T) {
	_, err := NewPacketProvider(t.TempDir(), "xml", "", 1)
	assert.Error(t, err)
}

func TestPolygonProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		ticker := parts[4]
		w.Header().Set("Content-Type", "application/json")
		if ticker == "NONE" {
			fmt.Fprint(w, `{"status":"OK","results":[]}`)
			return
		}
		fmt.Fprintf(w, `{"status":"OK","ticker":%q,"results":[{"t":1704153600000,"o":1,"h":2,"l":0.5,"c":1.5,"v":100}]}`, ticker)
	}))
	defer srv.Close()

	p, err := NewPolygonProvider([]string{"k1", "k2"}, "qqq", 0,
		polygon.WithBaseURL(srv.URL), polygon.WithKeyLimit(rate.Inf), polygon.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 2, p.Workers())

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	got, err := p.FetchBars(context.Background(), []string{"AAPL", "NONE", "MSFT"}, from, to)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NotContains(t, got, "NONE")

	bench, err := p.FetchBenchmark(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, bench, 1)

	_, err = p.FetchSymbol(context.Background(), "none", from, to)
	assert.ErrorIs(t, err, ErrNoData)
}
