package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sepa-screener/internal/crawl"
	"sepa-screener/internal/model"
	"sepa-screener/internal/model/modeltest"
	"sepa-screener/internal/provider"
	"sepa-screener/internal/provider/polygon"
	"sepa-screener/internal/screener"
	"sepa-screener/internal/store"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"DATA_PROVIDER", "POLYGON_API_KEYS", "POLYGON_API_KEY", "SAVE_FORMAT", "PROFILE",
		"LOOKBACK_DAYS", "BENCHMARK", "RUN_HOUR", "WORKERS", "OUTPUT_FORMAT", "DATA_DIR"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, "polygon", cfg.DataProvider)
	assert.Equal(t, "SPY", cfg.Benchmark)
	assert.Equal(t, "parquet", cfg.SaveFormat)
	assert.Equal(t, "csv", cfg.OutputFormat)
	assert.Equal(t, 550, cfg.LookbackDays)
	assert.Equal(t, 22, cfg.RunHour)
	assert.Zero(t, cfg.Workers)
	assert.Nil(t, cfg.PolygonAPIKeys)
	assert.Equal(t, filepath.Join("data", "Polygon", ".lastday.json"), cfg.ProgressPath())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("DATA_PROVIDER", "Packets")
	t.Setenv("POLYGON_API_KEYS", " k1, ,k2 ")
	t.Setenv("PROFILE", "dev")
	t.Setenv("SAVE_FORMAT", "")
	t.Setenv("BENCHMARK", "qqq")
	t.Setenv("LOOKBACK_DAYS", "800")
	t.Setenv("RUN_HOUR", "99")
	t.Setenv("WORKERS", "abc")
	cfg := LoadConfig()
	assert.Equal(t, "packets", cfg.DataProvider)
	assert.Equal(t, []string{"k1", "k2"}, cfg.PolygonAPIKeys)
	assert.Equal(t, "csv", cfg.SaveFormat)
	assert.Equal(t, "QQQ", cfg.Benchmark)
	assert.Equal(t, 800, cfg.LookbackDays)
	assert.Equal(t, 22, cfg.RunHour, "out of range falls back")
	assert.Zero(t, cfg.Workers, "unparsable falls back")
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{LookbackDays: DefaultLookbackDays}
	require.NoError(t, cfg.Validate())

	for _, days := range []int{0, -5, MinLookbackDays - 1, MaxLookbackDays + 1} {
		cfg.LookbackDays = days
		assert.ErrorContains(t, cfg.Validate(), "lookback", "days=%d", days)
	}
	cfg.LookbackDays = MinLookbackDays
	cfg.Workers = -1
	assert.ErrorContains(t, cfg.Validate(), "workers")
}

func TestWindow(t *testing.T) {
	cfg := &Config{LookbackDays: 10}
	from, to := cfg.Window(time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), to)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), from)
}

func TestNextRunTime(t *testing.T) {
	before := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC), NextRunTime(before, 22, 30))
	at := time.Date(2024, 3, 15, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 16, 22, 30, 0, 0, time.UTC), NextRunTime(at, 22, 30))
}

func TestCreateProvider(t *testing.T) {
	_, err := CreateProvider(&Config{DataProvider: "polygon"})
	assert.ErrorIs(t, err, polygon.ErrNoKeys)

	dp, err := CreateProvider(&Config{DataProvider: "polygon", PolygonAPIKeys: []string{"k"}, Benchmark: "SPY"})
	require.NoError(t, err)
	assert.IsType(t, &provider.PolygonProvider{}, dp)
	require.NoError(t, dp.Close())

	dp, err = CreateProvider(&Config{DataProvider: "packets", DataDir: t.TempDir(), SaveFormat: "json"})
	require.NoError(t, err)
	assert.Equal(t, "Packets", dp.GetName())

	_, err = CreateProvider(&Config{DataProvider: "yahoo"})
	assert.ErrorContains(t, err, "unsupported data provider")
}

func packetConfig(t *testing.T) *Config {
	t.Helper()
	root := t.TempDir()
	cfg := &Config{
		DataProvider: "packets",
		DataDir:      root,
		SaveFormat:   "json",
		OutputDir:    filepath.Join(root, "out"),
		OutputFormat: "json",
		Benchmark:    "SPY",
		LookbackDays: 20000,
		Workers:      2,
		Top:          5,
		LogLevel:     "error",
	}
	dir, err := store.NewDir(cfg.PacketDir(), cfg.SaveFormat)
	require.NoError(t, err)
	for sym, bars := range map[string][]model.Bar{
		"UP":  modeltest.Geometric(300, 50, 0.004, 0.01, 1_000_000),
		"F1":  modeltest.Flat(300, 50, 1_000_000),
		"F2":  modeltest.Flat(300, 60, 1_000_000),
		"SPY": modeltest.Flat(300, 400, 50_000_000),
	} {
		require.NoError(t, dir.Save(sym, bars))
	}
	cfg.TickersFile = filepath.Join(root, "tickers.txt")
	require.NoError(t, os.WriteFile(cfg.TickersFile, []byte("UP\nF1\nF2\nSPY\nGONE\n"), 0644))
	return cfg
}

func TestScreen_Packets(t *testing.T) {
	cfg := packetConfig(t)
	dp, cleanup, err := ProvideDataProvider(cfg)
	require.NoError(t, err)
	defer cleanup()
	th, err := ProvideThresholds(cfg)
	require.NoError(t, err)
	r := ProvideRunner(cfg, th, ProvideMetrics())
	r.LogOut = io.Discard

	var out bytes.Buffer
	b, err := Screen(context.Background(), cfg, dp, r, &out)
	require.NoError(t, err)
	require.Len(t, b.Results, 3)
	assert.Equal(t, "UP", b.Results[0].Symbol)
	assert.Equal(t, screener.GradeC, b.Results[0].Grade)
	require.Len(t, b.Failed, 1)
	assert.Equal(t, "GONE", b.Failed[0].Symbol)

	assert.FileExists(t, filepath.Join(cfg.OutputDir, "results.json"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, ".lastrun.failed.json"))
	assert.Contains(t, out.String(), "UP")
}

func TestFetch_RejectsPackets(t *testing.T) {
	cfg := packetConfig(t)
	dp, cleanup, err := ProvideDataProvider(cfg)
	require.NoError(t, err)
	defer cleanup()
	dir, err := ProvidePacketDir(cfg)
	require.NoError(t, err)
	_, err = Fetch(context.Background(), cfg, dp, ProvideCrawler(cfg, dp, dir), false)
	assert.ErrorIs(t, err, ErrFetchNeedsPolygon)
}

type stubSource struct{ bars []model.Bar }

func (s stubSource) FetchSymbol(_ context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	return provider.InRange(s.bars, from, to), nil
}

func TestFetch_SavesUniverseAndBenchmark(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{DataDir: root, SaveFormat: "csv", Benchmark: "SPY", LookbackDays: 5}
	cfg.TickersFile = filepath.Join(root, "t.txt")
	require.NoError(t, os.WriteFile(cfg.TickersFile, []byte("AAA\nspy\n"), 0644))

	today := time.Now().UTC().Truncate(24 * time.Hour)
	bars := []model.Bar{{Timestamp: today.AddDate(0, 0, -1).UnixMilli(), Close: 1, Volume: 10}}

	dir, err := ProvidePacketDir(cfg)
	require.NoError(t, err)
	c := &crawl.Crawler{Source: stubSource{bars: bars}, Dir: dir, Workers: 1, ProgressPath: cfg.ProgressPath(), LogOut: io.Discard}

	sum, err := Fetch(context.Background(), cfg, nil, c, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "SPY"}, sum.Success)
	assert.FileExists(t, dir.Path("SPY"))

	// Both tickers are now current through yesterday, so nothing is planned.
	sum, err = Fetch(context.Background(), cfg, nil, c, false)
	require.NoError(t, err)
	assert.Empty(t, sum.Success)
}

func TestRunFlow_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	finished := make(chan struct{})
	go func() {
		RunFlow(ctx, &Config{RunHour: 0, RunMinute: 0}, func(context.Context) error {
			runs.Add(1)
			return nil
		})
		close(finished)
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("RunFlow did not return after cancel")
	}
	assert.Equal(t, int32(1), runs.Load())
}
