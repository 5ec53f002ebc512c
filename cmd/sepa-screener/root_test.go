package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sepa-screener/internal/app"
	"sepa-screener/internal/model/modeltest"
	"sepa-screener/internal/store"
)

func TestFlagsOverrideEnv(t *testing.T) {
	cfg := &app.Config{DataProvider: "polygon", Top: 25, OutputFormat: "csv", LookbackDays: 550}
	root := newRootCmd(cfg)
	cmd, _, err := root.Find([]string{"screen"})
	require.NoError(t, err)
	require.NoError(t, cmd.ParseFlags([]string{"--provider", "packets", "--top", "3", "--output-format", "json", "--lookback", "900"}))

	assert.Equal(t, "packets", cfg.DataProvider)
	assert.Equal(t, 3, cfg.Top)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, 900, cfg.LookbackDays)
}

func TestScreenCommand_Packets(t *testing.T) {
	root := t.TempDir()
	dir, err := store.NewDir(filepath.Join(root, "Polygon"), "csv")
	require.NoError(t, err)
	require.NoError(t, dir.Save("SPY", modeltest.Flat(300, 400, 50_000_000)))
	require.NoError(t, dir.Save("UP", modeltest.Geometric(300, 50, 0.004, 0.01, 1_000_000)))

	tickers := filepath.Join(root, "tickers.txt")
	require.NoError(t, os.WriteFile(tickers, []byte("UP\n"), 0644))

	cfg := &app.Config{Benchmark: "SPY", RunHour: 22, RunMinute: 30}
	cmd := newRootCmd(cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"screen",
		"--provider", "packets",
		"--data-dir", root,
		"--save-format", "csv",
		"--lookback", "20000",
		"--log-level", "error",
		"--output-dir", filepath.Join(root, "out"),
		"--output-format", "csv",
		"--top", "10",
		"--tickers", tickers,
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.FileExists(t, filepath.Join(root, "out", "results.csv"))
	assert.Contains(t, out.String(), "SYMBOL")
	assert.Contains(t, out.String(), "UP")
}

func TestFetchCommand_RejectsPackets(t *testing.T) {
	cfg := &app.Config{Benchmark: "SPY", LookbackDays: app.DefaultLookbackDays}
	cmd := newRootCmd(cfg)
	cmd.SetArgs([]string{"fetch", "--provider", "packets", "--data-dir", t.TempDir(), "--save-format", "json", "--log-level", "error"})
	assert.ErrorIs(t, cmd.ExecuteContext(context.Background()), app.ErrFetchNeedsPolygon)
}

func TestScreenCommand_RejectsBadLookback(t *testing.T) {
	for _, v := range []string{"0", "-30"} {
		cmd := newRootCmd(&app.Config{Benchmark: "SPY", DataProvider: "packets", SaveFormat: "json", LookbackDays: 550})
		cmd.SetArgs([]string{"screen", "--lookback", v, "--data-dir", t.TempDir(), "--log-level", "error"})
		assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "lookback", v)
	}
}
