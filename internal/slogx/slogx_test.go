package slogx

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown", "ticker", "AAPL")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "ticker=AAPL")
}

func TestChanWriter_SplitsLines(t *testing.T) {
	ch := make(chan string, 1)
	w := &ChanWriter{Ch: ch}
	n, err := w.Write([]byte("one\ntw"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "one", <-ch)

	_, _ = w.Write([]byte("o\nthree\n"))
	assert.Equal(t, "two", <-ch)
	assert.Equal(t, int64(1), w.Dropped())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func TestFanIn(t *testing.T) {
	var out syncBuffer
	f := NewFanIn(&out, "info", 1024)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				f.Logger.Info("evaluated", "worker", i)
			}
		}()
	}
	wg.Wait()
	f.Close()
	f.Close()

	lines := strings.Split(strings.TrimSpace(out.buf.String()), "\n")
	assert.Len(t, lines, 80)
	assert.Zero(t, f.Dropped())
}
