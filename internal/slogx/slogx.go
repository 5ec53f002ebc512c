// Package slogx builds the slog loggers used across the screener.
package slogx

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// ParseLevel converts string (debug|info|warn|error) to slog.Level. Unknown → info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewDefault creates a text logger writing to stderr with the given level string.
func NewDefault(level string) *slog.Logger {
	return New(os.Stderr, level)
}

// New creates a text logger writing to w.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// ChanWriter buffers writes and sends complete lines to a channel.
// Lines are dropped rather than blocking when the channel is full.
type ChanWriter struct {
	Ch      chan<- string
	buf     []byte
	dropped atomic.Int64
}

func (w *ChanWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := string(w.buf[:i])
		w.buf = w.buf[i+1:]
		select {
		case w.Ch <- line:
		default:
			w.dropped.Add(1)
		}
	}
	return len(p), nil
}

// Dropped reports how many lines were discarded on a full channel.
func (w *ChanWriter) Dropped() int64 {
	return w.dropped.Load()
}

// FanIn gives worker goroutines a logger whose lines are funnelled through a
// channel and printed by a single writer goroutine.
type FanIn struct {
	Logger *slog.Logger

	lines  chan string
	writer *ChanWriter
	wg     sync.WaitGroup
	once   sync.Once
}

// NewFanIn starts the writer goroutine draining into out. Call Close to flush.
func NewFanIn(out io.Writer, level string, buffer int) *FanIn {
	if buffer <= 0 {
		buffer = 2048
	}
	lines := make(chan string, buffer)
	cw := &ChanWriter{Ch: lines}
	f := &FanIn{
		Logger: slog.New(slog.NewTextHandler(cw, &slog.HandlerOptions{Level: ParseLevel(level)})),
		lines:  lines,
		writer: cw,
	}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for s := range lines {
			fmt.Fprintln(out, s)
		}
	}()
	return f
}

// Close stops accepting lines and waits until every queued line is written.
// The logger must not be used afterwards.
func (f *FanIn) Close() {
	f.once.Do(func() {
		close(f.lines)
		f.wg.Wait()
	})
}

// Dropped reports lines lost to a full buffer.
func (f *FanIn) Dropped() int64 {
	return f.writer.Dropped()
}
