package crawl

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// ProgressUpdate is sent when a ticker crawl succeeds
type ProgressUpdate struct {
	Ticker string
	Date   string // last stored session, 2006-01-02
}

// LoadProgress reads the ticker → last stored date map. A missing or corrupt
// file yields an empty map, which plans a full refetch.
func LoadProgress(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]string)
	}
	return m
}

// RunProgressWriter receives updates and persists to file until updates is closed.
func RunProgressWriter(path string, updates <-chan ProgressUpdate) {
	m := LoadProgress(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		slog.Warn("progress dir error", "error", err)
	}
	for u := range updates {
		if prev, ok := m[u.Ticker]; ok && prev > u.Date {
			continue
		}
		m[u.Ticker] = u.Date
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			slog.Warn("progress marshal error", "error", err)
			continue
		}
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0644); err != nil {
			slog.Warn("progress write error", "error", err)
			continue
		}
		if err := os.Rename(tmp, path); err != nil {
			slog.Warn("progress rename error", "error", err)
		}
	}
}
