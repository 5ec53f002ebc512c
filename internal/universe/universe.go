// Package universe resolves the list of symbols a run screens.
package universe

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

//go:embed universe.txt
var defaultList string

// Default returns the curated universe compiled into the binary.
func Default() []string {
	return normalize(parseText(defaultList))
}

// LoadFile reads a list of tickers from a file.
// Supported formats:
//   - .txt  : one ticker per line, '#' lines are treated as comments
//   - .json : JSON array of strings
func LoadFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tickers file %s: %w", path, err)
	}

	var tickers []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(content, &tickers); err != nil {
			return nil, fmt.Errorf("parse JSON %s: %w", path, err)
		}
	case ".txt", "":
		tickers = parseText(string(content))
	default:
		return nil, fmt.Errorf("unsupported ticker file extension %q (use .txt or .json)", filepath.Ext(path))
	}

	out := normalize(tickers)
	if len(out) == 0 {
		return nil, fmt.Errorf("tickers file %s is empty", path)
	}
	slog.Info("loaded tickers from file", "count", len(out), "path", path)
	return out, nil
}

// Load returns the tickers in path, or the default universe when path is empty.
// A named file that cannot be read is an error, not a silent fallback.
func Load(path string) ([]string, error) {
	if path == "" {
		tickers := Default()
		slog.Info("using built-in universe", "count", len(tickers))
		return tickers, nil
	}
	return LoadFile(path)
}

// Without returns tickers minus the excluded symbols, preserving order.
func Without(tickers []string, exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[strings.ToUpper(e)] = true
	}
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if !skip[t] {
			out = append(out, t)
		}
	}
	return out
}

func parseText(s string) []string {
	var tickers []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			tickers = append(tickers, line)
		}
	}
	return tickers
}

// normalize uppercases, trims and dedupes, keeping first occurrence order.
func normalize(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
