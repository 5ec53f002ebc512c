package crawl

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	successReport = ".lastrun.success.json"
	failedReport  = ".lastrun.failed.json"
)

// Failure is one failed job in the run report.
type Failure struct {
	Ticker    string `json:"ticker"`
	DateRange string `json:"date_range"`
	Reason    string `json:"reason"`
}

// writeRunReport replaces the previous run's success and failure lists in dir.
// An empty list removes its file so stale failures do not linger.
func writeRunReport(dir string, success []string, failed []Failure) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Ticker < failed[j].Ticker })
	for name, list := range map[string]any{successReport: success, failedReport: failed} {
		p := filepath.Join(dir, name)
		n := lenOf(list)
		if n == 0 {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			continue
		}
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(p, data, 0644); err != nil {
			return err
		}
		slog.Info("report written", "path", p, "entries", n)
	}
	return nil
}

func lenOf(list any) int {
	switch l := list.(type) {
	case []string:
		return len(l)
	case []Failure:
		return len(l)
	}
	return 0
}

// ReadFailed returns the tickers listed in dir's last failure report.
func ReadFailed(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, failedReport))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var failed []Failure
	if err := json.Unmarshal(data, &failed); err != nil {
		return nil, fmt.Errorf("parse %s: %w", failedReport, err)
	}
	tickers := make([]string, 0, len(failed))
	for _, f := range failed {
		tickers = append(tickers, f.Ticker)
	}
	return tickers, nil
}

// joinFailedReasons summarizes the first few failures for a log line.
func joinFailedReasons(failed []Failure) string {
	const shown = 5
	parts := make([]string, 0, shown+1)
	for i, f := range failed {
		if i == shown {
			parts = append(parts, fmt.Sprintf("(+%d more)", len(failed)-shown))
			break
		}
		parts = append(parts, f.Ticker+": "+f.Reason)
	}
	return strings.Join(parts, "; ")
}
