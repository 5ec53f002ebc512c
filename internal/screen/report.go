package screen

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/parquet-go/parquet-go"

	"sepa-screener/internal/screener"
)

// ResultRow is the flat, file-friendly form of a screener.Result.
type ResultRow struct {
	Symbol         string  `json:"symbol" parquet:"symbol"`
	AsOf           string  `json:"as_of" parquet:"as_of"`
	Price          float64 `json:"price" parquet:"price"`
	RS             int32   `json:"rs" parquet:"rs"`
	RawRS          float64 `json:"raw_rs" parquet:"raw_rs"`
	Grade          string  `json:"grade" parquet:"grade"`
	PassesTemplate bool    `json:"passes_template" parquet:"passes_template"`
	PassesVCP      bool    `json:"passes_vcp" parquet:"passes_vcp"`
	PassesBreakout bool    `json:"passes_breakout" parquet:"passes_breakout"`
	Criteria       int32   `json:"criteria" parquet:"criteria"`
	SMA50          float64 `json:"sma50" parquet:"sma50"`
	SMA150         float64 `json:"sma150" parquet:"sma150"`
	SMA200         float64 `json:"sma200" parquet:"sma200"`
	ATR14          float64 `json:"atr14" parquet:"atr14"`
	AvgVolume50    float64 `json:"avg_volume50" parquet:"avg_volume50"`
	DollarVolume   float64 `json:"dollar_volume" parquet:"dollar_volume"`
	High52         float64 `json:"high52" parquet:"high52"`
	Low52          float64 `json:"low52" parquet:"low52"`
	PctAboveLow    float64 `json:"pct_above_low" parquet:"pct_above_low"`
	PctBelowHigh   float64 `json:"pct_below_high" parquet:"pct_below_high"`
	PivotHigh      float64 `json:"pivot_high,omitempty" parquet:"pivot_high,optional"`
	BreakoutPct    float64 `json:"breakout_pct,omitempty" parquet:"breakout_pct,optional"`
	VolumeRatio    float64 `json:"volume_ratio,omitempty" parquet:"volume_ratio,optional"`
	BreakoutGrade  string  `json:"breakout_grade,omitempty" parquet:"breakout_grade,optional"`
}

var rowHeader = []string{
	"symbol", "as_of", "price", "rs", "raw_rs", "grade",
	"passes_template", "passes_vcp", "passes_breakout", "criteria",
	"sma50", "sma150", "sma200", "atr14", "avg_volume50", "dollar_volume",
	"high52", "low52", "pct_above_low", "pct_below_high",
	"pivot_high", "breakout_pct", "volume_ratio", "breakout_grade",
}

// Rows flattens results, preserving order.
func Rows(results []screener.Result) []ResultRow {
	rows := make([]ResultRow, len(results))
	for i, r := range results {
		row := ResultRow{
			Symbol:         r.Symbol,
			AsOf:           r.AsOf,
			Price:          r.Price,
			RS:             int32(r.RS),
			RawRS:          r.RawRS,
			Grade:          string(r.Grade),
			PassesTemplate: r.PassesTemplate,
			PassesVCP:      r.PassesVCP,
			PassesBreakout: r.PassesBreakout,
			Criteria:       int32(r.CriteriaCount()),
			SMA50:          r.SMA50,
			SMA150:         r.SMA150,
			SMA200:         r.SMA200,
			ATR14:          r.ATR14,
			AvgVolume50:    r.AvgVolume50,
			DollarVolume:   r.DollarVolume,
			High52:         r.High52,
			Low52:          r.Low52,
			PctAboveLow:    r.PctAboveLow,
			PctBelowHigh:   r.PctBelowHigh,
		}
		if bo := r.Breakout; bo != nil {
			row.PivotHigh = bo.PivotHigh
			row.BreakoutPct = bo.PercentAbove
			row.VolumeRatio = bo.VolumeRatio
			row.BreakoutGrade = string(bo.Grade)
		}
		rows[i] = row
	}
	return rows
}

func (r ResultRow) record() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		r.Symbol, r.AsOf, f(r.Price), strconv.Itoa(int(r.RS)), f(r.RawRS), r.Grade,
		strconv.FormatBool(r.PassesTemplate), strconv.FormatBool(r.PassesVCP),
		strconv.FormatBool(r.PassesBreakout), strconv.Itoa(int(r.Criteria)),
		f(r.SMA50), f(r.SMA150), f(r.SMA200), f(r.ATR14), f(r.AvgVolume50), f(r.DollarVolume),
		f(r.High52), f(r.Low52), f(r.PctAboveLow), f(r.PctBelowHigh),
		f(r.PivotHigh), f(r.BreakoutPct), f(r.VolumeRatio), r.BreakoutGrade,
	}
}

// WriteResults saves results to {dir}/results.{format} (csv, json, parquet).
func WriteResults(dir, format string, results []screener.Result) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "results."+format)
	rows := Rows(results)

	var err error
	switch format {
	case "csv":
		err = writeCSV(path, rows)
	case "json":
		err = writeJSON(path, rows)
	case "parquet":
		err = parquet.WriteFile(path, rows)
	default:
		return "", fmt.Errorf("unsupported OUTPUT_FORMAT %q (use: csv, parquet, json)", format)
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func writeCSV(path string, rows []ResultRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(rowHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteRunReport writes .lastrun.success.json (symbols with a result) and
// .lastrun.failed.json (symbol + reason) into dir. An empty list removes its
// file so a clean run does not keep the previous run's failures.
func WriteRunReport(dir string, b *Batch) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	symbols := make([]string, len(b.Results))
	for i, r := range b.Results {
		symbols[i] = r.Symbol
	}
	if err := writeReportFile(filepath.Join(dir, ".lastrun.success.json"), symbols, len(symbols)); err != nil {
		return err
	}
	return writeReportFile(filepath.Join(dir, ".lastrun.failed.json"), b.Failed, len(b.Failed))
}

func writeReportFile(path string, v any, n int) error {
	if n == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := writeJSON(path, v); err != nil {
		return err
	}
	slog.Info("report written", "path", path, "entries", n)
	return nil
}

// PrintTable writes the top n results (all when n <= 0) as an aligned table.
func PrintTable(w io.Writer, results []screener.Result, n int) error {
	if n <= 0 || n > len(results) {
		n = len(results)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tRS\tGRADE\tPRICE\tCRIT\tTEMPLATE\tVCP\tBREAKOUT\t%BELOW HIGH")
	for _, r := range results[:n] {
		bo := "-"
		if r.Breakout != nil {
			bo = fmt.Sprintf("%s +%.1f%% %.1fx", r.Breakout.Grade, r.Breakout.PercentAbove*100, r.Breakout.VolumeRatio)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%.2f\t%d/7\t%s\t%s\t%s\t%.1f%%\n",
			r.Symbol, r.RS, r.Grade, r.Price, r.CriteriaCount(),
			mark(r.PassesTemplate), mark(r.PassesVCP), bo, r.PctBelowHigh*100)
	}
	return tw.Flush()
}

func mark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}

// Summary returns "A=1 B=3 ..." counts in grade order, skipping zero counts.
func Summary(results []screener.Result) string {
	counts := map[screener.Grade]int{}
	for _, r := range results {
		counts[r.Grade]++
	}
	var parts []string
	for _, g := range []screener.Grade{screener.GradeA, screener.GradeB, screener.GradeC, screener.GradeD, screener.GradeNA} {
		if counts[g] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", g, counts[g]))
		}
	}
	return strings.Join(parts, " ")
}
