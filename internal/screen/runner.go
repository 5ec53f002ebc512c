// Package screen runs a screening batch: phase one fans out over a worker
// pool, results are collected, then phase two ranks and grades the batch.
package screen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"sepa-screener/internal/metrics"
	"sepa-screener/internal/model"
	"sepa-screener/internal/provider"
	"sepa-screener/internal/screener"
	"sepa-screener/internal/slogx"
)

// Failure records a symbol that could not be evaluated.
type Failure struct {
	Symbol string `json:"ticker"`
	Reason string `json:"reason"`
}

// Batch is the outcome of one run.
type Batch struct {
	AsOf     string            `json:"as_of"`
	Results  []screener.Result `json:"results"` // sorted by RS descending
	NoResult []string          `json:"no_result"`
	Failed   []Failure         `json:"failed"`
	Elapsed  time.Duration     `json:"elapsed"`
}

// Runner evaluates symbols concurrently and finalizes the batch.
type Runner struct {
	Config   screener.Config
	Workers  int
	Metrics  *metrics.Metrics
	LogLevel string
	LogOut   io.Writer
}

// NewRunner returns a Runner with one worker per CPU.
func NewRunner(cfg screener.Config, m *metrics.Metrics, logLevel string) *Runner {
	return &Runner{Config: cfg, Workers: runtime.NumCPU(), Metrics: m, LogLevel: logLevel, LogOut: os.Stderr}
}

// Run fetches the benchmark and every symbol from dp over [from, to], then evaluates.
func (r *Runner) Run(ctx context.Context, dp provider.DataProvider, symbols []string, from, to time.Time) (*Batch, error) {
	start := time.Now()
	bench, err := dp.FetchBenchmark(ctx, from, to)
	if err != nil {
		return nil, err
	}
	series, err := dp.FetchBars(ctx, symbols, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	r.Metrics.ObservePhase("fetch", time.Since(start))
	slog.Info("fetched", "provider", dp.GetName(), "symbols", len(series), "requested", len(symbols), "benchmark_bars", len(bench))
	return r.Evaluate(ctx, symbols, series, bench)
}

type outcome struct {
	index  int
	symbol string
	cand   *screener.Candidate
	err    error
}

// Evaluate runs phase one for symbols in parallel, then phase two once all
// candidates are in. Symbols absent from series are reported as failed.
func (r *Runner) Evaluate(ctx context.Context, symbols []string, series map[string][]model.Bar, benchmark []model.Bar) (*Batch, error) {
	start := time.Now()
	out := r.LogOut
	if out == nil {
		out = os.Stderr
	}
	fan := slogx.NewFanIn(out, r.LogLevel, 0)
	defer fan.Close()
	logger := fan.Logger

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, len(symbols))
	for i := range symbols {
		jobs <- i
	}
	close(jobs)
	results := make(chan outcome, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				sym := symbols[i]
				bars, ok := series[sym]
				if !ok || len(bars) == 0 {
					results <- outcome{index: i, symbol: sym, err: provider.ErrNoData}
					continue
				}
				cand, err := evaluateSafe(sym, bars, benchmark, r.Config)
				if err != nil {
					logger.Error("evaluate failed", "ticker", sym, "error", err)
				} else {
					logger.Debug("evaluated", "ticker", sym, "candidate", cand != nil)
				}
				results <- outcome{index: i, symbol: sym, cand: cand, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var collected []outcome
	b := &Batch{}
	for o := range results {
		switch {
		case errors.Is(o.err, provider.ErrNoData):
			b.Failed = append(b.Failed, Failure{Symbol: o.symbol, Reason: "no data"})
			r.Metrics.RecordSymbol(metrics.OutcomeNoData)
		case o.err != nil:
			b.Failed = append(b.Failed, Failure{Symbol: o.symbol, Reason: o.err.Error()})
			r.Metrics.RecordSymbol(metrics.OutcomeFailed)
		case o.cand == nil:
			b.NoResult = append(b.NoResult, o.symbol)
			r.Metrics.RecordSymbol(metrics.OutcomeNoResult)
		default:
			collected = append(collected, o)
			r.Metrics.RecordSymbol(metrics.OutcomeEvaluated)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.Metrics.ObservePhase("evaluate", time.Since(start))

	// Rank ties resolve by input order, so restore it before phase two.
	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })
	cands := make([]screener.Candidate, len(collected))
	for i, o := range collected {
		cands[i] = *o.cand
		if o.cand.AsOf > b.AsOf {
			b.AsOf = o.cand.AsOf
		}
	}
	sort.Strings(b.NoResult)
	sort.Slice(b.Failed, func(i, j int) bool { return b.Failed[i].Symbol < b.Failed[j].Symbol })

	rankStart := time.Now()
	b.Results = screener.PostProcess(cands, r.Config)
	SortByRS(b.Results)
	r.Metrics.ObservePhase("rank", time.Since(rankStart))
	r.Metrics.RecordResults(b.Results, time.Now())

	b.Elapsed = time.Since(start)
	logger.Info("batch done",
		"results", len(b.Results), "no_result", len(b.NoResult), "failed", len(b.Failed),
		"elapsed", b.Elapsed.Round(time.Millisecond))
	return b, nil
}

var evaluate = screener.Evaluate

// evaluateSafe turns a panic in one symbol's evaluation into an error so the
// rest of the batch still completes.
func evaluateSafe(symbol string, bars, benchmark []model.Bar, cfg screener.Config) (c *screener.Candidate, err error) {
	defer func() {
		if p := recover(); p != nil {
			c, err = nil, fmt.Errorf("panic evaluating %s: %v", symbol, p)
		}
	}()
	return evaluate(symbol, bars, benchmark, cfg)
}

// SortByRS orders results by RS rating, highest first. Equal ratings keep
// their relative order.
func SortByRS(results []screener.Result) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].RS > results[j].RS })
}
