// Package crawl downloads daily bars for a universe and keeps the packet
// directory current, so screens can run offline.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"sepa-screener/internal/model"
	"sepa-screener/internal/provider"
	"sepa-screener/internal/slogx"
	"sepa-screener/internal/store"
)

// Job represents one fetch unit (ticker + date range)
type Job struct {
	Ticker string
	From   time.Time
	To     time.Time
	// Incremental jobs merge into an existing packet instead of replacing it.
	Incremental bool
}

// DateRange formats the job window as from..to.
func (j Job) DateRange() string {
	return j.From.Format("2006-01-02") + ".." + j.To.Format("2006-01-02")
}

// JobResult is sent by workers for fan-in
type JobResult struct {
	Ok        bool
	Ticker    string
	DateRange string
	Reason    string
	Bars      int
}

// Source fetches one symbol's daily bars; provider.DataProvider satisfies it.
type Source interface {
	FetchSymbol(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error)
}

// PlanJobs returns jobs: no progress → full lookback window; has progress →
// gap (lastdate+1..today). Tickers already current through yesterday are skipped.
func PlanJobs(tickers []string, progress map[string]string, lookbackDays int, now time.Time) []Job {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	var jobs []Job
	for _, t := range tickers {
		last, ok := progress[t]
		if !ok {
			jobs = append(jobs, Job{Ticker: t, From: today.AddDate(0, 0, -lookbackDays), To: today})
			continue
		}
		lastDay, err := time.ParseInLocation("2006-01-02", last, time.UTC)
		if err != nil {
			jobs = append(jobs, Job{Ticker: t, From: today.AddDate(0, 0, -lookbackDays), To: today})
			continue
		}
		if !lastDay.Before(yesterday) {
			continue
		}
		jobs = append(jobs, Job{Ticker: t, From: lastDay.AddDate(0, 0, 1), To: today, Incremental: true})
	}
	return jobs
}

// Summary reports one crawl run.
type Summary struct {
	Success   []string
	Failed    []Failure
	TotalBars int
}

// Crawler runs fetch jobs over a worker pool and saves packets.
type Crawler struct {
	Source       Source
	Dir          *store.Dir
	Workers      int
	ProgressPath string
	Heartbeat    time.Duration
	LogLevel     string
	LogOut       io.Writer
}

// Run executes jobs and writes the run report into the packet root.
func (c *Crawler) Run(ctx context.Context, jobs []Job) (Summary, error) {
	if len(jobs) == 0 {
		slog.Info("no jobs to crawl, skip")
		return Summary{}, nil
	}
	out := c.LogOut
	if out == nil {
		out = os.Stderr
	}
	fan := slogx.NewFanIn(out, c.LogLevel, 0)
	defer fan.Close()
	logger := fan.Logger

	progressUpdates := make(chan ProgressUpdate, len(jobs))
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		RunProgressWriter(c.ProgressPath, progressUpdates)
	}()

	pending := make(chan Job, len(jobs))
	for _, j := range jobs {
		pending <- j
	}
	close(pending)

	results := make(chan JobResult, len(jobs))
	var mu sync.Mutex
	var sum Summary
	barsPerTicker := make(map[string]int)
	var resWg sync.WaitGroup
	resWg.Add(1)
	go func() {
		defer resWg.Done()
		for r := range results {
			mu.Lock()
			if r.Ok {
				if _, seen := barsPerTicker[r.Ticker]; !seen {
					sum.Success = append(sum.Success, r.Ticker)
				}
				barsPerTicker[r.Ticker] += r.Bars
				sum.TotalBars += r.Bars
			} else {
				sum.Failed = append(sum.Failed, Failure{Ticker: r.Ticker, DateRange: r.DateRange, Reason: r.Reason})
			}
			mu.Unlock()
		}
	}()

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	interval := c.Heartbeat
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go runHeartbeat(hbCtx, interval, len(jobs), &mu, &sum, logger)

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range pending {
				if ctx.Err() != nil {
					return
				}
				r := c.runJob(ctx, job, logger)
				results <- r.JobResult
				if r.Ok && r.lastDate != "" {
					progressUpdates <- ProgressUpdate{Ticker: job.Ticker, Date: r.lastDate}
				}
			}
		}()
	}
	wg.Wait()
	stopHeartbeat()
	close(results)
	resWg.Wait()
	close(progressUpdates)
	<-progressDone

	sort.Strings(sum.Success)
	logger.Info("summary", "total_bars", sum.TotalBars, "success", len(sum.Success), "failed", len(sum.Failed))
	if len(sum.Failed) > 0 {
		logger.Info("summary failed", "count", len(sum.Failed), "reasons", joinFailedReasons(sum.Failed))
	}
	if err := writeRunReport(c.Dir.Root, sum.Success, sum.Failed); err != nil {
		logger.Warn("could not write run report", "error", err)
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

type jobOutcome struct {
	JobResult
	lastDate string
}

func (c *Crawler) runJob(ctx context.Context, job Job, logger *slog.Logger) (res jobOutcome) {
	res.Ticker = job.Ticker
	res.DateRange = job.DateRange()
	fail := func(reason string) {
		res.Reason = reason
		logger.Error("crawl fail", "ticker", job.Ticker, "date_range", res.DateRange, "reason", reason)
	}

	bars, err := c.Source.FetchSymbol(ctx, job.Ticker, job.From, job.To)
	// A gap over a weekend or holiday has no new sessions; the packet is current.
	if job.Incremental && (errors.Is(err, provider.ErrNoData) || (err == nil && len(bars) == 0)) {
		res.Ok = true
		logger.Info("crawl up to date", "ticker", job.Ticker, "date_range", res.DateRange)
		return res
	}
	if err != nil {
		fail(err.Error())
		return res
	}
	if len(bars) == 0 {
		fail("no data")
		return res
	}
	if err := model.ValidateSeries(bars); err != nil {
		fail(err.Error())
		return res
	}
	if job.Incremental {
		if _, err := c.Dir.Append(job.Ticker, bars); err != nil {
			fail(fmt.Sprintf("save: %v", err))
			return res
		}
	} else if err := c.Dir.Save(job.Ticker, bars); err != nil {
		fail(fmt.Sprintf("save: %v", err))
		return res
	}

	res.Ok = true
	res.Bars = len(bars)
	res.lastDate = model.Last(bars).Date()
	logger.Info("crawl ok", "ticker", job.Ticker, "date_range", res.DateRange, "bars", res.Bars)
	return res
}

func runHeartbeat(ctx context.Context, interval time.Duration, totalJobs int, mu *sync.Mutex, sum *Summary, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mu.Lock()
			s, f, bars := len(sum.Success), len(sum.Failed), sum.TotalBars
			mu.Unlock()
			logger.Info("heartbeat", "done", s+f, "total", totalJobs, "success", s, "failed", f, "bars", bars)
		}
	}
}
