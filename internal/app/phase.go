package app

import (
	"context"
	"log/slog"
	"time"
)

// RunFlow runs job now and then once a day at RUN_HOUR:RUN_MINUTE UTC:
// trigger → run → done → wait → trigger. It returns when ctx is canceled,
// letting an in-flight run finish first.
func RunFlow(ctx context.Context, cfg *Config, job func(context.Context) error) {
	trigger := make(chan struct{}, 1)
	done := make(chan error, 1)

	go func() {
		for range trigger {
			done <- job(ctx)
		}
	}()
	defer close(trigger)

	trigger <- struct{}{}
	for {
		select {
		case err := <-done:
			if err != nil && ctx.Err() == nil {
				slog.Error("run failed", "error", err)
			}
			if ctx.Err() != nil {
				slog.Info("stopping")
				return
			}
			nextRun := NextRunTime(time.Now(), cfg.RunHour, cfg.RunMinute)
			waitDur := time.Until(nextRun)
			slog.Info("done, wait until next run", "hours", waitDur.Hours(), "until", nextRun.Format("2006-01-02 15:04"))
			timer := time.NewTimer(waitDur)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				slog.Info("received signal, stopping", "restart_at", nextRun.Format("2006-01-02 15:04"))
				return
			}
			trigger <- struct{}{}
		case <-ctx.Done():
			slog.Info("received signal, graceful shutdown")
			<-done
			return
		}
	}
}

// NextRunTime returns the next hour:min UTC strictly after now.
func NextRunTime(now time.Time, hour, min int) time.Time {
	now = now.UTC()
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, time.UTC)
	if now.Before(target) {
		return target
	}
	return target.AddDate(0, 0, 1)
}
