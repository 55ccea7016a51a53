package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	applogger "StockCast/pkg/logger"
	"StockCast/pkg/util"
)

// Runner schedules the background jobs: live polling, history refresh,
// retraining, the nightly backtest, and alert scans. Each loop ticks
// independently; a failing iteration is logged and the loop keeps going.
type Runner struct {
	poller  *LivePoller
	loader  *HistoryLoader
	fc      *ForecastService
	trainer *Trainer
	alerts  *AlertService
	logger  *applogger.Logger

	pollInterval    time.Duration
	refreshInterval time.Duration
	predictInterval time.Duration
	retrainInterval time.Duration
	scanInterval    time.Duration
	backtestHour    int

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// RunnerIntervals groups the loop cadences.
type RunnerIntervals struct {
	Poll         time.Duration
	Refresh      time.Duration
	Predict      time.Duration
	Retrain      time.Duration
	AlertScan    time.Duration
	BacktestHour int
}

func NewRunner(
	poller *LivePoller,
	loader *HistoryLoader,
	fc *ForecastService,
	trainer *Trainer,
	alerts *AlertService,
	logger *applogger.Logger,
	iv RunnerIntervals,
) *Runner {
	return &Runner{
		poller:          poller,
		loader:          loader,
		fc:              fc,
		trainer:         trainer,
		alerts:          alerts,
		logger:          logger,
		pollInterval:    iv.Poll,
		refreshInterval: iv.Refresh,
		predictInterval: iv.Predict,
		retrainInterval: iv.Retrain,
		scanInterval:    iv.AlertScan,
		backtestHour:    iv.BacktestHour,
	}
}

// Start launches all loops. They stop when ctx is canceled or Stop is
// called.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	r.loop(ctx, "live_poll", r.pollInterval, r.poller.PollAll)
	r.loop(ctx, "history_refresh", r.refreshInterval, r.loader.RefreshAll)
	r.loop(ctx, "predict", r.predictInterval, r.fc.ForecastAll)
	r.loop(ctx, "retrain", r.retrainInterval, r.trainer.Retrain)
	r.loop(ctx, "alert_scan", r.scanInterval, r.alerts.Scan)
	r.nightly(ctx)
}

// Stop cancels the loops and waits for them to drain.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	if interval <= 0 {
		r.logger.Warn("loop disabled", applogger.String("loop", name))
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.runIteration(ctx, name, fn); err != nil && ctx.Err() == nil {
					r.logger.Error("loop iteration failed",
						applogger.String("loop", name), applogger.Error(err))
				}
			}
		}
	}()
}

// runIteration converts a panic into an error so one bad iteration never
// kills its loop or the process.
func (r *Runner) runIteration(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("loop %s panicked: %v", name, rec)
		}
	}()
	return fn(ctx)
}

// nightly fires the walk-forward backtest once per day at the configured
// hour.
func (r *Runner) nightly(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			next := util.NextDailyHour(time.Now(), r.backtestHour)
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				err := r.runIteration(ctx, "nightly_backtest", func(ctx context.Context) error {
					_, berr := r.trainer.Backtest(ctx, 0)
					return berr
				})
				if err != nil && ctx.Err() == nil {
					r.logger.Error("nightly backtest failed", applogger.Error(err))
				}
			}
		}
	}()
}
