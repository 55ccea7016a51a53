package usecase

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	"StockCast/internal/services/drift"
	"StockCast/internal/services/forecast"
	applogger "StockCast/pkg/logger"
)

// Trainer owns the model lifecycle jobs: periodic retraining, the nightly
// walk-forward backtest, and drift checks over the accumulated backtest
// log.
type Trainer struct {
	registry      *forecast.Registry
	monitor       *drift.Monitor
	backtestLog   *forecast.BacktestLog
	importanceLog *forecast.ImportanceLog
	metrics       drepo.Metrics
	logger        *applogger.Logger

	valSize     int
	driftWindow int
	topK        int
}

func NewTrainer(
	registry *forecast.Registry,
	monitor *drift.Monitor,
	backtestLog *forecast.BacktestLog,
	importanceLog *forecast.ImportanceLog,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	valSize, driftWindow, topK int,
) *Trainer {
	return &Trainer{
		registry:      registry,
		monitor:       monitor,
		backtestLog:   backtestLog,
		importanceLog: importanceLog,
		metrics:       metrics,
		logger:        logger,
		valSize:       valSize,
		driftWindow:   driftWindow,
		topK:          topK,
	}
}

// Retrain refits the model, snapshots feature importances, and reports the
// current drift status.
func (t *Trainer) Retrain(ctx context.Context) error {
	start := time.Now()
	if err := t.registry.Train(ctx); err != nil {
		t.metrics.RecordError("train")
		return err
	}
	t.metrics.RecordTrainDuration(time.Since(start).Seconds())

	if imp := t.registry.Importances(t.topK); len(imp) > 0 {
		if err := t.importanceLog.Append(imp); err != nil {
			t.logger.Warn("importance snapshot failed", applogger.Error(err))
		}
	}

	if d, err := t.Drift(); err == nil && d != nil {
		t.logger.Info("drift check",
			applogger.String("status", string(d.Status)),
			applogger.Float64("recent_mae", d.RecentMAE),
			applogger.Float64("prior_mae", d.PriorMAE))
	}
	return nil
}

// Backtest runs a walk-forward evaluation and appends the scores to the
// append-only backtest log. valSize <= 0 uses the configured default. A
// nil result means the dataset cannot support the validation split yet.
func (t *Trainer) Backtest(ctx context.Context, valSize int) (*models.BacktestResult, error) {
	if valSize <= 0 {
		valSize = t.valSize
	}
	res, err := t.registry.Backtest(ctx, valSize)
	if err != nil {
		t.metrics.RecordError("backtest")
		return nil, err
	}
	if res == nil {
		t.logger.Warn("backtest skipped: not enough rows for the validation split")
		return nil, nil
	}

	if err := t.backtestLog.Append(res); err != nil {
		return nil, err
	}
	t.logger.Info("backtest recorded",
		applogger.Float64("mae_model", res.MAEModel),
		applogger.Float64("mae_baseline", res.MAEBaseline),
		applogger.Float64("dir_acc_model", res.DirAccModel),
		applogger.Int("val_size", res.ValidationSize))
	return res, nil
}

// Drift classifies the recent backtest-error trend.
func (t *Trainer) Drift() (*models.DriftMetrics, error) {
	return t.monitor.Compute(t.driftWindow)
}
