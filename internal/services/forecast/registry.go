package forecast

import (
	"context"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	xlogger "StockCast/pkg/logger"
)

// Registry owns the single shared model instance. Every operation that
// touches model state, training writes as well as predict and importance
// reads, is serialized behind one mutex so callers can never observe
// mid-update weights or a torn scaler/regressor pair. Load and train
// complete fully before the visible state flips; a failure leaves the
// previous state untouched.
type Registry struct {
	mu     sync.Mutex
	model  Predictor
	loaded bool
	logger *xlogger.Logger
}

func NewRegistry(model Predictor, logger *xlogger.Logger) *Registry {
	return &Registry{model: model, logger: logger}
}

// Load restores persisted artifacts, or trains from scratch when the
// bundle is absent or invalid. Artifact corruption is a cache miss, not a
// fatal condition.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bm, ok := r.model.(*BoostedModel); ok {
		if err := bm.LoadArtifacts(); err != nil {
			r.logger.Warn("artifact restore failed, training from scratch", xlogger.Error(err))
			if err := bm.Train(ctx); err != nil {
				return err
			}
		} else {
			if err := bm.RefreshMarketCache(ctx); err != nil {
				return err
			}
			r.logger.Info("model restored from artifacts")
		}
	} else {
		if err := r.model.Train(ctx); err != nil {
			return err
		}
	}

	r.loaded = true
	return nil
}

// Get returns the current model reference, or nil when Load has never
// succeeded. Callers treat nil as "not ready".
func (r *Registry) Get() Predictor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return nil
	}
	return r.model
}

// Loaded reports whether Load has completed.
func (r *Registry) Loaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

// Train retrains the model under the exclusive lock. The fit is CPU bound
// and runs to completion while holding it; concurrent predictions wait.
func (r *Registry) Train(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model.Train(ctx)
}

// Predict runs a forecast under the shared lock.
func (r *Registry) Predict(prices, volumes []float64, timestamps []time.Time, steps int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return []float64{}
	}
	return r.model.Predict(prices, volumes, timestamps, steps)
}

// PredictBanded runs one rollout under the lock and derives the band from
// those same predictions, so prices and band always reflect a single model
// state even when a retrain lands between calls.
func (r *Registry) PredictBanded(prices, volumes []float64, timestamps []time.Time, steps int) (preds, high, low []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return []float64{}, []float64{}, []float64{}
	}
	preds = r.model.Predict(prices, volumes, timestamps, steps)
	high, low = bandAround(preds)
	return preds, high, low
}

// Importances reads ranked feature importances, or nil when the model
// variant does not report them or is untrained.
func (r *Registry) Importances(topK int) []models.FeatureImportance {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return nil
	}
	if rep, ok := r.model.(ImportanceReporter); ok {
		return rep.Importances(topK)
	}
	return nil
}

// Backtest runs a walk-forward evaluation under the lock. Returns
// (nil, nil) when the variant cannot backtest or data is insufficient.
func (r *Registry) Backtest(ctx context.Context, valSize int) (*models.BacktestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return nil, nil
	}
	if bt, ok := r.model.(Backtester); ok {
		return bt.Backtest(ctx, valSize)
	}
	return nil, nil
}

// TargetProbability estimates the chance of reaching target; the second
// return is false when the variant lacks the capability.
func (r *Registry) TargetProbability(prices, volumes []float64, timestamps []time.Time, target float64, steps, sims int) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.loaded {
		return 0, false
	}
	est, ok := r.model.(TargetProbabilityEstimator)
	if !ok {
		return 0, false
	}
	return est.TargetProbability(prices, volumes, timestamps, target, steps, sims), true
}
