package forecast

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
)

// Predictor is the common surface of all forecast model variants. Not-ready
// states are signaled by empty slices, never errors: an untrained model is
// an expected steady state during warm-up.
type Predictor interface {
	Train(ctx context.Context) error
	Trained() bool
	Predict(prices, volumes []float64, timestamps []time.Time, steps int) []float64
	PredictHighLow(prices, volumes []float64, timestamps []time.Time, steps int) (high, low []float64)
}

// TargetProbabilityEstimator is an optional Predictor capability.
type TargetProbabilityEstimator interface {
	TargetProbability(prices, volumes []float64, timestamps []time.Time, target float64, steps, sims int) float64
}

// ImportanceReporter is an optional Predictor capability.
type ImportanceReporter interface {
	Importances(topK int) []models.FeatureImportance
}

// Backtester is an optional Predictor capability.
type Backtester interface {
	Backtest(ctx context.Context, valSize int) (*models.BacktestResult, error)
}

// New selects a predictor variant explicitly; callers never dispatch on
// the model type string themselves.
func New(kind string, boosted *BoostedModel) (Predictor, error) {
	switch kind {
	case "boosted":
		return boosted, nil
	case "naive":
		return &NaivePredictor{}, nil
	default:
		return nil, fmt.Errorf("unknown model type %q", kind)
	}
}

// NaivePredictor repeats the last observed price. It exists as a baseline
// and as a degraded-mode fallback; it carries no state.
type NaivePredictor struct{}

func (p *NaivePredictor) Train(ctx context.Context) error { return nil }

func (p *NaivePredictor) Trained() bool { return true }

func (p *NaivePredictor) Predict(prices, volumes []float64, timestamps []time.Time, steps int) []float64 {
	if len(prices) == 0 || steps <= 0 {
		return []float64{}
	}
	last := roundPrice(prices[len(prices)-1])
	out := make([]float64, steps)
	for i := range out {
		out[i] = last
	}
	return out
}

func (p *NaivePredictor) PredictHighLow(prices, volumes []float64, timestamps []time.Time, steps int) (high, low []float64) {
	return bandAround(p.Predict(prices, volumes, timestamps, steps))
}
