package forecast

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/features"
	xlogger "StockCast/pkg/logger"
	"StockCast/pkg/util"
)

// Band widening constants. These are heuristics carried over for
// behavioral compatibility, not statistically derived confidence
// intervals: the band starts at ±1% and widens by 0.2% per step.
const (
	bandBase = 0.01
	bandStep = 0.002
)

// Config holds the model hyperparameters that are persisted alongside the
// regressor.
type Config struct {
	LookBack      int
	ValSize       int
	Interval      string
	HistoryPeriod string
	Indices       []string
	ArtifactDir   string
}

// BoostedModel wraps the boosted-tree regressor, the fitted scaler, and the
// market-return cache. It is not safe for concurrent use on its own; the
// Registry serializes access.
type BoostedModel struct {
	cfg     Config
	builder *DatasetBuilder
	logger  *xlogger.Logger

	ens         *Ensemble
	scaler      *Scaler
	marketCache map[string][]float64
	trained     bool
	trainedAt   time.Time
	valMAE      float64
}

func NewBoostedModel(cfg Config, builder *DatasetBuilder, logger *xlogger.Logger) *BoostedModel {
	return &BoostedModel{
		cfg:         cfg,
		builder:     builder,
		logger:      logger,
		marketCache: make(map[string][]float64),
	}
}

// Trained reports whether a fitted regressor is available.
func (m *BoostedModel) Trained() bool { return m.trained }

// RefreshMarketCache reloads the per-index return series used at inference.
func (m *BoostedModel) RefreshMarketCache(ctx context.Context) error {
	cache, err := m.builder.MarketReturns(ctx)
	if err != nil {
		return err
	}
	m.marketCache = cache
	return nil
}

// Train builds the dataset, fits the regressor on a walk-forward split, and
// persists artifacts. An empty table is a silent no-op: the warm-up state
// is expected, not an error.
func (m *BoostedModel) Train(ctx context.Context) error {
	table, err := m.builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}
	if table.Rows() == 0 {
		m.logger.Warn("training skipped: no symbol has enough history")
		return nil
	}

	trainX, trainY := table.X, table.Y
	var valX [][]float64
	var valY []float64
	if table.Rows() > m.cfg.ValSize {
		cut := table.Rows() - m.cfg.ValSize
		valX, valY = table.X[cut:], table.Y[cut:]
		trainX, trainY = table.X[:cut], table.Y[:cut]
	}

	start := time.Now()
	ens, err := TrainEnsemble(trainX, trainY, DefaultBoostParams())
	if err != nil {
		return fmt.Errorf("fit regressor: %w", err)
	}

	m.ens = ens
	m.scaler = table.Scaler
	m.trained = true
	m.trainedAt = time.Now()

	// held-out MAE is observational only; it never gates the train
	m.valMAE = 0
	if len(valX) > 0 {
		m.valMAE = meanAbsError(ens.PredictBatch(valX), valY)
	}

	if err := m.RefreshMarketCache(ctx); err != nil {
		return fmt.Errorf("market cache: %w", err)
	}

	if err := m.SaveArtifacts(); err != nil {
		return fmt.Errorf("persist artifacts: %w", err)
	}

	m.logger.Info("model trained",
		xlogger.Int("rows", table.Rows()),
		xlogger.Int("val_rows", len(valY)),
		xlogger.Float64("val_mae", m.valMAE),
		xlogger.Duration("took", time.Since(start)))
	return nil
}

// Predict runs the recursive multi-step rollout. Each predicted log return
// is converted to a price, appended to the window, and fed back in as real
// input for the next step; compounding error over long horizons is an
// accepted property of this design. Returns an empty slice when the model
// is not ready.
func (m *BoostedModel) Predict(prices, volumes []float64, timestamps []time.Time, steps int) []float64 {
	if !m.trained || volumes == nil || len(prices) < m.cfg.LookBack || steps <= 0 {
		return []float64{}
	}

	step := util.IntervalDuration(m.cfg.Interval)

	curPrices := append([]float64(nil), prices...)
	curVolumes := append([]float64(nil), volumes...)
	curTimes := append([]time.Time(nil), timestamps...)
	mkt := MarketMatrix(len(prices), m.cfg.Indices, m.marketCache)

	out := make([]float64, 0, steps)
	for s := 0; s < steps; s++ {
		matrix := features.Compute(curPrices, curVolumes, curTimes, mkt)
		window := matrix[len(matrix)-m.cfg.LookBack:]
		row := m.scaler.Transform(flatten(window))

		ret := m.ens.Predict(row)
		next := roundPrice(curPrices[len(curPrices)-1] * math.Exp(ret))
		out = append(out, next)

		// predicted price feeds the next window; volume carries forward,
		// future market returns read as zero
		curPrices = append(curPrices, next)
		curVolumes = append(curVolumes, curVolumes[len(curVolumes)-1])
		curTimes = append(curTimes, curTimes[len(curTimes)-1].Add(step))
		mkt = append(mkt, make([]float64, len(m.cfg.Indices)))
	}
	return out
}

// PredictHighLow derives a heuristic uncertainty band around Predict: the
// band widens linearly with the step index.
func (m *BoostedModel) PredictHighLow(prices, volumes []float64, timestamps []time.Time, steps int) (high, low []float64) {
	return bandAround(m.Predict(prices, volumes, timestamps, steps))
}

// bandAround is the shared band heuristic, a pure function of the
// predictions. Not a statistical confidence interval.
func bandAround(preds []float64) (high, low []float64) {
	high = make([]float64, len(preds))
	low = make([]float64, len(preds))
	for i, p := range preds {
		spread := bandBase + float64(i)*bandStep
		high[i] = roundPrice(p * (1 + spread))
		low[i] = roundPrice(p * (1 - spread))
	}
	return high, low
}

// Backtest rebuilds the dataset, fits a fresh regressor on everything
// before the validation tail, and scores it against a naive zero-return
// baseline. Returns nil when the table cannot support the split.
func (m *BoostedModel) Backtest(ctx context.Context, valSize int) (*models.BacktestResult, error) {
	if valSize <= 0 {
		valSize = m.cfg.ValSize
	}
	table, err := m.builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}
	if table.Rows() <= valSize {
		return nil, nil
	}

	cut := table.Rows() - valSize
	ens, err := TrainEnsemble(table.X[:cut], table.Y[:cut], DefaultBoostParams())
	if err != nil {
		return nil, fmt.Errorf("fit regressor: %w", err)
	}

	valX, valY := table.X[cut:], table.Y[cut:]
	preds := ens.PredictBatch(valX)
	zeros := make([]float64, len(valY))

	return &models.BacktestResult{
		Timestamp:      time.Now(),
		MAEModel:       meanAbsError(preds, valY),
		MAEBaseline:    meanAbsError(zeros, valY),
		DirAccModel:    directionalAccuracy(preds, valY),
		DirAccBaseline: directionalAccuracy(zeros, valY),
		ValidationSize: len(valY),
	}, nil
}

// Importances averages the regressor's flattened-window gains back onto
// named feature columns. The flattened table is row-major (window step
// outer, feature column inner), so column j maps to feature j mod width;
// averaging across the look-back axis ranks by feature name rather than by
// window position.
func (m *BoostedModel) Importances(topK int) []models.FeatureImportance {
	if !m.trained {
		return nil
	}

	names := features.Names(m.cfg.Indices)
	width := len(names)
	flat := m.ens.FeatureImportances()

	avg := make([]float64, width)
	for j, v := range flat {
		avg[j%width] += v
	}
	for j := range avg {
		avg[j] /= float64(m.cfg.LookBack)
	}

	out := make([]models.FeatureImportance, width)
	for j := range avg {
		out[j] = models.FeatureImportance{Name: names[j], Importance: avg[j]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })

	if topK > 0 && topK < len(out) {
		out = out[:topK]
	}
	return out
}

// TargetProbability Monte-Carlo estimates the chance of touching target
// within the forecast horizon: the deterministic rollout supplies the
// trend, gaussian noise at 2% of the current price supplies dispersion.
func (m *BoostedModel) TargetProbability(prices, volumes []float64, timestamps []time.Time, target float64, steps, sims int) float64 {
	preds := m.Predict(prices, volumes, timestamps, steps)
	if len(preds) == 0 {
		return 0
	}
	if sims <= 0 {
		sims = 100
	}

	last := prices[len(prices)-1]
	noise := last * 0.02

	drift := make([]float64, len(preds))
	prev := last
	for i, p := range preds {
		drift[i] = p - prev
		prev = p
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	hits := 0
	for s := 0; s < sims; s++ {
		price := last
		for i := range drift {
			price += drift[i] + rng.NormFloat64()*noise
			if (target >= last && price >= target) || (target < last && price <= target) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(sims)
}

// ValMAE returns the held-out error of the last training run.
func (m *BoostedModel) ValMAE() float64 { return m.valMAE }

func roundPrice(p float64) float64 {
	return math.Round(p*100) / 100
}

func meanAbsError(pred, actual []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	sum := 0.0
	for i := range pred {
		sum += math.Abs(pred[i] - actual[i])
	}
	return sum / float64(len(pred))
}

func directionalAccuracy(pred, actual []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	hits := 0
	for i := range pred {
		if sign(pred[i]) == sign(actual[i]) {
			hits++
		}
	}
	return float64(hits) / float64(len(pred))
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
