package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCast/internal/domain/models"
	xlogger "StockCast/pkg/logger"
)

func newTestLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func newTestModel(t *testing.T, src *fakeSource, artifactDir string) *BoostedModel {
	t.Helper()
	cfg := Config{
		LookBack:      20,
		ValSize:       200,
		Interval:      "1h",
		HistoryPeriod: "1mo",
		ArtifactDir:   artifactDir,
	}
	builder := NewDatasetBuilder(src, cfg.LookBack, cfg.Indices, models.GranularityHourly)
	return NewBoostedModel(cfg, builder, newTestLogger(t))
}

func growthSource(n int) *fakeSource {
	return &fakeSource{
		symbols: map[string]*models.Series{"AAPL": linearSeries(n, 100, 1)},
		tracked: []string{"AAPL"},
	}
}

func TestPredictEmptyWhenUntrained(t *testing.T) {
	m := newTestModel(t, growthSource(60), t.TempDir())
	s := linearSeries(30, 100, 1)

	preds := m.Predict(s.Prices, s.Volumes, s.Timestamps, 5)
	assert.Empty(t, preds)

	high, low := m.PredictHighLow(s.Prices, s.Volumes, s.Timestamps, 5)
	assert.Empty(t, high)
	assert.Empty(t, low)
}

func TestPredictGuards(t *testing.T) {
	m := newTestModel(t, growthSource(60), t.TempDir())
	require.NoError(t, m.Train(context.Background()))
	require.True(t, m.Trained())

	s := linearSeries(30, 100, 1)
	assert.Empty(t, m.Predict(s.Prices, nil, s.Timestamps, 5))
	assert.Empty(t, m.Predict(s.Prices, s.Volumes, s.Timestamps, 0))

	short := linearSeries(10, 100, 1)
	assert.Empty(t, m.Predict(short.Prices, short.Volumes, short.Timestamps, 5))
}

func TestTrainAndRecursivePredict(t *testing.T) {
	m := newTestModel(t, growthSource(60), t.TempDir())
	require.NoError(t, m.Train(context.Background()))
	require.True(t, m.Trained())

	s := linearSeries(60, 100, 1)
	preds := m.Predict(s.Prices, s.Volumes, s.Timestamps, 6)
	require.Len(t, preds, 6)

	// trained on a steadily rising series, the rollout keeps rising
	last := s.Prices[len(s.Prices)-1]
	for i, p := range preds {
		assert.Greater(t, p, last, "step %d", i)
		last = p
	}
}

func TestTrainNoOpWithoutHistory(t *testing.T) {
	src := &fakeSource{symbols: map[string]*models.Series{}, tracked: []string{"AAPL"}}
	m := newTestModel(t, src, t.TempDir())

	require.NoError(t, m.Train(context.Background()))
	assert.False(t, m.Trained())
}

func TestBandNeverInverts(t *testing.T) {
	m := newTestModel(t, growthSource(60), t.TempDir())
	require.NoError(t, m.Train(context.Background()))

	s := linearSeries(60, 100, 1)
	preds := m.Predict(s.Prices, s.Volumes, s.Timestamps, 8)
	high, low := m.PredictHighLow(s.Prices, s.Volumes, s.Timestamps, 8)
	require.Len(t, high, 8)
	require.Len(t, low, 8)

	for i := range preds {
		assert.Greater(t, high[i], low[i], "step %d", i)
		assert.GreaterOrEqual(t, high[i], preds[i], "step %d", i)
		assert.LessOrEqual(t, low[i], preds[i], "step %d", i)
	}
	// the spread widens with the horizon
	assert.Greater(t, high[7]-low[7], high[0]-low[0])
}

func TestBacktestInsufficientRows(t *testing.T) {
	m := newTestModel(t, growthSource(60), t.TempDir())

	res, err := m.Backtest(context.Background(), 1000)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestBacktestBeatsNothingButReports(t *testing.T) {
	m := newTestModel(t, growthSource(120), t.TempDir())

	res, err := m.Backtest(context.Background(), 30)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, 30, res.ValidationSize)
	assert.GreaterOrEqual(t, res.MAEModel, 0.0)
	assert.Greater(t, res.MAEBaseline, 0.0)
	// the baseline never moves, so its directional accuracy is zero
	assert.Equal(t, 0.0, res.DirAccBaseline)
}

func TestArtifactRoundTripBitIdentical(t *testing.T) {
	dir := t.TempDir()
	src := growthSource(80)

	m := newTestModel(t, src, dir)
	require.NoError(t, m.Train(context.Background()))

	s := linearSeries(60, 100, 1)
	want := m.Predict(s.Prices, s.Volumes, s.Timestamps, 5)
	require.Len(t, want, 5)

	restored := newTestModel(t, src, dir)
	require.NoError(t, restored.LoadArtifacts())
	require.NoError(t, restored.RefreshMarketCache(context.Background()))
	require.True(t, restored.Trained())

	got := restored.Predict(s.Prices, s.Volumes, s.Timestamps, 5)
	assert.Equal(t, want, got)
}

func TestLoadArtifactsRejectsLookBackMismatch(t *testing.T) {
	dir := t.TempDir()
	src := growthSource(80)

	m := newTestModel(t, src, dir)
	require.NoError(t, m.Train(context.Background()))

	other := newTestModel(t, src, dir)
	other.cfg.LookBack = 10
	other.builder = NewDatasetBuilder(src, 10, nil, models.GranularityHourly)

	err := other.LoadArtifacts()
	assert.Error(t, err)
	assert.False(t, other.Trained())
}

func TestLoadArtifactsMissingBundle(t *testing.T) {
	m := newTestModel(t, growthSource(80), t.TempDir())
	assert.Error(t, m.LoadArtifacts())
}

func TestImportancesSumToOne(t *testing.T) {
	m := newTestModel(t, growthSource(80), t.TempDir())
	require.NoError(t, m.Train(context.Background()))

	imp := m.Importances(0)
	require.NotEmpty(t, imp)

	// the flat gains sum to one, averaging over the window divides by it
	var total float64
	for _, f := range imp {
		total += f.Importance
	}
	assert.InDelta(t, 1.0/float64(m.cfg.LookBack), total, 1e-9)

	for i := 1; i < len(imp); i++ {
		assert.GreaterOrEqual(t, imp[i-1].Importance, imp[i].Importance)
	}

	top := m.Importances(3)
	assert.Len(t, top, 3)
}

func TestTargetProbabilityBounds(t *testing.T) {
	m := newTestModel(t, growthSource(80), t.TempDir())
	require.NoError(t, m.Train(context.Background()))

	s := linearSeries(60, 100, 1)
	last := s.Prices[len(s.Prices)-1]

	// a target just above the current price on a rising series is likely hit
	pNear := m.TargetProbability(s.Prices, s.Volumes, s.Timestamps, last+1, 5, 200)
	assert.GreaterOrEqual(t, pNear, 0.0)
	assert.LessOrEqual(t, pNear, 1.0)
	assert.Greater(t, pNear, 0.3)

	// an unreachable target is never hit
	pFar := m.TargetProbability(s.Prices, s.Volumes, s.Timestamps, 1e9, 5, 200)
	assert.LessOrEqual(t, pFar, 0.05)
}

func TestNaivePredictorRepeatsLastPrice(t *testing.T) {
	p := &NaivePredictor{}
	s := linearSeries(10, 100, 1)

	preds := p.Predict(s.Prices, s.Volumes, s.Timestamps, 4)
	require.Len(t, preds, 4)
	for _, v := range preds {
		assert.Equal(t, 109.0, v)
	}

	high, low := p.PredictHighLow(s.Prices, s.Volumes, s.Timestamps, 4)
	for i := range high {
		assert.Greater(t, high[i], low[i])
	}
}
