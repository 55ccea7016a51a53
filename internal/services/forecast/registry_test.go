package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryUnloadedIsEmpty(t *testing.T) {
	reg := NewRegistry(&NaivePredictor{}, newTestLogger(t))

	assert.False(t, reg.Loaded())
	assert.Nil(t, reg.Get())

	s := linearSeries(30, 100, 1)
	assert.Empty(t, reg.Predict(s.Prices, s.Volumes, s.Timestamps, 5))
	preds, high, low := reg.PredictBanded(s.Prices, s.Volumes, s.Timestamps, 5)
	assert.Empty(t, preds)
	assert.Empty(t, high)
	assert.Empty(t, low)
}

func TestRegistryLoadNaive(t *testing.T) {
	reg := NewRegistry(&NaivePredictor{}, newTestLogger(t))
	require.NoError(t, reg.Load(context.Background()))

	assert.True(t, reg.Loaded())
	require.NotNil(t, reg.Get())

	s := linearSeries(30, 100, 1)
	preds := reg.Predict(s.Prices, s.Volumes, s.Timestamps, 3)
	assert.Len(t, preds, 3)

	// naive model has no importance or backtest capability
	assert.Nil(t, reg.Importances(5))
	res, err := reg.Backtest(context.Background(), 10)
	assert.NoError(t, err)
	assert.Nil(t, res)
}

func TestRegistryLoadBoostedFallsBackToTraining(t *testing.T) {
	m := newTestModel(t, growthSource(80), t.TempDir())
	reg := NewRegistry(m, newTestLogger(t))

	// no artifact bundle on disk, Load trains from scratch
	require.NoError(t, reg.Load(context.Background()))
	assert.True(t, reg.Loaded())
	assert.True(t, m.Trained())

	s := linearSeries(60, 100, 1)
	assert.Len(t, reg.Predict(s.Prices, s.Volumes, s.Timestamps, 4), 4)
	assert.NotEmpty(t, reg.Importances(0))
}

func TestRegistryLoadBoostedRestoresArtifacts(t *testing.T) {
	dir := t.TempDir()
	src := growthSource(80)

	first := newTestModel(t, src, dir)
	require.NoError(t, first.Train(context.Background()))

	second := newTestModel(t, src, dir)
	reg := NewRegistry(second, newTestLogger(t))
	require.NoError(t, reg.Load(context.Background()))
	assert.True(t, second.Trained())
}

func TestRegistryBandedForecastBracketsAcrossRetrain(t *testing.T) {
	src := growthSource(80)
	m := newTestModel(t, src, t.TempDir())
	reg := NewRegistry(m, newTestLogger(t))
	require.NoError(t, reg.Load(context.Background()))

	s := linearSeries(60, 100, 1)
	preds, high, low := reg.PredictBanded(s.Prices, s.Volumes, s.Timestamps, 6)
	require.Len(t, preds, 6)
	for i := range preds {
		assert.Greater(t, high[i], preds[i], "step %d", i)
		assert.Less(t, low[i], preds[i], "step %d", i)
	}

	// refit on a falling series; the next banded forecast must still
	// bracket its own predictions, not the previous model's
	src.symbols["AAPL"] = linearSeries(80, 200, -1)
	require.NoError(t, reg.Train(context.Background()))

	preds, high, low = reg.PredictBanded(s.Prices, s.Volumes, s.Timestamps, 6)
	require.Len(t, preds, 6)
	for i := range preds {
		assert.Greater(t, high[i], preds[i], "step %d", i)
		assert.Less(t, low[i], preds[i], "step %d", i)
	}
}

func TestRegistryTargetProbability(t *testing.T) {
	reg := NewRegistry(&NaivePredictor{}, newTestLogger(t))

	s := linearSeries(30, 100, 1)
	_, ok := reg.TargetProbability(s.Prices, s.Volumes, s.Timestamps, 120, 5, 50)
	assert.False(t, ok)

	require.NoError(t, reg.Load(context.Background()))
	_, ok = reg.TargetProbability(s.Prices, s.Volumes, s.Timestamps, 120, 5, 50)
	assert.False(t, ok)
}
