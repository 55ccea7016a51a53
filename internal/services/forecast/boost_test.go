package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainEnsembleFitsSimpleSignal(t *testing.T) {
	// y depends on the first column only
	var x [][]float64
	var y []float64
	for i := 0; i < 200; i++ {
		v := float64(i%20) / 20.0
		x = append(x, []float64{v, 0.5})
		y = append(y, 2*v)
	}

	ens, err := TrainEnsemble(x, y, DefaultBoostParams())
	require.NoError(t, err)

	pred := ens.Predict([]float64{0.25, 0.5})
	assert.InDelta(t, 0.5, pred, 0.1)

	imp := ens.FeatureImportances()
	require.Len(t, imp, 2)
	assert.Greater(t, imp[0], imp[1])
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9)
}

func TestTrainEnsembleDeterministic(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 120; i++ {
		v := float64(i) / 120.0
		x = append(x, []float64{v, 1 - v, v * v})
		y = append(y, v-0.5)
	}

	a, err := TrainEnsemble(x, y, DefaultBoostParams())
	require.NoError(t, err)
	b, err := TrainEnsemble(x, y, DefaultBoostParams())
	require.NoError(t, err)

	for i, row := range x {
		assert.Equal(t, a.Predict(row), b.Predict(row), "row %d", i)
	}
}

func TestTrainEnsembleRejectsEmptyTable(t *testing.T) {
	_, err := TrainEnsemble(nil, nil, DefaultBoostParams())
	assert.Error(t, err)
}

func TestEnsembleBaseOnConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9}, {10}}
	y := []float64{0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4}

	ens, err := TrainEnsemble(x, y, DefaultBoostParams())
	require.NoError(t, err)
	assert.InDelta(t, 0.4, ens.Predict([]float64{3}), 1e-9)
}
