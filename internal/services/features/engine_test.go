package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourlyStamps(n int) []time.Time {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestRSIConstantSeries(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100.0
	}
	rsi := RSI(prices, 14)
	require.Len(t, rsi, len(prices))
	for i, v := range rsi {
		assert.InDelta(t, 50.0, v, 1e-9, "step %d", i)
	}
}

func TestRSITrendingUp(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = float64(i + 1)
	}
	rsi := RSI(prices, 14)
	assert.Greater(t, rsi[len(rsi)-1], 50.0)
}

func TestRSIZeroLossResolvesTo100(t *testing.T) {
	// monotone gains only: average loss is exactly zero
	prices := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	rsi := RSI(prices, 14)
	assert.Equal(t, 100.0, rsi[len(rsi)-1])
}

func TestComputeShape(t *testing.T) {
	n := 40
	prices := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		prices[i] = float64(i + 1)
		volumes[i] = 1000.0 + float64(i)
	}
	market := make([][]float64, n)
	for i := range market {
		market[i] = make([]float64, 3)
	}

	matrix := Compute(prices, volumes, hourlyStamps(n), market)
	require.Len(t, matrix, n)
	for _, row := range matrix {
		assert.Len(t, row, IntrinsicFeatureCount+3)
	}
}

func TestComputeShortSeriesDegrades(t *testing.T) {
	prices := []float64{10, 11, 12}
	volumes := []float64{1, 1, 1}

	matrix := Compute(prices, volumes, hourlyStamps(3), nil)
	require.Len(t, matrix, 3)
	for _, row := range matrix {
		assert.Len(t, row, IntrinsicFeatureCount)
		for _, v := range row {
			assert.False(t, math.IsNaN(v))
			assert.False(t, math.IsInf(v, 0))
		}
	}
	// rolling std has no complete window: defaults to zero
	assert.Equal(t, 0.0, matrix[2][4])
}

func TestMarketReturnsRightAligned(t *testing.T) {
	n := 6
	prices := []float64{1, 2, 3, 4, 5, 6}
	volumes := []float64{1, 1, 1, 1, 1, 1}
	market := [][]float64{{0.5}, {0.7}}

	matrix := Compute(prices, volumes, hourlyStamps(n), market)
	// zeros on the left, data on the right
	for i := 0; i < 4; i++ {
		assert.Equal(t, 0.0, matrix[i][IntrinsicFeatureCount])
	}
	assert.Equal(t, 0.5, matrix[4][IntrinsicFeatureCount])
	assert.Equal(t, 0.7, matrix[5][IntrinsicFeatureCount])
}

func TestLogReturnsFirstElementZero(t *testing.T) {
	out := LogReturns([]float64{100, 110})
	assert.Equal(t, 0.0, out[0])
	assert.InDelta(t, math.Log(1.1), out[1], 1e-12)
}

func TestRollingMeanBackfill(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7}
	out := RollingMean(values, 5)
	// first complete window mean is 3; earlier entries back-filled
	assert.Equal(t, 3.0, out[4])
	assert.Equal(t, 3.0, out[0])
	assert.Equal(t, 4.0, out[5])
}

func TestVolumeZScoreStdFloor(t *testing.T) {
	// near-constant volumes: raw std below 1 is floored, score stays small
	volumes := []float64{100, 100.1, 100, 100.1, 100}
	out := VolumeZScore(volumes, 20)
	for _, v := range out {
		assert.LessOrEqual(t, math.Abs(v), 0.2)
	}
}

func TestTimeOfDayColumns(t *testing.T) {
	stamps := []time.Time{time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC)} // a Monday
	matrix := Compute([]float64{10}, []float64{1}, stamps, nil)
	assert.Equal(t, 1.0, matrix[0][9])
	assert.Equal(t, 0.0, matrix[0][10])
}

func TestNamesMatchWidth(t *testing.T) {
	names := Names([]string{"SPY", "QQQ"})
	assert.Len(t, names, Width(2))
	assert.Equal(t, "mkt_return_SPY", names[IntrinsicFeatureCount])
}
