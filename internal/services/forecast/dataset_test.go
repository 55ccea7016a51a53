package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/features"
)

type fakeSource struct {
	symbols map[string]*models.Series
	tracked []string
}

func (f *fakeSource) GetHistory(_ context.Context, symbol string, _ models.Granularity, limit int) (*models.Series, error) {
	s, ok := f.symbols[symbol]
	if !ok {
		return &models.Series{}, nil
	}
	return s.Tail(limit), nil
}

func (f *fakeSource) TrackedSymbols(context.Context) ([]string, error) {
	return f.tracked, nil
}

func linearSeries(n int, start, step float64) *models.Series {
	base := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	s := &models.Series{}
	for i := 0; i < n; i++ {
		s.Prices = append(s.Prices, start+step*float64(i))
		s.Volumes = append(s.Volumes, 1000)
		s.Timestamps = append(s.Timestamps, base.Add(time.Duration(i)*time.Hour))
	}
	return s
}

func TestBuildColumnCount(t *testing.T) {
	src := &fakeSource{
		symbols: map[string]*models.Series{
			"AAPL": linearSeries(80, 100, 1),
			"SPY":  linearSeries(80, 400, 0.5),
		},
		tracked: []string{"AAPL"},
	}
	lookBack := 20
	b := NewDatasetBuilder(src, lookBack, []string{"SPY"}, models.GranularityHourly)

	table, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Greater(t, table.Rows(), 0)

	wantCols := lookBack * features.Width(1)
	for _, row := range table.X {
		assert.Len(t, row, wantCols)
	}
	assert.Len(t, table.Y, table.Rows())
	require.NotNil(t, table.Scaler)
	assert.Equal(t, wantCols, table.Scaler.Width())
}

func TestBuildSkipsShortHistories(t *testing.T) {
	src := &fakeSource{
		symbols: map[string]*models.Series{
			"TSLA": linearSeries(30, 200, 1), // below lookBack+30
		},
		tracked: []string{"TSLA", "GHOST"},
	}
	b := NewDatasetBuilder(src, 20, nil, models.GranularityHourly)

	table, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, table.Rows())
}

func TestBuildTargetsAreNextStepLogReturns(t *testing.T) {
	series := linearSeries(60, 100, 1)
	src := &fakeSource{
		symbols: map[string]*models.Series{"AAPL": series},
		tracked: []string{"AAPL"},
	}
	lookBack := 20
	b := NewDatasetBuilder(src, lookBack, nil, models.GranularityHourly)

	table, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 60-1-lookBack, table.Rows())

	want := math.Log(series.Prices[lookBack+1] / series.Prices[lookBack])
	assert.InDelta(t, want, table.Y[0], 1e-12)
}

func TestMarketMatrixRightAligned(t *testing.T) {
	cache := map[string][]float64{"SPY": {0.1, 0.2}}
	m := MarketMatrix(4, []string{"SPY"}, cache)

	assert.Equal(t, 0.0, m[0][0])
	assert.Equal(t, 0.0, m[1][0])
	assert.Equal(t, 0.1, m[2][0])
	assert.Equal(t, 0.2, m[3][0])
}

func TestMarketMatrixLongerThanSeries(t *testing.T) {
	cache := map[string][]float64{"SPY": {0.1, 0.2, 0.3, 0.4}}
	m := MarketMatrix(2, []string{"SPY"}, cache)

	assert.Equal(t, 0.3, m[0][0])
	assert.Equal(t, 0.4, m[1][0])
}
