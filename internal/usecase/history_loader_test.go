package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCast/internal/domain/models"
	"StockCast/internal/repository"
	"StockCast/pkg/metrics"
)

func hourlySeries(n int, start float64) *models.Series {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := &models.Series{}
	for i := 0; i < n; i++ {
		s.Prices = append(s.Prices, start+float64(i))
		s.Volumes = append(s.Volumes, 1000)
		s.Timestamps = append(s.Timestamps, base.Add(time.Duration(i)*time.Hour))
	}
	return s
}

func newLoader(store *memStore, market *fakeMarket, t *testing.T) *HistoryLoader {
	return NewHistoryLoader(market, store, repository.NoopArchive{}, metrics.Noop{},
		testLogger(t), []string{"SPY"}, "1mo", "1h", 0)
}

type countingArchive struct {
	repository.NoopArchive
	stored int64
}

func (a *countingArchive) StoreSeries(_ context.Context, _ string, _ models.Granularity, s *models.Series) error {
	a.stored += int64(s.Len())
	return nil
}

func (a *countingArchive) CandleCount(context.Context, string, models.Granularity, time.Time) (int64, error) {
	return a.stored, nil
}

func TestRefreshFeedsArchive(t *testing.T) {
	store := newMemStore("AAPL")
	market := &fakeMarket{series: map[string]*models.Series{
		"AAPL/1h": hourlySeries(48, 100),
		"AAPL/1d": hourlySeries(10, 100),
	}}
	archive := &countingArchive{}
	loader := NewHistoryLoader(market, store, archive, metrics.Noop{},
		testLogger(t), nil, "1mo", "1h", 0)

	require.NoError(t, loader.Refresh(context.Background(), "AAPL"))

	// only the working-interval series is archived; the daily pull exists
	// for the previous-close reference
	n, err := archive.CandleCount(context.Background(), "AAPL", models.GranularityHourly, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(48), n)
}

func TestRefreshStoresHourlyAndDaily(t *testing.T) {
	store := newMemStore("AAPL")
	market := &fakeMarket{series: map[string]*models.Series{
		"AAPL/1h": hourlySeries(48, 100),
		"AAPL/1d": hourlySeries(10, 100),
	}}

	require.NoError(t, newLoader(store, market, t).Refresh(context.Background(), "AAPL"))

	hourly, err := store.GetHistory(context.Background(), "AAPL", models.GranularityHourly, 0)
	require.NoError(t, err)
	assert.Equal(t, 48, hourly.Len())

	daily, err := store.GetHistory(context.Background(), "AAPL", models.GranularityDaily, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, daily.Len())
}

func TestRefreshEmptyFetchKeepsPreviousSnapshot(t *testing.T) {
	store := newMemStore("AAPL")
	ctx := context.Background()
	require.NoError(t, store.SaveHistory(ctx, "AAPL", models.GranularityHourly, hourlySeries(48, 100)))

	market := &fakeMarket{series: map[string]*models.Series{}}
	require.NoError(t, newLoader(store, market, t).Refresh(ctx, "AAPL"))

	hourly, err := store.GetHistory(ctx, "AAPL", models.GranularityHourly, 0)
	require.NoError(t, err)
	assert.Equal(t, 48, hourly.Len())
}

func TestRefreshAllCoversIndicesAndSurvivesFailures(t *testing.T) {
	store := newMemStore("AAPL", "MSFT")
	market := &fakeMarket{series: map[string]*models.Series{
		"AAPL/1h": hourlySeries(48, 100),
		"SPY/1h":  hourlySeries(48, 400),
	}}

	require.NoError(t, newLoader(store, market, t).RefreshAll(context.Background()))

	ctx := context.Background()
	aapl, _ := store.GetHistory(ctx, "AAPL", models.GranularityHourly, 0)
	spy, _ := store.GetHistory(ctx, "SPY", models.GranularityHourly, 0)
	msft, _ := store.GetHistory(ctx, "MSFT", models.GranularityHourly, 0)
	assert.Equal(t, 48, aapl.Len())
	assert.Equal(t, 48, spy.Len())
	assert.Equal(t, 0, msft.Len())
}
