package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCast/pkg/metrics"
)

func TestAlertThresholdCrossing(t *testing.T) {
	store := newMemStore("AAPL")
	pub := &capturePublisher{}
	svc := NewAlertService(store, pub, metrics.Noop{}, testLogger(t),
		map[string]float64{"AAPL": 200}, 2.5, 10)

	require.NoError(t, store.SaveLivePrice(context.Background(), "AAPL", 205, 1000))
	require.NoError(t, svc.Scan(context.Background()))

	alerts, err := svc.Alerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "threshold", alerts[0].Type)
	assert.Equal(t, 205.0, alerts[0].Price)
	assert.Equal(t, 200.0, alerts[0].Threshold)
	assert.Len(t, pub.alerts, 1)
}

func TestAlertBelowThresholdIsSilent(t *testing.T) {
	store := newMemStore("AAPL")
	svc := NewAlertService(store, &capturePublisher{}, metrics.Noop{}, testLogger(t),
		map[string]float64{"AAPL": 300}, 2.5, 10)

	require.NoError(t, store.SaveLivePrice(context.Background(), "AAPL", 205, 1000))
	require.NoError(t, svc.Scan(context.Background()))

	alerts, err := svc.Alerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestAlertAnomalyZScore(t *testing.T) {
	store := newMemStore("TSLA")
	pub := &capturePublisher{}
	svc := NewAlertService(store, pub, metrics.Noop{}, testLogger(t), nil, 2.5, 10)

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		require.NoError(t, store.SaveLivePrice(ctx, "TSLA", 100+float64(i%3), 1000))
	}
	// a far outlier against a tight band
	require.NoError(t, store.SaveLivePrice(ctx, "TSLA", 150, 1000))
	require.NoError(t, svc.Scan(ctx))

	alerts, err := svc.Alerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "anomaly", alerts[0].Type)
	assert.Greater(t, alerts[0].ZScore, 2.5)
}

func TestAlertAnomalyNeedsMinSamples(t *testing.T) {
	store := newMemStore("TSLA")
	svc := NewAlertService(store, &capturePublisher{}, metrics.Noop{}, testLogger(t), nil, 2.5, 10)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveLivePrice(ctx, "TSLA", 100, 1000))
	}
	require.NoError(t, store.SaveLivePrice(ctx, "TSLA", 150, 1000))
	require.NoError(t, svc.Scan(ctx))

	alerts, err := svc.Alerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestAlertCooldownSuppressesRepeats(t *testing.T) {
	store := newMemStore("AAPL")
	pub := &capturePublisher{}
	svc := NewAlertService(store, pub, metrics.Noop{}, testLogger(t),
		map[string]float64{"AAPL": 200}, 2.5, 10)

	ctx := context.Background()
	require.NoError(t, store.SaveLivePrice(ctx, "AAPL", 205, 1000))
	require.NoError(t, svc.Scan(ctx))
	require.NoError(t, svc.Scan(ctx))

	alerts, err := svc.Alerts(ctx)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
	assert.Len(t, pub.alerts, 1)
}

func TestAlertSetThresholdAtRuntime(t *testing.T) {
	store := newMemStore("MSFT")
	pub := &capturePublisher{}
	svc := NewAlertService(store, pub, metrics.Noop{}, testLogger(t), nil, 2.5, 10)

	ctx := context.Background()
	require.NoError(t, store.SaveLivePrice(ctx, "MSFT", 410, 1000))
	require.NoError(t, svc.Scan(ctx))

	alerts, err := svc.Alerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	svc.SetThreshold("MSFT", 400)
	require.NoError(t, svc.Scan(ctx))

	alerts, err = svc.Alerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "threshold", alerts[0].Type)
	assert.Equal(t, 400.0, alerts[0].Threshold)
}

func TestZScoreFlatSeries(t *testing.T) {
	flat := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100}
	_, ok := zScore(flat, 100, 10)
	assert.False(t, ok)
}
