package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgcache "StockCast/pkg/cache"
	"StockCast/pkg/metrics"
)

func newPoller(store *memStore, market *fakeMarket, b *Broadcaster, t *testing.T) *LivePoller {
	return NewLivePoller(market, store, pkgcache.NewMemoryCache(), metrics.Noop{}, b, testLogger(t))
}

func TestPollPersistsAndBroadcasts(t *testing.T) {
	store := newMemStore("AAPL")
	market := &fakeMarket{quotes: map[string][2]float64{"AAPL": {205.5, 9000}}}
	b := NewBroadcaster()
	sub := b.Subscribe()

	poller := newPoller(store, market, b, t)
	require.NoError(t, poller.Poll(context.Background(), "AAPL"))

	point, err := store.GetLivePrice(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, point)
	assert.Equal(t, 205.5, point.Price)

	select {
	case ev := <-sub:
		assert.Equal(t, "price", ev.Type)
		assert.Equal(t, 205.5, ev.Price)
	default:
		t.Fatal("no stream event published")
	}
}

func TestPollAllContinuesPastFailures(t *testing.T) {
	store := newMemStore("AAPL", "GHOST")
	market := &fakeMarket{quotes: map[string][2]float64{"AAPL": {101, 1}}}

	poller := newPoller(store, market, NewBroadcaster(), t)
	require.NoError(t, poller.PollAll(context.Background()))

	point, err := store.GetLivePrice(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.NotNil(t, point)
}

func TestQuoteReadsCacheFirst(t *testing.T) {
	store := newMemStore("AAPL")
	market := &fakeMarket{quotes: map[string][2]float64{"AAPL": {101, 1}}}
	poller := newPoller(store, market, NewBroadcaster(), t)

	ctx := context.Background()
	require.NoError(t, poller.Poll(ctx, "AAPL"))

	// flip the market source; the cached quote still serves
	market.mu.Lock()
	market.quotes["AAPL"] = [2]float64{999, 1}
	market.mu.Unlock()

	point, err := poller.Quote(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, point)
	assert.Equal(t, 101.0, point.Price)
}

func TestQuoteFallsBackToStore(t *testing.T) {
	store := newMemStore("AAPL")
	require.NoError(t, store.SaveLivePrice(context.Background(), "AAPL", 88, 1))

	poller := newPoller(store, &fakeMarket{}, NewBroadcaster(), t)
	point, err := poller.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, point)
	assert.Equal(t, 88.0, point.Price)
}
