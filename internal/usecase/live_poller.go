package usecase

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	pkgcache "StockCast/pkg/cache"
	applogger "StockCast/pkg/logger"
)

// liveCacheTTL bounds how stale an in-process quote may get before a read
// falls through to Redis.
const liveCacheTTL = 30 * time.Second

// LivePoller fetches current quotes for all tracked symbols, persists
// them, and pushes stream events. A small in-process cache absorbs hot
// read paths between polls.
type LivePoller struct {
	market      drepo.MarketData
	store       drepo.SeriesStore
	cache       pkgcache.Service
	metrics     drepo.Metrics
	broadcaster *Broadcaster
	logger      *applogger.Logger
}

func NewLivePoller(
	market drepo.MarketData,
	store drepo.SeriesStore,
	cache pkgcache.Service,
	metrics drepo.Metrics,
	broadcaster *Broadcaster,
	logger *applogger.Logger,
) *LivePoller {
	return &LivePoller{
		market:      market,
		store:       store,
		cache:       cache,
		metrics:     metrics,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// PollAll fetches and records the current quote for every tracked symbol.
func (p *LivePoller) PollAll(ctx context.Context) error {
	symbols, err := p.store.TrackedSymbols(ctx)
	if err != nil {
		return fmt.Errorf("tracked symbols: %w", err)
	}
	for _, symbol := range symbols {
		if err := p.Poll(ctx, symbol); err != nil {
			p.metrics.RecordError("live_fetch")
			p.logger.Warn("live poll failed",
				applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return nil
}

// Poll fetches one symbol's quote and records it everywhere it is read:
// Redis, the in-process cache, metrics, and the stream fan-out.
func (p *LivePoller) Poll(ctx context.Context, symbol string) error {
	price, volume, err := p.market.FetchLive(ctx, symbol)
	if err != nil {
		return err
	}

	if err := p.store.SaveLivePrice(ctx, symbol, price, volume); err != nil {
		return err
	}

	point := models.PricePoint{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		Timestamp: time.Now().UTC(),
	}
	if err := p.cache.Set(ctx, liveCacheKey(symbol), point, liveCacheTTL); err != nil {
		p.logger.Debug("live cache set failed",
			applogger.String("symbol", symbol), applogger.Error(err))
	}

	p.metrics.RecordFetch(symbol)
	p.metrics.RecordLastPrice(symbol, price)
	p.broadcaster.Publish(models.StreamEvent{
		Type:      "price",
		Symbol:    symbol,
		Price:     price,
		Timestamp: point.Timestamp,
	})
	return nil
}

// Quote reads the latest price point, trying the in-process cache first
// and falling back to the store. Returns nil when the symbol was never
// polled.
func (p *LivePoller) Quote(ctx context.Context, symbol string) (*models.PricePoint, error) {
	var point models.PricePoint
	if err := p.cache.Get(ctx, liveCacheKey(symbol), &point); err == nil {
		return &point, nil
	}
	return p.store.GetLivePrice(ctx, symbol)
}

func liveCacheKey(symbol string) string {
	return pkgcache.GenerateKey("live", symbol)
}
