package usecase

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	applogger "StockCast/pkg/logger"
)

// HistoryLoader pulls bar history from the market data source into the
// series store and mirrors it into the long-term archive. One failed
// symbol never aborts the sweep; the previous snapshot stays serving.
type HistoryLoader struct {
	market  drepo.MarketData
	store   drepo.SeriesStore
	archive drepo.CandleArchive
	metrics drepo.Metrics
	logger  *applogger.Logger

	indices    []string
	period     string
	interval   string
	fetchDelay time.Duration
}

func NewHistoryLoader(
	market drepo.MarketData,
	store drepo.SeriesStore,
	archive drepo.CandleArchive,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	indices []string,
	period, interval string,
	fetchDelay time.Duration,
) *HistoryLoader {
	return &HistoryLoader{
		market:     market,
		store:      store,
		archive:    archive,
		metrics:    metrics,
		logger:     logger,
		indices:    indices,
		period:     period,
		interval:   interval,
		fetchDelay: fetchDelay,
	}
}

// RefreshAll re-pulls history for every tracked symbol plus the market
// indices, spacing requests by the configured delay to stay inside the
// provider's rate limit.
func (h *HistoryLoader) RefreshAll(ctx context.Context) error {
	symbols, err := h.store.TrackedSymbols(ctx)
	if err != nil {
		return fmt.Errorf("tracked symbols: %w", err)
	}

	all := append(append([]string{}, symbols...), h.indices...)
	for i, symbol := range all {
		if i > 0 && h.fetchDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(h.fetchDelay):
			}
		}
		if err := h.Refresh(ctx, symbol); err != nil {
			h.metrics.RecordError("history_fetch")
			h.logger.Error("history refresh failed",
				applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return nil
}

// Refresh re-pulls one symbol at the working interval, plus a daily series
// for the previous-close reference when the working interval is hourly.
func (h *HistoryLoader) Refresh(ctx context.Context, symbol string) error {
	start := time.Now()
	g := models.GranularityFor(h.interval)

	series, err := h.market.FetchSeries(ctx, symbol, h.period, h.interval)
	if err != nil {
		return err
	}
	if series.Len() == 0 {
		h.logger.Warn("empty history fetch, keeping previous snapshot",
			applogger.String("symbol", symbol))
		return nil
	}

	if err := h.store.SaveHistory(ctx, symbol, g, series); err != nil {
		return err
	}
	h.metrics.RecordFetch(symbol)
	h.metrics.RecordLatency("history_fetch", time.Since(start).Seconds())

	if g != models.GranularityDaily {
		daily, err := h.market.FetchSeries(ctx, symbol, h.period, "1d")
		if err != nil {
			h.logger.Warn("daily history fetch failed",
				applogger.String("symbol", symbol), applogger.Error(err))
		} else if daily.Len() > 0 {
			if err := h.store.SaveHistory(ctx, symbol, models.GranularityDaily, daily); err != nil {
				return err
			}
		}
	}

	// archive write is best effort: Redis remains the working set
	if err := h.archive.StoreSeries(ctx, symbol, g, series); err != nil {
		h.logger.Warn("archive write failed",
			applogger.String("symbol", symbol), applogger.Error(err))
	} else if n, cerr := h.archive.CandleCount(ctx, symbol, g, time.Time{}); cerr == nil && n > 0 {
		h.logger.Debug("archive depth",
			applogger.String("symbol", symbol), applogger.Int("candles", int(n)))
	}

	h.logger.Info("history refreshed",
		applogger.String("symbol", symbol),
		applogger.Int("points", series.Len()))
	return nil
}
