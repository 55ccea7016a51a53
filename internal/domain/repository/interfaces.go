package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
)

// SeriesStore is the time-series store contract. SaveHistory replaces prior
// data atomically and requires equal-length arrays; GetHistory returns an
// empty series when the symbol is absent.
type SeriesStore interface {
	SaveHistory(ctx context.Context, symbol string, g models.Granularity, s *models.Series) error
	GetHistory(ctx context.Context, symbol string, g models.Granularity, limit int) (*models.Series, error)

	SaveLivePrice(ctx context.Context, symbol string, price, volume float64) error
	GetLivePrice(ctx context.Context, symbol string) (*models.PricePoint, error)
	LivePriceHistory(ctx context.Context, symbol string, limit int) ([]float64, error)
	GetChangePercent(ctx context.Context, symbol string) (float64, bool, error)

	TrackedSymbols(ctx context.Context) ([]string, error)
	TrackSymbol(ctx context.Context, symbol string) error

	SavePrediction(ctx context.Context, symbol string, f *models.Forecast) error
	GetPrediction(ctx context.Context, symbol string) (*models.Forecast, error)

	SaveAlert(ctx context.Context, a *models.Alert) error
	GetAlerts(ctx context.Context) ([]*models.Alert, error)

	Health(ctx context.Context) error
	Close() error
}

// MarketData is the market data source contract. A failed or empty fetch is
// transient; callers fall back to last-known data rather than aborting.
type MarketData interface {
	FetchSeries(ctx context.Context, symbol, period, interval string) (*models.Series, error)
	FetchLive(ctx context.Context, symbol string) (price, volume float64, err error)
}

// EventPublisher pushes alert and prediction events to the message bus.
type EventPublisher interface {
	PublishAlert(ctx context.Context, a *models.Alert) error
	PublishPrediction(ctx context.Context, f *models.Forecast) error
	Close() error
}

// CandleArchive is long-term candle storage fed by the history refresh job.
type CandleArchive interface {
	Init(ctx context.Context) error
	StoreSeries(ctx context.Context, symbol string, g models.Granularity, s *models.Series) error
	CandleCount(ctx context.Context, symbol string, g models.Granularity, since time.Time) (int64, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordFetch(symbol string)
	RecordForecast(symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordTrainDuration(seconds float64)
}
