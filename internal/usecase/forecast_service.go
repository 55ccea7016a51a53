package usecase

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	"StockCast/internal/services/forecast"
	applogger "StockCast/pkg/logger"
)

// ForecastService runs forecasts against the shared model registry and
// fans the results out to the store, the event bus, and stream
// subscribers.
type ForecastService struct {
	store       drepo.SeriesStore
	registry    *forecast.Registry
	publisher   drepo.EventPublisher
	metrics     drepo.Metrics
	broadcaster *Broadcaster
	logger      *applogger.Logger

	granularity  models.Granularity
	defaultSteps int
}

func NewForecastService(
	store drepo.SeriesStore,
	registry *forecast.Registry,
	publisher drepo.EventPublisher,
	metrics drepo.Metrics,
	broadcaster *Broadcaster,
	logger *applogger.Logger,
	interval string,
	defaultSteps int,
) *ForecastService {
	return &ForecastService{
		store:        store,
		registry:     registry,
		publisher:    publisher,
		metrics:      metrics,
		broadcaster:  broadcaster,
		logger:       logger,
		granularity:  models.GranularityFor(interval),
		defaultSteps: defaultSteps,
	}
}

// Forecast produces a banded multi-step forecast for symbol and persists
// it. A not-ready model yields a Forecast with empty slices, not an error.
func (s *ForecastService) Forecast(ctx context.Context, symbol string, steps int) (*models.Forecast, error) {
	if steps <= 0 {
		steps = s.defaultSteps
	}

	series, err := s.store.GetHistory(ctx, symbol, s.granularity, 0)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}

	start := time.Now()
	preds, high, low := s.registry.PredictBanded(series.Prices, series.Volumes, series.Timestamps, steps)
	s.metrics.RecordLatency("forecast", time.Since(start).Seconds())

	f := &models.Forecast{
		Symbol:    symbol,
		Prices:    preds,
		High:      high,
		Low:       low,
		Steps:     steps,
		Timestamp: time.Now().UTC(),
	}

	if len(preds) == 0 {
		return f, nil
	}
	s.metrics.RecordForecast(symbol)

	if err := s.store.SavePrediction(ctx, symbol, f); err != nil {
		s.logger.Error("persist prediction failed",
			applogger.String("symbol", symbol), applogger.Error(err))
	}
	if err := s.publisher.PublishPrediction(ctx, f); err != nil {
		s.logger.Warn("publish prediction failed",
			applogger.String("symbol", symbol), applogger.Error(err))
	}
	s.broadcaster.Publish(models.StreamEvent{
		Type:      "forecast",
		Symbol:    symbol,
		Price:     preds[len(preds)-1],
		Timestamp: f.Timestamp,
	})
	return f, nil
}

// ForecastAll refreshes predictions for every tracked symbol.
func (s *ForecastService) ForecastAll(ctx context.Context) error {
	symbols, err := s.store.TrackedSymbols(ctx)
	if err != nil {
		return err
	}
	for _, symbol := range symbols {
		if _, err := s.Forecast(ctx, symbol, 0); err != nil {
			s.metrics.RecordError("forecast")
			s.logger.Error("forecast failed",
				applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return nil
}

// CachedForecast returns the last stored prediction, which may be nil.
func (s *ForecastService) CachedForecast(ctx context.Context, symbol string) (*models.Forecast, error) {
	return s.store.GetPrediction(ctx, symbol)
}

// TargetProbability estimates the chance of price touching target within
// steps. The bool is false when the active model cannot estimate it.
func (s *ForecastService) TargetProbability(ctx context.Context, symbol string, target float64, steps int) (float64, bool, error) {
	if steps <= 0 {
		steps = s.defaultSteps
	}
	series, err := s.store.GetHistory(ctx, symbol, s.granularity, 0)
	if err != nil {
		return 0, false, fmt.Errorf("history %s: %w", symbol, err)
	}
	p, ok := s.registry.TargetProbability(series.Prices, series.Volumes, series.Timestamps, target, steps, 200)
	return p, ok, nil
}

// Importances returns the active model's ranked feature importances.
func (s *ForecastService) Importances(topK int) []models.FeatureImportance {
	return s.registry.Importances(topK)
}
