package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	applogger "StockCast/pkg/logger"
)

// alertCooldown suppresses repeat alerts for the same symbol and type.
const alertCooldown = 30 * time.Minute

// AlertService scans live prices for threshold crossings and statistical
// anomalies, persists the alerts, and publishes them to the event bus.
type AlertService struct {
	store     drepo.SeriesStore
	publisher drepo.EventPublisher
	metrics   drepo.Metrics
	logger    *applogger.Logger

	anomalyZ   float64
	minSamples int

	mu         sync.Mutex
	thresholds map[string]float64
	lastSent   map[string]time.Time
}

func NewAlertService(
	store drepo.SeriesStore,
	publisher drepo.EventPublisher,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	thresholds map[string]float64,
	anomalyZ float64,
	minSamples int,
) *AlertService {
	if anomalyZ <= 0 {
		anomalyZ = 2.5
	}
	if minSamples <= 0 {
		minSamples = 10
	}
	th := make(map[string]float64, len(thresholds))
	for k, v := range thresholds {
		th[k] = v
	}
	return &AlertService{
		store:      store,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		thresholds: th,
		anomalyZ:   anomalyZ,
		minSamples: minSamples,
		lastSent:   make(map[string]time.Time),
	}
}

// Scan checks every tracked symbol once.
func (s *AlertService) Scan(ctx context.Context) error {
	symbols, err := s.store.TrackedSymbols(ctx)
	if err != nil {
		return err
	}
	for _, symbol := range symbols {
		if err := s.scanSymbol(ctx, symbol); err != nil {
			s.metrics.RecordError("alert_scan")
			s.logger.Warn("alert scan failed",
				applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return nil
}

func (s *AlertService) scanSymbol(ctx context.Context, symbol string) error {
	point, err := s.store.GetLivePrice(ctx, symbol)
	if err != nil || point == nil {
		return err
	}

	if threshold, ok := s.threshold(symbol); ok && point.Price >= threshold {
		s.emit(ctx, &models.Alert{
			Type:      "threshold",
			Symbol:    symbol,
			Price:     point.Price,
			Threshold: threshold,
			Timestamp: time.Now().UTC(),
		})
	}

	history, err := s.store.LivePriceHistory(ctx, symbol, 0)
	if err != nil {
		return err
	}
	if z, ok := zScore(history, point.Price, s.minSamples); ok && math.Abs(z) >= s.anomalyZ {
		s.emit(ctx, &models.Alert{
			Type:      "anomaly",
			Symbol:    symbol,
			Price:     point.Price,
			ZScore:    z,
			Timestamp: time.Now().UTC(),
		})
	}
	return nil
}

func (s *AlertService) emit(ctx context.Context, a *models.Alert) {
	if !s.shouldSend(a) {
		return
	}

	if err := s.store.SaveAlert(ctx, a); err != nil {
		s.logger.Error("persist alert failed",
			applogger.String("symbol", a.Symbol), applogger.Error(err))
	}
	if err := s.publisher.PublishAlert(ctx, a); err != nil {
		s.logger.Warn("publish alert failed",
			applogger.String("symbol", a.Symbol), applogger.Error(err))
	}
	s.logger.Info("alert raised",
		applogger.String("type", a.Type),
		applogger.String("symbol", a.Symbol),
		applogger.Float64("price", a.Price))
}

func (s *AlertService) shouldSend(a *models.Alert) bool {
	key := a.Type + ":" + a.Symbol
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastSent[key]; ok && now.Sub(last) < alertCooldown {
		return false
	}
	s.lastSent[key] = now
	return true
}

// SetThreshold registers or replaces the price threshold for a symbol.
func (s *AlertService) SetThreshold(symbol string, threshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholds[symbol] = threshold
}

func (s *AlertService) threshold(symbol string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.thresholds[symbol]
	return v, ok
}

// Alerts returns the recent alert feed, newest first.
func (s *AlertService) Alerts(ctx context.Context) ([]*models.Alert, error) {
	return s.store.GetAlerts(ctx)
}

// zScore scores value against the history's mean and standard deviation.
// Returns false when the sample is too small or the series is flat.
func zScore(history []float64, value float64, minSamples int) (float64, bool) {
	if len(history) < minSamples {
		return 0, false
	}

	var sum float64
	for _, v := range history {
		sum += v
	}
	m := sum / float64(len(history))

	var varSum float64
	for _, v := range history {
		d := v - m
		varSum += d * d
	}
	std := math.Sqrt(varSum / float64(len(history)))
	if std == 0 {
		return 0, false
	}
	return (value - m) / std, true
}
