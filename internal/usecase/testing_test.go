package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"StockCast/internal/domain/models"
	applogger "StockCast/pkg/logger"
)

var errFetch = errors.New("fetch failed")

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

// memStore is an in-memory SeriesStore used across the usecase tests.
type memStore struct {
	mu          sync.Mutex
	histories   map[string]*models.Series
	live        map[string]*models.PricePoint
	liveHist    map[string][]float64
	prevClose   map[string]float64
	symbols     map[string]struct{}
	predictions map[string]*models.Forecast
	alerts      []*models.Alert
}

func newMemStore(symbols ...string) *memStore {
	s := &memStore{
		histories:   make(map[string]*models.Series),
		live:        make(map[string]*models.PricePoint),
		liveHist:    make(map[string][]float64),
		prevClose:   make(map[string]float64),
		symbols:     make(map[string]struct{}),
		predictions: make(map[string]*models.Forecast),
	}
	for _, sym := range symbols {
		s.symbols[sym] = struct{}{}
	}
	return s
}

func histKey(symbol string, g models.Granularity) string {
	return symbol + "/" + string(g)
}

func (s *memStore) SaveHistory(_ context.Context, symbol string, g models.Granularity, series *models.Series) error {
	if err := series.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[histKey(symbol, g)] = series
	if g == models.GranularityDaily && series.Len() > 0 {
		s.prevClose[symbol] = series.Prices[series.Len()-1]
	}
	return nil
}

func (s *memStore) GetHistory(_ context.Context, symbol string, g models.Granularity, limit int) (*models.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	series, ok := s.histories[histKey(symbol, g)]
	if !ok {
		return &models.Series{}, nil
	}
	return series.Tail(limit), nil
}

func (s *memStore) SaveLivePrice(_ context.Context, symbol string, price, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[symbol] = &models.PricePoint{Symbol: symbol, Price: price, Volume: volume}
	s.liveHist[symbol] = append(s.liveHist[symbol], price)
	return nil
}

func (s *memStore) GetLivePrice(_ context.Context, symbol string) (*models.PricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live[symbol], nil
}

func (s *memStore) LivePriceHistory(_ context.Context, symbol string, limit int) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hist := s.liveHist[symbol]
	if limit > 0 && limit < len(hist) {
		hist = hist[len(hist)-limit:]
	}
	return append([]float64(nil), hist...), nil
}

func (s *memStore) GetChangePercent(_ context.Context, symbol string) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	point, ok := s.live[symbol]
	prev, ok2 := s.prevClose[symbol]
	if !ok || !ok2 || prev == 0 {
		return 0, false, nil
	}
	return (point.Price - prev) / prev * 100, true, nil
}

func (s *memStore) TrackedSymbols(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}

func (s *memStore) TrackSymbol(_ context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols[symbol] = struct{}{}
	return nil
}

func (s *memStore) SavePrediction(_ context.Context, symbol string, f *models.Forecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictions[symbol] = f
	return nil
}

func (s *memStore) GetPrediction(_ context.Context, symbol string) (*models.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.predictions[symbol], nil
}

func (s *memStore) SaveAlert(_ context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append([]*models.Alert{a}, s.alerts...)
	return nil
}

func (s *memStore) GetAlerts(context.Context) ([]*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Alert(nil), s.alerts...), nil
}

func (s *memStore) Health(context.Context) error { return nil }

func (s *memStore) Close() error { return nil }

// fakeMarket serves canned series and quotes.
type fakeMarket struct {
	mu      sync.Mutex
	series  map[string]*models.Series
	quotes  map[string][2]float64
	fetches int
	fail    bool
}

func (f *fakeMarket) FetchSeries(_ context.Context, symbol, _, interval string) (*models.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fail {
		return nil, errFetch
	}
	s, ok := f.series[symbol+"/"+interval]
	if !ok {
		return &models.Series{}, nil
	}
	return s, nil
}

func (f *fakeMarket) FetchLive(_ context.Context, symbol string) (float64, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, 0, errFetch
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return 0, 0, errFetch
	}
	return q[0], q[1], nil
}

// capturePublisher records published events.
type capturePublisher struct {
	mu          sync.Mutex
	alerts      []*models.Alert
	predictions []*models.Forecast
}

func (p *capturePublisher) PublishAlert(_ context.Context, a *models.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
	return nil
}

func (p *capturePublisher) PublishPrediction(_ context.Context, f *models.Forecast) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.predictions = append(p.predictions, f)
	return nil
}

func (p *capturePublisher) Close() error { return nil }
