package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	applogger "StockCast/pkg/logger"
)

// liveHistoryDepth bounds the rolling live-price list per symbol.
const liveHistoryDepth = 500

// alertsDepth bounds the shared alert feed.
const alertsDepth = 20

// RedisSeriesStore implements SeriesStore on Redis lists and sets. History
// arrays live as three parallel lists per symbol and granularity; a history
// write replaces all three inside one transaction so readers never observe
// lists of different lengths.
type RedisSeriesStore struct {
	client *redis.Client
	prefix string
	l      *applogger.Logger
}

func NewRedisSeriesStore(client *redis.Client, prefix string, l *applogger.Logger) *RedisSeriesStore {
	if prefix == "" {
		prefix = "stockcast"
	}
	return &RedisSeriesStore{client: client, prefix: prefix, l: l}
}

// SeedSymbols adds the configured symbols to the tracked set. Existing
// members are untouched, so symbols tracked at runtime survive restarts.
func (s *RedisSeriesStore) SeedSymbols(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	members := make([]interface{}, len(symbols))
	for i, sym := range symbols {
		members[i] = sym
	}
	return s.client.SAdd(ctx, s.key("symbols"), members...).Err()
}

func (s *RedisSeriesStore) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (s *RedisSeriesStore) histKeys(symbol string, g models.Granularity) (prices, volumes, times string) {
	base := s.key("hist", string(g), symbol)
	return base + ":prices", base + ":volumes", base + ":ts"
}

func (s *RedisSeriesStore) SaveHistory(ctx context.Context, symbol string, g models.Granularity, series *models.Series) error {
	if err := series.Validate(); err != nil {
		return err
	}

	pk, vk, tk := s.histKeys(symbol, g)

	prices := make([]interface{}, series.Len())
	volumes := make([]interface{}, series.Len())
	times := make([]interface{}, series.Len())
	for i := 0; i < series.Len(); i++ {
		prices[i] = strconv.FormatFloat(series.Prices[i], 'f', -1, 64)
		volumes[i] = strconv.FormatFloat(series.Volumes[i], 'f', -1, 64)
		times[i] = strconv.FormatInt(series.Timestamps[i].Unix(), 10)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, pk, vk, tk)
	if series.Len() > 0 {
		pipe.RPush(ctx, pk, prices...)
		pipe.RPush(ctx, vk, volumes...)
		pipe.RPush(ctx, tk, times...)
	}
	if g == models.GranularityDaily && series.Len() > 0 {
		last := series.Prices[series.Len()-1]
		pipe.Set(ctx, s.key("prevclose", symbol), strconv.FormatFloat(last, 'f', -1, 64), 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save history %s/%s: %w", symbol, g, err)
	}
	return nil
}

func (s *RedisSeriesStore) GetHistory(ctx context.Context, symbol string, g models.Granularity, limit int) (*models.Series, error) {
	pk, vk, tk := s.histKeys(symbol, g)

	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	pipe := s.client.Pipeline()
	pricesCmd := pipe.LRange(ctx, pk, start, -1)
	volumesCmd := pipe.LRange(ctx, vk, start, -1)
	timesCmd := pipe.LRange(ctx, tk, start, -1)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get history %s/%s: %w", symbol, g, err)
	}

	series := &models.Series{}
	var err error
	if series.Prices, err = parseFloats(pricesCmd.Val()); err != nil {
		return nil, err
	}
	if series.Volumes, err = parseFloats(volumesCmd.Val()); err != nil {
		return nil, err
	}
	for _, raw := range timesCmd.Val() {
		sec, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt timestamp %q: %w", raw, err)
		}
		series.Timestamps = append(series.Timestamps, time.Unix(sec, 0).UTC())
	}

	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("history %s/%s: %w", symbol, g, err)
	}
	return series, nil
}

func (s *RedisSeriesStore) SaveLivePrice(ctx context.Context, symbol string, price, volume float64) error {
	point := models.PricePoint{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(point)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key("live", symbol), data, 0)
	pipe.RPush(ctx, s.key("livehist", symbol), strconv.FormatFloat(price, 'f', -1, 64))
	pipe.LTrim(ctx, s.key("livehist", symbol), -liveHistoryDepth, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save live %s: %w", symbol, err)
	}
	return nil
}

func (s *RedisSeriesStore) GetLivePrice(ctx context.Context, symbol string) (*models.PricePoint, error) {
	data, err := s.client.Get(ctx, s.key("live", symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get live %s: %w", symbol, err)
	}

	var point models.PricePoint
	if err := json.Unmarshal(data, &point); err != nil {
		return nil, fmt.Errorf("corrupt live point %s: %w", symbol, err)
	}
	return &point, nil
}

func (s *RedisSeriesStore) LivePriceHistory(ctx context.Context, symbol string, limit int) ([]float64, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := s.client.LRange(ctx, s.key("livehist", symbol), start, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("live history %s: %w", symbol, err)
	}
	return parseFloats(raw)
}

// GetChangePercent compares the latest live price against the previous
// daily close. The bool is false when either side is missing.
func (s *RedisSeriesStore) GetChangePercent(ctx context.Context, symbol string) (float64, bool, error) {
	point, err := s.GetLivePrice(ctx, symbol)
	if err != nil || point == nil {
		return 0, false, err
	}

	raw, err := s.client.Get(ctx, s.key("prevclose", symbol)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("prev close %s: %w", symbol, err)
	}
	prev, err := strconv.ParseFloat(raw, 64)
	if err != nil || prev == 0 {
		return 0, false, err
	}
	return (point.Price - prev) / prev * 100, true, nil
}

func (s *RedisSeriesStore) TrackedSymbols(ctx context.Context) ([]string, error) {
	symbols, err := s.client.SMembers(ctx, s.key("symbols")).Result()
	if err != nil {
		return nil, fmt.Errorf("tracked symbols: %w", err)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *RedisSeriesStore) TrackSymbol(ctx context.Context, symbol string) error {
	return s.client.SAdd(ctx, s.key("symbols"), symbol).Err()
}

func (s *RedisSeriesStore) SavePrediction(ctx context.Context, symbol string, f *models.Forecast) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key("prediction", symbol), data, 0).Err()
}

func (s *RedisSeriesStore) GetPrediction(ctx context.Context, symbol string) (*models.Forecast, error) {
	data, err := s.client.Get(ctx, s.key("prediction", symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction %s: %w", symbol, err)
	}

	var f models.Forecast
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("corrupt prediction %s: %w", symbol, err)
	}
	return &f, nil
}

func (s *RedisSeriesStore) SaveAlert(ctx context.Context, a *models.Alert) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key("alerts"), data)
	pipe.LTrim(ctx, s.key("alerts"), 0, alertsDepth-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

func (s *RedisSeriesStore) GetAlerts(ctx context.Context) ([]*models.Alert, error) {
	raw, err := s.client.LRange(ctx, s.key("alerts"), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get alerts: %w", err)
	}

	alerts := make([]*models.Alert, 0, len(raw))
	for _, item := range raw {
		var a models.Alert
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			if s.l != nil {
				s.l.Warn("skipping corrupt alert entry", applogger.Error(err))
			}
			continue
		}
		alerts = append(alerts, &a)
	}
	return alerts, nil
}

func (s *RedisSeriesStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSeriesStore) Close() error {
	return s.client.Close()
}

func parseFloats(raw []string) ([]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]float64, len(raw))
	for i, r := range raw {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt numeric entry %q: %w", r, err)
		}
		out[i] = v
	}
	return out, nil
}

var _ domrepo.SeriesStore = (*RedisSeriesStore)(nil)
