package di

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
	"StockCast/internal/handler/api"
	internalrepo "StockCast/internal/repository"
	"StockCast/internal/service/polygon"
	"StockCast/internal/services/drift"
	"StockCast/internal/services/forecast"
	"StockCast/internal/usecase"
	pkgcache "StockCast/pkg/cache"
	pkgch "StockCast/pkg/clickhouse"
	"StockCast/pkg/config"
	xhttp "StockCast/pkg/http"
	pkgkafka "StockCast/pkg/kafka"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/metrics"
	"StockCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideRedisCache creates the Redis connection shared by the series
// store.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	cache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return cache, nil
}

// ProvideSeriesStore creates the Redis series store and seeds the tracked
// symbol set from config.
func ProvideSeriesStore(cache *pkgcache.RedisCache, cfg *config.Config, l *applogger.Logger) (repository.SeriesStore, error) {
	store := internalrepo.NewRedisSeriesStore(cache.Client(), cfg.Redis.Prefix, l)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.SeedSymbols(ctx, cfg.Market.Symbols); err != nil {
		return nil, fmt.Errorf("seed symbols: %w", err)
	}
	return store, nil
}

// ProvideCandleArchive creates the ClickHouse archive, or a no-op when
// ClickHouse is disabled.
func ProvideCandleArchive(cfg *config.Config) (repository.CandleArchive, error) {
	if !cfg.ClickHouse.Enabled {
		return internalrepo.NoopArchive{}, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return internalrepo.NewClickHouseArchive(client), nil
}

// ProvideEventPublisher creates the Kafka publisher, or a no-op when Kafka
// is disabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.AlertTopic, cfg.Kafka.PredictionTopic), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideMarketData creates the Polygon client.
func ProvideMarketData(cfg *config.Config) repository.MarketData {
	return polygon.New(cfg.Polygon.APIKey, cfg.Polygon.BaseURL, cfg.Polygon.Timeout, cfg.Polygon.RequestsPerSecond)
}

// ProvideRegistry builds the model stack: dataset builder, regressor, and
// the registry that serializes access to them.
func ProvideRegistry(store repository.SeriesStore, cfg *config.Config, l *applogger.Logger) (*forecast.Registry, error) {
	mcfg := forecast.Config{
		LookBack:      cfg.Forecast.LookBack,
		ValSize:       cfg.Forecast.ValSize,
		Interval:      cfg.Market.Interval,
		HistoryPeriod: cfg.Market.HistoryPeriod,
		Indices:       cfg.Market.Indices,
		ArtifactDir:   cfg.Forecast.ArtifactDir,
	}
	builder := forecast.NewDatasetBuilder(store, mcfg.LookBack, mcfg.Indices,
		models.GranularityFor(cfg.Market.Interval))
	boosted := forecast.NewBoostedModel(mcfg, builder, l)

	model, err := forecast.New(cfg.Forecast.ModelType, boosted)
	if err != nil {
		return nil, err
	}
	return forecast.NewRegistry(model, l), nil
}

// ProvideBroadcaster creates the stream fan-out hub.
func ProvideBroadcaster() *usecase.Broadcaster {
	return usecase.NewBroadcaster()
}

// ProvideForecastService creates the forecast orchestration use case.
func ProvideForecastService(
	store repository.SeriesStore,
	registry *forecast.Registry,
	publisher repository.EventPublisher,
	m repository.Metrics,
	b *usecase.Broadcaster,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.ForecastService {
	return usecase.NewForecastService(store, registry, publisher, m, b, l,
		cfg.Market.Interval, cfg.Forecast.Steps)
}

// ProvideHistoryLoader creates the history refresh use case.
func ProvideHistoryLoader(
	market repository.MarketData,
	store repository.SeriesStore,
	archive repository.CandleArchive,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.HistoryLoader {
	return usecase.NewHistoryLoader(market, store, archive, m, l,
		cfg.Market.Indices, cfg.Market.HistoryPeriod, cfg.Market.Interval, cfg.Market.FetchDelay)
}

// ProvideLivePoller creates the live quote poller. Quotes sit behind a
// layered cache so reads hit process memory first and Redis only on a
// miss.
func ProvideLivePoller(
	market repository.MarketData,
	store repository.SeriesStore,
	cache *pkgcache.RedisCache,
	m repository.Metrics,
	b *usecase.Broadcaster,
	l *applogger.Logger,
) *usecase.LivePoller {
	layered := pkgcache.NewLayeredCache(cache, pkgcache.WithLayeredMemorySize(256))
	return usecase.NewLivePoller(market, store, layered, m, b, l)
}

// ProvideTrainer creates the model lifecycle use case.
func ProvideTrainer(registry *forecast.Registry, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *usecase.Trainer {
	return usecase.NewTrainer(
		registry,
		drift.NewMonitor(cfg.Forecast.BacktestLog, cfg.Drift.Threshold),
		forecast.NewBacktestLog(cfg.Forecast.BacktestLog),
		forecast.NewImportanceLog(cfg.Forecast.ImportanceLog),
		m, l,
		cfg.Forecast.ValSize, cfg.Drift.Window, cfg.Forecast.ImportanceTopK,
	)
}

// ProvideAlertService creates the alert scanner.
func ProvideAlertService(
	store repository.SeriesStore,
	publisher repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.AlertService {
	return usecase.NewAlertService(store, publisher, m, l,
		cfg.Alerts.Thresholds, cfg.Alerts.AnomalyZ, cfg.Alerts.MinSamples)
}

// ProvideRunner schedules the background loops.
func ProvideRunner(
	poller *usecase.LivePoller,
	loader *usecase.HistoryLoader,
	fc *usecase.ForecastService,
	trainer *usecase.Trainer,
	alerts *usecase.AlertService,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Runner {
	return usecase.NewRunner(poller, loader, fc, trainer, alerts, l, usecase.RunnerIntervals{
		Poll:         cfg.Market.FetchInterval,
		Refresh:      cfg.Forecast.RefreshInterval,
		Predict:      cfg.Forecast.PredictInterval,
		Retrain:      cfg.Forecast.RetrainInterval,
		AlertScan:    cfg.Alerts.ScanInterval,
		BacktestHour: cfg.Forecast.BacktestHour,
	})
}

// ProvideHTTPHandler creates the Echo API handler with the stream
// endpoint attached.
func ProvideHTTPHandler(
	l *applogger.Logger,
	store repository.SeriesStore,
	poller *usecase.LivePoller,
	fc *usecase.ForecastService,
	trainer *usecase.Trainer,
	alerts *usecase.AlertService,
	b *usecase.Broadcaster,
) xhttp.Handler {
	stream := api.NewStreamHandler(b, l)
	return api.NewMarketEchoHandler(l, store, poller, fc, trainer, alerts, stream)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	store repository.SeriesStore,
	archive repository.CandleArchive,
	publisher repository.EventPublisher,
	registry *forecast.Registry,
	loader *usecase.HistoryLoader,
	runner *usecase.Runner,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, l, store, archive, publisher, registry, loader, runner, handler)
}
