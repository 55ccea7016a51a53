package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"StockCast/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Redis struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		PoolSize     int           `yaml:"pool_size"`
		MinIdleConns int           `yaml:"min_idle_conns"`
		PoolTimeout  time.Duration `yaml:"pool_timeout"`
		Prefix       string        `yaml:"prefix"`
	} `yaml:"redis"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port"`
		Database    string        `yaml:"database"`
		User        string        `yaml:"user"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
		ReadTimeout time.Duration `yaml:"read_timeout"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled         bool          `yaml:"enabled"`
		Brokers         []string      `yaml:"brokers"`
		AlertTopic      string        `yaml:"alert_topic"`
		PredictionTopic string        `yaml:"prediction_topic"`
		RequiredAcks    int           `yaml:"required_acks"`
		Compression     string        `yaml:"compression"`
		MaxAttempts     int           `yaml:"max_attempts"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
	} `yaml:"kafka"`
	Polygon struct {
		APIKey            string        `yaml:"api_key"`
		BaseURL           string        `yaml:"base_url"`
		Timeout           time.Duration `yaml:"timeout"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
	} `yaml:"polygon"`
	Market struct {
		Symbols       []string      `yaml:"symbols"`
		Indices       []string      `yaml:"indices"`
		FetchInterval time.Duration `yaml:"fetch_interval"`
		FetchDelay    time.Duration `yaml:"fetch_delay"`
		HistoryPeriod string        `yaml:"history_period"`
		Interval      string        `yaml:"interval"`
	} `yaml:"market"`
	Forecast struct {
		ModelType       string        `yaml:"model_type"`
		LookBack        int           `yaml:"look_back"`
		ValSize         int           `yaml:"val_size"`
		Steps           int           `yaml:"steps"`
		ArtifactDir     string        `yaml:"artifact_dir"`
		BacktestLog     string        `yaml:"backtest_log"`
		ImportanceLog   string        `yaml:"importance_log"`
		ImportanceTopK  int           `yaml:"importance_top_k"`
		RetrainInterval time.Duration `yaml:"retrain_interval"`
		RefreshInterval time.Duration `yaml:"refresh_interval"`
		PredictInterval time.Duration `yaml:"predict_interval"`
		BacktestHour    int           `yaml:"backtest_hour"`
	} `yaml:"forecast"`
	Drift struct {
		Window    int     `yaml:"window"`
		Threshold float64 `yaml:"threshold"`
	} `yaml:"drift"`
	Alerts struct {
		ScanInterval time.Duration      `yaml:"scan_interval"`
		AnomalyZ     float64            `yaml:"anomaly_z"`
		MinSamples   int                `yaml:"min_samples"`
		Thresholds   map[string]float64 `yaml:"thresholds"`
	} `yaml:"alerts"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.Polygon.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Market.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		c.Redis.Port = util.ParseIntDefault(v, c.Redis.Port)
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("MODEL_TYPE"); v != "" {
		c.Forecast.ModelType = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Forecast.ModelType == "" {
		c.Forecast.ModelType = "boosted"
	}
	if c.Forecast.LookBack <= 0 {
		c.Forecast.LookBack = 20
	}
	if c.Forecast.ValSize <= 0 {
		c.Forecast.ValSize = 200
	}
	if c.Forecast.Steps <= 0 {
		c.Forecast.Steps = 5
	}
	if c.Forecast.ImportanceTopK <= 0 {
		c.Forecast.ImportanceTopK = 10
	}
	if c.Market.Interval == "" {
		c.Market.Interval = "1h"
	}
	if c.Market.HistoryPeriod == "" {
		c.Market.HistoryPeriod = "2y"
	}
	if c.Drift.Window <= 0 {
		c.Drift.Window = 5
	}
	if c.Drift.Threshold <= 0 {
		c.Drift.Threshold = 0.0005
	}
	if c.Alerts.AnomalyZ <= 0 {
		c.Alerts.AnomalyZ = 2.5
	}
	if c.Alerts.MinSamples <= 0 {
		c.Alerts.MinSamples = 10
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("market.symbols cannot be empty")
	}
	if c.Market.Interval != "1h" && c.Market.Interval != "1d" {
		return fmt.Errorf("market.interval must be '1h' or '1d', got '%s'", c.Market.Interval)
	}
	if c.Forecast.ModelType != "boosted" && c.Forecast.ModelType != "naive" {
		return fmt.Errorf("forecast.model_type must be 'boosted' or 'naive', got '%s'", c.Forecast.ModelType)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host required when clickhouse is enabled")
	}
	if c.Forecast.BacktestHour < 0 || c.Forecast.BacktestHour > 23 {
		return fmt.Errorf("forecast.backtest_hour must be in [0,23]")
	}
	return nil
}
