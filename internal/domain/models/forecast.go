package models

import "time"

// Forecast is a multi-step price forecast for one symbol.
type Forecast struct {
	Symbol    string    `json:"symbol"`
	Prices    []float64 `json:"prices"`
	High      []float64 `json:"high,omitempty"`
	Low       []float64 `json:"low,omitempty"`
	Steps     int       `json:"steps"`
	Timestamp time.Time `json:"timestamp"`
}

// BacktestResult records one walk-forward validation run. Immutable once
// appended to the backtest log.
type BacktestResult struct {
	Timestamp      time.Time `json:"timestamp"`
	MAEModel       float64   `json:"mae_model"`
	MAEBaseline    float64   `json:"mae_baseline"`
	DirAccModel    float64   `json:"directional_accuracy_model"`
	DirAccBaseline float64   `json:"directional_accuracy_baseline"`
	ValidationSize int       `json:"validation_size"`
}

// FeatureImportance ranks one feature by its share of model split gain.
type FeatureImportance struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// ImportanceSnapshot pairs a ranked importance list with the training event
// that produced it. Serialized one JSON object per line.
type ImportanceSnapshot struct {
	Timestamp string              `json:"timestamp"`
	Features  []FeatureImportance `json:"features"`
}

// DriftStatus classifies the trend of recent validation error.
type DriftStatus string

const (
	DriftInsufficient DriftStatus = "insufficient"
	DriftImproving    DriftStatus = "improving"
	DriftStable       DriftStatus = "stable"
	DriftDegrading    DriftStatus = "degrading"
)

// DriftMetrics compares a recent backtest-error window against the window
// immediately before it.
type DriftMetrics struct {
	Status    DriftStatus `json:"status"`
	RecentMAE float64     `json:"recent_mae"`
	PriorMAE  float64     `json:"prior_mae"`
	Delta     float64     `json:"delta"`
	Window    int         `json:"window"`
	Samples   int         `json:"samples"`
}

// Alert is a threshold hit or statistical anomaly on a tracked symbol.
type Alert struct {
	Type      string    `json:"type"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Threshold float64   `json:"threshold,omitempty"`
	ZScore    float64   `json:"z_score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StreamEvent is pushed to subscription clients on live price or
// prediction updates.
type StreamEvent struct {
	Type      string    `json:"type"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
