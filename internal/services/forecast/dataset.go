package forecast

import (
	"context"
	"fmt"
	"math"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/features"
)

// HistorySource is the slice of the series store the builder needs.
type HistorySource interface {
	GetHistory(ctx context.Context, symbol string, g models.Granularity, limit int) (*models.Series, error)
	TrackedSymbols(ctx context.Context) ([]string, error)
}

// minWarmup is added to the look-back when deciding whether a symbol has
// enough history to contribute training rows. It covers the indicator
// warm-up (RSI 14, EMA 26, volume window 20 all settle inside it).
const minWarmup = 30

// Table is the supervised-learning table built across all tracked symbols.
// X rows are flattened look-back windows already scaled; Y is the raw
// next-step log return.
type Table struct {
	X            [][]float64
	Y            []float64
	Scaler       *Scaler
	FeatureNames []string
}

// Rows returns the number of training examples.
func (t *Table) Rows() int { return len(t.X) }

// DatasetBuilder turns stored histories into a Table.
type DatasetBuilder struct {
	source      HistorySource
	lookBack    int
	indices     []string
	granularity models.Granularity
}

func NewDatasetBuilder(source HistorySource, lookBack int, indices []string, g models.Granularity) *DatasetBuilder {
	return &DatasetBuilder{
		source:      source,
		lookBack:    lookBack,
		indices:     indices,
		granularity: g,
	}
}

// LookBack returns the window length the builder slides.
func (b *DatasetBuilder) LookBack() int { return b.lookBack }

// MarketReturns fetches each market index history and reduces it to a
// log-return series. Indices without stored data contribute an empty
// series, which reads as zero returns downstream.
func (b *DatasetBuilder) MarketReturns(ctx context.Context) (map[string][]float64, error) {
	cache := make(map[string][]float64, len(b.indices))
	for _, idx := range b.indices {
		series, err := b.source.GetHistory(ctx, idx, b.granularity, 0)
		if err != nil {
			return nil, fmt.Errorf("market history %s: %w", idx, err)
		}
		cache[idx] = features.LogReturns(series.Prices)
	}
	return cache, nil
}

// MarketMatrix right-aligns the cached per-index return series into a
// matrix of n rows, zero-padding on the left where an index has less
// history than the target series.
func MarketMatrix(n int, indices []string, cache map[string][]float64) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, len(indices))
	}
	for k, idx := range indices {
		r := cache[idx]
		start := len(r) - n
		if start < 0 {
			start = 0
		}
		for j := start; j < len(r); j++ {
			m[n-(len(r)-j)][k] = r[j]
		}
	}
	return m
}

// Build assembles the training table across all tracked symbols. Symbols
// with less than lookBack+30 points are skipped. A table with zero rows
// means "not trainable yet", not an error.
func (b *DatasetBuilder) Build(ctx context.Context) (*Table, error) {
	symbols, err := b.source.TrackedSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracked symbols: %w", err)
	}

	cache, err := b.MarketReturns(ctx)
	if err != nil {
		return nil, err
	}

	table := &Table{FeatureNames: features.Names(b.indices)}
	for _, symbol := range symbols {
		series, err := b.source.GetHistory(ctx, symbol, b.granularity, 0)
		if err != nil {
			return nil, fmt.Errorf("history %s: %w", symbol, err)
		}
		n := series.Len()
		if n < b.lookBack+minWarmup {
			continue
		}

		matrix := features.Compute(series.Prices, series.Volumes, series.Timestamps,
			MarketMatrix(n, b.indices, cache))

		for i := b.lookBack; i < n-1; i++ {
			table.X = append(table.X, flatten(matrix[i-b.lookBack:i]))
			table.Y = append(table.Y, math.Log(series.Prices[i+1]/series.Prices[i]))
		}
	}

	if table.Rows() == 0 {
		return table, nil
	}

	table.Scaler = FitScaler(table.X)
	table.X = table.Scaler.TransformAll(table.X)
	return table, nil
}

func flatten(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}
