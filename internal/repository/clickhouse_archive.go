package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgch "StockCast/pkg/clickhouse"
)

// candleSchema creates the long-term archive table. ReplacingMergeTree
// keyed on (symbol, granularity, ts) makes the periodic history refresh
// idempotent: overlapping refreshes collapse to one row per candle.
var candleSchema = []string{`
CREATE TABLE IF NOT EXISTS candles (
    symbol      String,
    granularity LowCardinality(String),
    ts          DateTime,
    price       Float64,
    volume      Float64
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, granularity, ts)
`}

// ClickHouseArchive implements CandleArchive. Redis stays the working set;
// this table only accumulates history for offline analysis so every write
// path treats it as best effort.
type ClickHouseArchive struct {
	db *sql.DB
	ch *pkgch.Client
}

func NewClickHouseArchive(ch *pkgch.Client) *ClickHouseArchive {
	return &ClickHouseArchive{db: ch.DB(), ch: ch}
}

func (a *ClickHouseArchive) Init(ctx context.Context) error {
	return a.ch.InitSchema(ctx, candleSchema)
}

func (a *ClickHouseArchive) StoreSeries(ctx context.Context, symbol string, g models.Granularity, series *models.Series) error {
	if series.Len() == 0 {
		return nil
	}
	if err := series.Validate(); err != nil {
		return err
	}

	// chunked multi-row VALUES insert to bound statement size
	const chunkSize = 2000
	for start := 0; start < series.Len(); start += chunkSize {
		end := start + chunkSize
		if end > series.Len() {
			end = series.Len()
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for i := start; i < end; i++ {
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args,
				symbol,
				string(g),
				series.Timestamps[i].UTC(),
				series.Prices[i],
				series.Volumes[i],
			)
		}

		q := "INSERT INTO candles (symbol, granularity, ts, price, volume) VALUES " + strings.Join(values, ",")
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("archive %s/%s: %w", symbol, g, err)
		}
	}
	return nil
}

// CandleCount reports stored rows for a symbol since the given time.
func (a *ClickHouseArchive) CandleCount(ctx context.Context, symbol string, g models.Granularity, since time.Time) (int64, error) {
	const q = `
        SELECT count() FROM candles
        WHERE symbol = ? AND granularity = ? AND ts >= ?
    `
	var n int64
	if err := a.db.QueryRowContext(ctx, q, symbol, string(g), since).Scan(&n); err != nil {
		return 0, fmt.Errorf("candle count %s: %w", symbol, err)
	}
	return n, nil
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
	return a.ch.Close()
}

// NoopArchive satisfies CandleArchive when ClickHouse is disabled.
type NoopArchive struct{}

func (NoopArchive) Init(context.Context) error { return nil }

func (NoopArchive) StoreSeries(context.Context, string, models.Granularity, *models.Series) error {
	return nil
}

func (NoopArchive) CandleCount(context.Context, string, models.Granularity, time.Time) (int64, error) {
	return 0, nil
}

func (NoopArchive) Health(context.Context) error { return nil }

func (NoopArchive) Close() error { return nil }

var (
	_ domrepo.CandleArchive = (*ClickHouseArchive)(nil)
	_ domrepo.CandleArchive = NoopArchive{}
)
