package models

import (
	"fmt"
	"time"
)

// Granularity identifies the cadence of a stored time series.
type Granularity string

const (
	GranularityHourly Granularity = "hourly"
	GranularityDaily  Granularity = "daily"
)

// GranularityFor maps a bar interval to the stored granularity.
func GranularityFor(interval string) Granularity {
	if interval == "1d" {
		return GranularityDaily
	}
	return GranularityHourly
}

// Series is an ordered (timestamp, price, volume) sequence for one symbol
// at one granularity. The three slices always have equal length and
// timestamps are strictly increasing.
type Series struct {
	Prices     []float64
	Volumes    []float64
	Timestamps []time.Time
}

// Len returns the number of points in the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Prices)
}

// Validate checks the series invariants: equal-length arrays, strictly
// increasing timestamps and positive prices. Violations are a
// data-integrity problem, not a degraded state.
func (s *Series) Validate() error {
	if len(s.Prices) != len(s.Volumes) || len(s.Prices) != len(s.Timestamps) {
		return fmt.Errorf("series arrays must have equal length: prices=%d volumes=%d timestamps=%d",
			len(s.Prices), len(s.Volumes), len(s.Timestamps))
	}
	for i := range s.Prices {
		if s.Prices[i] <= 0 {
			return fmt.Errorf("series price at index %d must be positive, got %v", i, s.Prices[i])
		}
		if i > 0 && !s.Timestamps[i].After(s.Timestamps[i-1]) {
			return fmt.Errorf("series timestamps must be strictly increasing: index %d (%s) not after index %d (%s)",
				i, s.Timestamps[i].Format(time.RFC3339), i-1, s.Timestamps[i-1].Format(time.RFC3339))
		}
	}
	return nil
}

// Tail returns the last n points, or the whole series when n <= 0 or
// n >= Len.
func (s *Series) Tail(n int) *Series {
	if s == nil {
		return &Series{}
	}
	if n <= 0 || n >= s.Len() {
		return s
	}
	off := s.Len() - n
	return &Series{
		Prices:     s.Prices[off:],
		Volumes:    s.Volumes[off:],
		Timestamps: s.Timestamps[off:],
	}
}

// PricePoint is the latest live quote for a symbol.
type PricePoint struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}
