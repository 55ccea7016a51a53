package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeries(n int) *Series {
	base := time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC)
	s := &Series{}
	for i := 0; i < n; i++ {
		s.Prices = append(s.Prices, 100+float64(i))
		s.Volumes = append(s.Volumes, 1000)
		s.Timestamps = append(s.Timestamps, base.Add(time.Duration(i)*time.Hour))
	}
	return s
}

func TestSeriesValidateAccepts(t *testing.T) {
	require.NoError(t, testSeries(5).Validate())
	require.NoError(t, (&Series{}).Validate())
}

func TestSeriesValidateRejectsLengthMismatch(t *testing.T) {
	s := testSeries(5)
	s.Volumes = s.Volumes[:4]

	assert.ErrorContains(t, s.Validate(), "equal length")
}

func TestSeriesValidateRejectsDuplicateTimestamp(t *testing.T) {
	s := testSeries(5)
	s.Timestamps[3] = s.Timestamps[2]

	assert.ErrorContains(t, s.Validate(), "strictly increasing")
}

func TestSeriesValidateRejectsBackwardsTimestamp(t *testing.T) {
	s := testSeries(5)
	s.Timestamps[4] = s.Timestamps[1]

	assert.ErrorContains(t, s.Validate(), "strictly increasing")
}

func TestSeriesValidateRejectsNonPositivePrice(t *testing.T) {
	zero := testSeries(5)
	zero.Prices[2] = 0
	assert.ErrorContains(t, zero.Validate(), "must be positive")

	neg := testSeries(5)
	neg.Prices[0] = -1.5
	assert.ErrorContains(t, neg.Validate(), "must be positive")
}
