package polygon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSeriesParsesBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v2/aggs/ticker/AAPL/range/1/hour/"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		assert.Equal(t, "asc", r.URL.Query().Get("sort"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "ticker": "AAPL",
            "status": "OK",
            "resultsCount": 3,
            "results": [
                {"t": 1767600000000, "c": 101.5, "v": 1000},
                {"t": 1767603600000, "c": 102.25, "v": 1100},
                {"t": 1767607200000, "c": 0, "v": 50}
            ]
        }`))
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, 5*time.Second, 0)
	series, err := c.FetchSeries(context.Background(), "AAPL", "1mo", "1h")
	require.NoError(t, err)

	// the zero-close bar is dropped
	require.Equal(t, 2, series.Len())
	assert.Equal(t, []float64{101.5, 102.25}, series.Prices)
	assert.Equal(t, []float64{1000, 1100}, series.Volumes)
	assert.True(t, series.Timestamps[0].Before(series.Timestamps[1]))
}

func TestFetchSeriesRejectsUnknownInterval(t *testing.T) {
	c := New("k", "http://localhost:1", time.Second, 0)
	_, err := c.FetchSeries(context.Background(), "AAPL", "1mo", "5m")
	assert.Error(t, err)
}

func TestFetchSeriesSortsOutOfOrderBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "status": "OK",
            "results": [
                {"t": 1767603600000, "c": 102, "v": 2},
                {"t": 1767600000000, "c": 101, "v": 1}
            ]
        }`))
	}))
	defer srv.Close()

	c := New("k", srv.URL, 5*time.Second, 0)
	series, err := c.FetchSeries(context.Background(), "MSFT", "5d", "1h")
	require.NoError(t, err)
	assert.Equal(t, []float64{101, 102}, series.Prices)
	assert.Equal(t, []float64{1, 2}, series.Volumes)
}

func TestFetchLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/aggs/ticker/TSLA/prev", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "OK", "results": [{"t": 1767600000000, "c": 250.75, "v": 9000}]}`))
	}))
	defer srv.Close()

	c := New("k", srv.URL, 5*time.Second, 0)
	price, volume, err := c.FetchLive(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, 250.75, price)
	assert.Equal(t, 9000.0, volume)
}

func TestFetchLiveNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "OK", "results": []}`))
	}))
	defer srv.Close()

	c := New("k", srv.URL, 5*time.Second, 0)
	_, _, err := c.FetchLive(context.Background(), "TSLA")
	assert.Error(t, err)
}

func TestFetchSeriesErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New("k", srv.URL, 5*time.Second, 0)
	_, err := c.FetchSeries(context.Background(), "AAPL", "1mo", "1h")
	assert.Error(t, err)
}
