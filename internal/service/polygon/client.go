package polygon

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	"StockCast/internal/service/ratelimit"
	xhttp "StockCast/pkg/http"
)

const defaultBaseURL = "https://api.polygon.io"

// aggsLimit is Polygon's maximum page size; one month of hourly bars fits
// well inside it, so paging is not needed here.
const aggsLimit = 50000

// Client implements MarketData over the Polygon aggregates REST API.
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	rps     float64
}

// New builds a client. rps caps outbound requests per second; zero or
// negative disables throttling.
func New(apiKey, baseURL string, timeout time.Duration, rps float64) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		rps:     rps,
	}
	if rps > 0 {
		c.limiter = ratelimit.New()
	}
	return c
}

// throttle blocks until the rate limiter grants a token or ctx is done.
func (c *Client) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	capacity := c.rps
	if capacity < 1 {
		capacity = 1
	}
	for !c.limiter.Allow("polygon", capacity, c.rps) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return nil
}

type aggBar struct {
	Timestamp int64   `json:"t"` // ms since epoch
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
}

type aggsResponse struct {
	Ticker       string   `json:"ticker"`
	Status       string   `json:"status"`
	ResultsCount int      `json:"resultsCount"`
	Results      []aggBar `json:"results"`
}

// FetchSeries pulls aggregate bars covering period at the given interval.
// Bars come back in ascending time order; an empty result is returned as an
// empty series, not an error, since thin tickers legitimately have gaps.
func (c *Client) FetchSeries(ctx context.Context, symbol, period, interval string) (*models.Series, error) {
	timespan, err := timespanFor(interval)
	if err != nil {
		return nil, err
	}
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	to := time.Now().UTC()
	from := to.Add(-periodDuration(period))

	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/%s/%d/%d",
		c.baseURL, symbol, timespan, from.UnixMilli(), to.UnixMilli())

	var resp aggsResponse
	err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
		QueryParams: map[string][]string{
			"adjusted": {"true"},
			"sort":     {"asc"},
			"limit":    {fmt.Sprint(aggsLimit)},
			"apiKey":   {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("polygon aggs %s: %w", symbol, err)
	}

	series := &models.Series{}
	for _, bar := range resp.Results {
		if bar.Close <= 0 {
			continue
		}
		series.Prices = append(series.Prices, bar.Close)
		series.Volumes = append(series.Volumes, bar.Volume)
		series.Timestamps = append(series.Timestamps, time.UnixMilli(bar.Timestamp).UTC())
	}

	// downstream feature windows require ascending bars
	sort.Sort(bySeriesTime{series})
	return series, nil
}

// FetchLive returns the most recent price and volume from the previous-bar
// endpoint. Outside market hours this is the last session close.
func (c *Client) FetchLive(ctx context.Context, symbol string) (price, volume float64, err error) {
	if err := c.throttle(ctx); err != nil {
		return 0, 0, err
	}

	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev", c.baseURL, symbol)

	var resp aggsResponse
	err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    url,
		QueryParams: map[string][]string{
			"adjusted": {"true"},
			"apiKey":   {c.apiKey},
		},
	}, &resp)
	if err != nil {
		return 0, 0, fmt.Errorf("polygon prev %s: %w", symbol, err)
	}
	if len(resp.Results) == 0 {
		return 0, 0, fmt.Errorf("polygon prev %s: no data", symbol)
	}

	bar := resp.Results[len(resp.Results)-1]
	return bar.Close, bar.Volume, nil
}

func timespanFor(interval string) (string, error) {
	switch interval {
	case "1h":
		return "hour", nil
	case "1d":
		return "day", nil
	default:
		return "", fmt.Errorf("unsupported interval %q", interval)
	}
}

// periodDuration maps compact period strings to a wall-clock span.
func periodDuration(period string) time.Duration {
	switch period {
	case "1d":
		return 24 * time.Hour
	case "5d":
		return 5 * 24 * time.Hour
	case "1mo":
		return 31 * 24 * time.Hour
	case "3mo":
		return 92 * 24 * time.Hour
	case "6mo":
		return 183 * 24 * time.Hour
	case "1y":
		return 365 * 24 * time.Hour
	case "2y":
		return 2 * 365 * 24 * time.Hour
	default:
		return 31 * 24 * time.Hour
	}
}

type bySeriesTime struct {
	s *models.Series
}

func (b bySeriesTime) Len() int { return b.s.Len() }

func (b bySeriesTime) Less(i, j int) bool {
	return b.s.Timestamps[i].Before(b.s.Timestamps[j])
}

func (b bySeriesTime) Swap(i, j int) {
	b.s.Prices[i], b.s.Prices[j] = b.s.Prices[j], b.s.Prices[i]
	b.s.Volumes[i], b.s.Volumes[j] = b.s.Volumes[j], b.s.Volumes[i]
	b.s.Timestamps[i], b.s.Timestamps[j] = b.s.Timestamps[j], b.s.Timestamps[i]
}

var _ drepo.MarketData = (*Client)(nil)
