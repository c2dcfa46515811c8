package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"market-structure-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.binance.com"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	maxKlinesPerCall  = 1000
)

// BinanceClient fetches closed klines from the Binance spot REST API.
type BinanceClient struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
}

// BinanceOption configures BinanceClient.
type BinanceOption func(*BinanceClient)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) BinanceOption {
	return func(c *BinanceClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) BinanceOption {
	return func(c *BinanceClient) {
		c.client = client
	}
}

// WithMaxRetries sets maximum retry attempts per page.
func WithMaxRetries(n int) BinanceOption {
	return func(c *BinanceClient) {
		c.maxRetries = n
	}
}

// NewBinanceClient creates a new Binance REST client.
func NewBinanceClient(opts ...BinanceOption) *BinanceClient {
	c := &BinanceClient{
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Provider = (*BinanceClient)(nil)

// FetchCandles returns the most recent count closed candles, paging
// backwards through the klines endpoint. A short final history is a
// hard failure wrapping ErrUpstreamData.
func (c *BinanceClient) FetchCandles(ctx context.Context, asset domain.Asset, count int) ([]domain.Candle, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: candle count must be positive, got %d", domain.ErrUpstreamData, count)
	}

	var pages [][]domain.Candle
	remaining := count
	var endTime int64 // 0 = latest

	for remaining > 0 {
		limit := remaining
		if limit > maxKlinesPerCall {
			limit = maxKlinesPerCall
		}

		page, err := c.fetchPage(ctx, asset, limit, endTime)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		pages = append(pages, page)
		remaining -= len(page)
		endTime = page[0].Timestamp.UnixMilli() - 1

		if len(page) < limit {
			break // venue history exhausted
		}
	}

	// Pages were collected newest-first; flatten oldest-first.
	var candles []domain.Candle
	for i := len(pages) - 1; i >= 0; i-- {
		candles = append(candles, pages[i]...)
	}

	if len(candles) < count {
		return nil, fmt.Errorf("%w: requested %d candles for %s, venue returned %d",
			domain.ErrUpstreamData, count, asset.Symbol, len(candles))
	}
	return candles, nil
}

// fetchPage requests one klines page, retrying transient failures.
func (c *BinanceClient) fetchPage(ctx context.Context, asset domain.Asset, limit int, endTime int64) ([]domain.Candle, error) {
	q := url.Values{}
	q.Set("symbol", asset.Symbol)
	q.Set("interval", asset.IntervalLabel())
	q.Set("limit", strconv.Itoa(limit))
	if endTime > 0 {
		q.Set("endTime", strconv.FormatInt(endTime, 10))
	}
	endpoint := c.baseURL + "/api/v3/klines?" + q.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		page, err := c.doRequest(ctx, endpoint)
		if err == nil {
			return page, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: klines request for %s failed: %v", domain.ErrUpstreamData, asset.Symbol, lastErr)
}

func (c *BinanceClient) doRequest(ctx context.Context, endpoint string) ([]domain.Candle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var rows [][]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, row := range rows {
		cd, err := parseKline(row)
		if err != nil {
			return nil, err
		}
		candles = append(candles, cd)
	}
	return candles, nil
}

// parseKline converts one klines row. Binance encodes the open time as
// a number and OHLCV as decimal strings.
func parseKline(row []any) (domain.Candle, error) {
	if len(row) < 6 {
		return domain.Candle{}, fmt.Errorf("kline row has %d fields, want >= 6", len(row))
	}

	num, ok := row[0].(json.Number)
	if !ok {
		return domain.Candle{}, fmt.Errorf("kline open time has type %T, want number", row[0])
	}
	openTime, err := num.Int64()
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parse open time: %w", err)
	}

	vals := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		v, err := parseFloatField(row[i])
		if err != nil {
			return domain.Candle{}, fmt.Errorf("parse kline field %d: %w", i, err)
		}
		vals[i-1] = v
	}

	return domain.Candle{
		Timestamp: time.UnixMilli(openTime).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

func parseFloatField(v any) (float64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseFloat(t, 64)
	case json.Number:
		return t.Float64()
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
