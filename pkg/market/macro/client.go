// Package macro implements the macro side of the quote client: hourly close
// series and last prices for reference indices, metals and fiat pairs from a
// Yahoo-chart-shaped source.
package macro

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://query1.finance.yahoo.com"
	defaultHTTPTimeout = 10 * time.Second
	defaultInterval    = "1h"
	defaultRange       = "5d"

	userAgent = "aetherquant/1.0"
)

// DollarIndexTicker is the reference index used for cross-asset context.
const DollarIndexTicker = "DX-Y.NYB"

// Client fetches chart data from a Yahoo-v8-shaped endpoint. Single-attempt,
// like the spot client: callers degrade on error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	interval   string
	rangeSpan  string
}

// Option configures a new Client.
type Option func(*Client)

// WithBaseURL overrides the chart API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithWindow overrides the chart interval and range.
func WithWindow(interval, rangeSpan string) Option {
	return func(c *Client) {
		if interval != "" {
			c.interval = interval
		}
		if rangeSpan != "" {
			c.rangeSpan = rangeSpan
		}
	}
}

// NewClient constructs a macro chart client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		interval:   defaultInterval,
		rangeSpan:  defaultRange,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Series returns the chronological close series and the last traded price
// for the ticker. Null entries in the upstream series (halted sessions) are
// dropped.
func (c *Client) Series(ctx context.Context, ticker string) (closes []float64, last float64, err error) {
	query := url.Values{}
	query.Set("interval", c.interval)
	query.Set("range", c.rangeSpan)
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("macro: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("macro: request %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("macro: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, fmt.Errorf("macro: http status %d: %s", resp.StatusCode, string(body))
	}

	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, fmt.Errorf("macro: decode response: %w", err)
	}
	if payload.Chart.Error != nil {
		return nil, 0, fmt.Errorf("macro: chart error for %s: %s (%s)", ticker, payload.Chart.Error.Description, payload.Chart.Error.Code)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, 0, fmt.Errorf("macro: empty chart result for %s", ticker)
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) > 0 {
		raw := result.Indicators.Quote[0].Close
		closes = make([]float64, 0, len(raw))
		for _, v := range raw {
			if v != nil {
				closes = append(closes, *v)
			}
		}
	}
	last = result.Meta.RegularMarketPrice
	if last == 0 && len(closes) > 0 {
		last = closes[len(closes)-1]
	}
	return closes, last, nil
}
