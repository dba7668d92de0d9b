// Package spot implements the crypto side of the quote client: spot REST
// lookups for price, order book depth and the recent trade tape, plus the
// derivatives premium index for funding context.
package spot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"aetherquant/pkg/market"
)

const (
	defaultBaseURL     = "https://data-api.binance.vision"
	defaultFuturesURL  = "https://fapi.binance.com"
	defaultHTTPTimeout = 10 * time.Second

	userAgent = "aetherquant/1.0"
)

// Client wraps the spot and derivatives REST endpoints of a Binance-shaped
// exchange. All calls are single-attempt: a failure is the caller's cue to
// degrade, not retry.
type Client struct {
	baseURL    string
	futuresURL string
	httpClient *http.Client
}

// Option configures a new Client.
type Option func(*Client)

// WithBaseURL overrides the spot API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithFuturesURL overrides the derivatives API base URL.
func WithFuturesURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.futuresURL = strings.TrimRight(u, "/")
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

// NewClient constructs a spot API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		futuresURL: defaultFuturesURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// LastPrice returns the most recent trade price for the symbol.
func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	query := url.Values{}
	query.Set("symbol", normalizeSymbol(symbol))
	var payload TickerPriceResponse
	if err := c.doGet(ctx, c.baseURL+"/api/v3/ticker/price", query, &payload); err != nil {
		return 0, err
	}
	price, err := strconv.ParseFloat(payload.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("spot: parse price %q: %w", payload.Price, err)
	}
	return price, nil
}

// OrderBook fetches the top limit levels of depth. The upstream payload
// carries no timestamp, so the book is stamped with the fetch time.
func (c *Client) OrderBook(ctx context.Context, symbol string, limit int) (market.OrderBook, error) {
	query := url.Values{}
	query.Set("symbol", normalizeSymbol(symbol))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var payload DepthResponse
	if err := c.doGet(ctx, c.baseURL+"/api/v3/depth", query, &payload); err != nil {
		return market.OrderBook{}, err
	}
	bids, err := parseLevels(payload.Bids)
	if err != nil {
		return market.OrderBook{}, err
	}
	asks, err := parseLevels(payload.Asks)
	if err != nil {
		return market.OrderBook{}, err
	}
	return market.OrderBook{
		Bids:       bids,
		Asks:       asks,
		ObservedAt: time.Now().UnixMilli(),
	}, nil
}

// RecentTrades fetches the most recent limit executed trades, oldest first.
// The taker side is derived from the maker flag: when the maker was the
// buyer, the taker sold.
func (c *Client) RecentTrades(ctx context.Context, symbol string, limit int) ([]market.Trade, error) {
	normalized := normalizeSymbol(symbol)
	query := url.Values{}
	query.Set("symbol", normalized)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var payload []TradeEntry
	if err := c.doGet(ctx, c.baseURL+"/api/v3/trades", query, &payload); err != nil {
		return nil, err
	}
	trades := make([]market.Trade, 0, len(payload))
	for _, entry := range payload {
		price, err := strconv.ParseFloat(entry.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("spot: parse trade price %q: %w", entry.Price, err)
		}
		size, err := strconv.ParseFloat(entry.Qty, 64)
		if err != nil {
			return nil, fmt.Errorf("spot: parse trade qty %q: %w", entry.Qty, err)
		}
		side := market.SideBuy
		if entry.IsBuyerMaker {
			side = market.SideSell
		}
		trades = append(trades, market.Trade{
			Timestamp: entry.Time,
			Symbol:    normalized,
			Side:      side,
			Price:     price,
			Size:      size,
		})
	}
	return trades, nil
}

// FundingAndMark queries the derivatives premium index for the current
// funding rate and mark price.
func (c *Client) FundingAndMark(ctx context.Context, symbol string) (fundingRate, markPrice float64, err error) {
	query := url.Values{}
	query.Set("symbol", normalizeSymbol(symbol))
	var payload PremiumIndexResponse
	if err := c.doGet(ctx, c.futuresURL+"/fapi/v1/premiumIndex", query, &payload); err != nil {
		return 0, 0, err
	}
	fundingRate, err = strconv.ParseFloat(payload.LastFundingRate, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("spot: parse funding rate %q: %w", payload.LastFundingRate, err)
	}
	markPrice, err = strconv.ParseFloat(payload.MarkPrice, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("spot: parse mark price %q: %w", payload.MarkPrice, err)
	}
	return fundingRate, markPrice, nil
}

// doGet issues a single GET request and decodes the JSON payload into
// result. A timeout, transport error or non-2xx status all surface the same
// way: as an error the caller degrades on.
func (c *Client) doGet(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("spot: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("spot: request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("spot: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spot: http status %d: %s", resp.StatusCode, string(body))
	}
	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("spot: decode response: %w", err)
		}
	}
	return nil
}

func parseLevels(raw [][]string) ([]market.PriceLevel, error) {
	levels := make([]market.PriceLevel, 0, len(raw))
	for _, entry := range raw {
		if len(entry) < 2 {
			return nil, fmt.Errorf("spot: malformed depth level %v", entry)
		}
		price, err := decimal.NewFromString(entry[0])
		if err != nil {
			return nil, fmt.Errorf("spot: parse depth price %q: %w", entry[0], err)
		}
		size, err := decimal.NewFromString(entry[1])
		if err != nil {
			return nil, fmt.Errorf("spot: parse depth size %q: %w", entry[1], err)
		}
		if price.IsNegative() || size.IsNegative() {
			return nil, fmt.Errorf("spot: negative depth level %s@%s", entry[1], entry[0])
		}
		levels = append(levels, market.PriceLevel{Price: price, Size: size})
	}
	return levels, nil
}

// normalizeSymbol strips the pair separator and upper-cases the symbol
// before it goes on the wire: "btc/usdt" becomes "BTCUSDT".
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "/", ""))
}
