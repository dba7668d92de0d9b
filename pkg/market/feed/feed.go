// Package feed assembles canonical market snapshots from the spot and macro
// upstreams. It is the one place that knows which sub-fetches apply to which
// asset class, and the one place where upstream failures are converted into
// the documented degraded defaults.
package feed

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"aetherquant/pkg/market"
	"aetherquant/pkg/market/macro"
	"aetherquant/pkg/market/spot"
)

// Provider implements market.Provider over the spot and macro clients.
// Snapshot builds are sequential blocking fetches with no internal
// parallelism; callers bound total latency via the context.
type Provider struct {
	spot       *spot.Client
	macro      *macro.Client
	depthLimit int
	tradeLimit int
}

// Option customises the provider.
type Option func(*Provider)

// WithSpotClient injects a custom spot client.
func WithSpotClient(c *spot.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.spot = c
		}
	}
}

// WithMacroClient injects a custom macro client.
func WithMacroClient(c *macro.Client) Option {
	return func(p *Provider) {
		if c != nil {
			p.macro = c
		}
	}
}

// New constructs a snapshot provider from the market source configuration.
func New(cfg *market.Config, opts ...Option) *Provider {
	if cfg == nil {
		cfg = &market.Config{}
	}
	httpTimeout := cfg.Timeout
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	provider := &Provider{
		spot: spot.NewClient(
			spot.WithBaseURL(cfg.SpotURL),
			spot.WithFuturesURL(cfg.FuturesURL),
			spot.WithHTTPClient(&http.Client{Timeout: httpTimeout}),
		),
		macro: macro.NewClient(
			macro.WithBaseURL(cfg.MacroURL),
			macro.WithHTTPClient(&http.Client{Timeout: httpTimeout}),
		),
		depthLimit: cfg.DepthLimit,
		tradeLimit: cfg.TradeLimit,
	}
	for _, opt := range opts {
		opt(provider)
	}
	return provider
}

// Snapshot implements market.Provider. Sub-fetch failures degrade to empty
// or zero values and are logged; a total failure is still a snapshot, flagged
// via Snapshot.TotalFailure.
func (p *Provider) Snapshot(ctx context.Context, symbol string) (*market.Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	snap := &market.Snapshot{
		Symbol:     symbol,
		Class:      market.Classify(symbol),
		CapturedAt: time.Now().UnixMilli(),
		Book:       emptyBook(),
		Trades:     []market.Trade{},
	}

	switch snap.Class {
	case market.AssetClassCrypto:
		p.fillCrypto(ctx, snap)
	case market.AssetClassMetal:
		p.fillFromMacro(ctx, snap, metalTicker(symbol))
	case market.AssetClassForex:
		p.fillFromMacro(ctx, snap, forexTicker(symbol))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

// fillCrypto populates a crypto snapshot: price, book and tape from the spot
// venue, funding and mark from the derivatives endpoint, dollar-index series
// as auxiliary context.
func (p *Provider) fillCrypto(ctx context.Context, snap *market.Snapshot) {
	price, err := p.spot.LastPrice(ctx, snap.Symbol)
	if err != nil {
		logx.WithContext(ctx).Errorf("feed: fetch last price symbol=%s err=%v", snap.Symbol, err)
	} else {
		snap.LastPrice = price
	}

	book, err := p.spot.OrderBook(ctx, snap.Symbol, p.depthLimit)
	if err != nil {
		logx.WithContext(ctx).Errorf("feed: fetch order book symbol=%s err=%v", snap.Symbol, err)
		book = emptyBook()
	}
	snap.Book = book

	trades, err := p.spot.RecentTrades(ctx, snap.Symbol, p.tradeLimit)
	if err != nil {
		logx.WithContext(ctx).Errorf("feed: fetch recent trades symbol=%s err=%v", snap.Symbol, err)
		trades = []market.Trade{}
	}
	snap.Trades = trades

	funding, mark, err := p.spot.FundingAndMark(ctx, snap.Symbol)
	if err != nil {
		logx.WithContext(ctx).Errorf("feed: fetch funding/mark symbol=%s err=%v", snap.Symbol, err)
	} else {
		snap.Macro.FundingRate = funding
		snap.Macro.MarkPrice = mark
	}

	p.fillDollarIndex(ctx, snap)
}

// fillFromMacro populates a metal or forex snapshot. There is no order book
// or tape for these instruments; their absence is expected, not a failure.
func (p *Provider) fillFromMacro(ctx context.Context, snap *market.Snapshot, ticker string) {
	closes, last, err := p.macro.Series(ctx, ticker)
	if err != nil {
		logx.WithContext(ctx).Errorf("feed: fetch instrument series symbol=%s ticker=%s err=%v", snap.Symbol, ticker, err)
		closes = []float64{}
	} else {
		snap.LastPrice = last
	}
	snap.Macro.InstrumentCloses = closes

	p.fillDollarIndex(ctx, snap)
}

func (p *Provider) fillDollarIndex(ctx context.Context, snap *market.Snapshot) {
	closes, last, err := p.macro.Series(ctx, macro.DollarIndexTicker)
	if err != nil {
		logx.WithContext(ctx).Errorf("feed: fetch dollar index symbol=%s err=%v", snap.Symbol, err)
		closes = []float64{}
	}
	snap.Macro.DollarIndexCloses = closes
	snap.Macro.DollarIndexLast = last
}

func emptyBook() market.OrderBook {
	return market.OrderBook{
		Bids:       []market.PriceLevel{},
		Asks:       []market.PriceLevel{},
		ObservedAt: time.Now().UnixMilli(),
	}
}

// metalTicker maps a metal symbol to its chart ticker.
func metalTicker(symbol string) string {
	s := strings.ToUpper(symbol)
	if strings.Contains(s, "XAG") || strings.Contains(s, "SILVER") {
		return "SI=F"
	}
	return "GC=F"
}

// forexTicker maps a fiat pair to its chart ticker: "EUR/USD" -> "EURUSD=X".
func forexTicker(symbol string) string {
	pair := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(symbol), "/", ""))
	return pair + "=X"
}
