// Package analyzer drives fetch-and-analyze cycles over a market data
// provider: one snapshot per call, a flat indicator record out. It owns the
// previous-book store that makes the OFI delta possible.
package analyzer

import (
	"context"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"aetherquant/pkg/market"
	"aetherquant/pkg/market/indicators"
)

// Wall thresholds over the imbalance ratio. Policy constants for monitoring
// collaborators, not inputs to the indicator math.
const (
	SellWallThreshold = 3.0
	BuyWallThreshold  = 0.33
)

// Wall classifies a skewed imbalance ratio.
type Wall string

const (
	WallNone Wall = ""
	WallSell Wall = "sell"
	WallBuy  Wall = "buy"
)

// WallSignal maps an imbalance ratio onto the wall thresholds.
func WallSignal(ratio float64) Wall {
	switch {
	case ratio > SellWallThreshold:
		return WallSell
	case ratio < BuyWallThreshold:
		return WallBuy
	default:
		return WallNone
	}
}

// IndicatorSet is the flat record handed to presentation layers. Every
// numeric field is always populated (with the indicator's neutral value on
// partial failure); Failed is the only flag callers need to check.
type IndicatorSet struct {
	Symbol             string  `json:"symbol" msgpack:"symbol"`
	AssetClass         string  `json:"asset_class" msgpack:"asset_class"`
	Price              float64 `json:"price" msgpack:"price"`
	VWAP               float64 `json:"vwap" msgpack:"vwap"`
	RSI                float64 `json:"rsi" msgpack:"rsi"`
	ImbalanceRatio     float64 `json:"imbalance_ratio" msgpack:"imbalance_ratio"`
	OrderFlowImbalance float64 `json:"order_flow_imbalance" msgpack:"order_flow_imbalance"`
	DXYCorrelation     float64 `json:"dxy_correlation" msgpack:"dxy_correlation"`
	TopBid             *Level  `json:"top_bid,omitempty" msgpack:"top_bid"`
	TopAsk             *Level  `json:"top_ask,omitempty" msgpack:"top_ask"`
	FundingRate        float64 `json:"funding_rate" msgpack:"funding_rate"`
	MarkPrice          float64 `json:"mark_price" msgpack:"mark_price"`
	DollarIndex        float64 `json:"dollar_index" msgpack:"dollar_index"`
	MacroSummary       string  `json:"macro_summary" msgpack:"macro_summary"`
	CapturedAt         int64   `json:"captured_at" msgpack:"captured_at"`
	Failed             bool    `json:"failed" msgpack:"failed"`
}

// Level is a flattened top-of-book entry.
type Level struct {
	Price float64 `json:"price" msgpack:"price"`
	Size  float64 `json:"size" msgpack:"size"`
}

func levelOf(l market.PriceLevel) *Level {
	return &Level{Price: l.Price.InexactFloat64(), Size: l.Size.InexactFloat64()}
}

// Recorder mirrors derived indicator records to an external store. Failures
// are logged, never propagated.
type Recorder interface {
	RecordIndicators(ctx context.Context, set *IndicatorSet) error
}

// Analyzer performs fetch-and-analyze cycles. Not safe for concurrent use
// against the same symbol: the book store is last-write-wins and concurrent
// cycles would corrupt the OFI delta.
type Analyzer struct {
	provider market.Provider
	books    *BookStore
	recorder Recorder
}

// Option customises an Analyzer.
type Option func(*Analyzer)

// WithRecorder attaches an indicator recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Analyzer) {
		a.recorder = r
	}
}

// WithBookStore injects a shared previous-book store.
func WithBookStore(s *BookStore) Option {
	return func(a *Analyzer) {
		if s != nil {
			a.books = s
		}
	}
}

// New constructs an Analyzer over the given provider.
func New(provider market.Provider, opts ...Option) *Analyzer {
	a := &Analyzer{
		provider: provider,
		books:    NewBookStore(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze fetches a snapshot for the symbol and derives the full indicator
// record. The previous-book store is updated on every call, including total
// failures; the error return is reserved for caller cancellation.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (*IndicatorSet, error) {
	snap, err := a.provider.Snapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}

	set := a.derive(symbol, snap)
	if a.recorder != nil {
		if err := a.recorder.RecordIndicators(ctx, set); err != nil {
			logx.WithContext(ctx).Errorf("analyzer: record indicators symbol=%s err=%v", symbol, err)
		}
	}
	return set, nil
}

func (a *Analyzer) derive(symbol string, snap *market.Snapshot) *IndicatorSet {
	var prices []float64
	switch snap.Class {
	case market.AssetClassMetal, market.AssetClassForex:
		prices = snap.Macro.InstrumentCloses
	default:
		prices = tradePrices(snap.Trades)
	}

	previous, seen := a.books.Swap(symbol, snap.Book)
	ofi := 0.0
	if seen {
		ofi = indicators.OFI(&snap.Book, &previous, indicators.DefaultOFIDepth)
	}

	set := &IndicatorSet{
		Symbol:             symbol,
		AssetClass:         snap.Class.String(),
		Price:              snap.LastPrice,
		VWAP:               indicators.VWAP(snap.Trades),
		RSI:                indicators.RSI(prices, indicators.DefaultRSIPeriod),
		ImbalanceRatio:     indicators.ImbalanceRatio(snap.Book.Bids, snap.Book.Asks, indicators.DefaultImbalanceDepth),
		OrderFlowImbalance: ofi,
		DXYCorrelation:     indicators.Correlation(snap.Macro.InstrumentCloses, snap.Macro.DollarIndexCloses),
		FundingRate:        snap.Macro.FundingRate,
		MarkPrice:          snap.Macro.MarkPrice,
		DollarIndex:        snap.Macro.DollarIndexLast,
		CapturedAt:         snap.CapturedAt,
		Failed:             snap.TotalFailure(),
	}
	if len(snap.Book.Bids) > 0 {
		set.TopBid = levelOf(snap.Book.Bids[0])
	}
	if len(snap.Book.Asks) > 0 {
		set.TopAsk = levelOf(snap.Book.Asks[0])
	}
	set.MacroSummary = macroSummary(snap)
	return set
}

// macroSummary renders the one-line macro context handed to presentation
// layers, including the explicit failure text for total-failure snapshots.
func macroSummary(snap *market.Snapshot) string {
	if snap.TotalFailure() {
		return "could not fetch market data"
	}
	switch snap.Class {
	case market.AssetClassMetal, market.AssetClassForex:
		return fmt.Sprintf("dxy=%.2f instrument window=%d dxy window=%d",
			snap.Macro.DollarIndexLast, len(snap.Macro.InstrumentCloses), len(snap.Macro.DollarIndexCloses))
	default:
		return fmt.Sprintf("funding=%.6f mark=%.2f dxy=%.2f",
			snap.Macro.FundingRate, snap.Macro.MarkPrice, snap.Macro.DollarIndexLast)
	}
}

func tradePrices(trades []market.Trade) []float64 {
	prices := make([]float64, len(trades))
	for i, t := range trades {
		prices[i] = t.Price
	}
	return prices
}
