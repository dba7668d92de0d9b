package market

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider exposes normalized market data for a single instrument.
type Provider interface {
	// Snapshot returns a point-in-time market snapshot for the specified
	// symbol. Degraded upstream fetches surface as zero/empty fields, not
	// errors; the error return is reserved for caller cancellation.
	Snapshot(ctx context.Context, symbol string) (*Snapshot, error)
}

// PriceLevel is a single resting level on one side of an order book.
// Price and size are never negative.
type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// OrderBook holds top-of-book depth for one instrument. Both sides may be
// empty (a degraded fetch, or an instrument with no book at all) but are
// never nil.
type OrderBook struct {
	Bids       []PriceLevel `json:"bids"`        // descending by price
	Asks       []PriceLevel `json:"asks"`        // ascending by price
	ObservedAt int64        `json:"observed_at"` // epoch millis; fetch-attempt time when the upstream omits its own
}

// Empty reports whether the book carries no liquidity data on either side.
func (b OrderBook) Empty() bool {
	return len(b.Bids) == 0 && len(b.Asks) == 0
}

// TradeSide is the taker side of an executed trade.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// Trade is one executed trade from the recent tape.
type Trade struct {
	Timestamp int64     `json:"timestamp"` // epoch millis
	Symbol    string    `json:"symbol"`
	Side      TradeSide `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
}

// MacroContext carries funding and macro-index context. Which fields are
// populated depends on the asset class: crypto snapshots carry funding and
// mark price, metal and forex snapshots carry the instrument close series.
type MacroContext struct {
	InstrumentCloses  []float64 `json:"instrument_closes"`   // chronological closes of the instrument itself
	DollarIndexCloses []float64 `json:"dollar_index_closes"` // chronological dollar-index closes
	DollarIndexLast   float64   `json:"dollar_index_last"`
	FundingRate       float64   `json:"funding_rate"`
	MarkPrice         float64   `json:"mark_price"`
}

// Snapshot captures a canonical market view for one symbol. It is built
// fresh on every fetch, never mutated afterwards, and superseded (not
// merged) by the next fetch for the same symbol.
type Snapshot struct {
	Symbol     string       `json:"symbol"`
	Class      AssetClass   `json:"asset_class"`
	CapturedAt int64        `json:"captured_at"` // epoch millis
	LastPrice  float64      `json:"last_price"`
	Book       OrderBook    `json:"order_book"`
	Trades     []Trade      `json:"recent_trades"`
	Macro      MacroContext `json:"macro"`
}

// TotalFailure reports whether every sub-fetch behind this snapshot degraded
// at once. Callers surface this as an explicit "could not fetch data"
// condition instead of presenting zero-valued analysis as real.
func (s *Snapshot) TotalFailure() bool {
	if s == nil {
		return true
	}
	if s.LastPrice != 0 || !s.Book.Empty() {
		return false
	}
	switch s.Class {
	case AssetClassMetal, AssetClassForex:
		return len(s.Macro.InstrumentCloses) == 0 && len(s.Macro.DollarIndexCloses) == 0
	default:
		return true
	}
}
