package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"aetherquant/pkg/market"
)

// stubProvider replays canned snapshots in order and appends fixed fields.
type stubProvider struct {
	snapshots []*market.Snapshot
	err       error
	calls     int
}

func (s *stubProvider) Snapshot(ctx context.Context, symbol string) (*market.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	snap := s.snapshots[s.calls%len(s.snapshots)]
	s.calls++
	snap.Symbol = symbol
	snap.Class = market.Classify(symbol)
	return snap, nil
}

type captureRecorder struct {
	sets []*IndicatorSet
	err  error
}

func (c *captureRecorder) RecordIndicators(ctx context.Context, set *IndicatorSet) error {
	c.sets = append(c.sets, set)
	return c.err
}

func level(price, size int64) market.PriceLevel {
	return market.PriceLevel{Price: decimal.NewFromInt(price), Size: decimal.NewFromInt(size)}
}

func cryptoSnapshot(bidSize, askSize int64) *market.Snapshot {
	return &market.Snapshot{
		CapturedAt: 1700000000000,
		LastPrice:  50000,
		Book: market.OrderBook{
			Bids:       []market.PriceLevel{level(49999, bidSize)},
			Asks:       []market.PriceLevel{level(50001, askSize)},
			ObservedAt: 1700000000000,
		},
		Trades: []market.Trade{
			{Timestamp: 1, Side: market.SideBuy, Price: 49990, Size: 1},
			{Timestamp: 2, Side: market.SideSell, Price: 50010, Size: 1},
		},
		Macro: market.MacroContext{
			DollarIndexCloses: []float64{104.0, 104.1, 104.2},
			DollarIndexLast:   104.2,
			FundingRate:       0.0001,
			MarkPrice:         50002,
		},
	}
}

func TestAnalyzeCrypto(t *testing.T) {
	provider := &stubProvider{snapshots: []*market.Snapshot{cryptoSnapshot(10, 5)}}
	a := New(provider)

	set, err := a.Analyze(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	require.Equal(t, "BTC/USDT", set.Symbol)
	require.Equal(t, "crypto", set.AssetClass)
	require.InDelta(t, 50000, set.Price, 1e-9)
	require.InDelta(t, 50000, set.VWAP, 1e-9)
	require.InDelta(t, 0.5, set.ImbalanceRatio, 1e-9)
	require.InDelta(t, 0.0001, set.FundingRate, 1e-9)
	require.InDelta(t, 50002, set.MarkPrice, 1e-9)
	require.InDelta(t, 104.2, set.DollarIndex, 1e-9)
	require.NotNil(t, set.TopBid)
	require.InDelta(t, 49999, set.TopBid.Price, 1e-9)
	require.InDelta(t, 10, set.TopBid.Size, 1e-9)
	require.NotNil(t, set.TopAsk)
	require.False(t, set.Failed)
	require.Contains(t, set.MacroSummary, "funding=")
}

func TestAnalyzeOFIAcrossCycles(t *testing.T) {
	provider := &stubProvider{snapshots: []*market.Snapshot{
		cryptoSnapshot(10, 8),
		cryptoSnapshot(15, 6),
	}}
	a := New(provider)

	first, err := a.Analyze(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	require.Zero(t, first.OrderFlowImbalance, "no previous book on the first cycle")

	second, err := a.Analyze(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	// (15-10) - (6-8) = 7
	require.InDelta(t, 7.0, second.OrderFlowImbalance, 1e-9)
}

func TestAnalyzeTotalFailure(t *testing.T) {
	provider := &stubProvider{snapshots: []*market.Snapshot{{
		CapturedAt: 1700000000000,
		Book:       market.OrderBook{Bids: []market.PriceLevel{}, Asks: []market.PriceLevel{}},
		Trades:     []market.Trade{},
	}}}
	a := New(provider)

	set, err := a.Analyze(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	require.True(t, set.Failed)
	require.Equal(t, "could not fetch market data", set.MacroSummary)
	require.Zero(t, set.Price)
	require.Zero(t, set.VWAP)
	require.InDelta(t, 50.0, set.RSI, 1e-9)
	require.InDelta(t, 1.0, set.ImbalanceRatio, 1e-9)
	require.Nil(t, set.TopBid)
	require.Nil(t, set.TopAsk)
}

func TestAnalyzeMetalUsesCloseSeries(t *testing.T) {
	closes := make([]float64, 0, 20)
	for i := 0; i < 20; i++ {
		closes = append(closes, 2400+float64(i))
	}
	provider := &stubProvider{snapshots: []*market.Snapshot{{
		CapturedAt: 1700000000000,
		LastPrice:  2420,
		Book:       market.OrderBook{Bids: []market.PriceLevel{}, Asks: []market.PriceLevel{}},
		Trades:     []market.Trade{},
		Macro: market.MacroContext{
			InstrumentCloses:  closes,
			DollarIndexCloses: closes,
			DollarIndexLast:   104.2,
		},
	}}}
	a := New(provider)

	set, err := a.Analyze(context.Background(), "XAU")
	require.NoError(t, err)
	require.Equal(t, "metal", set.AssetClass)
	require.InDelta(t, 100.0, set.RSI, 1e-9, "monotonically rising closes pin RSI at 100")
	require.InDelta(t, 1.0, set.DXYCorrelation, 1e-9, "series correlates perfectly with itself")
	require.False(t, set.Failed)
	require.Contains(t, set.MacroSummary, "dxy=")
}

func TestAnalyzeRecorderInvoked(t *testing.T) {
	provider := &stubProvider{snapshots: []*market.Snapshot{cryptoSnapshot(10, 5)}}
	recorder := &captureRecorder{}
	a := New(provider, WithRecorder(recorder))

	set, err := a.Analyze(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	require.Len(t, recorder.sets, 1)
	require.Same(t, set, recorder.sets[0])
}

func TestAnalyzeRecorderErrorNotPropagated(t *testing.T) {
	provider := &stubProvider{snapshots: []*market.Snapshot{cryptoSnapshot(10, 5)}}
	recorder := &captureRecorder{err: errors.New("redis down")}
	a := New(provider, WithRecorder(recorder))

	set, err := a.Analyze(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	require.NotNil(t, set)
}

func TestAnalyzeProviderError(t *testing.T) {
	provider := &stubProvider{err: context.DeadlineExceeded}
	a := New(provider)

	_, err := a.Analyze(context.Background(), "BTC/USDT")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnalyzeSharedBookStore(t *testing.T) {
	store := NewBookStore()
	providerA := &stubProvider{snapshots: []*market.Snapshot{cryptoSnapshot(10, 8)}}
	providerB := &stubProvider{snapshots: []*market.Snapshot{cryptoSnapshot(15, 6)}}

	first := New(providerA, WithBookStore(store))
	_, err := first.Analyze(context.Background(), "BTC/USDT")
	require.NoError(t, err)

	second := New(providerB, WithBookStore(store))
	set, err := second.Analyze(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	require.InDelta(t, 7.0, set.OrderFlowImbalance, 1e-9)
}

func TestWallSignal(t *testing.T) {
	require.Equal(t, WallSell, WallSignal(3.01))
	require.Equal(t, WallNone, WallSignal(3.0))
	require.Equal(t, WallNone, WallSignal(1.0))
	require.Equal(t, WallNone, WallSignal(0.33))
	require.Equal(t, WallBuy, WallSignal(0.32))
	require.Equal(t, WallSell, WallSignal(999.0))
}
