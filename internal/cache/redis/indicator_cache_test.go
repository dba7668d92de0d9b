package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aetherquant/pkg/analyzer"
)

// Integration tests require a live Redis, pointed at via REDIS_ADDR:
//
//	REDIS_ADDR=localhost:6379 go test ./internal/cache/redis/...
func integrationClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("set REDIS_ADDR to run redis integration tests")
	}
	client := NewClient(addr, os.Getenv("REDIS_PASSWORD"), 0)
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx))
	return client
}

func TestIndicatorKey(t *testing.T) {
	require.Equal(t, "indicators:BTC/USDT", indicatorKey("btc/usdt"))
	require.Equal(t, "indicators:XAU", indicatorKey("  XAU  "))
}

func TestRecordAndLatest(t *testing.T) {
	client := integrationClient(t)
	cache := NewIndicatorCache(client, time.Minute)
	ctx := context.Background()

	set := &analyzer.IndicatorSet{
		Symbol:         "ITEST/USDT",
		AssetClass:     "crypto",
		Price:          50000,
		VWAP:           49998.5,
		RSI:            61.2,
		ImbalanceRatio: 0.8,
		TopBid:         &analyzer.Level{Price: 49999, Size: 2.5},
		MacroSummary:   "funding=0.000100 mark=50002.00 dxy=104.20",
		CapturedAt:     time.Now().UnixMilli(),
	}
	require.NoError(t, cache.RecordIndicators(ctx, set))
	t.Cleanup(func() {
		client.Underlying().Del(ctx, indicatorKey(set.Symbol))
	})

	got, err := cache.Latest(ctx, "itest/usdt")
	require.NoError(t, err)
	require.Equal(t, set.Symbol, got.Symbol)
	require.InDelta(t, set.Price, got.Price, 1e-9)
	require.InDelta(t, set.RSI, got.RSI, 1e-9)
	require.NotNil(t, got.TopBid)
	require.InDelta(t, 49999, got.TopBid.Price, 1e-9)
	require.Nil(t, got.TopAsk)
	require.Equal(t, set.MacroSummary, got.MacroSummary)
}

func TestRecordOverwritesPrevious(t *testing.T) {
	client := integrationClient(t)
	cache := NewIndicatorCache(client, time.Minute)
	ctx := context.Background()

	first := &analyzer.IndicatorSet{Symbol: "ITEST2/USDT", Price: 100}
	second := &analyzer.IndicatorSet{Symbol: "ITEST2/USDT", Price: 200}
	require.NoError(t, cache.RecordIndicators(ctx, first))
	require.NoError(t, cache.RecordIndicators(ctx, second))
	t.Cleanup(func() {
		client.Underlying().Del(ctx, indicatorKey(first.Symbol))
	})

	got, err := cache.Latest(ctx, first.Symbol)
	require.NoError(t, err)
	require.InDelta(t, 200, got.Price, 1e-9)
}

func TestLatestNotFound(t *testing.T) {
	client := integrationClient(t)
	cache := NewIndicatorCache(client, time.Minute)

	_, err := cache.Latest(context.Background(), "NO-SUCH-SYMBOL")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordExpires(t *testing.T) {
	client := integrationClient(t)
	cache := NewIndicatorCache(client, 100*time.Millisecond)
	ctx := context.Background()

	set := &analyzer.IndicatorSet{Symbol: "ITEST3/USDT", Price: 100}
	require.NoError(t, cache.RecordIndicators(ctx, set))

	time.Sleep(200 * time.Millisecond)
	_, err := cache.Latest(ctx, set.Symbol)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordNilSetIsNoop(t *testing.T) {
	cache := &IndicatorCache{}
	require.NoError(t, cache.RecordIndicators(context.Background(), nil))
}
