package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"aetherquant/pkg/analyzer"
)

// ErrNotFound is returned by Latest when no record exists for a symbol.
var ErrNotFound = errors.New("redis: indicators not found")

// IndicatorCache implements analyzer.Recorder. Each symbol's latest record
// is stored msgpack-encoded at "indicators:{SYMBOL}" with a TTL; a stale
// entry simply expires, it is never merged with the next one.
type IndicatorCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewIndicatorCache creates an IndicatorCache backed by the given Client.
func NewIndicatorCache(c *Client, ttl time.Duration) *IndicatorCache {
	return &IndicatorCache{rdb: c.Underlying(), ttl: ttl}
}

func indicatorKey(symbol string) string {
	return "indicators:" + strings.ToUpper(strings.TrimSpace(symbol))
}

// RecordIndicators stores the record as the latest for its symbol,
// overwriting any previous one.
func (ic *IndicatorCache) RecordIndicators(ctx context.Context, set *analyzer.IndicatorSet) error {
	if set == nil {
		return nil
	}
	payload, err := msgpack.Marshal(set)
	if err != nil {
		return fmt.Errorf("redis: encode indicators %s: %w", set.Symbol, err)
	}
	if err := ic.rdb.Set(ctx, indicatorKey(set.Symbol), payload, ic.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set indicators %s: %w", set.Symbol, err)
	}
	return nil
}

// Latest retrieves the most recent record for a symbol. It returns
// ErrNotFound when the key is absent or expired.
func (ic *IndicatorCache) Latest(ctx context.Context, symbol string) (*analyzer.IndicatorSet, error) {
	data, err := ic.rdb.Get(ctx, indicatorKey(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get indicators %s: %w", symbol, err)
	}
	var set analyzer.IndicatorSet
	if err := msgpack.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("redis: decode indicators %s: %w", symbol, err)
	}
	return &set, nil
}
