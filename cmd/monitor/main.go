// Command monitor runs periodic fetch-and-analyze cycles over the
// configured symbols and logs the derived indicator records, flagging
// sell/buy walls when the imbalance ratio crosses its thresholds.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"aetherquant/internal/cache/redis"
	"aetherquant/internal/config"
	"aetherquant/pkg/analyzer"
	"aetherquant/pkg/market/feed"
)

const (
	analyzeTimeout = 30 * time.Second
	pingTimeout    = 3 * time.Second
)

var configFile = flag.String("f", "etc/config.yaml", "the config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("monitor: load config: %v", err)
	}
	logx.DisableStat()

	provider := feed.New(&cfg.Market)
	opts := []analyzer.Option{}

	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		err := cache.Ping(pingCtx)
		cancel()
		if err != nil {
			logx.Errorf("monitor: redis unavailable, mirror disabled: %v", err)
			_ = cache.Close()
			cache = nil
		} else {
			opts = append(opts, analyzer.WithRecorder(redis.NewIndicatorCache(cache, cfg.Redis.TTL)))
		}
	}
	if cache != nil {
		defer cache.Close()
	}

	an := analyzer.New(provider, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logx.Infof("monitor: watching %d symbols every %s", len(cfg.Symbols), cfg.Interval)
	runCycle(ctx, an, cfg.Symbols)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logx.Info("monitor: shutting down")
			return
		case <-ticker.C:
			runCycle(ctx, an, cfg.Symbols)
		}
	}
}

func runCycle(ctx context.Context, an *analyzer.Analyzer, symbols []string) {
	for _, symbol := range symbols {
		reqCtx, cancel := context.WithTimeout(ctx, analyzeTimeout)
		set, err := an.Analyze(reqCtx, symbol)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.Errorf("monitor: analyze symbol=%s err=%v", symbol, err)
			continue
		}
		if set.Failed {
			logx.Errorf("monitor: %s data unavailable", symbol)
			continue
		}
		logx.Infof("monitor: %s class=%s price=%.4f vwap=%.4f rsi=%.1f imbalance=%.2f ofi=%.2f corr=%.3f",
			set.Symbol, set.AssetClass, set.Price, set.VWAP, set.RSI,
			set.ImbalanceRatio, set.OrderFlowImbalance, set.DXYCorrelation)
		switch analyzer.WallSignal(set.ImbalanceRatio) {
		case analyzer.WallSell:
			logx.Infof("monitor: SELL WALL detected on %s ratio=%.2f", set.Symbol, set.ImbalanceRatio)
		case analyzer.WallBuy:
			logx.Infof("monitor: BUY WALL detected on %s ratio=%.2f", set.Symbol, set.ImbalanceRatio)
		}
	}
}
