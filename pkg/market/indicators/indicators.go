// Package indicators implements the pure indicator math over canonical
// snapshots. Every function is a stateless computation: insufficient input
// yields the indicator's documented neutral or sentinel value, never an
// error.
package indicators

import (
	"math"

	"github.com/shopspring/decimal"

	"aetherquant/pkg/market"
)

const (
	DefaultRSIPeriod      = 14
	DefaultImbalanceDepth = 10
	DefaultOFIDepth       = 5
)

// MaxSellPressure is the sentinel ImbalanceRatio returns when bid volume
// sums to exactly zero.
const MaxSellPressure = 999.0

// VWAP is the volume-weighted average price over the recent tape. An empty
// tape (or one with zero total volume) yields 0.
func VWAP(trades []market.Trade) float64 {
	if len(trades) == 0 {
		return 0.0
	}
	var notional, volume float64
	for _, t := range trades {
		notional += t.Price * t.Size
		volume += t.Size
	}
	if volume == 0 {
		return 0.0
	}
	return notional / volume
}

// RSI computes a single-window scalar Relative Strength Index. This is
// deliberately the unsmoothed variant: the first period+1 deltas are
// averaged once, with no rolling update. Fewer than period+1 price points
// yield the neutral 50; a window with no losses yields 100.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50.0
	}
	deltas := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		deltas = append(deltas, prices[i]-prices[i-1])
	}
	if len(deltas) > period+1 {
		deltas = deltas[:period+1]
	}
	var up, down float64
	for _, d := range deltas {
		if d >= 0 {
			up += d
		} else {
			down -= d
		}
	}
	up /= float64(period)
	down /= float64(period)
	if down == 0 {
		return 100.0
	}
	rs := up / down
	return 100.0 - (100.0 / (1.0 + rs))
}

// ImbalanceRatio is total ask volume over total bid volume across the top
// depth levels. An entirely empty side is the neutral 1.0; zero bid volume
// against resting asks is MaxSellPressure.
func ImbalanceRatio(bids, asks []market.PriceLevel, depth int) float64 {
	if len(bids) == 0 || len(asks) == 0 {
		return 1.0
	}
	bidVol := sideVolume(bids, depth)
	askVol := sideVolume(asks, depth)
	if bidVol.IsZero() {
		return MaxSellPressure
	}
	return askVol.Div(bidVol).InexactFloat64()
}

// OFI is the order flow imbalance between two consecutive books:
// (ΔbidVol - ΔaskVol) over the top depth levels. A missing book on either
// side yields 0.
func OFI(current, previous *market.OrderBook, depth int) float64 {
	if current == nil || previous == nil {
		return 0.0
	}
	deltaBid := sideVolume(current.Bids, depth).Sub(sideVolume(previous.Bids, depth))
	deltaAsk := sideVolume(current.Asks, depth).Sub(sideVolume(previous.Asks, depth))
	return deltaBid.Sub(deltaAsk).InexactFloat64()
}

// Correlation is the Pearson correlation coefficient of two equal-length
// chronological series, rounded to 3 decimal places. Empty, mismatched or
// constant inputs yield 0.
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0.0
	}
	n := float64(len(x))
	var meanX, meanY float64
	for i := range x {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= n
	meanY /= n

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0.0
	}
	r := cov / denom
	if math.IsNaN(r) {
		return 0.0
	}
	return math.Round(r*1000) / 1000
}

func sideVolume(levels []market.PriceLevel, depth int) decimal.Decimal {
	if depth <= 0 || depth > len(levels) {
		depth = len(levels)
	}
	total := decimal.Zero
	for _, level := range levels[:depth] {
		total = total.Add(level.Size)
	}
	return total
}
