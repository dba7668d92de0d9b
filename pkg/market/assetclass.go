package market

import "strings"

// AssetClass is the closed set of instrument categories the pipeline knows
// how to fetch. Every symbol maps to exactly one class.
type AssetClass int

const (
	AssetClassCrypto AssetClass = iota
	AssetClassForex
	AssetClassMetal
)

// String implements fmt.Stringer.
func (c AssetClass) String() string {
	switch c {
	case AssetClassForex:
		return "forex"
	case AssetClassMetal:
		return "metal"
	default:
		return "crypto"
	}
}

// cryptoQuoteToken overrides the fiat match: a pair quoted in USDT trades on
// the crypto venue even when its base is a fiat currency.
const cryptoQuoteToken = "USDT"

var metalTokens = []string{"XAU", "XAG", "GOLD", "SILVER"}

var fiatCodes = []string{"USD", "EUR", "GBP", "JPY", "CHF", "AUD", "CAD", "NZD"}

// Classify assigns a symbol to exactly one asset class. Metal tokens win
// over everything; a slash-separated pair with a recognized fiat code is
// forex unless it carries the crypto quote token; everything else is crypto.
func Classify(symbol string) AssetClass {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, token := range metalTokens {
		if strings.Contains(s, token) {
			return AssetClassMetal
		}
	}
	if strings.Contains(s, "/") && !strings.Contains(s, cryptoQuoteToken) && containsFiat(s) {
		return AssetClassForex
	}
	return AssetClassCrypto
}

func containsFiat(symbol string) bool {
	for _, code := range fiatCodes {
		if strings.Contains(symbol, code) {
			return true
		}
	}
	return false
}
