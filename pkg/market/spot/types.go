package spot

// TickerPriceResponse mirrors /api/v3/ticker/price.
type TickerPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// DepthResponse mirrors /api/v3/depth. Levels arrive as ["price","qty"]
// string pairs, best bid and best ask first.
type DepthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// TradeEntry mirrors one element of /api/v3/trades.
type TradeEntry struct {
	ID           int64  `json:"id"`
	Price        string `json:"price"`
	Qty          string `json:"qty"`
	Time         int64  `json:"time"`
	IsBuyerMaker bool   `json:"isBuyerMaker"`
}

// PremiumIndexResponse mirrors /fapi/v1/premiumIndex.
type PremiumIndexResponse struct {
	Symbol          string `json:"symbol"`
	MarkPrice       string `json:"markPrice"`
	LastFundingRate string `json:"lastFundingRate"`
	Time            int64  `json:"time"`
}
