package model

// Instrument is one entry from the exchange instrument catalog.
// Immutable once fetched; the set is refreshed only by re-running discovery.
type Instrument struct {
	Symbol    string  // Exchange symbol (e.g. "BTCUSDT")
	Segment   Segment // Market category
	QuoteCoin string  // Quote asset (e.g. "USDT")
	Tradable  bool    // status == "Trading"
}
