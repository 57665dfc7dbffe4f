// Package catalog implements the Symbol Directory component.
//
// It resolves the current tradable instrument set for a market segment from
// the Bybit REST catalog:
//
//	GET /v5/market/instruments-info?category={spot|linear}
//
// Results are filtered to the configured quote coin and Trading status.
// Discovery failures are reported as *DiscoveryError; the pipeline idles and
// retries rather than crashing.
package catalog
