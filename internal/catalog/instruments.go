package catalog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/airbureau/bybit-data/internal/model"
)

const instrumentsPath = "/v5/market/instruments-info"

// Catalog responses page at 1000 instruments.
const pageLimit = 1000

// instrumentsResponse is the wire format for instruments-info.
type instrumentsResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category       string           `json:"category"`
		List           []instrumentWire `json:"list"`
		NextPageCursor string           `json:"nextPageCursor"`
	} `json:"result"`
}

type instrumentWire struct {
	Symbol    string `json:"symbol"`
	QuoteCoin string `json:"quoteCoin"`
	Status    string `json:"status"`
}

// ListInstruments fetches the full instrument catalog for a segment,
// paginating through the cursor.
func (c *Client) ListInstruments(ctx context.Context, segment model.Segment) ([]model.Instrument, error) {
	var all []model.Instrument
	cursor := ""

	for {
		query := url.Values{}
		query.Set("category", segment.String())
		query.Set("limit", fmt.Sprintf("%d", pageLimit))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp instrumentsResponse
		if err := c.get(ctx, instrumentsPath, query, &resp); err != nil {
			return nil, &DiscoveryError{Segment: segment.String(), Err: err}
		}
		if resp.RetCode != 0 {
			return nil, &DiscoveryError{
				Segment: segment.String(),
				Err:     fmt.Errorf("retCode %d: %s", resp.RetCode, resp.RetMsg),
			}
		}

		for _, w := range resp.Result.List {
			all = append(all, model.Instrument{
				Symbol:    w.Symbol,
				Segment:   segment,
				QuoteCoin: w.QuoteCoin,
				Tradable:  w.Status == "Trading",
			})
		}

		if resp.Result.NextPageCursor == "" {
			break
		}
		cursor = resp.Result.NextPageCursor
	}

	return all, nil
}

// ListTradableSymbols returns the ordered symbols for instruments quoted in
// the configured quote coin and currently trading. An empty result is not an
// error; the caller decides whether to idle.
func (c *Client) ListTradableSymbols(ctx context.Context, segment model.Segment) ([]string, error) {
	instruments, err := c.ListInstruments(ctx, segment)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		if inst.QuoteCoin != c.quoteCoin || !inst.Tradable {
			continue
		}
		symbols = append(symbols, inst.Symbol)
	}

	c.logger.Info("discovered tradable symbols",
		"segment", segment,
		"total", len(instruments),
		"tradable", len(symbols),
	)

	return symbols, nil
}
