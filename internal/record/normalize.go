package record

import (
	"fmt"
	"time"

	"github.com/airbureau/bybit-data/internal/model"
)

// Record is one normalized ticker row bound to its table schema.
type Record struct {
	Schema Schema
	Values []any // Column order matches Schema.Columns exactly.
}

// ShapeMismatchError reports a row whose width does not match the table
// schema. The record is dropped rather than written misaligned.
type ShapeMismatchError struct {
	Table string
	Got   int
	Want  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("row shape mismatch for %s: got %d values, schema has %d columns", e.Table, e.Got, e.Want)
}

// Normalize converts a raw ticker payload into a Record for the segment's
// table. Optional numerics default to 0.0 and nullable timestamps to NULL;
// the produced row must match the schema width exactly or the whole record
// fails.
func Normalize(raw RawMessage, segment model.Segment, receivedAt time.Time) (Record, error) {
	schema := SchemaFor(segment)

	values := make([]any, 0, schema.Width())
	values = append(values,
		raw.EventTime(receivedAt),
		receivedAt,
		raw.String("symbol"),
		raw.String("tickDirection"),
		raw.Float("lastPrice"),
		raw.Float("prevPrice24h"),
		raw.Float("price24hPcnt"),
		raw.Float("highPrice24h"),
		raw.Float("lowPrice24h"),
		raw.Float("prevPrice1h"),
		raw.Float("markPrice"),
	)

	if segment == model.SegmentLinear {
		values = append(values,
			raw.Float("indexPrice"),
			raw.Float("openInterest"),
			raw.Float("openInterestValue"),
			raw.Float("turnover24h"),
			raw.Float("volume24h"),
			raw.Float("fundingRate"),
			raw.OptionalTimeMilli("nextFundingTime"),
		)
	} else {
		// Spot tickers carry the USD index under a different key.
		values = append(values,
			raw.Float("usdIndexPrice"),
			raw.Float("turnover24h"),
			raw.Float("volume24h"),
		)
	}

	values = append(values,
		raw.Float("bid1Price"),
		raw.Float("bid1Size"),
		raw.Float("ask1Price"),
		raw.Float("ask1Size"),
	)

	if len(values) != schema.Width() {
		return Record{}, &ShapeMismatchError{
			Table: schema.Table,
			Got:   len(values),
			Want:  schema.Width(),
		}
	}

	return Record{Schema: schema, Values: values}, nil
}
