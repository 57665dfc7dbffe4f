package record

import (
	"fmt"
	"strings"

	"github.com/airbureau/bybit-data/internal/model"
)

// Column is a single ClickHouse column in a ticker table.
type Column struct {
	Name string
	Type string
}

// Schema describes one segment's ticker table. Columns are in insert order;
// server-filled columns (insert_time) are part of the DDL but not inserted.
type Schema struct {
	Table   string
	Columns []Column
}

// Width returns the number of inserted columns.
func (s Schema) Width() int {
	return len(s.Columns)
}

// ColumnNames returns the inserted column names in order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// DDL returns the CREATE TABLE statement for this schema.
func (s Schema) DDL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", s.Table)
	for i, c := range s.Columns {
		fmt.Fprintf(&b, "    `%s` %s,\n", c.Name, c.Type)
		// insert_time is filled server-side, right after receive_time.
		if i == 1 {
			b.WriteString("    `insert_time` DateTime64(3) DEFAULT now64(),\n")
		}
	}
	b.WriteString("    INDEX idx_symbol_event (symbol, event_time) TYPE minmax GRANULARITY 3\n")
	b.WriteString(") ENGINE = MergeTree() ORDER BY tuple()")
	return b.String()
}

var spotSchema = Schema{
	Table: "bybit_tickers_spot",
	Columns: []Column{
		{"event_time", "DateTime64(3)"},
		{"receive_time", "DateTime64(3)"},
		{"symbol", "String"},
		{"tick_direction", "String"},
		{"last_price", "Float64"},
		{"prev_price_24h", "Float64"},
		{"price_24h_pcnt", "Float64"},
		{"high_price_24h", "Float64"},
		{"low_price_24h", "Float64"},
		{"prev_price_1h", "Float64"},
		{"mark_price", "Float64"},
		{"index_price", "Float64"},
		{"turnover_24h", "Float64"},
		{"volume_24h", "Float64"},
		{"bid1_price", "Float64"},
		{"bid1_size", "Float64"},
		{"ask1_price", "Float64"},
		{"ask1_size", "Float64"},
	},
}

var linearSchema = Schema{
	Table: "bybit_tickers_linear",
	Columns: []Column{
		{"event_time", "DateTime64(3)"},
		{"receive_time", "DateTime64(3)"},
		{"symbol", "String"},
		{"tick_direction", "String"},
		{"last_price", "Float64"},
		{"prev_price_24h", "Float64"},
		{"price_24h_pcnt", "Float64"},
		{"high_price_24h", "Float64"},
		{"low_price_24h", "Float64"},
		{"prev_price_1h", "Float64"},
		{"mark_price", "Float64"},
		{"index_price", "Float64"},
		{"open_interest", "Float64"},
		{"open_interest_value", "Float64"},
		{"turnover_24h", "Float64"},
		{"volume_24h", "Float64"},
		{"funding_rate", "Float64"},
		{"next_funding_time", "Nullable(DateTime64(3))"},
		{"bid1_price", "Float64"},
		{"bid1_size", "Float64"},
		{"ask1_price", "Float64"},
		{"ask1_size", "Float64"},
	},
}

// SchemaFor returns the table schema for a segment.
func SchemaFor(segment model.Segment) Schema {
	if segment == model.SegmentLinear {
		return linearSchema
	}
	return spotSchema
}
