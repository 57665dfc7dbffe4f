// Package record implements the Record Normalizer component.
//
// Each inbound ticker message is converted into a fixed-shape row matching
// the segment's ClickHouse table exactly. Missing or malformed numeric fields
// default to 0.0 (the row's availability outweighs one optional field);
// nullable timestamps become explicit NULLs; the event time falls back to the
// receive clock so every row stays temporally orderable. The only hard
// failure is a row whose width does not match the table schema.
package record
