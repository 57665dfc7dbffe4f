package record

import (
	"encoding/json"
	"strconv"
	"time"
)

// RawMessage is a decoded ticker payload. The exchange sends numeric fields
// as JSON strings and omits fields freely, so callers go through typed
// accessors with explicit defaults instead of trusting the ambient shape.
type RawMessage struct {
	// TS is the envelope timestamp in milliseconds since epoch, 0 if absent.
	TS int64

	// Data is the raw key-value payload of the ticker event.
	Data map[string]any
}

// tickerEnvelope is the wire format of a ticker stream message.
type tickerEnvelope struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	TS    int64           `json:"ts"`
	Data  json.RawMessage `json:"data"`
}

// ParseTicker decodes a raw websocket frame into a RawMessage. The second
// return is false for frames without a ticker payload (op acks, pongs).
func ParseTicker(data []byte) (RawMessage, bool) {
	var env tickerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return RawMessage{}, false
	}
	if len(env.Data) == 0 {
		return RawMessage{}, false
	}

	var payload map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return RawMessage{}, false
	}
	if len(payload) == 0 {
		return RawMessage{}, false
	}

	return RawMessage{TS: env.TS, Data: payload}, true
}

// String returns the string value for key, or "" when missing or not a string.
func (m RawMessage) String(key string) string {
	if s, ok := m.Data[key].(string); ok {
		return s
	}
	return ""
}

// Float returns the numeric value for key. Missing, empty, or malformed
// values yield 0.0; a bad optional field never fails the record.
func (m RawMessage) Float(key string) float64 {
	switch v := m.Data[key].(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	case float64:
		return v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// OptionalTimeMilli returns the millisecond-epoch timestamp for key, or nil
// when the field is absent, empty, or unparsable. It never fabricates a
// zero-epoch time.
func (m RawMessage) OptionalTimeMilli(key string) *time.Time {
	var millis int64

	switch v := m.Data[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil
		}
		millis = n
	case float64:
		millis = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil
		}
		millis = n
	default:
		return nil
	}

	if millis <= 0 {
		return nil
	}
	t := time.UnixMilli(millis).UTC()
	return &t
}

// EventTime returns the envelope timestamp, falling back to receivedAt when
// the envelope carries none. The result is never zero, so every record stays
// temporally orderable.
func (m RawMessage) EventTime(receivedAt time.Time) time.Time {
	if m.TS > 0 {
		return time.UnixMilli(m.TS).UTC()
	}
	return receivedAt
}
