package model

import "fmt"

// Segment is a market category with its own instrument set and table schema.
type Segment string

const (
	SegmentSpot   Segment = "spot"
	SegmentLinear Segment = "linear"
)

// ParseSegment validates a segment name from configuration.
func ParseSegment(s string) (Segment, error) {
	switch Segment(s) {
	case SegmentSpot, SegmentLinear:
		return Segment(s), nil
	}
	return "", fmt.Errorf("unknown segment %q (want spot or linear)", s)
}

func (s Segment) String() string {
	return string(s)
}

// StreamPath returns the public websocket path for this segment.
func (s Segment) StreamPath() string {
	return "/v5/public/" + string(s)
}
