package model

import "testing"

func TestParseSegment(t *testing.T) {
	tests := []struct {
		input   string
		want    Segment
		wantErr bool
	}{
		{"spot", SegmentSpot, false},
		{"linear", SegmentLinear, false},
		{"inverse", "", true},
		{"SPOT", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSegment(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSegment(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSegment(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSegment_StreamPath(t *testing.T) {
	if got := SegmentSpot.StreamPath(); got != "/v5/public/spot" {
		t.Errorf("spot StreamPath = %q", got)
	}
	if got := SegmentLinear.StreamPath(); got != "/v5/public/linear" {
		t.Errorf("linear StreamPath = %q", got)
	}
}
