package engine

import (
	"math"
	"testing"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b float64
		ok      bool
	}{
		{"#FF0000", 1, 0, 0, true},
		{"00ff00", 0, 1, 0, true},
		{"#0000FF", 0, 0, 1, true},
		{"#808080", 128.0 / 255, 128.0 / 255, 128.0 / 255, true},
		{"#fff", 0, 0, 0, false},
		{"#12zz34", 0, 0, 0, false},
		{"", 0, 0, 0, false},
		{"#1234567", 0, 0, 0, false},
	}
	for _, tt := range tests {
		r, g, b, err := ParseHexColor(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("ParseHexColor(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if !tt.ok {
			continue
		}
		if math.Abs(r-tt.r) > 1e-9 || math.Abs(g-tt.g) > 1e-9 || math.Abs(b-tt.b) > 1e-9 {
			t.Errorf("ParseHexColor(%q) = (%v,%v,%v), want (%v,%v,%v)", tt.in, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}

func TestNormalizeHex(t *testing.T) {
	if got := normalizeHex("FFAA00"); got != "#ffaa00" {
		t.Errorf("normalizeHex = %q", got)
	}
	if got := normalizeHex("#FFAA00"); got != "#ffaa00" {
		t.Errorf("normalizeHex = %q", got)
	}
}

func TestStampFont(t *testing.T) {
	tests := map[string]string{
		"Arial":     "Helvetica",
		"helvetica": "Helvetica",
		"Times":     "Times-Roman",
		"monospace": "Courier",
		"Comic":     "Helvetica",
		"":          "Helvetica",
	}
	for in, want := range tests {
		if got := stampFont(in); got != want {
			t.Errorf("stampFont(%q) = %q, want %q", in, got, want)
		}
	}
}
