package coords

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFullPreviewRectMapsToFullPage(t *testing.T) {
	// A rectangle covering the whole preview must map to the whole page box.
	tr := NewTransform(300, 400, 612, 792)
	got := tr.ToPDFRect(Rect{X: 0, Y: 0, W: 300, H: 400})
	if !almostEqual(got.X, 0) || !almostEqual(got.Y, 0) || !almostEqual(got.W, 612) || !almostEqual(got.H, 792) {
		t.Errorf("full preview rect mapped to %+v, want (0,0,612,792)", got)
	}
}

func TestToPDFRectFlip(t *testing.T) {
	// Unit scale, 100x100 page. A 10x20 rect at preview (5,30) sits with its
	// bottom edge at preview y=50, so PDF y = 100 - 50 = 50.
	tr := NewTransform(100, 100, 100, 100)
	got := tr.ToPDFRect(Rect{X: 5, Y: 30, W: 10, H: 20})
	want := Rect{X: 5, Y: 50, W: 10, H: 20}
	if got != want {
		t.Errorf("ToPDFRect = %+v, want %+v", got, want)
	}
}

func TestToPDFRectScaled(t *testing.T) {
	// Preview at half page size: scale factor 2 on both axes.
	tr := NewTransform(100, 200, 200, 400)
	got := tr.ToPDFRect(Rect{X: 10, Y: 10, W: 30, H: 40})
	if !almostEqual(got.X, 20) || !almostEqual(got.W, 60) || !almostEqual(got.H, 80) {
		t.Errorf("scaled rect = %+v", got)
	}
	// pdfY = 400 - (10+40)*2 = 300
	if !almostEqual(got.Y, 300) {
		t.Errorf("scaled rect Y = %v, want 300", got.Y)
	}
}

func TestToPDFPoint(t *testing.T) {
	tr := NewTransform(100, 100, 100, 100)
	x, y := tr.ToPDFPoint(25, 40)
	if !almostEqual(x, 25) || !almostEqual(y, 60) {
		t.Errorf("ToPDFPoint = (%v,%v), want (25,60)", x, y)
	}
}

func TestBaselineY(t *testing.T) {
	// At unit scale the baseline is pageH - y - fontSize.
	tr := NewTransform(612, 792, 612, 792)
	if got := tr.BaselineY(100, 12); !almostEqual(got, 792-100-12) {
		t.Errorf("BaselineY = %v, want %v", got, 792-100-12)
	}
	// With a half-size preview the anchor scales but the font size does not.
	tr = NewTransform(306, 396, 612, 792)
	if got := tr.BaselineY(100, 12); !almostEqual(got, 792-200-12) {
		t.Errorf("scaled BaselineY = %v, want %v", got, 792-200-12)
	}
}
