// Package coords converts between the rasterized preview's coordinate space
// (origin top-left, y grows downward) and PDF page space (origin bottom-left,
// y grows upward). Crop and text burn-in both go through this one transform
// so the flip/scale math cannot drift between call sites.
package coords

// Rect is an axis-aligned rectangle with a top-left anchor in preview space
// or a bottom-left anchor in PDF space, depending on which side of the
// transform it sits on.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Transform maps preview coordinates onto one PDF page.
type Transform struct {
	scaleX float64
	scaleY float64
	pageW  float64
	pageH  float64
}

// NewTransform builds the transform for a page of pageW x pageH points that
// was previewed at previewW x previewH pixels.
func NewTransform(previewW, previewH, pageW, pageH float64) Transform {
	return Transform{
		scaleX: pageW / previewW,
		scaleY: pageH / previewH,
		pageW:  pageW,
		pageH:  pageH,
	}
}

// ToPDFRect maps a preview rectangle into PDF space, flipping vertically:
// the rectangle's bottom edge in preview space becomes its lower-left y.
func (t Transform) ToPDFRect(r Rect) Rect {
	return Rect{
		X: r.X * t.scaleX,
		Y: t.pageH - (r.Y+r.H)*t.scaleY,
		W: r.W * t.scaleX,
		H: r.H * t.scaleY,
	}
}

// ToPDFPoint maps a single preview point into PDF space.
func (t Transform) ToPDFPoint(x, y float64) (float64, float64) {
	return x * t.scaleX, t.pageH - y*t.scaleY
}

// BaselineY returns the PDF-space text baseline for an annotation anchored at
// preview y with the given font size: flip, then drop by one font size so the
// glyphs render below the anchor like they did in the preview.
func (t Transform) BaselineY(y, fontSize float64) float64 {
	return t.pageH - y*t.scaleY - fontSize
}

// PageSize returns the page dimensions the transform was built for.
func (t Transform) PageSize() (w, h float64) { return t.pageW, t.pageH }
