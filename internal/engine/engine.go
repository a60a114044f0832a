// Package engine implements the document mutation operations: every call
// takes the current PDF byte buffer plus an edit description and returns a
// new buffer. Buffers are never mutated in place; the codec document behind
// a call is transient and discarded after serialization. Callers serialize
// mutations per document.
package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maotai11/pdf-editor-tool/internal/codec"
	"github.com/maotai11/pdf-editor-tool/internal/coords"
	"github.com/maotai11/pdf-editor-tool/internal/document"
	"github.com/maotai11/pdf-editor-tool/internal/errs"
	"github.com/maotai11/pdf-editor-tool/internal/metrics"
	"github.com/maotai11/pdf-editor-tool/internal/pageindex"
	"github.com/maotai11/pdf-editor-tool/internal/pagerange"
)

type Engine struct {
	codec *codec.Codec
}

func New(c *codec.Codec) *Engine {
	return &Engine{codec: c}
}

// Rotate adds degrees (a multiple of 90, may be negative) to the stored
// rotation of each target page. Indices outside [0,pageCount) are silently
// skipped; if nothing remains the buffer is returned unchanged.
func (e *Engine) Rotate(buf []byte, indices []int, degrees int) (out []byte, err error) {
	defer e.observe("rotate", time.Now(), &err)
	if degrees%90 != 0 {
		return nil, &errs.ValidationError{Message: fmt.Sprintf("rotation must be a multiple of 90, got %d", degrees)}
	}
	n, err := e.codec.PageCount(buf)
	if err != nil {
		return nil, err
	}
	oneBased := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			continue
		}
		oneBased = append(oneBased, idx+1)
	}
	if len(oneBased) == 0 || degrees%360 == 0 {
		return buf, nil
	}
	log.Info().Ints("pages", oneBased).Int("degrees", degrees).Msg("rotating pages")
	return e.codec.Rotate(buf, oneBased, degrees)
}

// Crop maps a preview-space rectangle onto the page's PDF coordinate space
// (scale plus vertical flip) and sets it as the page's crop box.
func (e *Engine) Crop(buf []byte, pageIndex int, box coords.Rect, previewW, previewH float64) (out []byte, err error) {
	defer e.observe("crop", time.Now(), &err)
	if previewW <= 0 || previewH <= 0 {
		return nil, &errs.ValidationError{Message: "preview dimensions must be positive"}
	}
	dims, err := e.codec.PageDims(buf)
	if err != nil {
		return nil, err
	}
	if pageIndex < 0 || pageIndex >= len(dims) {
		return nil, &errs.ValidationError{Message: fmt.Sprintf("crop page %d out of range [0,%d)", pageIndex, len(dims))}
	}
	t := coords.NewTransform(previewW, previewH, dims[pageIndex].Width, dims[pageIndex].Height)
	r := t.ToPDFRect(box)
	log.Info().Int("page", pageIndex).
		Float64("llx", r.X).Float64("lly", r.Y).
		Float64("urx", r.X+r.W).Float64("ury", r.Y+r.H).
		Msg("cropping page")
	return e.codec.Crop(buf, pageIndex+1, r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// AddText burns the pending annotations into one page, in order. Annotation
// positions are preview-space; the draw baseline drops by one font size
// below the flipped anchor. Colors must be 6-hex-digit; validation happens
// before any byte is touched.
func (e *Engine) AddText(buf []byte, pageIndex int, anns []document.TextAnnotation, previewW, previewH float64) (out []byte, err error) {
	defer e.observe("add_text", time.Now(), &err)
	if len(anns) == 0 {
		return buf, nil
	}
	if previewW <= 0 || previewH <= 0 {
		return nil, &errs.ValidationError{Message: "preview dimensions must be positive"}
	}
	for _, a := range anns {
		if a.Text == "" {
			return nil, &errs.ValidationError{Message: "annotation text must not be empty"}
		}
		if _, _, _, cerr := ParseHexColor(a.Color); cerr != nil {
			return nil, &errs.ValidationError{Message: cerr.Error()}
		}
	}
	dims, err := e.codec.PageDims(buf)
	if err != nil {
		return nil, err
	}
	if pageIndex < 0 || pageIndex >= len(dims) {
		return nil, &errs.ValidationError{Message: fmt.Sprintf("annotate page %d out of range [0,%d)", pageIndex, len(dims))}
	}
	t := coords.NewTransform(previewW, previewH, dims[pageIndex].Width, dims[pageIndex].Height)

	for _, a := range anns {
		size := a.FontSize
		if size <= 0 {
			size = 12
		}
		dx, _ := t.ToPDFPoint(a.X, a.Y)
		dy := t.BaselineY(a.Y, size)
		desc := fmt.Sprintf("fontname:%s, points:%g, pos:bl, rot:0, scale:1 abs, fillcolor:%s, opacity:1",
			stampFont(a.FontFamily), size, normalizeHex(a.Color))
		buf, err = e.codec.StampText(buf, pageIndex+1, a.Text, desc, dx, dy)
		if err != nil {
			return nil, err
		}
	}
	log.Info().Int("page", pageIndex).Int("annotations", len(anns)).Msg("burned in text annotations")
	return buf, nil
}

// Split creates one independent document per rule, each containing exactly
// the rule's inclusive page range in order. An empty rule list yields empty
// output; the caller decides how to present "nothing to export".
func (e *Engine) Split(buf []byte, rules []pagerange.Rule) (out [][]byte, err error) {
	defer e.observe("split", time.Now(), &err)
	out = make([][]byte, 0, len(rules))
	for _, r := range rules {
		part, rerr := e.codec.Rebuild(buf, r.OneBased())
		if rerr != nil {
			return nil, fmt.Errorf("split range %d-%d: %w", r.Start+1, r.End+1, rerr)
		}
		out = append(out, part)
	}
	log.Info().Int("parts", len(out)).Msg("split document")
	return out, nil
}

// Merge appends every page of every buffer in input order into one new
// document. A single input behaves as a pass-through copy.
func (e *Engine) Merge(bufs [][]byte) (out []byte, err error) {
	defer e.observe("merge", time.Now(), &err)
	if len(bufs) == 0 {
		return nil, &errs.ValidationError{Message: "merge needs at least one document"}
	}
	return e.codec.Merge(bufs)
}

// ExtractPages creates a new document containing exactly the given pages in
// the given caller-determined order. Duplicates are legal and replicate the
// page. Reorder and delete share this rebuild primitive.
func (e *Engine) ExtractPages(buf []byte, indices []int) (out []byte, err error) {
	defer e.observe("extract", time.Now(), &err)
	if len(indices) == 0 {
		return nil, &errs.ValidationError{Message: "no pages specified for extraction"}
	}
	n, err := e.codec.PageCount(buf)
	if err != nil {
		return nil, err
	}
	oneBased := make([]int, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, &errs.ValidationError{Message: fmt.Sprintf("page %d out of range [0,%d)", idx, n)}
		}
		oneBased[i] = idx + 1
	}
	return e.codec.Rebuild(buf, oneBased)
}

// ReorderPages rebuilds the whole document using newOrder as the copy order.
// newOrder must be a bijection on the current index range; partial reorders
// are rejected.
func (e *Engine) ReorderPages(buf []byte, newOrder []int) (out []byte, err error) {
	defer e.observe("reorder", time.Now(), &err)
	n, err := e.codec.PageCount(buf)
	if err != nil {
		return nil, err
	}
	if !pageindex.IsPermutation(newOrder, n) {
		return nil, &errs.ValidationError{Message: fmt.Sprintf("order %v is not a permutation of [0,%d)", newOrder, n)}
	}
	oneBased := make([]int, len(newOrder))
	for i, idx := range newOrder {
		oneBased[i] = idx + 1
	}
	return e.codec.Rebuild(buf, oneBased)
}

// DeletePages removes the given pages, keeping the remainder in relative
// order. Removing every page is rejected before any byte mutation.
func (e *Engine) DeletePages(buf []byte, remove []int) (out []byte, err error) {
	defer e.observe("delete", time.Now(), &err)
	n, err := e.codec.PageCount(buf)
	if err != nil {
		return nil, err
	}
	keep, err := pageindex.RemainingAfterDelete(n, remove)
	if err != nil {
		return nil, err
	}
	oneBased := make([]int, len(keep))
	for i, idx := range keep {
		oneBased[i] = idx + 1
	}
	log.Info().Int("removed", n-len(keep)).Int("kept", len(keep)).Msg("deleting pages")
	return e.codec.Rebuild(buf, oneBased)
}

// PageCount exposes the codec's count for callers that need to size index
// algebra against the current buffer.
func (e *Engine) PageCount(buf []byte) (int, error) {
	return e.codec.PageCount(buf)
}

func (e *Engine) observe(op string, start time.Time, err *error) {
	result := "success"
	if *err != nil {
		result = "error"
	}
	metrics.ObserveMutation(op, result, time.Since(start))
}
