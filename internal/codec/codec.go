// Package codec adapts pdfcpu to the byte-buffer contract the mutation engine
// works against: every call loads the buffer, mutates, and serializes a new
// buffer. Nothing is mutated in place and no pdfcpu context outlives a call.
package codec

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/maotai11/pdf-editor-tool/internal/errs"
)

type Codec struct {
	conf *model.Configuration
}

func New() *Codec {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Codec{conf: conf}
}

// PageCount reports the page count of buf, or a LoadError if buf is not a
// parseable PDF.
func (c *Codec) PageCount(buf []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(buf), c.conf)
	if err != nil {
		return 0, &errs.LoadError{Reason: "page count", Err: err}
	}
	return n, nil
}

// PageDims returns the media box dimensions of every page in points.
func (c *Codec) PageDims(buf []byte) ([]types.Dim, error) {
	ctx, err := api.ReadContext(bytes.NewReader(buf), c.conf)
	if err != nil {
		return nil, &errs.LoadError{Reason: "read context", Err: err}
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, &errs.LoadError{Reason: "validate", Err: err}
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("page dims: %w", err)
	}
	return dims, nil
}

// Rebuild produces a new document containing exactly the given 1-based pages
// in the given order. Duplicates replicate the page. This is the single
// primitive behind delete, reorder and extract, so the three can never drift.
func (c *Codec) Rebuild(buf []byte, oneBased []int) ([]byte, error) {
	ctx, err := api.ReadContext(bytes.NewReader(buf), c.conf)
	if err != nil {
		return nil, &errs.LoadError{Reason: "read context", Err: err}
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, &errs.LoadError{Reason: "validate", Err: err}
	}
	nctx, err := pdfcpu.ExtractPages(ctx, oneBased, false)
	if err != nil {
		return nil, fmt.Errorf("extract pages %v: %w", oneBased, err)
	}
	var out bytes.Buffer
	if err := api.WriteContext(nctx, &out); err != nil {
		return nil, fmt.Errorf("write context: %w", err)
	}
	return out.Bytes(), nil
}

// Rotate adds degrees to the stored rotation of the given 1-based pages.
// pdfcpu normalizes the stored angle mod 360.
func (c *Codec) Rotate(buf []byte, oneBased []int, degrees int) ([]byte, error) {
	if _, err := c.PageCount(buf); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := api.Rotate(bytes.NewReader(buf), &out, degrees, pageStrings(oneBased), c.conf); err != nil {
		return nil, fmt.Errorf("rotate pages %v by %d: %w", oneBased, degrees, err)
	}
	return out.Bytes(), nil
}

// Crop sets the crop box of one 1-based page to the given PDF-space
// rectangle (lower-left/upper-right corners, points).
func (c *Codec) Crop(buf []byte, oneBased int, llx, lly, urx, ury float64) ([]byte, error) {
	if _, err := c.PageCount(buf); err != nil {
		return nil, err
	}
	box := &model.Box{Rect: types.NewRectangle(llx, lly, urx, ury)}
	var out bytes.Buffer
	if err := api.Crop(bytes.NewReader(buf), &out, []string{strconv.Itoa(oneBased)}, box, c.conf); err != nil {
		return nil, fmt.Errorf("crop page %d: %w", oneBased, err)
	}
	return out.Bytes(), nil
}

// Merge appends every page of every input buffer in input order into one new
// document. A single input behaves as a pass-through copy.
func (c *Codec) Merge(bufs [][]byte) ([]byte, error) {
	rsc := make([]io.ReadSeeker, 0, len(bufs))
	for i, b := range bufs {
		if _, err := c.PageCount(b); err != nil {
			return nil, fmt.Errorf("merge input %d: %w", i, err)
		}
		rsc = append(rsc, bytes.NewReader(b))
	}
	var out bytes.Buffer
	if err := api.MergeRaw(rsc, &out, false, c.conf); err != nil {
		return nil, fmt.Errorf("merge %d buffers: %w", len(bufs), err)
	}
	return out.Bytes(), nil
}

// StampText burns a positioned text stamp into one 1-based page. desc is a
// pdfcpu watermark description; dx/dy place the stamp in points relative to
// the bottom-left anchor.
func (c *Codec) StampText(buf []byte, oneBased int, text, desc string, dx, dy float64) ([]byte, error) {
	if _, err := c.PageCount(buf); err != nil {
		return nil, err
	}
	wm, err := pdfcpu.ParseTextWatermarkDetails(text, desc, true, types.POINTS)
	if err != nil {
		return nil, &errs.ValidationError{Message: fmt.Sprintf("text stamp details: %v", err)}
	}
	wm.Dx = dx
	wm.Dy = dy
	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(buf), &out, []string{strconv.Itoa(oneBased)}, wm, c.conf); err != nil {
		return nil, fmt.Errorf("stamp text on page %d: %w", oneBased, err)
	}
	return out.Bytes(), nil
}

func pageStrings(oneBased []int) []string {
	out := make([]string, len(oneBased))
	for i, p := range oneBased {
		out[i] = strconv.Itoa(p)
	}
	return out
}
