// Package raster renders PDF pages to JPEG previews using go-fitz (MuPDF).
// Rendering is read-only: a Doc holds its own copy of the buffer and stays
// valid even while a mutation produces a successor buffer.
package raster

import (
	"bytes"
	"fmt"
	"image/jpeg"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"

	"github.com/maotai11/pdf-editor-tool/internal/errs"
)

// Renderer opens byte buffers for rasterization at a fixed DPI and JPEG
// quality.
type Renderer struct {
	dpi     float64
	quality int
}

func New(dpi float64, quality int) *Renderer {
	if dpi <= 0 {
		dpi = 40
	}
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return &Renderer{dpi: dpi, quality: quality}
}

// Open loads a buffer into a renderable document. Callers must Close it.
func (r *Renderer) Open(data []byte) (*Doc, error) {
	fz, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &errs.LoadError{Reason: "rasterizer open", Err: err}
	}
	return &Doc{fz: fz, dpi: r.dpi, quality: r.quality}, nil
}

// Doc is one loaded document, scoped to a single rasterization pass.
type Doc struct {
	fz      *fitz.Document
	dpi     float64
	quality int
}

func (d *Doc) NumPage() int { return d.fz.NumPage() }

// RenderJPEG rasterizes the 0-based page at the renderer's DPI and encodes it
// as JPEG. Returns the encoded bytes plus pixel dimensions.
func (d *Doc) RenderJPEG(pageIndex int) ([]byte, int, int, error) {
	img, err := d.fz.ImageDPI(pageIndex, d.dpi)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("render page %d: %w", pageIndex, err)
	}
	bounds := img.Bounds()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: d.quality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode page %d: %w", pageIndex, err)
	}
	log.Debug().
		Int("page", pageIndex).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("jpeg_size", buf.Len()).
		Msg("rendered page thumbnail")
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

// PageSize returns the page bound in points (72 dpi units).
func (d *Doc) PageSize(pageIndex int) (w, h float64, err error) {
	bound, err := d.fz.Bound(pageIndex)
	if err != nil {
		return 0, 0, fmt.Errorf("page bound %d: %w", pageIndex, err)
	}
	return float64(bound.Dx()), float64(bound.Dy()), nil
}

func (d *Doc) Close() error { return d.fz.Close() }
