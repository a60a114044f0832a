package document

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maotai11/pdf-editor-tool/internal/errs"
	"github.com/maotai11/pdf-editor-tool/internal/limiter"
)

// Rasterizer abstracts the page renderer so the synchronizer can be tested
// without MuPDF.
type Rasterizer interface {
	Open(data []byte) (RenderedDoc, error)
}

// RenderedDoc is one loaded document scoped to a single thumbnail pass.
type RenderedDoc interface {
	NumPage() int
	RenderJPEG(pageIndex int) ([]byte, int, int, error)
	Close() error
}

// Synchronizer regenerates the derived page model (count, thumbnails) from a
// byte buffer so the in-memory model always matches the persisted bytes.
type Synchronizer struct {
	raster Rasterizer
	lim    *limiter.Inflight
}

func NewSynchronizer(r Rasterizer) *Synchronizer {
	return &Synchronizer{raster: r}
}

// SetLimit caps concurrent rebuilds across documents. Per-document mutation
// ordering is unaffected; this only bounds parallel rasterization passes.
func (s *Synchronizer) SetLimit(l *limiter.Inflight) { s.lim = l }

// Rebuild rasterizes one thumbnail per page of data and returns the fresh
// page array. expected is the codec-reported page count for the same buffer;
// a mismatch with the rasterizer's count is a fatal consistency error, never
// papered over. The loop runs to completion; there is no mid-document
// cancellation.
func (s *Synchronizer) Rebuild(docID string, data []byte, expected int) ([]Page, error) {
	start := time.Now()
	release := s.lim.Acquire()
	defer release()

	doc, err := s.raster.Open(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	n := doc.NumPage()
	if n != expected {
		return nil, &errs.ConsistencyError{DocID: docID, Pages: n, Expected: expected}
	}

	pages := make([]Page, n)
	for i := 0; i < n; i++ {
		thumb, w, h, err := doc.RenderJPEG(i)
		if err != nil {
			return nil, fmt.Errorf("thumbnail for page %d: %w", i, err)
		}
		pages[i] = Page{Index: i, Thumbnail: thumb, ThumbWidth: w, ThumbHeight: h}
	}

	log.Debug().
		Str("doc_id", docID).
		Int("pages", n).
		Dur("took", time.Since(start)).
		Msg("regenerated page model")
	return pages, nil
}
