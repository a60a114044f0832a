package document

import (
	"errors"
	"testing"

	"github.com/maotai11/pdf-editor-tool/internal/errs"
)

type fixedRaster struct {
	n       int
	openErr error
}

func (f fixedRaster) Open(data []byte) (RenderedDoc, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return fixedDoc{n: f.n}, nil
}

type fixedDoc struct{ n int }

func (d fixedDoc) NumPage() int { return d.n }
func (d fixedDoc) RenderJPEG(int) ([]byte, int, int, error) {
	return []byte{0xff, 0xd8}, 2, 3, nil
}
func (d fixedDoc) Close() error { return nil }

func TestRebuildProducesOnePagePerCount(t *testing.T) {
	s := NewSynchronizer(fixedRaster{n: 4})
	pages, err := s.Rebuild("doc-1", []byte("%PDF"), 4)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(pages) != 4 {
		t.Fatalf("got %d pages, want 4", len(pages))
	}
	for i, p := range pages {
		if p.Index != i {
			t.Errorf("page %d carries index %d", i, p.Index)
		}
		if len(p.Thumbnail) == 0 || p.ThumbWidth != 2 || p.ThumbHeight != 3 {
			t.Errorf("page %d thumbnail not populated: %+v", i, p)
		}
	}
}

func TestRebuildCountMismatchIsFatal(t *testing.T) {
	s := NewSynchronizer(fixedRaster{n: 3})
	_, err := s.Rebuild("doc-1", []byte("%PDF"), 4)
	var ce *errs.ConsistencyError
	if !errors.As(err, &ce) {
		t.Fatalf("expected consistency error, got %v", err)
	}
}

func TestRebuildPropagatesOpenFailure(t *testing.T) {
	want := &errs.LoadError{Reason: "rasterizer open"}
	s := NewSynchronizer(fixedRaster{openErr: want})
	_, err := s.Rebuild("doc-1", []byte("garbage"), 1)
	var le *errs.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestUIStateLifecycle(t *testing.T) {
	d := &Document{ID: "d"}
	st := d.UIState(2)
	st.Selected = true
	st.Annotations = append(st.Annotations, TextAnnotation{Text: "note"})
	st.Crop = &CropBox{X: 1, Y: 2, Width: 3, Height: 4}

	if !d.UIState(2).Selected || len(d.UIState(2).Annotations) != 1 {
		t.Fatal("UI state should persist between lookups")
	}

	d.ResetUIState()
	if d.UIState(2).Selected || d.UIState(2).Annotations != nil || d.UIState(2).Crop != nil {
		t.Fatal("reset should drop all ephemeral state")
	}
}

func TestInstallReplacesModelAtomically(t *testing.T) {
	d := &Document{ID: "d"}
	d.Install([]byte("gen1"), []Page{{Index: 0}})
	if d.Generation != 1 || d.PageCount != 1 {
		t.Fatalf("after first install: gen=%d count=%d", d.Generation, d.PageCount)
	}
	d.Install([]byte("gen2"), []Page{{Index: 0}, {Index: 1}})
	if d.Generation != 2 || d.PageCount != 2 || len(d.Pages) != 2 {
		t.Fatalf("after second install: gen=%d count=%d pages=%d", d.Generation, d.PageCount, len(d.Pages))
	}
}
