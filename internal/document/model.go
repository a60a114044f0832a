// Package document holds the in-memory page model kept in sync with the
// PDF byte buffer, plus the synchronizer that regenerates it after each
// mutation. The byte buffer is the single source of truth for content;
// everything here is derived or ephemeral UI state.
package document

import (
	"sync"
)

// TextAnnotation is a pending text overlay positioned in the rasterized
// preview's coordinate space. It is transient until burned into the bytes.
type TextAnnotation struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	FontSize   float64 `json:"font_size"`
	FontFamily string  `json:"font_family"`
	Color      string  `json:"color"`
	// Rotation is carried for future use; burn-in ignores it.
	Rotation float64 `json:"rotation"`
	// Width/Height bound the annotation for UI selection highlighting only.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CropBox is a transient UI rectangle in preview coordinates, cleared once
// applied to the bytes.
type CropBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Page is the durable per-page model: its index always equals its position
// in the document's page sequence, and the thumbnail is regenerated from the
// bytes after every mutation.
type Page struct {
	Index    int `json:"index"`
	Rotation int `json:"rotation"`

	Thumbnail   []byte `json:"-"`
	ThumbWidth  int    `json:"thumb_width"`
	ThumbHeight int    `json:"thumb_height"`
}

// PageUIState is ephemeral per-page state keyed by page index. It never
// round-trips through save/load and is reset whenever the page's content
// changes.
type PageUIState struct {
	Selected    bool             `json:"selected"`
	Annotations []TextAnnotation `json:"annotations,omitempty"`
	Crop        *CropBox         `json:"crop,omitempty"`
}

// Document is one open document: its current byte buffer, the derived page
// model and the ephemeral UI state. Data, PageCount and Pages are always
// replaced together, never one without the others.
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Data      []byte `json:"-"`
	PageCount int    `json:"page_count"`
	Pages     []Page `json:"pages"`

	UI map[int]*PageUIState `json:"-"`

	// Generation counts installed buffer+model pairs. Readers holding a
	// previous buffer may keep using it; buffers are never mutated in place.
	Generation int `json:"generation"`

	mu sync.Mutex
}

// Lock serializes mutations on this document. Mutations must not interleave;
// the engine itself offers no concurrent-mutation protection.
func (d *Document) Lock() { d.mu.Lock() }

func (d *Document) Unlock() { d.mu.Unlock() }

// UIState returns the ephemeral state for a page, creating it on first use.
func (d *Document) UIState(pageIndex int) *PageUIState {
	if d.UI == nil {
		d.UI = map[int]*PageUIState{}
	}
	st, ok := d.UI[pageIndex]
	if !ok {
		st = &PageUIState{}
		d.UI[pageIndex] = st
	}
	return st
}

// ResetUIState drops all ephemeral state, e.g. after a structural mutation.
func (d *Document) ResetUIState() {
	d.UI = map[int]*PageUIState{}
}

// Install atomically replaces the buffer and its derived page model. Callers
// hold the document lock.
func (d *Document) Install(data []byte, pages []Page) {
	d.Data = data
	d.Pages = pages
	d.PageCount = len(pages)
	d.Generation++
}

// Snapshot is an immutable copy of a document's visible state, taken under
// the document lock. Readers hold a consistent buffer+model pair even while
// later mutations install new generations; Data aliases the buffer, which is
// never mutated in place.
type Snapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Data      []byte `json:"-"`
	PageCount int    `json:"page_count"`
	Pages     []Page `json:"pages"`

	Generation int `json:"generation"`
}

// Snapshot copies the exported state. Callers hold the document lock.
func (d *Document) Snapshot() Snapshot {
	pages := make([]Page, len(d.Pages))
	copy(pages, d.Pages)
	return Snapshot{
		ID:         d.ID,
		Name:       d.Name,
		Data:       d.Data,
		PageCount:  d.PageCount,
		Pages:      pages,
		Generation: d.Generation,
	}
}
