// Package session keeps the set of documents open in the current in-memory
// session and drives mutations end to end: engine call, page-model rebuild,
// atomic install. Nothing here persists past process exit.
package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/maotai11/pdf-editor-tool/internal/coords"
	"github.com/maotai11/pdf-editor-tool/internal/document"
	"github.com/maotai11/pdf-editor-tool/internal/engine"
	"github.com/maotai11/pdf-editor-tool/internal/errs"
	"github.com/maotai11/pdf-editor-tool/internal/filetype"
	"github.com/maotai11/pdf-editor-tool/internal/metrics"
	"github.com/maotai11/pdf-editor-tool/internal/pagerange"
	"github.com/maotai11/pdf-editor-tool/internal/pageindex"
)

// Registry owns the live documents; everything it hands out is a Snapshot
// copied under the document lock, so callers never share mutable state with
// an in-flight mutation.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]*document.Document

	eng  *engine.Engine
	sync *document.Synchronizer
	det  *filetype.Detector
}

func NewRegistry(eng *engine.Engine, syn *document.Synchronizer, det *filetype.Detector) *Registry {
	return &Registry{
		docs: map[string]*document.Document{},
		eng:  eng,
		sync: syn,
		det:  det,
	}
}

// Open validates an uploaded buffer as a PDF and registers it as a new
// document with a fully derived page model.
func (r *Registry) Open(name string, data []byte) (document.Snapshot, error) {
	if !r.det.IsPDF(data) {
		return document.Snapshot{}, &errs.ValidationError{Message: "uploaded file is not a PDF"}
	}
	return r.register(name, data)
}

// register builds a document from trusted bytes (upload already vetted, or
// output of an engine operation).
func (r *Registry) register(name string, data []byte) (document.Snapshot, error) {
	id := uuid.NewString()
	n, err := r.eng.PageCount(data)
	if err != nil {
		return document.Snapshot{}, err
	}
	pages, err := r.sync.Rebuild(id, data, n)
	if err != nil {
		return document.Snapshot{}, err
	}
	metrics.AddThumbnails(n)

	doc := &document.Document{ID: id, Name: name}
	doc.Install(data, pages)
	doc.ResetUIState()

	r.mu.Lock()
	r.docs[id] = doc
	open := len(r.docs)
	r.mu.Unlock()
	metrics.SetDocumentsOpen(open)

	log.Info().Str("doc_id", id).Str("name", name).Int("pages", n).Msg("document opened")
	return doc.Snapshot(), nil
}

// get returns the live document for mutation paths; callers must take the
// document lock before touching its state.
func (r *Registry) get(id string) (*document.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	return doc, ok
}

// Get returns a consistent snapshot of one document.
func (r *Registry) Get(id string) (document.Snapshot, bool) {
	doc, ok := r.get(id)
	if !ok {
		return document.Snapshot{}, false
	}
	doc.Lock()
	defer doc.Unlock()
	return doc.Snapshot(), true
}

// List returns snapshots of the open documents ordered by name then id for
// stable output.
func (r *Registry) List() []document.Snapshot {
	r.mu.RLock()
	live := make([]*document.Document, 0, len(r.docs))
	for _, d := range r.docs {
		live = append(live, d)
	}
	r.mu.RUnlock()

	out := make([]document.Snapshot, 0, len(live))
	for _, d := range live {
		d.Lock()
		out = append(out, d.Snapshot())
		d.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	_, ok := r.docs[id]
	delete(r.docs, id)
	open := len(r.docs)
	r.mu.Unlock()
	if ok {
		metrics.SetDocumentsOpen(open)
		log.Info().Str("doc_id", id).Msg("document removed")
	}
	return ok
}

// refresh derives the page model for a freshly mutated buffer. Any failure
// here leaves the caller's document untouched.
func (r *Registry) refresh(doc *document.Document, data []byte) ([]document.Page, error) {
	n, err := r.eng.PageCount(data)
	if err != nil {
		return nil, err
	}
	pages, err := r.sync.Rebuild(doc.ID, data, n)
	if err != nil {
		return nil, err
	}
	metrics.AddThumbnails(n)
	return pages, nil
}

// install finishes a mutation: new pages inherit the rotation deltas of the
// old pages they came from (mapping[newPos] = oldPos; nil means identity),
// then buffer and model swap in together and ephemeral UI state resets.
func install(doc *document.Document, data []byte, pages []document.Page, mapping []int) {
	old := doc.Pages
	if mapping == nil {
		for i := range pages {
			if i < len(old) {
				pages[i].Rotation = old[i].Rotation
			}
		}
	} else {
		for i := range pages {
			if i < len(mapping) && mapping[i] >= 0 && mapping[i] < len(old) {
				pages[i].Rotation = old[mapping[i]].Rotation
			}
		}
	}
	doc.Install(data, pages)
	doc.ResetUIState()
}

// Rotate applies a rotation delta to the given pages of one document. The
// indices form a set: duplicates collapse to one application.
func (r *Registry) Rotate(id string, indices []int, degrees int) (document.Snapshot, error) {
	doc, ok := r.get(id)
	if !ok {
		return document.Snapshot{}, &errs.ValidationError{Message: "unknown document " + id}
	}
	doc.Lock()
	defer doc.Unlock()

	uniq := dedupe(indices)
	data, err := r.eng.Rotate(doc.Data, uniq, degrees)
	if err != nil {
		return document.Snapshot{}, err
	}
	pages, err := r.refresh(doc, data)
	if err != nil {
		return document.Snapshot{}, err
	}
	install(doc, data, pages, nil)
	for _, idx := range uniq {
		if idx >= 0 && idx < len(doc.Pages) {
			doc.Pages[idx].Rotation = normalizeAngle(doc.Pages[idx].Rotation + degrees)
		}
	}
	return doc.Snapshot(), nil
}

// Crop applies a preview-space crop rectangle to one page.
func (r *Registry) Crop(id string, pageIndex int, box coords.Rect, previewW, previewH float64) (document.Snapshot, error) {
	doc, ok := r.get(id)
	if !ok {
		return document.Snapshot{}, &errs.ValidationError{Message: "unknown document " + id}
	}
	doc.Lock()
	defer doc.Unlock()

	data, err := r.eng.Crop(doc.Data, pageIndex, box, previewW, previewH)
	if err != nil {
		return document.Snapshot{}, err
	}
	pages, err := r.refresh(doc, data)
	if err != nil {
		return document.Snapshot{}, err
	}
	install(doc, data, pages, nil)
	return doc.Snapshot(), nil
}

// AddText burns annotations into one page.
func (r *Registry) AddText(id string, pageIndex int, anns []document.TextAnnotation, previewW, previewH float64) (document.Snapshot, error) {
	doc, ok := r.get(id)
	if !ok {
		return document.Snapshot{}, &errs.ValidationError{Message: "unknown document " + id}
	}
	doc.Lock()
	defer doc.Unlock()

	data, err := r.eng.AddText(doc.Data, pageIndex, anns, previewW, previewH)
	if err != nil {
		return document.Snapshot{}, err
	}
	pages, err := r.refresh(doc, data)
	if err != nil {
		return document.Snapshot{}, err
	}
	install(doc, data, pages, nil)
	return doc.Snapshot(), nil
}

// Delete removes pages, rejecting whole-document deletion before any byte
// mutation.
func (r *Registry) Delete(id string, remove []int) (document.Snapshot, error) {
	doc, ok := r.get(id)
	if !ok {
		return document.Snapshot{}, &errs.ValidationError{Message: "unknown document " + id}
	}
	doc.Lock()
	defer doc.Unlock()

	keep, err := pageindex.RemainingAfterDelete(doc.PageCount, remove)
	if err != nil {
		return document.Snapshot{}, err
	}
	data, err := r.eng.ExtractPages(doc.Data, keep)
	if err != nil {
		return document.Snapshot{}, err
	}
	pages, err := r.refresh(doc, data)
	if err != nil {
		return document.Snapshot{}, err
	}
	install(doc, data, pages, keep)
	return doc.Snapshot(), nil
}

// Move repositions one page, rebuilding the document with the resulting
// permutation.
func (r *Registry) Move(id string, from, to int) (document.Snapshot, error) {
	doc, ok := r.get(id)
	if !ok {
		return document.Snapshot{}, &errs.ValidationError{Message: "unknown document " + id}
	}
	doc.Lock()
	defer doc.Unlock()

	order, err := pageindex.MovePermutation(doc.PageCount, from, to)
	if err != nil {
		return document.Snapshot{}, err
	}
	if from == to {
		return doc.Snapshot(), nil
	}
	return r.reorderLocked(doc, order)
}

// Reorder rebuilds the document using order as the copy order; order must be
// a bijection on the current index range.
func (r *Registry) Reorder(id string, order []int) (document.Snapshot, error) {
	doc, ok := r.get(id)
	if !ok {
		return document.Snapshot{}, &errs.ValidationError{Message: "unknown document " + id}
	}
	doc.Lock()
	defer doc.Unlock()
	return r.reorderLocked(doc, order)
}

func (r *Registry) reorderLocked(doc *document.Document, order []int) (document.Snapshot, error) {
	data, err := r.eng.ReorderPages(doc.Data, order)
	if err != nil {
		return document.Snapshot{}, err
	}
	pages, err := r.refresh(doc, data)
	if err != nil {
		return document.Snapshot{}, err
	}
	install(doc, data, pages, order)
	return doc.Snapshot(), nil
}

// ExtractToNew copies the given pages, in the given order, into a brand new
// document. The source document is untouched.
func (r *Registry) ExtractToNew(id string, indices []int, name string) (document.Snapshot, error) {
	doc, ok := r.get(id)
	if !ok {
		return document.Snapshot{}, &errs.ValidationError{Message: "unknown document " + id}
	}
	doc.Lock()
	data := doc.Data
	doc.Unlock()

	out, err := r.eng.ExtractPages(data, indices)
	if err != nil {
		return document.Snapshot{}, err
	}
	return r.register(name, out)
}

// Split parses a range expression against the document and produces one
// buffer per valid rule. An empty rule list is valid output meaning nothing
// usable was entered; the caller presents that to the user.
func (r *Registry) Split(id string, rangeExpr string) ([][]byte, []pagerange.Rule, error) {
	doc, ok := r.get(id)
	if !ok {
		return nil, nil, &errs.ValidationError{Message: "unknown document " + id}
	}
	doc.Lock()
	data := doc.Data
	pageCount := doc.PageCount
	doc.Unlock()

	rules := pagerange.Parse(rangeExpr, pageCount)
	parts, err := r.eng.Split(data, rules)
	if err != nil {
		return nil, nil, err
	}
	return parts, rules, nil
}

// Merge appends the listed open documents, in order, into a new document.
func (r *Registry) Merge(ids []string, name string) (document.Snapshot, error) {
	if len(ids) == 0 {
		return document.Snapshot{}, &errs.ValidationError{Message: "merge needs at least one document"}
	}
	bufs := make([][]byte, 0, len(ids))
	for _, id := range ids {
		doc, ok := r.get(id)
		if !ok {
			return document.Snapshot{}, &errs.ValidationError{Message: "unknown document " + id}
		}
		doc.Lock()
		bufs = append(bufs, doc.Data)
		doc.Unlock()
	}
	out, err := r.eng.Merge(bufs)
	if err != nil {
		return document.Snapshot{}, err
	}
	return r.register(name, out)
}

// Thumbnail returns the rendered thumbnail for one page.
func (r *Registry) Thumbnail(id string, pageIndex int) ([]byte, error) {
	doc, ok := r.get(id)
	if !ok {
		return nil, &errs.ValidationError{Message: "unknown document " + id}
	}
	doc.Lock()
	defer doc.Unlock()
	if pageIndex < 0 || pageIndex >= len(doc.Pages) {
		return nil, &errs.ValidationError{Message: "page index out of range"}
	}
	return doc.Pages[pageIndex].Thumbnail, nil
}

// Bytes returns the current buffer of a document for download.
func (r *Registry) Bytes(id string) ([]byte, string, error) {
	doc, ok := r.get(id)
	if !ok {
		return nil, "", &errs.ValidationError{Message: "unknown document " + id}
	}
	doc.Lock()
	defer doc.Unlock()
	return doc.Data, doc.Name, nil
}

// dedupe drops repeated indices, keeping first-occurrence order.
func dedupe(indices []int) []int {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

func normalizeAngle(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
