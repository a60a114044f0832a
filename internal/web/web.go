// Package web is the application shell around the mutation core: multipart
// upload, per-document mutation endpoints, thumbnails, downloads and split
// results packaged as a ZIP. It owns HTTP concerns only; all document
// semantics live in the session registry and below.
package web

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/maotai11/pdf-editor-tool/internal/coords"
	"github.com/maotai11/pdf-editor-tool/internal/document"
	"github.com/maotai11/pdf-editor-tool/internal/errs"
	"github.com/maotai11/pdf-editor-tool/internal/metrics"
	"github.com/maotai11/pdf-editor-tool/internal/pageindex"
	"github.com/maotai11/pdf-editor-tool/internal/session"
	"github.com/maotai11/pdf-editor-tool/internal/statuscheck"
)

type Server struct {
	reg         *session.Registry
	checker     *statuscheck.Checker
	maxUploadMB int64
}

func New(reg *session.Registry, checker *statuscheck.Checker, maxUploadMB int64) *Server {
	if maxUploadMB <= 0 {
		maxUploadMB = 64
	}
	return &Server{reg: reg, checker: checker, maxUploadMB: maxUploadMB}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/documents", s.handleDocuments)
	mux.HandleFunc("/documents/", s.handleDocumentOps)
}

// handleStatus runs the subsystem probes and reports 503 when any fails.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		http.Error(w, "status checks not configured", http.StatusNotFound)
		return
	}
	summary := s.checker.Summary()
	status := http.StatusOK
	if !summary.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, summary)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		docs := s.reg.List()
		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
	case http.MethodPost:
		s.handleUpload(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleUpload accepts multipart/form-data with a "file" field and registers
// the buffer as a new document. Non-PDF content is rejected by magic bytes.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB<<20)
	if err := r.ParseMultipartForm(s.maxUploadMB << 20); err != nil {
		metrics.IncUpload("failed")
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		metrics.IncUpload("failed")
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		metrics.IncUpload("failed")
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	name := r.FormValue("name")
	if name == "" {
		name = hdr.Filename
	}
	if name == "" {
		name = "upload.pdf"
	}

	doc, err := s.reg.Open(name, data)
	if err != nil {
		metrics.IncUpload("rejected")
		s.writeError(w, err)
		return
	}
	metrics.IncUpload("ok")
	writeJSON(w, http.StatusCreated, map[string]any{"document": doc})
}

// handleDocumentOps dispatches /documents/{id}[/op[/arg]] and
// /documents/merge.
func (s *Server) handleDocumentOps(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/documents/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	if parts[0] == "merge" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleMerge(w, r)
		return
	}

	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			doc, ok := s.reg.Get(id)
			if !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"document": doc})
		case http.MethodDelete:
			if !s.reg.Remove(id) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	op := parts[1]
	switch op {
	case "download":
		s.handleDownload(w, r, id)
		return
	case "thumbnail":
		if len(parts) < 3 {
			http.Error(w, "missing page index", http.StatusBadRequest)
			return
		}
		s.handleThumbnail(w, r, id, parts[2])
		return
	}

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch op {
	case "rotate":
		s.handleRotate(w, r, id)
	case "crop":
		s.handleCrop(w, r, id)
	case "annotate":
		s.handleAnnotate(w, r, id)
	case "delete":
		s.handleDelete(w, r, id)
	case "move":
		s.handleMove(w, r, id)
	case "reorder":
		s.handleReorder(w, r, id)
	case "extract":
		s.handleExtract(w, r, id)
	case "split":
		s.handleSplit(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// selectionRef mirrors one entry of a cross-document selection payload.
type selectionRef struct {
	DocumentID string `json:"document_id"`
	PageIndex  int    `json:"page_index"`
}

// pagesFromRequest resolves target pages from either an explicit index list
// or a cross-document selection filtered down to this document, in ascending
// order.
func pagesFromRequest(id string, indices []int, selection []selectionRef) []int {
	if len(selection) == 0 {
		return indices
	}
	sel := pageindex.NewSelectionSet()
	for _, ref := range selection {
		sel.Add(ref.DocumentID, ref.PageIndex)
	}
	return sel.PagesFor(id)
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Indices   []int          `json:"indices"`
		Selection []selectionRef `json:"selection"`
		Degrees   int            `json:"degrees"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.reg.Rotate(id, pagesFromRequest(id, req.Indices, req.Selection), req.Degrees)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (s *Server) handleCrop(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Page          int              `json:"page"`
		Box           document.CropBox `json:"box"`
		PreviewWidth  float64          `json:"preview_width"`
		PreviewHeight float64          `json:"preview_height"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	box := coords.Rect{X: req.Box.X, Y: req.Box.Y, W: req.Box.Width, H: req.Box.Height}
	doc, err := s.reg.Crop(id, req.Page, box, req.PreviewWidth, req.PreviewHeight)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Page          int                       `json:"page"`
		Annotations   []document.TextAnnotation `json:"annotations"`
		PreviewWidth  float64                   `json:"preview_width"`
		PreviewHeight float64                   `json:"preview_height"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.reg.AddText(id, req.Page, req.Annotations, req.PreviewWidth, req.PreviewHeight)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Indices   []int          `json:"indices"`
		Selection []selectionRef `json:"selection"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.reg.Delete(id, pagesFromRequest(id, req.Indices, req.Selection))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.reg.Move(id, req.From, req.To)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Order []int `json:"order"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.reg.Reorder(id, req.Order)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": doc})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Indices   []int          `json:"indices"`
		Selection []selectionRef `json:"selection"`
		Name      string         `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		req.Name = "extracted.pdf"
	}
	doc, err := s.reg.ExtractToNew(id, pagesFromRequest(id, req.Indices, req.Selection), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"document": doc})
}

// handleSplit parses the range expression, splits, and streams the parts as
// a ZIP download. Unusable expressions are a user-correctable condition, not
// a server fault.
func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Ranges string `json:"ranges"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	parts, rules, err := s.reg.Split(id, req.Ranges)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if len(parts) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "no usable page ranges in " + strconv.Quote(req.Ranges)})
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": "split_" + id + ".zip"}))
	zw := zip.NewWriter(w)
	for i, part := range parts {
		entry, err := zw.Create(fmt.Sprintf("pages_%d-%d.pdf", rules[i].Start+1, rules[i].End+1))
		if err != nil {
			log.Error().Err(err).Msg("zip entry failed")
			return
		}
		if _, err := entry.Write(part); err != nil {
			log.Error().Err(err).Msg("zip write failed")
			return
		}
	}
	if err := zw.Close(); err != nil {
		log.Error().Err(err).Msg("zip close failed")
	}
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs  []string `json:"ids"`
		Name string   `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		req.Name = "merged.pdf"
	}
	doc, err := s.reg.Merge(req.IDs, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"document": doc})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data, name, err := s.reg.Bytes(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	_, _ = w.Write(data)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request, id, pageStr string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		http.Error(w, "invalid page index", http.StatusBadRequest)
		return
	}
	thumb, err := s.reg.Thumbnail(id, page)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(thumb)
}

// writeError maps the core error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		ve  *errs.ValidationError
		bre *errs.BusinessRuleError
		le  *errs.LoadError
		ce  *errs.ConsistencyError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.As(err, &bre):
		status = http.StatusConflict
	case errors.As(err, &le):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &ce):
		log.Error().Err(err).Msg("page model inconsistency")
		status = http.StatusInternalServerError
	default:
		log.Error().Err(err).Msg("operation failed")
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
