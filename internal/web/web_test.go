package web

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maotai11/pdf-editor-tool/internal/codec"
	"github.com/maotai11/pdf-editor-tool/internal/document"
	"github.com/maotai11/pdf-editor-tool/internal/engine"
	"github.com/maotai11/pdf-editor-tool/internal/filetype"
	"github.com/maotai11/pdf-editor-tool/internal/pdftest"
	"github.com/maotai11/pdf-editor-tool/internal/session"
)

type stubRaster struct{ c *codec.Codec }

func (s stubRaster) Open(data []byte) (document.RenderedDoc, error) {
	n, err := s.c.PageCount(data)
	if err != nil {
		return nil, err
	}
	return stubDoc{n: n}, nil
}

type stubDoc struct{ n int }

func (d stubDoc) NumPage() int { return d.n }
func (d stubDoc) RenderJPEG(int) ([]byte, int, int, error) {
	return []byte{0xff, 0xd8, 0xff, 0xd9}, 1, 1, nil
}
func (d stubDoc) Close() error { return nil }

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	c := codec.New()
	reg := session.NewRegistry(engine.New(c), document.NewSynchronizer(stubRaster{c: c}), filetype.New())
	mux := http.NewServeMux()
	New(reg, nil, 16).RegisterRoutes(mux)
	return mux
}

func upload(t *testing.T, mux *http.ServeMux, name string, data []byte) (string, int) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		return "", rec.Code
	}

	var resp struct {
		Document struct {
			ID string `json:"id"`
		} `json:"document"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp.Document.ID, rec.Code
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestUploadAndList(t *testing.T) {
	mux := newTestMux(t)
	id, code := upload(t, mux, "three.pdf", pdftest.Build(3))
	if code != http.StatusCreated || id == "" {
		t.Fatalf("upload: code=%d id=%q", code, id)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	var resp struct {
		Documents []struct {
			ID        string `json:"id"`
			PageCount int    `json:"page_count"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Documents) != 1 || resp.Documents[0].ID != id || resp.Documents[0].PageCount != 3 {
		t.Fatalf("unexpected list: %+v", resp.Documents)
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	mux := newTestMux(t)
	_, code := upload(t, mux, "notes.txt", []byte("plain text, not a pdf"))
	if code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", code)
	}
}

func TestRotateWithSelectionPayload(t *testing.T) {
	mux := newTestMux(t)
	id, _ := upload(t, mux, "ten.pdf", pdftest.Build(10))

	rec := postJSON(t, mux, "/documents/"+id+"/rotate", map[string]any{
		"degrees": 90,
		"selection": []map[string]any{
			{"document_id": id, "page_index": 4},
			{"document_id": "other-doc", "page_index": 1},
			{"document_id": id, "page_index": 2},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("rotate: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Document struct {
			Pages []struct {
				Rotation int `json:"rotation"`
			} `json:"pages"`
		} `json:"document"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i, p := range resp.Document.Pages {
		want := 0
		if i == 2 || i == 4 {
			want = 90
		}
		if p.Rotation != want {
			t.Errorf("page %d rotation = %d, want %d", i, p.Rotation, want)
		}
	}
}

func TestErrorStatusMapping(t *testing.T) {
	mux := newTestMux(t)
	id, _ := upload(t, mux, "two.pdf", pdftest.Build(2))

	// Non-right-angle rotation violates input validation.
	if rec := postJSON(t, mux, "/documents/"+id+"/rotate", map[string]any{"indices": []int{0}, "degrees": 45}); rec.Code != http.StatusBadRequest {
		t.Errorf("rotate 45: %d, want 400", rec.Code)
	}
	// Deleting every page violates a business rule.
	if rec := postJSON(t, mux, "/documents/"+id+"/delete", map[string]any{"indices": []int{0, 1}}); rec.Code != http.StatusConflict {
		t.Errorf("delete all: %d, want 409", rec.Code)
	}
	// Unknown documents are a validation problem.
	if rec := postJSON(t, mux, "/documents/nope/rotate", map[string]any{"indices": []int{0}, "degrees": 90}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown doc: %d, want 400", rec.Code)
	}
}

func TestSplitStreamsZip(t *testing.T) {
	mux := newTestMux(t)
	id, _ := upload(t, mux, "six.pdf", pdftest.Build(6))

	rec := postJSON(t, mux, "/documents/"+id+"/split", map[string]any{"ranges": "1-3,4-6"})
	if rec.Code != http.StatusOK {
		t.Fatalf("split: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("zip holds %d entries, want 2", len(zr.File))
	}
	wantNames := map[string]bool{"pages_1-3.pdf": true, "pages_4-6.pdf": true}
	for _, f := range zr.File {
		if !wantNames[f.Name] {
			t.Errorf("unexpected entry %q", f.Name)
		}
	}
}

func TestSplitUnusableRanges(t *testing.T) {
	mux := newTestMux(t)
	id, _ := upload(t, mux, "six.pdf", pdftest.Build(6))

	rec := postJSON(t, mux, "/documents/"+id+"/split", map[string]any{"ranges": "zz, 99"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("split: %d, want 422", rec.Code)
	}
}

func TestMergeCreatesNewDocument(t *testing.T) {
	mux := newTestMux(t)
	a, _ := upload(t, mux, "a.pdf", pdftest.Build(2))
	b, _ := upload(t, mux, "b.pdf", pdftest.Build(3))

	rec := postJSON(t, mux, "/documents/merge", map[string]any{"ids": []string{a, b}, "name": "merged.pdf"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("merge: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Document struct {
			ID        string `json:"id"`
			PageCount int    `json:"page_count"`
		} `json:"document"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Document.PageCount != 5 {
		t.Errorf("merged page count = %d, want 5", resp.Document.PageCount)
	}
	if resp.Document.ID == a || resp.Document.ID == b {
		t.Error("merge must mint a new document id")
	}
}

func TestDownloadAndThumbnail(t *testing.T) {
	mux := newTestMux(t)
	id, _ := upload(t, mux, "doc.pdf", pdftest.Build(2))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("download: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("download content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("download body is not a PDF")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/documents/%s/thumbnail/1", id), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("thumbnail: %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("thumbnail content type = %q", ct)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/"+id+"/thumbnail/9", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range thumbnail: %d, want 400", rec.Code)
	}
}

func TestDownloadDispositionQuotesAwkwardNames(t *testing.T) {
	mux := newTestMux(t)
	name := `annual "report" 2026 §final.pdf`

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("name", name); err != nil {
		t.Fatalf("name field: %v", err)
	}
	fw, err := mw.CreateFormFile("file", "upload.pdf")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(pdftest.Build(1)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	up := httptest.NewRecorder()
	mux.ServeHTTP(up, req)
	if up.Code != http.StatusCreated {
		t.Fatalf("upload: %d", up.Code)
	}
	var resp struct {
		Document struct {
			ID string `json:"id"`
		} `json:"document"`
	}
	if err := json.Unmarshal(up.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := resp.Document.ID

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/"+id+"/download", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("download: %d", rec.Code)
	}
	mediatype, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("unparseable Content-Disposition %q: %v", rec.Header().Get("Content-Disposition"), err)
	}
	if mediatype != "attachment" {
		t.Errorf("disposition type = %q, want attachment", mediatype)
	}
	if params["filename"] != name {
		t.Errorf("filename = %q, want %q", params["filename"], name)
	}
}

func TestRemoveDocument(t *testing.T) {
	mux := newTestMux(t)
	id, _ := upload(t, mux, "doc.pdf", pdftest.Build(1))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("remove: %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/"+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get removed: %d, want 404", rec.Code)
	}
}
