package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/thywilljoshua/pdf-reader/internal/ai"
	"github.com/thywilljoshua/pdf-reader/internal/apperr"
	"github.com/thywilljoshua/pdf-reader/internal/document"
)

const maxUploadBytes = 50 << 20

type documentResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Pages     int                 `json:"pages"`
	Bookmarks []document.Bookmark `json:"bookmarks,omitempty"`
	LoadedAt  time.Time           `json:"loaded_at"`
}

func toDocumentResponse(d *document.Document) documentResponse {
	return documentResponse{
		ID:        d.ID,
		Name:      d.Name,
		Pages:     d.NumPages(),
		Bookmarks: d.Bookmarks,
		LoadedAt:  d.LoadedAt,
	}
}

func (h *Handler) listTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": ai.Tools()})
}

func (h *Handler) listDocuments(w http.ResponseWriter, _ *http.Request) {
	docs := h.library.List()
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form: "+err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing file field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("read upload: "+err.Error()))
		return
	}
	doc, err := h.library.Add(header.Filename, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDocumentResponse(doc))
}

// document resolves the {id} URL parameter. On failure the error has
// already been written.
func (h *Handler) document(w http.ResponseWriter, r *http.Request) (*document.Document, bool) {
	doc, err := h.library.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return doc, true
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.library.Remove(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getPage(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: page must be a number", apperr.ErrInvalidInput))
		return
	}
	text, err := doc.Page(n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": n, "text": text})
}

type searchResponse struct {
	Query   string           `json:"query"`
	Total   int              `json:"total"`
	Matches []document.Match `json:"matches"`
}

func (h *Handler) searchDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.writeError(w, r, fmt.Errorf("%w: q is required", apperr.ErrInvalidInput))
		return
	}
	matches := doc.Search(q)
	if matches == nil {
		matches = []document.Match{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Total: len(matches), Matches: matches})
}
