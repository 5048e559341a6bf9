package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/thywilljoshua/pdf-reader/internal/apperr"
	"github.com/thywilljoshua/pdf-reader/internal/highlight"
)

type createHighlightRequest struct {
	Text  string `json:"text"`
	Page  int    `json:"page"`
	Color string `json:"color"`
	Note  string `json:"note"`
}

func (r createHighlightRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required),
		validation.Field(&r.Page, validation.Required, validation.Min(1)),
		validation.Field(&r.Color, is.HexColor),
	)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) listHighlights(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}

	var (
		hs  []highlight.Highlight
		err error
	)
	if p := r.URL.Query().Get("page"); p != "" {
		page, convErr := strconv.Atoi(p)
		if convErr != nil {
			h.writeError(w, r, fmt.Errorf("%w: page must be a number", apperr.ErrInvalidInput))
			return
		}
		hs, err = h.highlights.ForPage(r.Context(), doc.ID, page)
	} else {
		hs, err = h.highlights.List(r.Context(), doc.ID)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hs)
}

func (h *Handler) createHighlight(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	var body createHighlightRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	if !doc.ValidPage(body.Page) {
		h.writeError(w, r, fmt.Errorf("%w: page %d out of range 1..%d", apperr.ErrInvalidInput, body.Page, doc.NumPages()))
		return
	}

	hl, err := highlight.New(doc.ID, body.Text, body.Page, body.Color)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	hl.Note = body.Note
	hl, err = h.highlights.Add(r.Context(), hl)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, hl)
}

func (h *Handler) updateNote(w http.ResponseWriter, r *http.Request) {
	var body noteRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	hl, err := h.highlights.UpdateNote(r.Context(), chi.URLParam(r, "hid"), body.Note)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hl)
}

func (h *Handler) deleteHighlight(w http.ResponseWriter, r *http.Request) {
	if err := h.highlights.Remove(r.Context(), chi.URLParam(r, "hid")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportHighlights(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	hs, err := h.highlights.List(r.Context(), doc.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	now := time.Now()
	var buf bytes.Buffer
	if err := highlight.Export(&buf, hs, now); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", highlight.ExportFilename(now)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// importHighlights adds every highlight of an export file to the document
// in the URL, whatever document it was exported from. Entries whose id
// already belongs to this document are restored in place; any other id is
// replaced with a fresh one so highlights of other documents stay put.
func (h *Handler) importHighlights(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	hs, err := highlight.Import(r.Body)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}

	existing, err := h.highlights.List(r.Context(), doc.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	own := make(map[string]bool, len(existing))
	for _, hl := range existing {
		own[hl.ID] = true
	}

	imported := 0
	for _, hl := range hs {
		if !doc.ValidPage(hl.Page) {
			continue
		}
		if !own[hl.ID] {
			hl.ID = highlight.NewID()
		}
		hl.DocumentID = doc.ID
		if _, err := h.highlights.Add(r.Context(), hl); err != nil {
			h.writeError(w, r, err)
			return
		}
		imported++
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": imported, "skipped": len(hs) - imported})
}
