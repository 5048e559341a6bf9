package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/thywilljoshua/pdf-reader/internal/ai"
	"github.com/thywilljoshua/pdf-reader/internal/apperr"
	"github.com/thywilljoshua/pdf-reader/internal/canvas"
	"github.com/thywilljoshua/pdf-reader/internal/outline"
	"github.com/thywilljoshua/pdf-reader/internal/session"
	"github.com/thywilljoshua/pdf-reader/internal/viewport"
)

// Where the nodes of a new canvas come from.
const (
	sourceAI        = "ai"
	sourceToC       = "toc"
	sourceBookmarks = "bookmarks"
	sourceDemo      = "demo"
	sourceNodes     = "nodes"
)

// maxEventsPerBatch caps one POST to /events.
const maxEventsPerBatch = 500

type createCanvasRequest struct {
	DocumentID string        `json:"document_id"`
	Source     string        `json:"source"`
	Nodes      []canvas.Node `json:"nodes"`
	Fallback   string        `json:"fallback"`
	MaxDepth   int           `json:"max_depth"`
}

func (r createCanvasRequest) Validate() error {
	needsDoc := r.Source == sourceAI || r.Source == sourceToC || r.Source == sourceBookmarks
	return validation.ValidateStruct(&r,
		validation.Field(&r.Source, validation.Required,
			validation.In(sourceAI, sourceToC, sourceBookmarks, sourceDemo, sourceNodes)),
		validation.Field(&r.DocumentID, validation.When(needsDoc, validation.Required)),
		validation.Field(&r.Nodes, validation.When(r.Source == sourceNodes, validation.Required)),
		validation.Field(&r.Fallback, validation.In(string(outline.PolicyError), string(outline.PolicyDemo))),
		validation.Field(&r.MaxDepth, validation.Min(0), validation.Max(6)),
	)
}

type canvasResponse struct {
	session.Info
	Viewport viewport.State `json:"viewport"`
	Dragging bool           `json:"dragging"`
	Selected string         `json:"selected,omitempty"`
	Scene    canvas.Scene   `json:"scene"`
}

func snapshot(s *session.Session) canvasResponse {
	resp := canvasResponse{Info: s.Info()}
	_ = s.Do(func(c *canvas.Canvas) error {
		resp.Viewport = c.Viewport()
		resp.Dragging = c.Dragging()
		resp.Selected = c.Selected()
		resp.Scene = c.Scene()
		return nil
	})
	return resp
}

func (h *Handler) listCanvases(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.List())
}

func (h *Handler) createCanvas(w http.ResponseWriter, r *http.Request) {
	var body createCanvasRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	policy := h.policy
	if body.Fallback != "" {
		policy = outline.Policy(body.Fallback)
	}

	res, err := h.canvasNodes(r.Context(), body, policy)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	s := h.sessions.Create(res.Nodes, session.Options{
		DocumentID: body.DocumentID,
		Source:     body.Source,
		Fallback:   res.Fallback,
	})
	writeJSON(w, http.StatusCreated, snapshot(s))
}

// canvasNodes builds the node set for a new canvas from the requested
// source.
func (h *Handler) canvasNodes(ctx context.Context, body createCanvasRequest, policy outline.Policy) (outline.Result, error) {
	switch body.Source {
	case sourceDemo:
		return outline.Result{Nodes: outline.Demo()}, nil
	case sourceNodes:
		return outline.Result{Nodes: body.Nodes}, nil
	}

	doc, err := h.library.Get(body.DocumentID)
	if err != nil {
		return outline.Result{}, err
	}
	switch body.Source {
	case sourceToC:
		nodes, err := outline.FromToC(doc.Pages, body.MaxDepth)
		return outline.Result{Nodes: nodes}, err
	case sourceBookmarks:
		nodes, err := outline.FromBookmarks(doc.Bookmarks, body.MaxDepth)
		return outline.Result{Nodes: nodes}, err
	}

	ctx, cancel := h.aiContext(ctx)
	defer cancel()
	return ai.Outline(ctx, h.assistant, doc.Context(h.contextPages), policy)
}

// session resolves the {id} URL parameter. On failure the error has already
// been written.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) getCanvas(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snapshot(s))
}

func (h *Handler) deleteCanvas(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type eventsRequest struct {
	Events []canvas.Event `json:"events"`
}

func (r eventsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Events, validation.Required, validation.Length(1, maxEventsPerBatch)),
	)
}

type eventsResponse struct {
	Applied  int            `json:"applied"`
	Changed  int            `json:"changed"`
	Viewport viewport.State `json:"viewport"`
	Dragging bool           `json:"dragging"`
	Selected string         `json:"selected,omitempty"`
}

// canvasEvents applies a batch of input events in order. An unknown event
// type stops the batch; events before it stay applied.
func (h *Handler) canvasEvents(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body eventsRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	var resp eventsResponse
	err := s.Do(func(c *canvas.Canvas) error {
		for _, e := range body.Events {
			changed, err := c.HandleEvent(e)
			if err != nil {
				return fmt.Errorf("%w: event %d: %v", apperr.ErrInvalidInput, resp.Applied, err)
			}
			resp.Applied++
			if changed {
				resp.Changed++
			}
		}
		resp.Viewport = c.Viewport()
		resp.Dragging = c.Dragging()
		resp.Selected = c.Selected()
		return nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type selectRequest struct {
	NodeID string `json:"node_id"`
}

func (r selectRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.NodeID, validation.Required))
}

func (h *Handler) selectNode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var body selectRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}
	err := s.Do(func(c *canvas.Canvas) error {
		if !c.Select(body.NodeID) {
			return fmt.Errorf("node %q: %w", body.NodeID, apperr.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"selected": body.NodeID})
}

func (h *Handler) canvasSVG(w http.ResponseWriter, r *http.Request) {
	h.drawScene(w, r, "image/svg+xml", canvas.WriteSVG)
}

func (h *Handler) canvasPNG(w http.ResponseWriter, r *http.Request) {
	h.drawScene(w, r, "image/png", canvas.WritePNG)
}

// drawScene renders the current frame into a buffer first so a drawing
// failure can still be reported as JSON.
func (h *Handler) drawScene(w http.ResponseWriter, r *http.Request, contentType string,
	draw func(w io.Writer, s canvas.Scene, opts canvas.SurfaceOptions) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	opts, err := surfaceOptions(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var scene canvas.Scene
	_ = s.Do(func(c *canvas.Canvas) error {
		scene = c.Scene()
		return nil
	})
	var buf bytes.Buffer
	if err := draw(&buf, scene, opts); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func surfaceOptions(r *http.Request) (canvas.SurfaceOptions, error) {
	q := r.URL.Query()
	var opts canvas.SurfaceOptions
	for name, dst := range map[string]*int{"width": &opts.Width, "height": &opts.Height} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > canvas.MaxSide {
			return opts, fmt.Errorf("%w: %s must be between 1 and %d", apperr.ErrInvalidInput, name, canvas.MaxSide)
		}
		*dst = n
	}
	if bg := q.Get("background"); bg != "" {
		if err := is.HexColor.Validate(bg); err != nil {
			return opts, fmt.Errorf("%w: background must be a hex colour", apperr.ErrInvalidInput)
		}
		opts.Background = "#" + strings.TrimPrefix(bg, "#")
	}
	return opts, nil
}
