package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thywilljoshua/pdf-reader/internal/ai"
	"github.com/thywilljoshua/pdf-reader/internal/apperr"
	"github.com/thywilljoshua/pdf-reader/internal/highlight"
	"github.com/thywilljoshua/pdf-reader/internal/library"
	"github.com/thywilljoshua/pdf-reader/internal/outline"
	"github.com/thywilljoshua/pdf-reader/internal/pdftest"
	"github.com/thywilljoshua/pdf-reader/internal/session"
)

type stubAssistant struct {
	answer string
	err    error
	last   ai.Request
}

func (s *stubAssistant) Ask(_ context.Context, req ai.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	s.last = req
	return s.answer, s.err
}

type testEnv struct {
	router     http.Handler
	library    *library.Library
	highlights *highlight.Memory
	sessions   *session.Manager
}

func newTestEnv(t *testing.T, assistant ai.Assistant) *testEnv {
	t.Helper()
	lib, err := library.New(t.TempDir(), nil, nil)
	require.NoError(t, err)
	env := &testEnv{
		library:    lib,
		highlights: highlight.NewMemory(),
		sessions:   session.NewManager(nil, nil),
	}
	t.Cleanup(env.sessions.Close)
	env.router = NewRouter(Deps{
		Library:    lib,
		Highlights: env.highlights,
		Assistant:  assistant,
		Sessions:   env.sessions,
		Policy:     outline.PolicyError,
	}, nil)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *bytes.Reader
	switch b := body.(type) {
	case nil:
		r = bytes.NewReader(nil)
	case string:
		r = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// addDoc uploads a two-page document and returns its id.
func (e *testEnv) addDoc(t *testing.T) string {
	t.Helper()
	w := e.upload(t, "paper.pdf", pdftest.Minimal("Hello reader", "Second page about hello"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc documentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	return doc.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil).Code)

	w := env.do(t, http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, float64(0), body["documents"])
}

func TestTools(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/tools", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string][]string](t, w)
	assert.Contains(t, body["tools"], "summary")
	assert.Len(t, body["tools"], len(ai.Tools()))
}

func TestDocuments(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.addDoc(t)

	docs := decode[[]documentResponse](t, env.do(t, http.MethodGet, "/api/documents", nil))
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)
	assert.Equal(t, "paper.pdf", docs[0].Name)
	assert.Equal(t, 2, docs[0].Pages)

	w := env.do(t, http.MethodGet, "/api/documents/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/documents/"+id+"/pages/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[map[string]any](t, w)
	assert.Equal(t, float64(2), page["page"])

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/documents/"+id+"/pages/3", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/documents/"+id+"/pages/two", nil).Code)

	w = env.do(t, http.MethodDelete, "/api/documents/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/documents/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/documents/"+id, nil).Code)
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.upload(t, "notes.pdf", []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.library.Len())
}

func TestUpload_MissingFile(t *testing.T) {
	env := newTestEnv(t, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.addDoc(t)

	w := env.do(t, http.MethodGet, "/api/documents/"+id+"/search?q=HELLO", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[searchResponse](t, w)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Matches[0].Page)
	assert.Equal(t, 2, res.Matches[1].Page)

	w = env.do(t, http.MethodGet, "/api/documents/"+id+"/search?q=zebra", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"query":"zebra","total":0,"matches":[]}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/documents/"+id+"/search?q=%20", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/documents/nope/search?q=a", nil).Code)
}

func TestAsk(t *testing.T) {
	stub := &stubAssistant{answer: "**Short** answer"}
	env := newTestEnv(t, stub)
	id := env.addDoc(t)

	w := env.do(t, http.MethodPost, "/api/documents/"+id+"/ai/summary", map[string]any{"format": "html"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[askResponse](t, w)
	assert.Equal(t, ai.ToolSummary, resp.Tool)
	assert.Equal(t, "**Short** answer", resp.Response)
	assert.Contains(t, resp.HTML, "<strong>Short</strong>")
	assert.Contains(t, stub.last.Context, "Page 1:")

	w = env.do(t, http.MethodPost, "/api/documents/"+id+"/ai/Simplify", map[string]any{"selection": "a hard sentence"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[askResponse](t, w).HTML)
	assert.Equal(t, "a hard sentence", stub.last.Selection)

	w = env.do(t, http.MethodPost, "/api/documents/"+id+"/ai/feedback", map[string]any{"progress": 40, "usage": map[string]int{"summary": 2}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 40, stub.last.Progress)
	assert.Equal(t, 2, stub.last.Usage["summary"])
}

func TestAsk_Errors(t *testing.T) {
	stub := &stubAssistant{answer: "ok"}
	env := newTestEnv(t, stub)
	id := env.addDoc(t)

	cases := []struct {
		name string
		path string
		body any
		want int
	}{
		{"no selection", "/api/documents/" + id + "/ai/simplify", map[string]any{}, http.StatusBadRequest},
		{"unknown tool", "/api/documents/" + id + "/ai/translate", nil, http.StatusBadRequest},
		{"bad format", "/api/documents/" + id + "/ai/summary", map[string]any{"format": "pdf"}, http.StatusBadRequest},
		{"bad json", "/api/documents/" + id + "/ai/summary", "{", http.StatusBadRequest},
		{"unknown document", "/api/documents/missing/ai/summary", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
			assert.NotEmpty(t, decode[errResponse](t, w).Error)
		})
	}

	stub.err = ai.ErrNoContent
	w := env.do(t, http.MethodPost, "/api/documents/"+id+"/ai/summary", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	stub.err = context.DeadlineExceeded
	w = env.do(t, http.MethodPost, "/api/documents/"+id+"/ai/summary", nil)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestAsk_NotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.addDoc(t)
	w := env.do(t, http.MethodPost, "/api/documents/"+id+"/ai/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ai.NotConfigured, decode[askResponse](t, w).Response)
}

func TestAsk_Outline(t *testing.T) {
	stub := &stubAssistant{answer: "```json\n[{\"id\":\"a\",\"title\":\"Alpha\",\"importance\":\"high\"},{\"id\":\"b\",\"title\":\"Beta\",\"connections\":[\"a\"]}]\n```"}
	env := newTestEnv(t, stub)
	id := env.addDoc(t)

	w := env.do(t, http.MethodPost, "/api/documents/"+id+"/ai/outline", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[askResponse](t, w)
	require.Len(t, resp.Nodes, 2)
	assert.False(t, resp.Fallback)

	stub.answer = "I cannot draw that."
	w = env.do(t, http.MethodPost, "/api/documents/"+id+"/ai/outline", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHighlights(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.addDoc(t)
	base := "/api/documents/" + id + "/highlights"

	w := env.do(t, http.MethodPost, base, map[string]any{"text": "  first  ", "page": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[highlight.Highlight](t, w)
	assert.Equal(t, "first", first.Text)
	assert.Equal(t, highlight.DefaultColor, first.Color)
	assert.Equal(t, id, first.DocumentID)

	w = env.do(t, http.MethodPost, base, map[string]any{"text": "second", "page": 2, "color": "#00ff00", "note": "n"})
	require.Equal(t, http.StatusCreated, w.Code)

	all := decode[[]highlight.Highlight](t, env.do(t, http.MethodGet, base, nil))
	assert.Len(t, all, 2)
	onPage := decode[[]highlight.Highlight](t, env.do(t, http.MethodGet, base+"?page=2", nil))
	require.Len(t, onPage, 1)
	assert.Equal(t, "n", onPage[0].Note)

	w = env.do(t, http.MethodPut, "/api/highlights/"+first.ID+"/note", map[string]string{"note": "remember"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "remember", decode[highlight.Highlight](t, w).Note)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/highlights/"+first.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/highlights/"+first.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/api/highlights/"+first.ID+"/note", map[string]string{"note": "x"}).Code)
}

func TestHighlights_Invalid(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.addDoc(t)
	base := "/api/documents/" + id + "/highlights"

	for name, body := range map[string]map[string]any{
		"blank text":    {"text": "   ", "page": 1},
		"missing text":  {"page": 1},
		"page past end": {"text": "x", "page": 3},
		"page zero":     {"text": "x", "page": 0},
		"bad colour":    {"text": "x", "page": 1, "color": "yellowish"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, base, body).Code)
		})
	}
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, base+"?page=x", nil).Code)
}

func TestHighlights_ExportImport(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.addDoc(t)
	base := "/api/documents/" + id + "/highlights"

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, base, map[string]any{"text": "keep", "page": 1}).Code)

	w := env.do(t, http.MethodGet, base+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "highlights_")
	assert.Contains(t, w.Body.String(), `"totalHighlights": 1`)

	other := env.upload(t, "other.pdf", pdftest.Minimal("one page only"))
	require.Equal(t, http.StatusCreated, other.Code)
	otherID := decode[documentResponse](t, other).ID

	export := fmt.Sprintf(`{"highlights":[
		{"document_id":%q,"text":"keep","page":1},
		{"document_id":%q,"text":"too far","page":2},
		{"document_id":%q,"text":"   ","page":1}
	]}`, id, id, id)
	w = env.do(t, http.MethodPost, "/api/documents/"+otherID+"/highlights/import", export)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]int{"imported": 1, "skipped": 1}, decode[map[string]int](t, w))

	hs, err := env.highlights.List(context.Background(), otherID)
	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, otherID, hs[0].DocumentID)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, base+"/import", "not json").Code)
}

func TestHighlights_ImportExportIntoOtherDocument(t *testing.T) {
	env := newTestEnv(t, nil)
	src := env.addDoc(t)
	w := env.upload(t, "copy.pdf", pdftest.Minimal("Hello again", "and again"))
	require.Equal(t, http.StatusCreated, w.Code)
	dst := decode[documentResponse](t, w).ID

	w = env.do(t, http.MethodPost, "/api/documents/"+src+"/highlights", map[string]any{"text": "shared", "page": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	original := decode[highlight.Highlight](t, w)

	export := env.do(t, http.MethodGet, "/api/documents/"+src+"/highlights/export", nil)
	require.Equal(t, http.StatusOK, export.Code)
	require.Contains(t, export.Body.String(), original.ID)

	w = env.do(t, http.MethodPost, "/api/documents/"+dst+"/highlights/import", export.Body.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]int{"imported": 1, "skipped": 0}, decode[map[string]int](t, w))

	ctx := context.Background()
	srcHs, err := env.highlights.List(ctx, src)
	require.NoError(t, err)
	require.Len(t, srcHs, 1, "the source document keeps its highlight")
	assert.Equal(t, original.ID, srcHs[0].ID)

	dstHs, err := env.highlights.List(ctx, dst)
	require.NoError(t, err)
	require.Len(t, dstHs, 1)
	assert.NotEqual(t, original.ID, dstHs[0].ID)
	assert.Equal(t, "shared", dstHs[0].Text)

	// Re-importing a document's own export restores in place.
	w = env.do(t, http.MethodPost, "/api/documents/"+src+"/highlights/import", export.Body.String())
	require.Equal(t, http.StatusOK, w.Code)
	srcHs, err = env.highlights.List(ctx, src)
	require.NoError(t, err)
	assert.Len(t, srcHs, 1)
}

func TestCanvas_Lifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/canvases", map[string]any{"source": "demo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[canvasResponse](t, w)
	assert.Equal(t, len(outline.Demo()), created.Nodes)
	assert.Equal(t, 1.0, created.Viewport.Scale)
	assert.Len(t, created.Scene.Cards, len(outline.Demo()))
	base := "/api/canvases/" + created.ID

	w = env.do(t, http.MethodPost, base+"/events", map[string]any{"events": []map[string]any{
		{"type": "wheel", "x": 10, "y": 10, "delta_y": -100},
		{"type": "pointerdown", "x": -500, "y": -500},
		{"type": "pointermove", "x": -480, "y": -490},
		{"type": "pointerup", "x": -480, "y": -490},
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ev := decode[eventsResponse](t, w)
	assert.Equal(t, 4, ev.Applied)
	assert.Equal(t, 2, ev.Changed)
	assert.InDelta(t, 1.1, ev.Viewport.Scale, 1e-9)
	assert.Equal(t, 20.0, ev.Viewport.OffsetX)
	assert.Equal(t, 10.0, ev.Viewport.OffsetY)
	assert.False(t, ev.Dragging)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, base+"/select", map[string]string{"node_id": "nope"}).Code)
	w = env.do(t, http.MethodPost, base+"/select", map[string]string{"node_id": "method"})
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[canvasResponse](t, env.do(t, http.MethodGet, base, nil))
	assert.Equal(t, "method", got.Selected)

	list := decode[[]session.Info](t, env.do(t, http.MethodGet, "/api/canvases", nil))
	require.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, base, nil).Code)
}

func TestCanvas_EventErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	created := decode[canvasResponse](t, env.do(t, http.MethodPost, "/api/canvases", map[string]any{"source": "demo"}))
	base := "/api/canvases/" + created.ID

	w := env.do(t, http.MethodPost, base+"/events", map[string]any{"events": []map[string]any{
		{"type": "reset"},
		{"type": "pinch"},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errResponse](t, w).Error, "event 1")

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, base+"/events", map[string]any{"events": []any{}}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/canvases/missing/events", map[string]any{"events": []map[string]any{{"type": "reset"}}}).Code)
}

func TestCanvas_Images(t *testing.T) {
	env := newTestEnv(t, nil)
	created := decode[canvasResponse](t, env.do(t, http.MethodPost, "/api/canvases", map[string]any{"source": "demo"}))
	base := "/api/canvases/" + created.ID

	w := env.do(t, http.MethodGet, base+"/scene.svg?width=640&height=480", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "<svg"))

	w = env.do(t, http.MethodGet, base+"/scene.png?width=320&height=200&background=fafafa", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, base+"/scene.png?width=0", nil).Code)
	w = env.do(t, http.MethodGet, base+"/scene.png?width=8192&height=8192", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "between 1 and 4096")
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, base+"/scene.svg?width=4096&height=100", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, base+"/scene.svg?background=red", nil).Code)
}

func TestCanvas_Sources(t *testing.T) {
	stub := &stubAssistant{answer: "no json here"}
	env := newTestEnv(t, stub)
	id := env.addDoc(t)

	w := env.do(t, http.MethodPost, "/api/canvases", map[string]any{"source": "ai", "document_id": id})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodPost, "/api/canvases", map[string]any{"source": "ai", "document_id": id, "fallback": "demo"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decode[canvasResponse](t, w).Fallback)

	stub.err = errors.New("upstream down")
	w = env.do(t, http.MethodPost, "/api/canvases", map[string]any{"source": "ai", "document_id": id, "fallback": "demo"})
	assert.Equal(t, http.StatusInternalServerError, w.Code, "transport errors are never masked by demo data")
	assert.Equal(t, "internal error", decode[errResponse](t, w).Error)

	assert.Equal(t, http.StatusUnprocessableEntity,
		env.do(t, http.MethodPost, "/api/canvases", map[string]any{"source": "bookmarks", "document_id": id}).Code)
	assert.Equal(t, http.StatusNotFound,
		env.do(t, http.MethodPost, "/api/canvases", map[string]any{"source": "toc", "document_id": "missing"}).Code)

	w = env.do(t, http.MethodPost, "/api/canvases", map[string]any{"source": "nodes", "nodes": []map[string]any{
		{"id": "x", "title": "X", "position": map[string]float64{"x": 0, "y": 0}, "connections": []string{"y", "ghost"}},
		{"id": "y", "title": "Y", "position": map[string]float64{"x": 300, "y": 0}},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, decode[canvasResponse](t, w).Scene.Edges, 1)
}

func TestCanvas_CreateValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	for name, body := range map[string]map[string]any{
		"missing source":  {},
		"unknown source":  {"source": "magic"},
		"ai without doc":  {"source": "ai"},
		"nodes without":   {"source": "nodes"},
		"bad fallback":    {"source": "demo", "fallback": "quiet"},
		"depth too large": {"source": "demo", "max_depth": 9},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/canvases", body).Code)
		})
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", apperr.ErrNotFound), http.StatusNotFound},
		{apperr.ErrInvalidInput, http.StatusBadRequest},
		{ai.ErrNoSelection, http.StatusBadRequest},
		{highlight.ErrEmptyText, http.StatusBadRequest},
		{&outline.ParseError{Reason: "bad"}, http.StatusUnprocessableEntity},
		{outline.ErrNoToC, http.StatusUnprocessableEntity},
		{ai.ErrNoContent, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{apperr.ErrUnsupported, http.StatusNotImplemented},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestCORSPreflight(t *testing.T) {
	lib, err := library.New("", nil, nil)
	require.NoError(t, err)
	router := NewRouter(Deps{Library: lib, Highlights: highlight.NewMemory(), Sessions: session.NewManager(nil, nil)},
		[]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodOptions, "/api/documents", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
