package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-reader/internal/ai"
	"github.com/thywilljoshua/pdf-reader/internal/document"
	"github.com/thywilljoshua/pdf-reader/internal/highlight"
	"github.com/thywilljoshua/pdf-reader/internal/library"
	"github.com/thywilljoshua/pdf-reader/internal/outline"
	"github.com/thywilljoshua/pdf-reader/internal/session"
)

// Deps are the services the HTTP handlers work on. Events may be nil, in
// which case /api/events is not mounted.
type Deps struct {
	Library      *library.Library
	Highlights   highlight.Store
	Assistant    ai.Assistant
	Sessions     *session.Manager
	Events       http.Handler
	Logger       *zap.Logger
	AITimeout    time.Duration
	ContextPages int
	Policy       outline.Policy
}

// Handler serves the reader API.
type Handler struct {
	library      *library.Library
	highlights   highlight.Store
	assistant    ai.Assistant
	sessions     *session.Manager
	logger       *zap.Logger
	aiTimeout    time.Duration
	contextPages int
	policy       outline.Policy
}

func newHandler(d Deps) *Handler {
	h := &Handler{
		library:      d.Library,
		highlights:   d.Highlights,
		assistant:    d.Assistant,
		sessions:     d.Sessions,
		logger:       d.Logger,
		aiTimeout:    d.AITimeout,
		contextPages: d.ContextPages,
		policy:       d.Policy,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.assistant == nil {
		h.assistant = ai.Noop{}
	}
	if h.contextPages <= 0 {
		h.contextPages = document.DefaultContextPages
	}
	if h.policy == "" {
		h.policy = outline.PolicyError
	}
	return h
}

// aiContext bounds a model call by the configured timeout.
func (h *Handler) aiContext(parent context.Context) (context.Context, context.CancelFunc) {
	if h.aiTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, h.aiTimeout)
}

func (h *Handler) live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"documents": h.library.Len(),
		"canvases":  len(h.sessions.List()),
	})
}
