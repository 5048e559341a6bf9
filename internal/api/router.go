// Package api exposes the reader over HTTP: documents, search, the AI
// tools, highlights and canvas sessions.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the complete HTTP handler. origins configures CORS;
// an empty list allows any origin.
func NewRouter(d Deps, origins []string) http.Handler {
	h := newHandler(d)
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health/live", h.live)
	r.Get("/health/ready", h.ready)

	r.Route("/api", func(r chi.Router) {
		if d.Events != nil {
			r.Handle("/events", d.Events)
		}
		r.Get("/tools", h.listTools)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.listDocuments)
			r.Post("/", h.uploadDocument)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getDocument)
				r.Delete("/", h.deleteDocument)
				r.Get("/pages/{page}", h.getPage)
				r.Get("/search", h.searchDocument)
				r.Post("/ai/{tool}", h.askAI)

				r.Get("/highlights", h.listHighlights)
				r.Post("/highlights", h.createHighlight)
				r.Get("/highlights/export", h.exportHighlights)
				r.Post("/highlights/import", h.importHighlights)
			})
		})

		r.Put("/highlights/{hid}/note", h.updateNote)
		r.Delete("/highlights/{hid}", h.deleteHighlight)

		r.Route("/canvases", func(r chi.Router) {
			r.Get("/", h.listCanvases)
			r.Post("/", h.createCanvas)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getCanvas)
				r.Delete("/", h.deleteCanvas)
				r.Get("/scene.svg", h.canvasSVG)
				r.Get("/scene.png", h.canvasPNG)
				r.Post("/events", h.canvasEvents)
				r.Post("/select", h.selectNode)
			})
		})
	})

	return r
}
