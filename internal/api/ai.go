package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-reader/internal/ai"
	"github.com/thywilljoshua/pdf-reader/internal/canvas"
)

// Answer formats.
const (
	formatMarkdown = "markdown"
	formatHTML     = "html"
)

type askRequest struct {
	Selection string         `json:"selection"`
	Format    string         `json:"format"`
	Progress  int            `json:"progress"`
	Usage     map[string]int `json:"usage"`
}

func (r askRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Format, validation.In(formatMarkdown, formatHTML)),
		validation.Field(&r.Progress, validation.Min(0), validation.Max(100)),
	)
}

type askResponse struct {
	Tool     ai.Tool       `json:"tool"`
	Response string        `json:"response"`
	HTML     string        `json:"html,omitempty"`
	Nodes    []canvas.Node `json:"nodes,omitempty"`
	Fallback bool          `json:"fallback,omitempty"`
}

func (h *Handler) askAI(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.document(w, r)
	if !ok {
		return
	}
	tool, err := ai.ParseTool(chi.URLParam(r, "tool"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var body askRequest
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx, cancel := h.aiContext(r.Context())
	defer cancel()
	docContext := doc.Context(h.contextPages)

	if tool == ai.ToolOutline {
		res, err := ai.Outline(ctx, h.assistant, docContext, h.policy)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if res.Fallback {
			h.logger.Warn("outline fell back to demo data", zap.String("document", doc.ID), zap.Error(res.Err))
		}
		writeJSON(w, http.StatusOK, askResponse{Tool: tool, Nodes: res.Nodes, Fallback: res.Fallback})
		return
	}

	answer, err := h.assistant.Ask(ctx, ai.Request{
		Tool:      tool,
		Selection: body.Selection,
		Context:   docContext,
		Progress:  body.Progress,
		Usage:     body.Usage,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := askResponse{Tool: tool, Response: answer}
	if body.Format == formatHTML {
		resp.HTML = ai.ToHTML(answer)
	}
	writeJSON(w, http.StatusOK, resp)
}
