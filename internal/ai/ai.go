// Package ai asks a language model about a document: explanations of a
// selection, summaries, study aids and the outline used by the canvas.
package ai

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/thywilljoshua/pdf-reader/internal/apperr"
)

// Tool is one of the assistant's fixed actions.
type Tool string

const (
	ToolSimplify    Tool = "simplify"
	ToolTerminology Tool = "terminology"
	ToolSummary     Tool = "summary"
	ToolConnections Tool = "connections"
	ToolKeyPoints   Tool = "keypoints"
	ToolQuestions   Tool = "questions"
	ToolDiagram     Tool = "diagram"
	ToolOutline     Tool = "outline"
	ToolFeedback    Tool = "feedback"
)

var tools = map[Tool]bool{
	ToolSimplify: true, ToolTerminology: true, ToolSummary: true,
	ToolConnections: true, ToolKeyPoints: true, ToolQuestions: true,
	ToolDiagram: true, ToolOutline: true, ToolFeedback: true,
}

// Tools lists every known tool name, sorted.
func Tools() []string {
	out := make([]string, 0, len(tools))
	for t := range tools {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}

// ParseTool accepts a tool name in any case.
func ParseTool(s string) (Tool, error) {
	t := Tool(strings.ToLower(strings.TrimSpace(s)))
	if !tools[t] {
		return "", fmt.Errorf("%w: unknown tool %q", apperr.ErrInvalidInput, s)
	}
	return t, nil
}

// NeedsSelection reports whether the tool works on selected text only.
func (t Tool) NeedsSelection() bool {
	return t == ToolSimplify || t == ToolTerminology
}

var (
	// ErrNoSelection is returned when a selection-only tool gets no text.
	ErrNoSelection = errors.New("ai: select some text first")
	// ErrNoContent is returned when the model answers with nothing.
	ErrNoContent = errors.New("ai: no content generated")
)

// Request is one question to the assistant. Context is the document text
// the answer should draw on. Progress and Usage only feed ToolFeedback.
type Request struct {
	Tool      Tool           `json:"tool"`
	Selection string         `json:"selection,omitempty"`
	Context   string         `json:"-"`
	Progress  int            `json:"progress,omitempty"`
	Usage     map[string]int `json:"usage,omitempty"`
}

// Validate checks the tool and, where required, the selection.
func (r Request) Validate() error {
	if !tools[r.Tool] {
		return fmt.Errorf("%w: unknown tool %q", apperr.ErrInvalidInput, r.Tool)
	}
	if r.Tool.NeedsSelection() && strings.TrimSpace(r.Selection) == "" {
		return ErrNoSelection
	}
	return nil
}

// Assistant answers requests. Answers are returned as the model wrote them.
type Assistant interface {
	Ask(ctx context.Context, req Request) (string, error)
}

// NotConfigured is the answer Noop gives to every valid request.
const NotConfigured = "The AI assistant is not configured. Set GEMINI_API_KEY (or ai.api_key in the config file) and restart."

// Noop is the assistant used when no model is configured.
type Noop struct{}

func (Noop) Ask(_ context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return NotConfigured, nil
}
