package ai

import (
	"context"

	"github.com/thywilljoshua/pdf-reader/internal/outline"
)

// Outline asks the assistant for a concept map of the document and parses
// the answer under policy. A failed request is always an error; only an
// unparseable answer is subject to the policy.
func Outline(ctx context.Context, a Assistant, docContext string, policy outline.Policy) (outline.Result, error) {
	text, err := a.Ask(ctx, Request{Tool: ToolOutline, Context: docContext})
	if err != nil {
		return outline.Result{Err: err}, err
	}
	return outline.Resolve(text, policy)
}
