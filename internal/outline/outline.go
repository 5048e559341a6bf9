// Package outline turns a document's structure into canvas nodes. Nodes come
// from a model's JSON answer, the table of contents printed in the document,
// or the PDF's bookmark tree.
package outline

import (
	"fmt"
	"strings"

	"github.com/thywilljoshua/pdf-reader/internal/canvas"
)

// Policy decides what happens when a model answer cannot be parsed.
type Policy string

const (
	// PolicyError surfaces the parse error to the caller.
	PolicyError Policy = "error"
	// PolicyDemo substitutes the demonstration outline and flags the result.
	PolicyDemo Policy = "demo"
)

// ParsePolicy maps a config value to a Policy. Empty means PolicyError.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyError:
		return PolicyError, nil
	case PolicyDemo:
		return PolicyDemo, nil
	}
	return "", fmt.Errorf("unknown outline fallback policy %q", s)
}

// Result is the outcome of resolving a model answer under a Policy. When
// Fallback is set, Nodes is the demonstration outline and Err holds the parse
// failure that caused it.
type Result struct {
	Nodes    []canvas.Node `json:"nodes"`
	Fallback bool          `json:"fallback"`
	Err      error         `json:"-"`
}

// Resolve parses text and applies policy on failure. Under PolicyError a
// failed parse returns the error; under PolicyDemo it never fails.
func Resolve(text string, policy Policy) (Result, error) {
	nodes, err := Parse(text)
	if err == nil {
		return Result{Nodes: nodes}, nil
	}
	if policy == PolicyDemo {
		return Result{Nodes: Demo(), Fallback: true, Err: err}, nil
	}
	return Result{Err: err}, err
}

// Demo is a fixed outline of a typical research paper, used when no real
// outline is available and the caller opted into demonstration data.
func Demo() []canvas.Node {
	return []canvas.Node{
		{ID: "intro", Title: "Introduction", Summary: "Problem statement and motivation for the work.", Page: 1,
			Position: canvas.Position{X: 60, Y: 60}, Importance: canvas.High, Connections: []string{"background", "method"}},
		{ID: "background", Title: "Background", Summary: "Prior work and the concepts the paper builds on.", Page: 2,
			Position: canvas.Position{X: 360, Y: 60}, Importance: canvas.Medium, Connections: []string{"method"}},
		{ID: "method", Title: "Methodology", Summary: "How the study was designed and carried out.", Page: 4,
			Position: canvas.Position{X: 210, Y: 240}, Importance: canvas.High, Connections: []string{"results"}},
		{ID: "results", Title: "Results", Summary: "Main findings with supporting data.", Page: 7,
			Position: canvas.Position{X: 60, Y: 420}, Importance: canvas.High, Connections: []string{"discussion"}},
		{ID: "discussion", Title: "Discussion", Summary: "Interpretation, limitations and open questions.", Page: 10,
			Position: canvas.Position{X: 360, Y: 420}, Importance: canvas.Medium, Connections: []string{"conclusion", "background"}},
		{ID: "conclusion", Title: "Conclusion", Summary: "Takeaways and future directions.", Page: 12,
			Position: canvas.Position{X: 210, Y: 600}, Importance: canvas.Low},
	}
}
