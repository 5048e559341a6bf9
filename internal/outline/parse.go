package outline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/thywilljoshua/pdf-reader/internal/canvas"
)

// ParseError reports why a model answer did not yield an outline.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "outline: " + e.Reason
	}
	return fmt.Sprintf("outline: %s: %v", e.Reason, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNoJSON = errors.New("no JSON node list found")

// wireNode is a node as a model writes it. Position is optional.
type wireNode struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Summary     string           `json:"summary"`
	Page        int              `json:"page"`
	Position    *canvas.Position `json:"position"`
	Importance  string           `json:"importance"`
	Connections []string         `json:"connections"`
}

func (w wireNode) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.ID, validation.Required),
		validation.Field(&w.Title, validation.Required),
		validation.Field(&w.Page, validation.Min(0)),
		validation.Field(&w.Importance, validation.In(string(canvas.High), string(canvas.Medium), string(canvas.Low))),
	)
}

// Parse extracts a node list from free-form model text. The list may be a
// bare JSON array or an object with a "nodes" array, optionally inside a
// Markdown code fence or surrounded by prose. Every node is validated; a
// missing importance becomes medium and a missing position gets a grid slot.
func Parse(text string) ([]canvas.Node, error) {
	wire, err := extract(stripCodeFences(text))
	if err != nil {
		return nil, &ParseError{Reason: "decode", Err: err}
	}

	seen := make(map[string]bool, len(wire))
	nodes := make([]canvas.Node, 0, len(wire))
	unplaced := 0
	for i, w := range wire {
		w.ID = strings.TrimSpace(w.ID)
		w.Title = strings.TrimSpace(w.Title)
		w.Importance = strings.ToLower(strings.TrimSpace(w.Importance))
		if err := w.Validate(); err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("node %d", i), Err: err}
		}
		if seen[w.ID] {
			return nil, &ParseError{Reason: fmt.Sprintf("node %d", i), Err: fmt.Errorf("duplicate id %q", w.ID)}
		}
		seen[w.ID] = true

		n := canvas.Node{
			ID:          w.ID,
			Title:       w.Title,
			Summary:     strings.TrimSpace(w.Summary),
			Page:        w.Page,
			Importance:  canvas.Importance(w.Importance),
			Connections: w.Connections,
		}
		if n.Importance == "" {
			n.Importance = canvas.Medium
		}
		if w.Position != nil {
			n.Position = *w.Position
		} else {
			n.Position = gridSlot(unplaced)
			unplaced++
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

const gridColumns = 3

func gridSlot(k int) canvas.Position {
	return canvas.Position{
		X: 60 + float64(k%gridColumns)*300,
		Y: 60 + float64(k/gridColumns)*180,
	}
}

// extract tries the whole text first, then every balanced bracket span in
// order until one decodes to a non-empty node list.
func extract(s string) ([]wireNode, error) {
	if nodes, ok := decodeNodes(s); ok {
		return nodes, nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '[' && s[i] != '{' {
			continue
		}
		end := matchBracket(s, i)
		if end < 0 {
			continue
		}
		if nodes, ok := decodeNodes(s[i : end+1]); ok {
			return nodes, nil
		}
	}
	return nil, errNoJSON
}

func decodeNodes(s string) ([]wireNode, bool) {
	var arr []wireNode
	if err := json.Unmarshal([]byte(s), &arr); err == nil && len(arr) > 0 {
		return arr, true
	}
	var obj struct {
		Nodes []wireNode `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(s), &obj); err == nil && len(obj.Nodes) > 0 {
		return obj.Nodes, true
	}
	return nil, false
}

// matchBracket returns the index closing the bracket at start, skipping
// brackets inside JSON strings, or -1.
func matchBracket(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
