package ai

import (
	"fmt"
	"sort"
	"strings"
)

const preamble = `Context: You are an assistant that helps readers understand PDF documents such as research papers and technical reports. Answers must be clear, accurate and grounded in the document.`

// BuildPrompt renders the full prompt for req, document context included.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\nDocument Context:\n")
	b.WriteString(strings.TrimSpace(req.Context))
	b.WriteString("\n\nUser Request: ")
	b.WriteString(strings.TrimSpace(instruction(req)))
	b.WriteString("\n\nRespond to the request directly. Be concise but thorough.")
	return b.String()
}

func focus(label, sel string) string {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return ""
	}
	return fmt.Sprintf(" %s: %q", label, sel)
}

func instruction(req Request) string {
	switch req.Tool {
	case ToolSimplify:
		return fmt.Sprintf(`Explain the following passage in plain language:

%q

Assume the reader does not know the field's jargon. Use an analogy or a short example where it helps.`, req.Selection)

	case ToolTerminology:
		return fmt.Sprintf(`List the technical terms, acronyms and specialised concepts in this passage:

%q

For each term give a definition, how the field uses it, and any background the reader needs. Format as a list of "term: explanation".`, req.Selection)

	case ToolSummary:
		return `Summarize the document. Cover its topic and purpose, the key arguments or findings, the methodology if there is one, the conclusions, and why the work matters. Use short sections and bullet points.`

	case ToolConnections:
		return `Describe how the document's sections, concepts and arguments relate to each other` + focus("with particular focus on", req.Selection) + `. Point out recurring themes, cause and effect, evidence supporting the main claims, and any contradictions.`

	case ToolKeyPoints:
		return `Extract the most important points from the document, grouped as main findings, key concepts, practical implications, limitations and future directions. Use numbered or bulleted lists.`

	case ToolQuestions:
		return `Write study questions about the document` + focus("with emphasis on", req.Selection) + `.

Comprehension (3-4): check understanding of the key concepts.
Analysis (3-4): ask about relationships and implications.
Critical thinking (2-3): ask for evaluation and synthesis.

Add a brief hint to any question that is particularly hard.`

	case ToolDiagram:
		return `Analyse the figures, charts and diagrams in the document` + focus("starting from this description", req.Selection) + `. For each one explain what it shows, its components, how it supports the main argument, and how to read any data or trends. If the document has none, suggest which visual aids would help.`

	case ToolOutline:
		return `Build a concept map of the document as JSON. Return ONLY a JSON array, no prose and no code fences. Each element:
{"id": "short-unique-id", "title": "section or concept", "summary": "one sentence", "page": 1, "position": {"x": 0, "y": 0}, "importance": "high|medium|low", "connections": ["other-id"]}
Use 5 to 12 nodes. Positions are pixels on a 1200x800 canvas with cards 220 wide and 96 tall; keep cards from overlapping. Connections point from a node to the nodes it leads to or supports.`

	case ToolFeedback:
		return fmt.Sprintf(`Give the reader personalised study feedback.

Reading progress: %d%%
Tools used: %s

Assess their likely comprehension, suggest how to understand the material better, recommend tools or strategies, and name areas that need more attention. Keep it practical and encouraging.`, req.Progress, usageLine(req.Usage))
	}
	return string(req.Tool)
}

func usageLine(u map[string]int) string {
	if len(u) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, u[k])
	}
	return strings.Join(parts, ", ")
}
