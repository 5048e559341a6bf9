// Package canvas lays document outline nodes out as cards and edges under a
// shared viewport transform, and owns the per-canvas selection and input
// handling.
package canvas

// Importance picks one of three fixed presentation tiers.
type Importance string

const (
	High   Importance = "high"
	Medium Importance = "medium"
	Low    Importance = "low"
)

// Valid reports whether i is one of the known tiers.
func (i Importance) Valid() bool {
	switch i {
	case High, Medium, Low:
		return true
	}
	return false
}

// Position is a point in untransformed canvas space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one document segment on the canvas. Connections may name ids that
// are not on the canvas; those edges are skipped when rendering.
type Node struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	Page        int        `json:"page,omitempty"`
	Position    Position   `json:"position"`
	Importance  Importance `json:"importance"`
	Connections []string   `json:"connections,omitempty"`
}

// Card geometry in canvas pixels.
const (
	CardWidth  = 220.0
	CardHeight = 96.0
)

// Anchor is where edges attach to a node: the center of its card.
func Anchor(n Node) Position {
	return Position{X: n.Position.X + CardWidth/2, Y: n.Position.Y + CardHeight/2}
}

// Style is the visual treatment of a card.
type Style struct {
	BorderWidth float64 `json:"border_width"`
	BorderColor string  `json:"border_color"`
	Fill        string  `json:"fill"`
	FontWeight  int     `json:"font_weight"`
	FontSize    float64 `json:"font_size"`
}

var styles = map[Importance]Style{
	High:   {BorderWidth: 3, BorderColor: "#e74c3c", Fill: "#fff5f4", FontWeight: 700, FontSize: 15},
	Medium: {BorderWidth: 2, BorderColor: "#3498db", Fill: "#f4f9fd", FontWeight: 600, FontSize: 14},
	Low:    {BorderWidth: 1, BorderColor: "#95a5a6", Fill: "#fafafa", FontWeight: 400, FontSize: 13},
}

// SelectedBorder replaces the border colour of the selected card.
const SelectedBorder = "#f39c12"

// StyleFor returns the tier style; unknown values render as Medium.
func StyleFor(i Importance) Style {
	if s, ok := styles[i]; ok {
		return s
	}
	return styles[Medium]
}
