package canvas

import (
	"math"

	"github.com/thywilljoshua/pdf-reader/internal/viewport"
)

// Transform is applied identically to the edge layer and the card layer.
type Transform struct {
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Scale      float64 `json:"scale"`
}

// TransformOf converts a viewport state into a layer transform.
func TransformOf(s viewport.State) Transform {
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	return Transform{TranslateX: s.OffsetX, TranslateY: s.OffsetY, Scale: scale}
}

// Apply maps a canvas point to screen space.
func (t Transform) Apply(p Position) Position {
	return Position{X: p.X*t.Scale + t.TranslateX, Y: p.Y*t.Scale + t.TranslateY}
}

// Invert maps a screen point back to canvas space.
func (t Transform) Invert(p Position) Position {
	return Position{X: (p.X - t.TranslateX) / t.Scale, Y: (p.Y - t.TranslateY) / t.Scale}
}

// Edge is a directed line between two card anchors, in canvas space.
type Edge struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}

// Card is a positioned, styled node, in canvas space.
type Card struct {
	Node     Node    `json:"node"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Style    Style   `json:"style"`
	Selected bool    `json:"selected"`
}

// Contains reports whether the canvas point p falls inside the card.
func (c Card) Contains(p Position) bool {
	return p.X >= c.X && p.X <= c.X+c.Width && p.Y >= c.Y && p.Y <= c.Y+c.Height
}

// Scene is everything a render surface needs to draw one frame.
type Scene struct {
	Transform Transform `json:"transform"`
	Edges     []Edge    `json:"edges"`
	Cards     []Card    `json:"cards"`
}

// Render derives edges and cards from nodes. For every connection whose
// target exists, one edge is emitted; reverse pairs are not merged and
// dangling targets are dropped. selected may be empty.
func Render(nodes []Node, state viewport.State, selected string) Scene {
	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	scene := Scene{
		Transform: TransformOf(state),
		Edges:     make([]Edge, 0),
		Cards:     make([]Card, 0, len(nodes)),
	}

	for _, n := range nodes {
		from := Anchor(n)
		for _, id := range n.Connections {
			target, ok := byID[id]
			if !ok {
				continue
			}
			to := Anchor(target)
			scene.Edges = append(scene.Edges, Edge{
				From: n.ID, To: target.ID,
				X1: from.X, Y1: from.Y,
				X2: to.X, Y2: to.Y,
			})
		}
	}

	for _, n := range nodes {
		style := StyleFor(n.Importance)
		isSel := selected != "" && n.ID == selected
		if isSel {
			style.BorderColor = SelectedBorder
		}
		scene.Cards = append(scene.Cards, Card{
			Node:     n,
			X:        n.Position.X,
			Y:        n.Position.Y,
			Width:    CardWidth,
			Height:   CardHeight,
			Style:    style,
			Selected: isSel,
		})
	}
	return scene
}

// CardAt returns the topmost card under the screen point, if any. Cards
// later in the slice are drawn on top.
func (s Scene) CardAt(screen Position) (Card, bool) {
	p := s.Transform.Invert(screen)
	for i := len(s.Cards) - 1; i >= 0; i-- {
		if s.Cards[i].Contains(p) {
			return s.Cards[i], true
		}
	}
	return Card{}, false
}

// Bounds is the canvas-space box around all cards. An empty scene has
// zero bounds.
func (s Scene) Bounds() (minX, minY, maxX, maxY float64) {
	if len(s.Cards) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, c := range s.Cards {
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X+c.Width)
		maxY = math.Max(maxY, c.Y+c.Height)
	}
	return minX, minY, maxX, maxY
}
