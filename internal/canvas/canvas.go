package canvas

import (
	"fmt"

	"github.com/thywilljoshua/pdf-reader/internal/viewport"
)

// EventType names an input event delivered to a canvas.
type EventType string

const (
	PointerDown  EventType = "pointerdown"
	PointerMove  EventType = "pointermove"
	PointerUp    EventType = "pointerup"
	PointerLeave EventType = "pointerleave"
	Wheel        EventType = "wheel"
	Click        EventType = "click"
	Reset        EventType = "reset"
)

// Event is a raw input event in screen pixels.
type Event struct {
	Type   EventType `json:"type"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	DeltaY float64   `json:"delta_y,omitempty"`
}

// ChangeKind tells listeners what moved.
type ChangeKind string

const (
	ViewportChanged  ChangeKind = "viewport"
	SelectionChanged ChangeKind = "selection"
)

// Change is sent to subscribers after every mutation.
type Change struct {
	Kind     ChangeKind     `json:"kind"`
	State    viewport.State `json:"state"`
	Selected string         `json:"selected,omitempty"`
}

// Canvas owns one viewport, one node set and at most one selected node.
// Like the viewport it is driven from a single event source and is not
// safe for concurrent use.
type Canvas struct {
	view      *viewport.Controller
	nodes     []Node
	index     map[string]int
	selected  string
	listeners map[int]func(Change)
	nextSub   int
	closed    bool
}

// New creates a canvas over a copy of nodes. When ids repeat, the last
// node with that id wins lookups; all copies are still drawn.
func New(nodes []Node) *Canvas {
	c := &Canvas{
		view:      viewport.New(),
		nodes:     append([]Node(nil), nodes...),
		index:     make(map[string]int, len(nodes)),
		listeners: make(map[int]func(Change)),
	}
	for i, n := range c.nodes {
		c.index[n.ID] = i
	}
	return c
}

// Nodes returns a copy of the node set.
func (c *Canvas) Nodes() []Node {
	return append([]Node(nil), c.nodes...)
}

// Node looks up a node by id.
func (c *Canvas) Node(id string) (Node, bool) {
	i, ok := c.index[id]
	if !ok {
		return Node{}, false
	}
	return c.nodes[i], true
}

// Viewport returns the current transform.
func (c *Canvas) Viewport() viewport.State { return c.view.State() }

// Dragging reports whether a pan is in progress.
func (c *Canvas) Dragging() bool { return c.view.Dragging() }

// Selected returns the selected node id, or "".
func (c *Canvas) Selected() string { return c.selected }

// Select marks id as the single selected node. Unknown ids are ignored and
// there is no way to clear a selection other than selecting another node.
func (c *Canvas) Select(id string) bool {
	if _, ok := c.index[id]; !ok {
		return false
	}
	c.selected = id
	c.emit(SelectionChanged)
	return true
}

// Scene renders the current frame.
func (c *Canvas) Scene() Scene {
	return Render(c.nodes, c.view.State(), c.selected)
}

// NodeAt hit-tests a screen point against the cards.
func (c *Canvas) NodeAt(x, y float64) (string, bool) {
	card, ok := c.Scene().CardAt(Position{X: x, Y: y})
	if !ok {
		return "", false
	}
	return card.Node.ID, true
}

// HandleEvent applies one input event and reports whether anything changed.
// Pressing on a card selects it; pressing on empty space starts a pan.
func (c *Canvas) HandleEvent(e Event) (bool, error) {
	switch e.Type {
	case PointerDown:
		if id, ok := c.NodeAt(e.X, e.Y); ok {
			return c.Select(id), nil
		}
		c.view.BeginPan(e.X, e.Y)
		return false, nil
	case PointerMove:
		if !c.view.ContinuePan(e.X, e.Y) {
			return false, nil
		}
		c.emit(ViewportChanged)
		return true, nil
	case PointerUp, PointerLeave:
		c.view.EndPan()
		return false, nil
	case Wheel:
		if !c.view.Wheel(e.DeltaY, viewport.Point{X: e.X, Y: e.Y}) {
			return false, nil
		}
		c.emit(ViewportChanged)
		return true, nil
	case Click:
		if id, ok := c.NodeAt(e.X, e.Y); ok {
			return c.Select(id), nil
		}
		return false, nil
	case Reset:
		c.view.Reset()
		c.emit(ViewportChanged)
		return true, nil
	}
	return false, fmt.Errorf("canvas: unknown event type %q", e.Type)
}

// Subscribe registers fn for change notifications. The returned function
// removes it; call it when the subscriber goes away.
func (c *Canvas) Subscribe(fn func(Change)) (unsubscribe func()) {
	if c.closed {
		return func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

// Close drops every listener. The canvas stays readable.
func (c *Canvas) Close() {
	c.closed = true
	clear(c.listeners)
}

func (c *Canvas) emit(kind ChangeKind) {
	ch := Change{Kind: kind, State: c.view.State(), Selected: c.selected}
	for _, fn := range c.listeners {
		fn(ch)
	}
}
