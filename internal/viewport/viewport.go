// Package viewport owns the pan/zoom transform of a diagram canvas.
//
// A Controller is created per canvas and mutated only by its input
// handlers. It is not safe for concurrent use; owners that receive input
// from several goroutines must serialize calls themselves.
package viewport

import "fmt"

const (
	MinScale = 0.1
	MaxScale = 3.0
	ZoomStep = 1.1
)

// State is the affine transform shared by the edge layer and the card layer.
type State struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Scale   float64 `json:"scale"`
}

// Identity returns the state every canvas starts from.
func Identity() State {
	return State{Scale: 1}
}

func (s State) String() string {
	return fmt.Sprintf("translate(%.2f,%.2f) scale(%.3f)", s.OffsetX, s.OffsetY, s.Scale)
}

// Mode is the pan state machine position.
type Mode int

const (
	Idle Mode = iota
	Dragging
)

func (m Mode) String() string {
	if m == Dragging {
		return "dragging"
	}
	return "idle"
}

// Direction of a zoom step.
type Direction int

const (
	ZoomIn Direction = iota + 1
	ZoomOut
)

// DirectionFromWheel maps a wheel delta to a zoom direction. Scrolling up
// (negative delta) zooms in. A zero delta carries no direction.
func DirectionFromWheel(deltaY float64) (Direction, bool) {
	switch {
	case deltaY < 0:
		return ZoomIn, true
	case deltaY > 0:
		return ZoomOut, true
	}
	return 0, false
}

// Point is a pointer position in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Controller translates pointer and wheel input into a State.
type Controller struct {
	state   State
	mode    Mode
	anchorX float64
	anchorY float64
}

// New returns a controller at the identity transform in Idle mode.
func New() *Controller {
	return &Controller{state: Identity()}
}

// State returns a copy of the current transform.
func (c *Controller) State() State { return c.state }

// Mode reports whether a pan is in progress.
func (c *Controller) Mode() Mode { return c.mode }

// Dragging is shorthand for Mode() == Dragging.
func (c *Controller) Dragging() bool { return c.mode == Dragging }

// BeginPan records the drag anchor and enters Dragging.
func (c *Controller) BeginPan(x, y float64) {
	c.anchorX = x - c.state.OffsetX
	c.anchorY = y - c.state.OffsetY
	c.mode = Dragging
}

// ContinuePan moves the canvas so the anchor stays under the pointer.
// It reports whether the state changed; outside a drag it does nothing.
func (c *Controller) ContinuePan(x, y float64) bool {
	if c.mode != Dragging {
		return false
	}
	c.state.OffsetX = x - c.anchorX
	c.state.OffsetY = y - c.anchorY
	return true
}

// EndPan leaves Dragging. Calling it while Idle is harmless.
func (c *Controller) EndPan() {
	c.mode = Idle
}

// Zoom scales by ZoomStep in the given direction and clamps the result to
// [MinScale, MaxScale]. The zoom is anchored at the canvas origin; focal is
// accepted for API symmetry with pointer events and ignored.
func (c *Controller) Zoom(dir Direction, focal Point) float64 {
	_ = focal
	switch dir {
	case ZoomIn:
		c.state.Scale = clamp(c.state.Scale * ZoomStep)
	case ZoomOut:
		c.state.Scale = clamp(c.state.Scale / ZoomStep)
	}
	return c.state.Scale
}

// Wheel applies a wheel event. A zero delta is ignored.
func (c *Controller) Wheel(deltaY float64, focal Point) bool {
	dir, ok := DirectionFromWheel(deltaY)
	if !ok {
		return false
	}
	before := c.state.Scale
	return c.Zoom(dir, focal) != before
}

// Reset restores the identity transform and ends any drag.
func (c *Controller) Reset() {
	c.state = Identity()
	c.mode = Idle
	c.anchorX, c.anchorY = 0, 0
}

func clamp(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
