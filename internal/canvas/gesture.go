package canvas

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/starford/onepage/internal/apperr"
)

// Op is the kind of pointer gesture in progress.
type Op string

// Gesture operations.
const (
	OpDrag   Op = "drag"
	OpResize Op = "resize"
)

// Source tells whether a pointer event came from a mouse or a touch screen.
// Both are handled identically.
type Source string

// Pointer sources.
const (
	SourceMouse Source = "mouse"
	SourceTouch Source = "touch"
)

// Pointer is a pointer position in client pixels.
type Pointer struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Source Source  `json:"source,omitempty"`
}

// Size is the on-screen size of the canvas container in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// GestureInfo describes the active gesture.
type GestureInfo struct {
	Op     Op     `json:"op"`
	BoxID  string `json:"box_id"`
	Handle Handle `json:"handle,omitempty"`
	Source Source `json:"source"`
}

// gesture holds the frozen start of a drag or resize. Everything else is
// read from the live canvas on every move.
type gesture struct {
	op        Op
	boxID     string
	handle    Handle
	start     Pointer
	origin    Box
	container Size
}

// Gesture returns the active gesture, if any.
func (c *Canvas) Gesture() (GestureInfo, bool) {
	if c.gesture == nil {
		return GestureInfo{}, false
	}
	g := c.gesture
	return GestureInfo{Op: g.op, BoxID: g.boxID, Handle: g.handle, Source: g.start.Source}, true
}

// BeginDrag starts moving a box. Only one gesture may be active at a time.
func (c *Canvas) BeginDrag(id string, p Pointer, container Size) error {
	return c.begin(OpDrag, id, "", p, container)
}

// BeginResize starts resizing a box from the given handle.
func (c *Canvas) BeginResize(id string, h Handle, p Pointer, container Size) error {
	if !h.Valid() {
		return fmt.Errorf("canvas: unknown resize handle %q: %w", h, apperr.ErrInvalid)
	}
	return c.begin(OpResize, id, h, p, container)
}

func (c *Canvas) begin(op Op, id string, h Handle, p Pointer, container Size) error {
	if c.gesture != nil {
		return fmt.Errorf("canvas: %s %q: %w", c.gesture.op, c.gesture.boxID, apperr.ErrGestureActive)
	}
	if container.Width <= 0 || container.Height <= 0 {
		return fmt.Errorf("canvas: container size must be positive: %w", apperr.ErrInvalid)
	}
	i, err := c.index(id)
	if err != nil {
		return err
	}
	if !c.boxes[i].Visible {
		return fmt.Errorf("canvas: box %q is hidden: %w", id, apperr.ErrInvalid)
	}
	if p.Source == "" {
		p.Source = SourceMouse
	}
	c.gesture = &gesture{
		op:        op,
		boxID:     id,
		handle:    h,
		start:     p,
		origin:    c.boxes[i].Clone(),
		container: container,
	}
	c.selected = id
	return nil
}

// Move feeds a pointer position to the active gesture and returns the
// updated box.
func (c *Canvas) Move(p Pointer) (Box, error) {
	g := c.gesture
	if g == nil {
		return Box{}, apperr.ErrNoGesture
	}
	i, err := c.index(g.boxID)
	if err != nil {
		c.gesture = nil
		return Box{}, err
	}

	dx := (p.X - g.start.X) / g.container.Width * 100
	dy := (p.Y - g.start.Y) / g.container.Height * 100

	b := &c.boxes[i]
	switch g.op {
	case OpDrag:
		others := lo.Filter(c.boxes, func(o Box, _ int) bool { return o.ID != g.boxID && o.Visible })
		start := Box{X: g.origin.X, Y: g.origin.Y, Width: b.Width, Height: b.Height}
		b.X, b.Y = dragTo(start, dx, dy, others, c.limits.SnapThreshold)
	case OpResize:
		b.X, b.Y, b.Width, b.Height = resizeTo(g.origin, g.handle, dx, dy, c.limits)
	}
	return b.Clone(), nil
}

// EndGesture finishes the active gesture and reports whether the box
// geometry differs from where it started.
func (c *Canvas) EndGesture() (bool, error) {
	g := c.gesture
	if g == nil {
		return false, apperr.ErrNoGesture
	}
	c.gesture = nil
	i, err := c.index(g.boxID)
	if err != nil {
		return false, err
	}
	b := c.boxes[i]
	moved := b.X != g.origin.X || b.Y != g.origin.Y || b.Width != g.origin.Width || b.Height != g.origin.Height
	return moved, nil
}

// CancelGesture abandons the active gesture and puts the box back where it
// was when the gesture began.
func (c *Canvas) CancelGesture() (Box, error) {
	g := c.gesture
	if g == nil {
		return Box{}, apperr.ErrNoGesture
	}
	c.gesture = nil
	i, err := c.index(g.boxID)
	if err != nil {
		return Box{}, err
	}
	b := &c.boxes[i]
	b.X, b.Y, b.Width, b.Height = g.origin.X, g.origin.Y, g.origin.Width, g.origin.Height
	return b.Clone(), nil
}
