package board

import (
	"fmt"

	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/canvas"
)

// GestureStart describes a pointer-down on a box or one of its handles.
type GestureStart struct {
	Op        canvas.Op      `json:"op"`
	BoxID     string         `json:"box_id"`
	Handle    canvas.Handle  `json:"handle,omitempty"`
	Pointer   canvas.Pointer `json:"pointer"`
	Container canvas.Size    `json:"container"`
}

// BeginGesture starts a drag or resize. Only one gesture may be active per
// canvas.
func (s *Service) BeginGesture(id string, g GestureStart) error {
	ss, err := s.session(id)
	if err != nil {
		return err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.touched = s.now()
	return beginGesture(ss.canvas, g)
}

func beginGesture(c *canvas.Canvas, g GestureStart) error {
	switch g.Op {
	case canvas.OpDrag:
		return c.BeginDrag(g.BoxID, g.Pointer, g.Container)
	case canvas.OpResize:
		return c.BeginResize(g.BoxID, g.Handle, g.Pointer, g.Container)
	}
	return fmt.Errorf("board: unknown gesture %q: %w", g.Op, apperr.ErrInvalid)
}

// MoveGesture feeds a pointer move to the active gesture. Intermediate frames
// are broadcast but not recorded in history.
func (s *Service) MoveGesture(id string, p canvas.Pointer) (canvas.Box, error) {
	ss, err := s.session(id)
	if err != nil {
		return canvas.Box{}, err
	}
	ss.mu.Lock()
	ss.touched = s.now()
	b, err := ss.canvas.Move(p)
	ss.mu.Unlock()
	if err != nil {
		return canvas.Box{}, err
	}
	s.emitter.Emit(EventGesture, GestureFrame{Session: id, Box: b})
	return b, nil
}

// EndGesture commits the active gesture and reports whether the box moved.
func (s *Service) EndGesture(id string) (bool, error) {
	var moved bool
	err := s.update(id, "gesture", func(ss *Session) (bool, error) {
		var err error
		moved, err = ss.canvas.EndGesture()
		return moved, err
	})
	return moved, err
}

// CancelGesture abandons the active gesture and puts the box back where it
// started.
func (s *Service) CancelGesture(id string) (canvas.Box, error) {
	ss, err := s.session(id)
	if err != nil {
		return canvas.Box{}, err
	}
	ss.mu.Lock()
	ss.touched = s.now()
	b, err := ss.canvas.CancelGesture()
	rev := ss.revision
	ss.mu.Unlock()
	if err != nil {
		return canvas.Box{}, err
	}
	s.emitter.Emit(EventUpdated, Change{Session: id, Revision: rev, Reason: "gesture_cancel"})
	return b, nil
}

// unitContainer makes pointer deltas equal to percentage deltas.
var unitContainer = canvas.Size{Width: 100, Height: 100}

// MoveBox places a box at (x, y) percent through a complete drag gesture, so
// clamping and snapping apply exactly as for a pointer.
func (s *Service) MoveBox(id, boxID string, x, y float64) (canvas.Box, error) {
	var out canvas.Box
	err := s.update(id, "move_box", func(ss *Session) (bool, error) {
		b, err := ss.canvas.Box(boxID)
		if err != nil {
			return false, err
		}
		start := GestureStart{Op: canvas.OpDrag, BoxID: boxID, Container: unitContainer}
		return runGesture(ss.canvas, start, canvas.Pointer{X: x - b.X, Y: y - b.Y}, &out)
	})
	return out, err
}

// ResizeBox sets a box's size in percent by dragging its bottom-right handle,
// so minimum sizes and canvas bounds apply.
func (s *Service) ResizeBox(id, boxID string, width, height float64) (canvas.Box, error) {
	var out canvas.Box
	err := s.update(id, "resize_box", func(ss *Session) (bool, error) {
		b, err := ss.canvas.Box(boxID)
		if err != nil {
			return false, err
		}
		start := GestureStart{Op: canvas.OpResize, BoxID: boxID, Handle: canvas.HandleBottomRight, Container: unitContainer}
		return runGesture(ss.canvas, start, canvas.Pointer{X: width - b.Width, Y: height - b.Height}, &out)
	})
	return out, err
}

func runGesture(c *canvas.Canvas, start GestureStart, to canvas.Pointer, out *canvas.Box) (bool, error) {
	if err := beginGesture(c, start); err != nil {
		return false, err
	}
	if _, err := c.Move(to); err != nil {
		_, _ = c.CancelGesture()
		return false, err
	}
	moved, err := c.EndGesture()
	if err != nil {
		return false, err
	}
	*out, err = c.Box(start.BoxID)
	return moved, err
}
