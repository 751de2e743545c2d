// Package canvas implements the strategy-on-a-page canvas: an ordered set of
// positioned boxes with drag, resize, snapping and in-place editing.
//
// Geometry is expressed in percentages of the canvas bounding box so the same
// state renders at any size. A Canvas is not safe for concurrent use; callers
// serialise access (see the board package).
package canvas

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/starford/onepage/internal/apperr"
)

// Kind is the content variant of a box.
type Kind string

// Box kinds.
const (
	KindText Kind = "text"
	KindList Kind = "list"
)

// Box is a positioned, resizable content panel.
type Box struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Kind    Kind     `json:"kind"`
	Content string   `json:"content"`
	Items   []string `json:"items"`
	Visible bool     `json:"visible"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Theme   Theme    `json:"theme"`
}

// Clone returns a deep copy of b.
func (b Box) Clone() Box {
	b.Items = append([]string(nil), b.Items...)
	return b
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.Height }

// DisplayItems returns the list items as shown to the user. An empty list is
// shown as a single empty item so there is always something to type into.
func (b Box) DisplayItems() []string {
	if len(b.Items) == 0 {
		return []string{""}
	}
	return b.Items
}

// Intersects reports whether b and o overlap with a positive area.
func (b Box) Intersects(o Box) bool {
	return b.X < o.Right() && o.X < b.Right() && b.Y < o.Bottom() && o.Y < b.Bottom()
}

// Snapshot is the part of the canvas captured by undo history.
type Snapshot struct {
	Title string `json:"title"`
	Boxes []Box  `json:"boxes"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Title: s.Title, Boxes: cloneBoxes(s.Boxes)}
}

func cloneBoxes(boxes []Box) []Box {
	return lo.Map(boxes, func(b Box, _ int) Box { return b.Clone() })
}

// Patch describes a partial box update. Nil fields are left unchanged.
type Patch struct {
	Title   *string  `json:"title,omitempty"`
	Content *string  `json:"content,omitempty"`
	Items   []string `json:"items,omitempty"`
	Theme   *Theme   `json:"theme,omitempty"`
}

func (p Patch) validate() error {
	if p.Theme != nil && !p.Theme.Valid() {
		return fmt.Errorf("canvas: unknown theme %q: %w", *p.Theme, apperr.ErrInvalid)
	}
	return nil
}
