package canvas

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/models"
)

// FontSizes are the body text sizes in pixels selectable by font-size index.
var FontSizes = []int{9, 10, 11, 12, 13, 14}

// TitleFontSizes are the box title sizes, one step larger than the body.
var TitleFontSizes = []int{10, 11, 12, 13, 14, 16}

// DefaultFontSize is the initial font-size index (12px).
const DefaultFontSize = 3

// Limits are the geometric tunables of the canvas.
type Limits struct {
	SnapThreshold float64
	MinWidth      float64
	MinHeight     float64
}

// DefaultLimits returns the stock snap threshold and minimum box size.
func DefaultLimits() Limits {
	return Limits{SnapThreshold: 0.5, MinWidth: 15, MinHeight: 10}
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithLimits overrides the default geometric limits.
func WithLimits(l Limits) Option {
	return func(c *Canvas) {
		c.limits = l
	}
}

// State is a read-only view of the whole canvas.
type State struct {
	Title    string       `json:"title"`
	Boxes    []Box        `json:"boxes"`
	DarkMode bool         `json:"dark_mode"`
	FontSize int          `json:"font_size"`
	Selected string       `json:"selected,omitempty"`
	Gesture  *GestureInfo `json:"gesture,omitempty"`
}

// FontPx returns the body text size in pixels.
func (s State) FontPx() int { return FontSizes[s.FontSize] }

// TitlePx returns the box title size in pixels.
func (s State) TitlePx() int { return TitleFontSizes[s.FontSize] }

// VisibleBoxes returns the boxes that are currently shown.
func (s State) VisibleBoxes() []Box {
	return lo.Filter(s.Boxes, func(b Box, _ int) bool { return b.Visible })
}

// Canvas is the live, mutable canvas for one analysis.
type Canvas struct {
	limits       Limits
	source       *models.Analysis
	defaultTitle string

	title    string
	boxes    []Box
	dark     bool
	fontSize int
	selected string
	gesture  *gesture
}

// New builds a canvas laid out from the analysis. filename seeds the page title.
func New(a *models.Analysis, filename string, opts ...Option) *Canvas {
	c := &Canvas{
		limits:       DefaultLimits(),
		source:       a,
		defaultTitle: DefaultTitle(filename),
		fontSize:     DefaultFontSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.title = c.defaultTitle
	c.boxes = InitialLayout(a)
	return c
}

// Limits returns the geometric limits in effect.
func (c *Canvas) Limits() Limits { return c.limits }

// State returns a deep copy of the canvas.
func (c *Canvas) State() State {
	s := State{
		Title:    c.title,
		Boxes:    cloneBoxes(c.boxes),
		DarkMode: c.dark,
		FontSize: c.fontSize,
		Selected: c.selected,
	}
	if info, ok := c.Gesture(); ok {
		s.Gesture = &info
	}
	return s
}

// Snapshot returns the history-relevant part of the canvas. A box under an
// active gesture is recorded at the geometry it had when the gesture began.
func (c *Canvas) Snapshot() Snapshot {
	s := Snapshot{Title: c.title, Boxes: cloneBoxes(c.boxes)}
	if g := c.gesture; g != nil {
		for i := range s.Boxes {
			if s.Boxes[i].ID == g.boxID {
				b := &s.Boxes[i]
				b.X, b.Y, b.Width, b.Height = g.origin.X, g.origin.Y, g.origin.Width, g.origin.Height
			}
		}
	}
	return s
}

// Restore replaces boxes and title with a copy of s. Any active gesture is
// dropped because it may refer to a box that no longer exists.
func (c *Canvas) Restore(s Snapshot) {
	s = s.Clone()
	c.title = s.Title
	c.boxes = s.Boxes
	c.gesture = nil
	if _, err := c.index(c.selected); err != nil {
		c.selected = ""
	}
}

// Reset recomputes the initial layout and title from the source analysis.
// Dark mode and font size are kept; themes follow the current mode.
func (c *Canvas) Reset() {
	c.title = c.defaultTitle
	c.boxes = InitialLayout(c.source)
	if c.dark {
		for i := range c.boxes {
			c.boxes[i].Theme = c.boxes[i].Theme.Dark()
		}
	}
	c.gesture = nil
	c.selected = ""
}

// Source returns the analysis the canvas was laid out from.
func (c *Canvas) Source() *models.Analysis { return c.source }

// Title returns the page title.
func (c *Canvas) Title() string { return c.title }

// SetTitle replaces the page title.
func (c *Canvas) SetTitle(title string) { c.title = title }

// DarkMode reports whether dark mode is on.
func (c *Canvas) DarkMode() bool { return c.dark }

// SetDarkMode switches dark mode and remaps every box theme. It reports
// whether anything changed.
func (c *Canvas) SetDarkMode(on bool) bool {
	if on == c.dark {
		return false
	}
	c.dark = on
	for i := range c.boxes {
		if on {
			c.boxes[i].Theme = c.boxes[i].Theme.Dark()
		} else {
			c.boxes[i].Theme = c.boxes[i].Theme.Light()
		}
	}
	return true
}

// FontSize returns the current font-size index.
func (c *Canvas) FontSize() int { return c.fontSize }

// SetFontSize sets the font-size index, clamped to the available steps, and
// returns the index in effect.
func (c *Canvas) SetFontSize(idx int) int {
	c.fontSize = lo.Clamp(idx, 0, len(FontSizes)-1)
	return c.fontSize
}

// Box returns a copy of the box with the given id.
func (c *Canvas) Box(id string) (Box, error) {
	i, err := c.index(id)
	if err != nil {
		return Box{}, err
	}
	return c.boxes[i].Clone(), nil
}

func (c *Canvas) index(id string) (int, error) {
	_, i, ok := lo.FindIndexOf(c.boxes, func(b Box) bool { return b.ID == id })
	if !ok {
		return -1, fmt.Errorf("canvas: box %q: %w", id, apperr.ErrNotFound)
	}
	return i, nil
}

// AddBox appends a new empty text box and returns it.
func (c *Canvas) AddBox() Box {
	theme := ThemeGrey
	if c.dark {
		theme = theme.Dark()
	}
	b := Box{
		ID:      "custom-" + uuid.NewString(),
		Title:   "New box",
		Kind:    KindText,
		Items:   []string{},
		Visible: true,
		X:       5,
		Y:       5,
		Width:   25,
		Height:  20,
		Theme:   theme,
	}
	c.boxes = append(c.boxes, b)
	return b.Clone()
}

// UpdateBox applies a partial update to a box. Content applies to text boxes
// and items to list boxes only; an empty item list keeps one blank item.
func (c *Canvas) UpdateBox(id string, p Patch) (Box, error) {
	if err := p.validate(); err != nil {
		return Box{}, err
	}
	i, err := c.index(id)
	if err != nil {
		return Box{}, err
	}
	b := &c.boxes[i]
	if p.Content != nil && b.Kind != KindText {
		return Box{}, fmt.Errorf("canvas: box %q is a list, set items instead of content: %w", id, apperr.ErrInvalid)
	}
	if p.Items != nil && b.Kind != KindList {
		return Box{}, fmt.Errorf("canvas: box %q is a text box, set content instead of items: %w", id, apperr.ErrInvalid)
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Content != nil {
		b.Content = *p.Content
	}
	if p.Items != nil {
		b.Items = append([]string(nil), p.Items...)
		if len(b.Items) == 0 {
			b.Items = []string{""}
		}
	}
	if p.Theme != nil {
		b.Theme = *p.Theme
	}
	return b.Clone(), nil
}

// SetVisible hides or restores a box. Hidden boxes keep their content.
func (c *Canvas) SetVisible(id string, visible bool) (Box, error) {
	i, err := c.index(id)
	if err != nil {
		return Box{}, err
	}
	if !visible && c.gesture != nil && c.gesture.boxID == id {
		c.gesture = nil
	}
	c.boxes[i].Visible = visible
	if !visible && c.selected == id {
		c.selected = ""
	}
	return c.boxes[i].Clone(), nil
}

// Select marks a box as selected. An empty id clears the selection.
func (c *Canvas) Select(id string) error {
	if id == "" {
		c.selected = ""
		return nil
	}
	if _, err := c.index(id); err != nil {
		return err
	}
	c.selected = id
	return nil
}

// Selected returns the selected box id, if any.
func (c *Canvas) Selected() string { return c.selected }
