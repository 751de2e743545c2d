package canvas

import (
	"fmt"

	"github.com/starford/onepage/internal/apperr"
)

// Part names an editable region of a box.
type Part string

// Editable parts.
const (
	PartTitle Part = "title"
	PartBody  Part = "body"
	PartItem  Part = "item"
)

// FieldRef addresses one editable field on the canvas.
type FieldRef struct {
	BoxID string `json:"box_id"`
	Part  Part   `json:"part"`
	Item  int    `json:"item,omitempty"`
}

// Editor mirrors the editable fields of one editing client. Values typed by
// the client live in the fields until they are committed on blur; external
// changes (undo, redo, reset) reach every field except the focused one.
type Editor struct {
	c      *Canvas
	fields map[FieldRef]*TextField
	focus  *FieldRef
}

// NewEditor returns an editor bound to c.
func NewEditor(c *Canvas) *Editor {
	return &Editor{c: c, fields: make(map[FieldRef]*TextField)}
}

// Focused returns the field holding input focus.
func (e *Editor) Focused() (FieldRef, bool) {
	if e.focus == nil {
		return FieldRef{}, false
	}
	return *e.focus, true
}

// Value returns the client-side value of a field.
func (e *Editor) Value(ref FieldRef) (string, error) {
	f, err := e.field(ref)
	if err != nil {
		return "", err
	}
	return f.Value(), nil
}

// Focus moves input focus to ref, committing the previously focused field.
func (e *Editor) Focus(ref FieldRef) error {
	if e.focus != nil && *e.focus == ref {
		return nil
	}
	f, err := e.field(ref)
	if err != nil {
		return err
	}
	if err := e.Blur(); err != nil {
		return err
	}
	f.Focus()
	e.focus = &ref
	return nil
}

// Input records what the user typed into the focused field. Typing bullet
// lines into a body converts the box to a list right away; everything else
// is committed on blur. It reports whether a conversion happened.
func (e *Editor) Input(value string) (bool, error) {
	f, ref, err := e.focused()
	if err != nil {
		return false, err
	}
	f.Input(value)
	if ref.Part != PartBody {
		return false, nil
	}
	if _, ok := ParseBullets(value); !ok {
		return false, nil
	}
	if _, err := e.c.SetText(ref.BoxID, value); err != nil {
		return false, err
	}
	delete(e.fields, ref)
	e.focus = nil
	e.Refresh()
	return true, nil
}

// Blur commits the focused field, if any, and drops focus.
func (e *Editor) Blur() error {
	if e.focus == nil {
		return nil
	}
	ref := *e.focus
	e.focus = nil
	f, ok := e.fields[ref]
	if !ok {
		return nil
	}
	return f.Blur()
}

// Enter splits the focused list item at the selected rune range and focuses
// the start of the new item.
func (e *Editor) Enter(from, to int) (Caret, error) {
	f, ref, err := e.focused()
	if err != nil {
		return Caret{}, err
	}
	if ref.Part != PartItem {
		return Caret{}, fmt.Errorf("canvas: enter outside a list item: %w", apperr.ErrInvalid)
	}
	caret, err := e.c.SplitItem(ref.BoxID, ref.Item, f.Value(), from, to)
	if err != nil {
		return Caret{}, err
	}
	e.moveFocus(ref.BoxID, caret.Item)
	return caret, nil
}

// Backspace removes the focused list item when it is empty and not the last
// one, then focuses the end of the previous item.
func (e *Editor) Backspace() (Caret, bool, error) {
	f, ref, err := e.focused()
	if err != nil {
		return Caret{}, false, err
	}
	if ref.Part != PartItem {
		return Caret{}, false, nil
	}
	caret, removed, err := e.c.BackspaceItem(ref.BoxID, ref.Item, f.Value())
	if err != nil || !removed {
		return caret, false, err
	}
	e.moveFocus(ref.BoxID, caret.Item)
	return caret, true, nil
}

// SelectAll selects every item of the list holding the focused item.
func (e *Editor) SelectAll() (Selection, error) {
	_, ref, err := e.focused()
	if err != nil {
		return Selection{}, err
	}
	if ref.Part != PartItem {
		return Selection{}, fmt.Errorf("canvas: select all outside a list: %w", apperr.ErrInvalid)
	}
	return e.c.SelectAll(ref.BoxID, ref.Item)
}

// Refresh syncs every field with the canvas. Focused fields keep their value;
// fields whose target is gone are dropped.
func (e *Editor) Refresh() {
	for ref, f := range e.fields {
		v, err := e.c.fieldValue(ref)
		if err != nil {
			delete(e.fields, ref)
			if e.focus != nil && *e.focus == ref {
				e.focus = nil
			}
			continue
		}
		Sync(f, v)
	}
}

// moveFocus drops the stale item fields of a list whose items shifted and
// focuses item idx without committing anything.
func (e *Editor) moveFocus(boxID string, idx int) {
	for ref := range e.fields {
		if ref.BoxID == boxID && ref.Part == PartItem {
			delete(e.fields, ref)
		}
	}
	e.focus = nil
	ref := FieldRef{BoxID: boxID, Part: PartItem, Item: idx}
	if f, err := e.field(ref); err == nil {
		f.Focus()
		e.focus = &ref
	}
}

func (e *Editor) focused() (*TextField, FieldRef, error) {
	if e.focus == nil {
		return nil, FieldRef{}, fmt.Errorf("canvas: no focused field: %w", apperr.ErrInvalid)
	}
	ref := *e.focus
	f, err := e.field(ref)
	if err != nil {
		e.focus = nil
		return nil, FieldRef{}, err
	}
	return f, ref, nil
}

func (e *Editor) field(ref FieldRef) (*TextField, error) {
	if f, ok := e.fields[ref]; ok {
		return f, nil
	}
	v, err := e.c.fieldValue(ref)
	if err != nil {
		return nil, err
	}
	f := NewTextField(v, func(value string) error { return e.c.commitField(ref, value) })
	e.fields[ref] = f
	return f, nil
}

func (c *Canvas) fieldValue(ref FieldRef) (string, error) {
	i, err := c.index(ref.BoxID)
	if err != nil {
		return "", err
	}
	b := c.boxes[i]
	switch ref.Part {
	case PartTitle:
		return b.Title, nil
	case PartBody:
		if b.Kind != KindText {
			return "", fmt.Errorf("canvas: box %q has no body: %w", b.ID, apperr.ErrInvalid)
		}
		return b.Content, nil
	case PartItem:
		items := b.DisplayItems()
		if b.Kind != KindList || ref.Item < 0 || ref.Item >= len(items) {
			return "", fmt.Errorf("canvas: box %q has no item %d: %w", b.ID, ref.Item, apperr.ErrInvalid)
		}
		return Capitalize(items[ref.Item]), nil
	}
	return "", fmt.Errorf("canvas: unknown field part %q: %w", ref.Part, apperr.ErrInvalid)
}

func (c *Canvas) commitField(ref FieldRef, value string) error {
	switch ref.Part {
	case PartTitle:
		_, err := c.UpdateBox(ref.BoxID, Patch{Title: &value})
		return err
	case PartBody:
		_, err := c.SetText(ref.BoxID, value)
		return err
	case PartItem:
		_, err := c.CommitItem(ref.BoxID, ref.Item, value)
		return err
	}
	return fmt.Errorf("canvas: unknown field part %q: %w", ref.Part, apperr.ErrInvalid)
}
