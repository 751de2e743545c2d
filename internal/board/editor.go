package board

import (
	"reflect"

	"github.com/starford/onepage/internal/canvas"
)

// FieldView is what the editing client sees in one field.
type FieldView struct {
	Field   canvas.FieldRef `json:"field"`
	Value   string          `json:"value"`
	Focused bool            `json:"focused"`
}

// editorUpdate runs fn against the session's editor. Commits that reach the
// canvas count as an edit; keystrokes held in the focused field do not.
func (s *Service) editorUpdate(id, reason string, fn func(e *canvas.Editor) error) error {
	return s.update(id, reason, func(ss *Session) (bool, error) {
		before := ss.canvas.Snapshot()
		if err := fn(ss.editor); err != nil {
			return false, err
		}
		return !reflect.DeepEqual(before, ss.canvas.Snapshot()), nil
	})
}

// FocusField moves input focus to ref. The previously focused field is
// committed first.
func (s *Service) FocusField(id string, ref canvas.FieldRef) (FieldView, error) {
	var out FieldView
	err := s.editorUpdate(id, "focus", func(e *canvas.Editor) error {
		if err := e.Focus(ref); err != nil {
			return err
		}
		v, err := e.Value(ref)
		out = FieldView{Field: ref, Value: v, Focused: true}
		return err
	})
	return out, err
}

// InputField records what was typed into the focused field and reports
// whether the box turned into a list.
func (s *Service) InputField(id, value string) (bool, error) {
	var converted bool
	err := s.editorUpdate(id, "input", func(e *canvas.Editor) error {
		var err error
		converted, err = e.Input(value)
		return err
	})
	return converted, err
}

// BlurField commits the focused field and drops focus.
func (s *Service) BlurField(id string) error {
	return s.editorUpdate(id, "blur", func(e *canvas.Editor) error {
		return e.Blur()
	})
}

// EnterField splits the focused list item at the rune range [from, to).
func (s *Service) EnterField(id string, from, to int) (canvas.Caret, error) {
	var caret canvas.Caret
	err := s.editorUpdate(id, "split_item", func(e *canvas.Editor) error {
		var err error
		caret, err = e.Enter(from, to)
		return err
	})
	return caret, err
}

// BackspaceField removes the focused list item when it is empty.
func (s *Service) BackspaceField(id string) (canvas.Caret, bool, error) {
	var (
		caret   canvas.Caret
		removed bool
	)
	err := s.editorUpdate(id, "backspace_item", func(e *canvas.Editor) error {
		var err error
		caret, removed, err = e.Backspace()
		return err
	})
	return caret, removed, err
}

// SelectAllField selects every item of the list holding the focused item.
func (s *Service) SelectAllField(id string) (canvas.Selection, error) {
	ss, err := s.session(id)
	if err != nil {
		return canvas.Selection{}, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.editor.SelectAll()
}

// Field returns the editing client's view of ref. A focused field shows what
// was typed; any other field follows the canvas.
func (s *Service) Field(id string, ref canvas.FieldRef) (FieldView, error) {
	ss, err := s.session(id)
	if err != nil {
		return FieldView{}, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.editor.Refresh()
	v, err := ss.editor.Value(ref)
	if err != nil {
		return FieldView{}, err
	}
	focus, ok := ss.editor.Focused()
	return FieldView{Field: ref, Value: v, Focused: ok && focus == ref}, nil
}
