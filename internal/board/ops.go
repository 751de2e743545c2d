package board

import (
	"github.com/starford/onepage/internal/canvas"
)

// AddBox appends a new text box to the canvas.
func (s *Service) AddBox(id string) (canvas.Box, error) {
	var out canvas.Box
	err := s.update(id, "add_box", func(ss *Session) (bool, error) {
		out = ss.canvas.AddBox()
		ss.editor.Refresh()
		return true, nil
	})
	return out, err
}

// UpdateBox applies a partial update to a box.
func (s *Service) UpdateBox(id, boxID string, p canvas.Patch) (canvas.Box, error) {
	var out canvas.Box
	err := s.update(id, "update_box", func(ss *Session) (bool, error) {
		b, err := ss.canvas.UpdateBox(boxID, p)
		if err != nil {
			return false, err
		}
		out = b
		ss.editor.Refresh()
		return true, nil
	})
	return out, err
}

// SetVisible hides or restores a box.
func (s *Service) SetVisible(id, boxID string, visible bool) (canvas.Box, error) {
	var out canvas.Box
	err := s.update(id, "visibility", func(ss *Session) (bool, error) {
		before, err := ss.canvas.Box(boxID)
		if err != nil {
			return false, err
		}
		out, err = ss.canvas.SetVisible(boxID, visible)
		if err != nil {
			return false, err
		}
		return before.Visible != visible, nil
	})
	return out, err
}

// SetText replaces the body of a text box and reports whether it turned into
// a list.
func (s *Service) SetText(id, boxID, text string) (bool, error) {
	var converted bool
	err := s.update(id, "text", func(ss *Session) (bool, error) {
		var err error
		converted, err = ss.canvas.SetText(boxID, text)
		if err != nil {
			return false, err
		}
		ss.editor.Refresh()
		return true, nil
	})
	return converted, err
}

// Paste inserts a clipboard fragment, HTML or plain text, into a text box body
// at a rune offset of the body's current value.
func (s *Service) Paste(id, boxID, current string, offset int, fragment string) (bool, error) {
	var converted bool
	err := s.update(id, "paste", func(ss *Session) (bool, error) {
		var err error
		converted, err = ss.canvas.InsertText(boxID, current, offset, canvas.PlainText(fragment))
		if err != nil {
			return false, err
		}
		ss.editor.Refresh()
		return true, nil
	})
	return converted, err
}

// CommitItem stores the final value of a list item and returns it as stored.
func (s *Service) CommitItem(id, boxID string, idx int, value string) (string, error) {
	var out string
	err := s.update(id, "item", func(ss *Session) (bool, error) {
		var err error
		out, err = ss.canvas.CommitItem(boxID, idx, value)
		if err != nil {
			return false, err
		}
		ss.editor.Refresh()
		return true, nil
	})
	return out, err
}

// SplitItem handles Enter inside a list item.
func (s *Service) SplitItem(id, boxID string, idx int, current string, from, to int) (canvas.Caret, error) {
	var caret canvas.Caret
	err := s.update(id, "split_item", func(ss *Session) (bool, error) {
		var err error
		caret, err = ss.canvas.SplitItem(boxID, idx, current, from, to)
		if err != nil {
			return false, err
		}
		ss.editor.Refresh()
		return true, nil
	})
	return caret, err
}

// BackspaceItem handles Backspace inside a list item.
func (s *Service) BackspaceItem(id, boxID string, idx int, current string) (canvas.Caret, bool, error) {
	var (
		caret   canvas.Caret
		removed bool
	)
	err := s.update(id, "backspace_item", func(ss *Session) (bool, error) {
		var err error
		caret, removed, err = ss.canvas.BackspaceItem(boxID, idx, current)
		if err != nil || !removed {
			return false, err
		}
		ss.editor.Refresh()
		return true, nil
	})
	return caret, removed, err
}

// SelectAll returns the selection spanning every item of a list.
func (s *Service) SelectAll(id, boxID string, idx int) (canvas.Selection, error) {
	ss, err := s.session(id)
	if err != nil {
		return canvas.Selection{}, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.canvas.SelectAll(boxID, idx)
}

// SetTitle changes the page title.
func (s *Service) SetTitle(id, title string) error {
	return s.update(id, "title", func(ss *Session) (bool, error) {
		if ss.canvas.Title() == title {
			return false, nil
		}
		ss.canvas.SetTitle(title)
		return true, nil
	})
}

// SetDarkMode switches dark mode and remaps box themes.
func (s *Service) SetDarkMode(id string, on bool) error {
	return s.update(id, "dark_mode", func(ss *Session) (bool, error) {
		return ss.canvas.SetDarkMode(on), nil
	})
}

// SetFontSize selects a font-size index, clamped to the valid range, and
// returns the index in effect.
func (s *Service) SetFontSize(id string, idx int) (int, error) {
	var out int
	err := s.update(id, "font_size", func(ss *Session) (bool, error) {
		before := ss.canvas.FontSize()
		out = ss.canvas.SetFontSize(idx)
		return out != before, nil
	})
	return out, err
}

// StepFontSize moves the font-size index by delta steps.
func (s *Service) StepFontSize(id string, delta int) (int, error) {
	var out int
	err := s.update(id, "font_size", func(ss *Session) (bool, error) {
		before := ss.canvas.FontSize()
		out = ss.canvas.SetFontSize(before + delta)
		return out != before, nil
	})
	return out, err
}
