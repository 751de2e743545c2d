package canvas

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/onepage/internal/apperr"
)

var (
	bulletLine   = regexp.MustCompile(`^[-*]\s+.`)
	bulletMarker = regexp.MustCompile(`^[-*]\s+`)
)

// Caret is a cursor position inside a list item, in runes.
type Caret struct {
	BoxID  string `json:"box_id"`
	Item   int    `json:"item"`
	Offset int    `json:"offset"`
}

// Selection is a range spanning one or more list items.
type Selection struct {
	Start Caret `json:"start"`
	End   Caret `json:"end"`
}

// ParseBullets reports whether every non-empty line of text is a "- item"
// or "* item" bullet and, if so, returns the items with markers stripped.
func ParseBullets(text string) ([]string, bool) {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !bulletLine.MatchString(line) {
			return nil, false
		}
		items = append(items, bulletMarker.ReplaceAllString(line, ""))
	}
	return items, len(items) > 0
}

// Capitalize upper-cases the first character of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(language.Und).String(string(r)) + s[size:]
}

// splitRunes cuts s around the rune range [from, to). Offsets are clamped.
func splitRunes(s string, from, to int) (string, string) {
	rs := []rune(s)
	from = max(0, min(from, len(rs)))
	to = max(from, min(to, len(rs)))
	return string(rs[:from]), string(rs[to:])
}

func (c *Canvas) boxOfKind(id string, k Kind) (*Box, error) {
	i, err := c.index(id)
	if err != nil {
		return nil, err
	}
	if c.boxes[i].Kind != k {
		return nil, fmt.Errorf("canvas: box %q is a %s box: %w", id, c.boxes[i].Kind, apperr.ErrInvalid)
	}
	return &c.boxes[i], nil
}

func (b *Box) item(idx int) error {
	if len(b.Items) == 0 {
		b.Items = []string{""}
	}
	if idx < 0 || idx >= len(b.Items) {
		return fmt.Errorf("canvas: box %q has no item %d: %w", b.ID, idx, apperr.ErrInvalid)
	}
	return nil
}

// SetText replaces the body of a text box. When every line is a bullet the
// box turns into a list; the change never goes the other way.
func (c *Canvas) SetText(id, text string) (bool, error) {
	b, err := c.boxOfKind(id, KindText)
	if err != nil {
		return false, err
	}
	if items, ok := ParseBullets(text); ok {
		b.Kind = KindList
		b.Items = items
		b.Content = ""
		return true, nil
	}
	b.Content = text
	return false, nil
}

// InsertText inserts plain text into a text box body at a rune offset of the
// current value and applies the bullet conversion to the result.
func (c *Canvas) InsertText(id string, current string, offset int, text string) (bool, error) {
	before, after := splitRunes(current, offset, offset)
	return c.SetText(id, before+text+after)
}

// SetItems replaces the items of a list box.
func (c *Canvas) SetItems(id string, items []string) error {
	b, err := c.boxOfKind(id, KindList)
	if err != nil {
		return err
	}
	b.Items = append([]string(nil), items...)
	if len(b.Items) == 0 {
		b.Items = []string{""}
	}
	return nil
}

// CommitItem stores the final value of a list item, capitalised.
func (c *Canvas) CommitItem(id string, idx int, value string) (string, error) {
	b, err := c.boxOfKind(id, KindList)
	if err != nil {
		return "", err
	}
	if err := b.item(idx); err != nil {
		return "", err
	}
	b.Items[idx] = Capitalize(value)
	return b.Items[idx], nil
}

// SplitItem handles Enter inside item idx. current is the live text of the
// item and [from, to) the selected rune range (from == to for a caret). The
// text after the selection becomes a new item right after idx and the caret
// moves to its start.
func (c *Canvas) SplitItem(id string, idx int, current string, from, to int) (Caret, error) {
	b, err := c.boxOfKind(id, KindList)
	if err != nil {
		return Caret{}, err
	}
	if err := b.item(idx); err != nil {
		return Caret{}, err
	}
	before, after := splitRunes(current, from, to)
	b.Items[idx] = before
	b.Items = slices.Insert(b.Items, idx+1, after)
	return Caret{BoxID: id, Item: idx + 1, Offset: 0}, nil
}

// BackspaceItem handles Backspace in item idx. An empty item is removed when
// it is not the only one, and the caret moves to the end of the previous
// item. It reports whether anything was removed.
func (c *Canvas) BackspaceItem(id string, idx int, current string) (Caret, bool, error) {
	b, err := c.boxOfKind(id, KindList)
	if err != nil {
		return Caret{}, false, err
	}
	if err := b.item(idx); err != nil {
		return Caret{}, false, err
	}
	if current != "" || len(b.Items) <= 1 {
		return Caret{BoxID: id, Item: idx, Offset: 0}, false, nil
	}
	b.Items = slices.Delete(b.Items, idx, idx+1)
	prev := max(idx-1, 0)
	return Caret{BoxID: id, Item: prev, Offset: utf8.RuneCountInString(b.Items[prev])}, true, nil
}

// SelectAll returns the selection covering every item of the list that
// holds item idx.
func (c *Canvas) SelectAll(id string, idx int) (Selection, error) {
	b, err := c.boxOfKind(id, KindList)
	if err != nil {
		return Selection{}, err
	}
	if err := b.item(idx); err != nil {
		return Selection{}, err
	}
	last := len(b.Items) - 1
	return Selection{
		Start: Caret{BoxID: id, Item: 0, Offset: 0},
		End:   Caret{BoxID: id, Item: last, Offset: utf8.RuneCountInString(b.Items[last])},
	}, nil
}
