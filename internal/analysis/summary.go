package analysis

import (
	"path/filepath"
	"strings"

	"github.com/starford/onepage/internal/canvas"
	"github.com/starford/onepage/internal/models"
)

// Title is the page title a canvas opened from path starts with.
func Title(path string) string {
	return canvas.DefaultTitle(filepath.Base(path))
}

// FieldCount returns how many content sections of a are populated.
func FieldCount(a *models.Analysis) int {
	n := 0
	for _, s := range []*string{a.Summary, a.CurrentState, a.FutureState} {
		if models.Text(s) != "" {
			n++
		}
	}
	for _, l := range lists(a) {
		if len(*l) > 0 {
			n++
		}
	}
	return n
}

// SearchText flattens every text and list entry of a into one block for
// full-text indexing.
func SearchText(a *models.Analysis) string {
	var parts []string
	for _, s := range []*string{a.Summary, a.CurrentState, a.FutureState} {
		if t := models.Text(s); t != "" {
			parts = append(parts, t)
		}
	}
	for _, l := range lists(a) {
		parts = append(parts, *l...)
	}
	return strings.Join(parts, "\n")
}
