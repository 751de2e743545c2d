package export

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var unsafeName = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// Slug turns a page title into a filesystem-safe name: accents folded,
// whitespace runs collapsed to '-', lowercased. Empty titles give "canvas".
func Slug(title string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, title)
	if err != nil {
		folded = title
	}
	name := strings.Join(strings.Fields(strings.ToLower(folded)), "-")
	name = unsafeName.ReplaceAllString(name, "")
	name = strings.Trim(name, "-.")
	if name == "" {
		return "canvas"
	}
	return name
}

// Filename returns the download name for a canvas titled title.
func Filename(title string, f Format) string {
	return Slug(title) + "-strategy." + string(f)
}
