package canvas

import (
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/starford/onepage/internal/models"
)

// Grid constants for the initial arrangement below the summary box.
const (
	gridStartY          = 17.0
	gridAvailableHeight = 82.0
	gridGap             = 2.0

	summaryHeight = 15.0
)

// SummaryID is the id of the fixed executive summary box.
const SummaryID = "summary"

// field maps one analysis field to an initial box.
type field struct {
	id    string
	title string
	kind  Kind
	theme Theme
	text  func(a *models.Analysis) string
	items func(a *models.Analysis) []string
}

// fields lists the mapped analysis fields in their preferred order,
// summary excluded.
var fields = []field{
	{id: "values", title: "Our values", kind: KindList, theme: ThemeNavy,
		items: func(a *models.Analysis) []string { return a.Values }},
	{id: "current", title: "Where we are now", kind: KindText, theme: ThemeSkyblue,
		text: func(a *models.Analysis) string { return models.Text(a.CurrentState) }},
	{id: "priorities", title: "Key priorities", kind: KindList, theme: ThemeGrey,
		items: func(a *models.Analysis) []string { return a.Priorities }},
	{id: "vision", title: "Our vision", kind: KindText, theme: ThemeNavy,
		text: func(a *models.Analysis) string { return models.Text(a.FutureState) }},
	{id: "measures", title: "Measures of success", kind: KindList, theme: ThemeTeal,
		items: func(a *models.Analysis) []string { return a.MeasuresOfSuccess }},
	{id: "enablers", title: "Enablers", kind: KindList, theme: ThemeGrey,
		items: func(a *models.Analysis) []string { return a.Enablers }},
	{id: "goals", title: "Strategic goals", kind: KindList, theme: ThemeGrey,
		items: func(a *models.Analysis) []string { return a.StrategicGoals }},
}

func (f field) present(a *models.Analysis) bool {
	if f.kind == KindList {
		return len(f.items(a)) > 0
	}
	return f.text(a) != ""
}

// InitialLayout seeds the canvas from an analysis. The summary box is always
// first; every populated field gets exactly one visible box arranged in an
// even grid beneath it. Callers pass payloads normalised by the analysis
// package, so blank strings and blank list entries are already gone.
func InitialLayout(a *models.Analysis) []Box {
	if a == nil {
		a = &models.Analysis{}
	}
	boxes := []Box{{
		ID:      SummaryID,
		Title:   "Executive summary",
		Kind:    KindText,
		Content: models.Text(a.Summary),
		Items:   []string{},
		Visible: true,
		X:       0,
		Y:       0,
		Width:   100,
		Height:  summaryHeight,
		Theme:   ThemeWhite,
	}}

	active := lo.Filter(fields, func(f field, _ int) bool { return f.present(a) })
	if len(active) == 0 {
		return boxes
	}

	cols, rows := gridShape(len(active))
	boxW := (100 - float64(cols+1)*gridGap) / float64(cols)
	boxH := (gridAvailableHeight - float64(rows+1)*gridGap) / float64(rows)

	for i, f := range active {
		col, row := i%cols, i/cols
		b := Box{
			ID:      f.id,
			Title:   f.title,
			Kind:    f.kind,
			Items:   []string{""},
			Visible: true,
			X:       gridGap + float64(col)*(boxW+gridGap),
			Y:       gridStartY + gridGap + float64(row)*(boxH+gridGap),
			Width:   boxW,
			Height:  boxH,
			Theme:   f.theme,
		}
		if f.kind == KindList {
			b.Items = append([]string(nil), f.items(a)...)
		} else {
			b.Content = f.text(a)
		}
		boxes = append(boxes, b)
	}
	return boxes
}

// gridShape picks the column and row count for n boxes.
func gridShape(n int) (cols, rows int) {
	switch {
	case n <= 2:
		return n, 1
	case n <= 4:
		cols = 2
	case n <= 6:
		cols = 3
	default:
		cols = 4
	}
	return cols, int(math.Ceil(float64(n) / float64(cols)))
}

var titleSeparators = regexp.MustCompile(`[-_]`)

// DefaultTitle derives the page title from the uploaded file name.
func DefaultTitle(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return titleSeparators.ReplaceAllString(stem, " ")
}
