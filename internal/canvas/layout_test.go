package canvas

import (
	"math"
	"testing"

	"github.com/starford/onepage/internal/models"
)

func strPtr(s string) *string { return &s }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestInitialLayout_Scenario(t *testing.T) {
	a := &models.Analysis{
		Summary:      strPtr("S"),
		Values:       []string{"a", "b"},
		CurrentState: strPtr("C"),
	}
	boxes := InitialLayout(a)
	if len(boxes) != 3 {
		t.Fatalf("got %d boxes, want 3", len(boxes))
	}

	summary := boxes[0]
	if summary.ID != SummaryID || summary.Content != "S" || !summary.Visible {
		t.Errorf("summary = %+v", summary)
	}
	if summary.X != 0 || summary.Y != 0 || summary.Width != 100 || summary.Height != 15 {
		t.Errorf("summary geometry = %v,%v %vx%v", summary.X, summary.Y, summary.Width, summary.Height)
	}

	values, current := boxes[1], boxes[2]
	if values.ID != "values" || values.Kind != KindList || len(values.Items) != 2 {
		t.Errorf("values = %+v", values)
	}
	if current.ID != "current" || current.Kind != KindText || current.Content != "C" {
		t.Errorf("current = %+v", current)
	}

	// One row, two columns.
	if !approx(values.Y, current.Y) {
		t.Errorf("boxes not on one row: %v vs %v", values.Y, current.Y)
	}
	if !approx(values.Width, 47) || !approx(values.Height, 78) {
		t.Errorf("cell = %vx%v, want 47x78", values.Width, values.Height)
	}
	if !approx(values.X, 2) || !approx(current.X, 51) || !approx(values.Y, 19) {
		t.Errorf("positions = (%v,%v) (%v,%v)", values.X, values.Y, current.X, current.Y)
	}
}

func TestInitialLayout_AllFields(t *testing.T) {
	a := &models.Analysis{
		Summary:           strPtr("S"),
		Values:            []string{"v"},
		StrategicGoals:    []string{"g"},
		MeasuresOfSuccess: []string{"m"},
		CurrentState:      strPtr("now"),
		FutureState:       strPtr("later"),
		Enablers:          []string{"e"},
		Priorities:        []string{"p"},
		Opportunities:     []string{"ignored"},
	}
	boxes := InitialLayout(a)
	want := []string{"summary", "values", "current", "priorities", "vision", "measures", "enablers", "goals"}
	if len(boxes) != len(want) {
		t.Fatalf("got %d boxes, want %d", len(boxes), len(want))
	}
	for i, id := range want {
		if boxes[i].ID != id {
			t.Errorf("boxes[%d].ID = %q, want %q", i, boxes[i].ID, id)
		}
		if !boxes[i].Visible {
			t.Errorf("box %q not visible", id)
		}
	}

	// Seven boxes use a 4x2 grid that stays inside the canvas without overlap.
	grid := boxes[1:]
	for i, b := range grid {
		if b.X < 0 || b.Right() > 100+1e-9 || b.Y < 17 || b.Bottom() > 100+1e-9 {
			t.Errorf("box %q out of bounds: %+v", b.ID, b)
		}
		for _, o := range grid[i+1:] {
			if b.Intersects(o) {
				t.Errorf("boxes %q and %q overlap", b.ID, o.ID)
			}
		}
	}
}

func TestInitialLayout_EmptyPayload(t *testing.T) {
	boxes := InitialLayout(&models.Analysis{})
	if len(boxes) != 1 {
		t.Fatalf("got %d boxes, want only the summary", len(boxes))
	}
	if boxes[0].ID != SummaryID || boxes[0].Content != "" {
		t.Errorf("summary = %+v", boxes[0])
	}
	if len(InitialLayout(nil)) != 1 {
		t.Error("nil analysis should still give the summary box")
	}
}

func TestGridShape(t *testing.T) {
	tests := []struct {
		n, cols, rows int
	}{
		{1, 1, 1},
		{2, 2, 1},
		{3, 2, 2},
		{4, 2, 2},
		{5, 3, 2},
		{6, 3, 2},
		{7, 4, 2},
	}
	for _, tt := range tests {
		cols, rows := gridShape(tt.n)
		if cols != tt.cols || rows != tt.rows {
			t.Errorf("gridShape(%d) = %d,%d, want %d,%d", tt.n, cols, rows, tt.cols, tt.rows)
		}
	}
}

func TestDefaultTitle(t *testing.T) {
	tests := map[string]string{
		"acme_strategy-2025.pdf": "acme strategy 2025",
		"Plan.docx":              "Plan",
		"dir/our-plan.json":      "our plan",
		"noext":                  "noext",
	}
	for in, want := range tests {
		if got := DefaultTitle(in); got != want {
			t.Errorf("DefaultTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDarkModeRoundTrip(t *testing.T) {
	c := New(&models.Analysis{
		Summary:           strPtr("S"),
		Values:            []string{"v"},
		CurrentState:      strPtr("c"),
		MeasuresOfSuccess: []string{"m"},
		Enablers:          []string{"e"},
	}, "plan.pdf")
	c.AddBox()
	before := c.State()

	if !c.SetDarkMode(true) {
		t.Fatal("SetDarkMode(true) reported no change")
	}
	for _, b := range c.State().Boxes {
		if b.Theme == ThemeGrey {
			t.Errorf("box %q still grey in dark mode", b.ID)
		}
	}
	c.SetDarkMode(false)

	after := c.State()
	for i := range before.Boxes {
		if before.Boxes[i].Theme != after.Boxes[i].Theme {
			t.Errorf("box %q theme = %q, want %q", before.Boxes[i].ID, after.Boxes[i].Theme, before.Boxes[i].Theme)
		}
	}
	if ThemeTeal.Dark() != ThemeTeal || ThemeTeal.Light() != ThemeTeal {
		t.Error("teal must be a fixed point")
	}
}

func TestFontSizeClamped(t *testing.T) {
	c := New(nil, "x.pdf")
	if c.FontSize() != DefaultFontSize {
		t.Fatalf("default font size = %d", c.FontSize())
	}
	if got := c.SetFontSize(9); got != len(FontSizes)-1 {
		t.Errorf("SetFontSize(9) = %d", got)
	}
	if got := c.SetFontSize(-3); got != 0 {
		t.Errorf("SetFontSize(-3) = %d", got)
	}
	if px := c.State().FontPx(); px != 9 {
		t.Errorf("FontPx = %d, want 9", px)
	}
}

func TestDisplayScale(t *testing.T) {
	if got := DisplayScale(450); got != 0.5 {
		t.Errorf("DisplayScale(450) = %v", got)
	}
	if got := DisplayScale(1400); got != 1 {
		t.Errorf("DisplayScale(1400) = %v", got)
	}
}
