package analysis

import (
	"errors"
	"testing"

	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/models"
)

const samplePayload = `{
  "summary": "  We help teams ship.  ",
  "values": ["Trust", "  ", "Craft"],
  "strategic_goals": null,
  "current_state": "",
  "future_state": "Market leader",
  "priorities": ["Hiring"],
  "confidence_scores": {"summary": 0.9},
  "raw_text_length": 1200,
  "analysis_method": "LLM",
  "filename": "ignored.pdf"
}`

func TestDecode_JSONNormalised(t *testing.T) {
	a, err := Decode([]byte(samplePayload), "acme.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if models.Text(a.Summary) != "We help teams ship." {
		t.Errorf("summary = %q", models.Text(a.Summary))
	}
	if len(a.Values) != 2 || a.Values[0] != "Trust" || a.Values[1] != "Craft" {
		t.Errorf("values = %v", a.Values)
	}
	if a.StrategicGoals == nil || len(a.StrategicGoals) != 0 {
		t.Errorf("strategic goals = %#v, want empty list", a.StrategicGoals)
	}
	if a.CurrentState != nil {
		t.Errorf("blank current state should be absent")
	}
	if a.AnalysisMethod != models.MethodLLM {
		t.Errorf("method = %q", a.AnalysisMethod)
	}
}

func TestDecode_YAML(t *testing.T) {
	input := []byte("summary: Grow\nvalues:\n  - Focus\nenablers: []\n")
	for _, name := range []string{"plan.yaml", "plan.yml", "upload"} {
		a, err := Decode(input, name)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if models.Text(a.Summary) != "Grow" || len(a.Values) != 1 {
			t.Errorf("%s: decoded %+v", name, a)
		}
	}
}

func TestDecode_SniffsJSON(t *testing.T) {
	a, err := Decode([]byte(samplePayload), "blob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Priorities) != 1 {
		t.Errorf("priorities = %v", a.Priorities)
	}
}

func TestDecode_Invalid(t *testing.T) {
	cases := map[string]string{
		"syntax":     `{"summary": `,
		"confidence": `{"confidence_scores": {"summary": 1.5}}`,
		"method":     `{"analysis_method": "guess"}`,
		"length":     `{"raw_text_length": -1}`,
	}
	for name, input := range cases {
		if _, err := Decode([]byte(input), "x.json"); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	a, err := Decode([]byte(samplePayload), "acme.json")
	if err != nil {
		t.Fatal(err)
	}
	data, err := Encode(a)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Decode(data, "acme.json")
	if err != nil {
		t.Fatal(err)
	}
	if SearchText(a) != SearchText(b) || FieldCount(a) != FieldCount(b) {
		t.Errorf("round trip changed the payload")
	}
}

func TestFieldCountAndSearchText(t *testing.T) {
	a, err := Decode([]byte(samplePayload), "acme.json")
	if err != nil {
		t.Fatal(err)
	}
	// summary, future_state, values, priorities
	if got := FieldCount(a); got != 4 {
		t.Errorf("FieldCount = %d, want 4", got)
	}
	want := "We help teams ship.\nMarket leader\nTrust\nCraft\nHiring"
	if got := SearchText(a); got != want {
		t.Errorf("SearchText = %q, want %q", got, want)
	}
}

func TestIsAnalysisFileAndTitle(t *testing.T) {
	if !IsAnalysisFile("a/b.YAML") || IsAnalysisFile("notes.md") {
		t.Error("IsAnalysisFile mismatch")
	}
	if got := Title("plans/acme_strategy-2025.json"); got != "acme strategy 2025" {
		t.Errorf("Title = %q", got)
	}
}
