// Package analysis decodes, normalises and summarises document-analysis
// payloads stored as JSON or YAML.
package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/models"
)

// Extensions lists the file extensions recognised as analysis payloads.
var Extensions = []string{".json", ".yaml", ".yml"}

// IsAnalysisFile reports whether path has a payload extension.
func IsAnalysisFile(path string) bool {
	return lo.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// Decode parses data according to the extension of name, falling back to
// content sniffing when the extension is unknown. The result is normalised and
// validated.
func Decode(data []byte, name string) (*models.Analysis, error) {
	var a models.Analysis
	var err error
	switch ext := strings.ToLower(filepath.Ext(name)); {
	case ext == ".json":
		err = json.Unmarshal(data, &a)
	case ext == ".yaml" || ext == ".yml":
		err = yaml.Unmarshal(data, &a)
	case looksLikeJSON(data):
		err = json.Unmarshal(data, &a)
	default:
		err = yaml.Unmarshal(data, &a)
	}
	if err != nil {
		return nil, fmt.Errorf("analysis: decode %s: %v: %w", name, err, apperr.ErrInvalid)
	}
	Normalize(&a)
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("analysis: %s: %v: %w", name, err, apperr.ErrInvalid)
	}
	return &a, nil
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

// Encode renders a as indented JSON, the format the library stores.
func Encode(a *models.Analysis) ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("analysis: encode: %w", err)
	}
	return append(data, '\n'), nil
}

// Normalize trims every text, turns blank texts into absent ones, drops
// blank list entries and replaces missing lists with empty ones.
func Normalize(a *models.Analysis) {
	a.Summary = normText(a.Summary)
	a.CurrentState = normText(a.CurrentState)
	a.FutureState = normText(a.FutureState)
	for _, l := range lists(a) {
		*l = normList(*l)
	}
	if a.ConfidenceScores == nil {
		a.ConfidenceScores = map[string]float64{}
	}
	a.AnalysisMethod = strings.ToLower(strings.TrimSpace(a.AnalysisMethod))
}

func lists(a *models.Analysis) []*[]string {
	return []*[]string{
		&a.Values, &a.StrategicGoals, &a.MeasuresOfSuccess,
		&a.Enablers, &a.Opportunities, &a.Priorities,
	}
}

func normText(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func normList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
