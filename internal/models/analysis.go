// Package models defines the domain types for onepage.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Analysis methods reported by the document-analysis collaborator.
const (
	MethodLLM   = "llm"
	MethodRegex = "regex"
)

// Analysis is the structured result produced by the document-analysis
// collaborator for one uploaded strategy document.
type Analysis struct {
	Summary           *string            `json:"summary" yaml:"summary"`
	Values            []string           `json:"values" yaml:"values"`
	StrategicGoals    []string           `json:"strategic_goals" yaml:"strategic_goals"`
	MeasuresOfSuccess []string           `json:"measures_of_success" yaml:"measures_of_success"`
	CurrentState      *string            `json:"current_state" yaml:"current_state"`
	FutureState       *string            `json:"future_state" yaml:"future_state"`
	Enablers          []string           `json:"enablers" yaml:"enablers"`
	Opportunities     []string           `json:"opportunities" yaml:"opportunities"`
	Priorities        []string           `json:"priorities" yaml:"priorities"`
	ConfidenceScores  map[string]float64 `json:"confidence_scores" yaml:"confidence_scores"`
	RawTextLength     int                `json:"raw_text_length" yaml:"raw_text_length"`
	AnalysisMethod    string             `json:"analysis_method,omitempty" yaml:"analysis_method,omitempty"`
}

// Text returns the dereferenced value of an optional text field.
func Text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// AnalysisMetadata is a lightweight representation returned by list operations.
type AnalysisMetadata struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Method    string    `json:"analysis_method,omitempty"`
	Fields    int       `json:"fields"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks confidence scores and the analysis method.
func (a *Analysis) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.ConfidenceScores, validation.Each(validation.Min(0.0), validation.Max(1.0))),
		validation.Field(&a.RawTextLength, validation.Min(0)),
		validation.Field(&a.AnalysisMethod, validation.In(MethodLLM, MethodRegex)),
	)
}
