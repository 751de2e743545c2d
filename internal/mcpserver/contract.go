package mcpserver

// AnalysisFormatContract describes the analysis payload that the document
// analyzer produces and that import_analysis accepts.
const AnalysisFormatContract = `# onepage Analysis Format Contract

An analysis is the structured summary of one strategy document. The canvas
lays out one box per populated field. Payloads are JSON (or the same keys in
YAML) and are stored in the library as ` + "`" + `<name>.json` + "`" + `.

## Fields

| Key | Type | Box |
|---|---|---|
| ` + "`" + `summary` + "`" + ` | string or null | Executive summary (always shown, full width) |
| ` + "`" + `values` + "`" + ` | list of strings | Our values |
| ` + "`" + `current_state` + "`" + ` | string or null | Where we are now |
| ` + "`" + `priorities` + "`" + ` | list of strings | Key priorities |
| ` + "`" + `future_state` + "`" + ` | string or null | Our vision |
| ` + "`" + `measures_of_success` + "`" + ` | list of strings | Measures of success |
| ` + "`" + `enablers` + "`" + ` | list of strings | Enablers |
| ` + "`" + `strategic_goals` + "`" + ` | list of strings | Strategic goals |
| ` + "`" + `opportunities` + "`" + ` | list of strings | not laid out |
| ` + "`" + `confidence_scores` + "`" + ` | map of field to number in [0, 1] | not laid out |
| ` + "`" + `raw_text_length` + "`" + ` | integer >= 0 | not laid out |
| ` + "`" + `analysis_method` + "`" + ` | "llm" or "regex" | not laid out |

## Rules

1. Unknown keys are ignored. Missing keys are treated as empty.
2. Text is trimmed; blank text counts as absent.
3. Blank list entries are dropped. A list with no entries left is absent.
4. Confidence scores outside [0, 1] and unknown analysis methods are rejected.
5. The page title comes from the file name: the extension is dropped and
   ` + "`" + `-` + "`" + ` and ` + "`" + `_` + "`" + ` become spaces.

## Example

` + "```" + `json
{
  "summary": "Grow responsibly in three new markets by 2030.",
  "values": ["Trust", "Craft", "Care"],
  "current_state": "Strong home market, little brand awareness abroad.",
  "priorities": ["Open the Lisbon office", "Hire regional leads"],
  "future_state": "The first name customers think of in southern Europe.",
  "measures_of_success": ["30% revenue outside home market"],
  "confidence_scores": {"summary": 0.92, "values": 0.81},
  "raw_text_length": 18342,
  "analysis_method": "llm"
}
` + "```" + `
`
