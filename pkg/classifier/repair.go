package classifier

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/adambalm/memento/pkg/models"
)

// ansiPattern matches ANSI escape sequences some drivers leak into responses.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// fencePattern matches markdown code fences with an optional language tag.
var fencePattern = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")

// CleanResponse strips ANSI escapes and code fences from a model response.
func CleanResponse(raw string) string {
	cleaned := ansiPattern.ReplaceAllString(raw, "")
	cleaned = fencePattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// RepairJSON recovers a JSON object from a noisy model response: strip ANSI
// escapes, remove code fences, slice between the first '{' and the last '}',
// then parse into v. Recovers whenever the content contains a single
// top-level object bracketed by stray text.
func RepairJSON(raw string, v any) error {
	cleaned := CleanResponse(raw)

	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object found in response")
	}
	candidate := cleaned[start : end+1]

	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("failed to parse model JSON: %w", err)
	}
	return nil
}

// Assignment is one per-tab classification from pass 1. The model may answer
// with a plain category string (legacy shape) or the fuller auditable record;
// both upcast to the record, with the legacy shape getting defaults.
type Assignment struct {
	Category   string   `json:"category"`
	Signals    []string `json:"signals,omitempty"`
	Confidence string   `json:"confidence,omitempty"`
}

// UnmarshalJSON accepts both assignment shapes.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		a.Category = plain
		a.Signals = nil
		a.Confidence = ""
		return nil
	}

	type record Assignment
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*a = Assignment(rec)
	return nil
}

// pass1Response is the repaired shape of the classify-and-triage pass.
type pass1Response struct {
	Assignments       map[string]Assignment    `json:"assignments"`
	Narrative         string                   `json:"narrative"`
	SessionIntent     string                   `json:"sessionIntent"`
	DeepDive          []models.DeepDiveRequest `json:"deepDive"`
	OverallConfidence string                   `json:"overallConfidence"`
	Uncertainties     []string                 `json:"uncertainties"`
}

// deepDiveResponse is the repaired shape of one pass-2 analysis.
type deepDiveResponse struct {
	Analysis string `json:"analysis"`
}

// mermaidHeader validates that a visualization response starts with a
// Mermaid graph declaration.
var mermaidHeader = regexp.MustCompile(`(?i)^\s*(graph|flowchart)\s+(TB|TD|BT|LR|RL)\b`)

// ValidateMermaid checks the cleaned response for a valid Mermaid header and
// returns the diagram source.
func ValidateMermaid(raw string) (string, error) {
	cleaned := CleanResponse(raw)
	if !mermaidHeader.MatchString(cleaned) {
		return "", fmt.Errorf("response is not a Mermaid graph")
	}
	return cleaned, nil
}
