// Package prompt builds all prompt text for the classification pipeline.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adambalm/memento/pkg/models"
)

// Builder composes the prompts for all four passes. Stateless — all state
// comes from parameters. Thread-safe — no mutable state.
type Builder struct{}

// NewBuilder creates a prompt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// ContextBlock renders the active projects into prompt-visible lines and
// returns the synthesized category labels that extend the base category set.
func (b *Builder) ContextBlock(projects []models.Project) (string, []string) {
	if len(projects) == 0 {
		return "", nil
	}
	var sb strings.Builder
	labels := make([]string, 0, len(projects))
	sb.WriteString("The user's active projects:\n")
	for _, p := range projects {
		label := p.CategoryLabel()
		labels = append(labels, label)
		sb.WriteString(fmt.Sprintf("- %s (keywords: %s) — category label %q\n",
			p.Name, strings.Join(p.Keywords, ", "), label))
	}
	return sb.String(), labels
}

// PreferenceLines renders approved learned rules as guidance lines.
func (b *Builder) PreferenceLines(rules []models.PreferenceRule) string {
	if len(rules) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Learned user preferences (follow these over your own judgment):\n")
	for _, rule := range rules {
		if rule.Domain != "" {
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", rule.Domain, rule.Rule))
		} else {
			sb.WriteString(fmt.Sprintf("- %s\n", rule.Rule))
		}
	}
	return sb.String()
}

// BuildPass1Prompt assembles the classify-and-triage prompt: context block,
// preference lines, the numbered tab list, the category set, the output
// schema, and the special-category policies.
func (b *Builder) BuildPass1Prompt(tabs []models.Tab, contextBlock, preferenceLines string, customCategories []string) string {
	var sb strings.Builder

	sb.WriteString("Classify the following browser tabs from one capture of the user's session.\n\n")

	if contextBlock != "" {
		sb.WriteString(contextBlock)
		sb.WriteString("\n")
	}
	if preferenceLines != "" {
		sb.WriteString(preferenceLines)
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Tabs (%d):\n", len(tabs)))
	for i, tab := range tabs {
		sb.WriteString(fmt.Sprintf("%d. %s | %s\n", i+1, tab.Title, tab.URL))
	}
	sb.WriteString("\n")

	categories := append(append([]string{}, models.BaseCategories...), customCategories...)
	sb.WriteString("Categories: ")
	sb.WriteString(strings.Join(categories, ", "))
	sb.WriteString("\n\n")

	sb.WriteString(specialCategoryPolicies)
	sb.WriteString("\n\n")
	sb.WriteString(pass1FormatInstructions)
	sb.WriteString(fmt.Sprintf("\nThere are %d tabs; assignments must contain keys \"1\" through \"%d\".", len(tabs), len(tabs)))

	return sb.String()
}

// BuildDeepDivePrompt assembles the per-tab deep-dive prompt. Content is
// truncated to 4000 characters.
func (b *Builder) BuildDeepDivePrompt(tab models.Tab, req models.DeepDiveRequest) string {
	content := tab.Content
	if len(content) > 4000 {
		content = content[:4000]
	}
	hints := strings.Join(req.ExtractHints, ", ")
	if hints == "" {
		hints = "none"
	}
	return fmt.Sprintf(deepDiveTemplate, tab.URL, tab.Title, req.Reason, hints, content)
}

// BuildVisualizationPrompt assembles the Mermaid-generation prompt from the
// classified session, including deep-dive outcomes so failures can be styled.
func (b *Builder) BuildVisualizationPrompt(artifact *models.SessionArtifact) string {
	var sb strings.Builder

	sb.WriteString("Session groups:\n")
	for category, items := range artifact.Groups {
		sb.WriteString(fmt.Sprintf("- %s:\n", category))
		for _, item := range items {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", item.TabIndex, item.Title))
		}
	}
	if len(artifact.DeepDiveResults) > 0 {
		sb.WriteString("\nDeep-dive results:\n")
		for _, result := range artifact.DeepDiveResults {
			if result.Error != "" {
				sb.WriteString(fmt.Sprintf("- %s: FAILED (%s)\n", result.Title, result.Error))
			} else {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", result.Title, truncate(result.Analysis, 120)))
			}
		}
	}
	sb.WriteString("\n")
	sb.WriteString(visualizationInstructions)
	return sb.String()
}

// BuildThematicPrompt assembles the pass-4 prompt. The richer project-aware
// shape is used when active projects exist; otherwise the simplified shape.
func (b *Builder) BuildThematicPrompt(artifact *models.SessionArtifact, projects []models.Project) string {
	session := b.sessionDigest(artifact)
	if len(projects) > 0 {
		var pl strings.Builder
		for _, p := range projects {
			pl.WriteString(fmt.Sprintf("- %s (keywords: %s)\n", p.Name, strings.Join(p.Keywords, ", ")))
		}
		return fmt.Sprintf(thematicProjectTemplate, pl.String(), session)
	}
	return fmt.Sprintf(thematicSimpleTemplate, session)
}

// sessionDigest serializes the parts of the artifact the thematic pass needs.
func (b *Builder) sessionDigest(artifact *models.SessionArtifact) string {
	digest := map[string]any{
		"narrative":     artifact.Narrative,
		"sessionIntent": artifact.SessionIntent,
		"groups":        artifact.Groups,
	}
	if len(artifact.DeepDiveResults) > 0 {
		digest["deepDiveResults"] = artifact.DeepDiveResults
	}
	data, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", digest)
	}
	return string(data)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
