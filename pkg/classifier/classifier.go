// Package classifier implements the four-pass LLM classification pipeline:
// classify+triage, per-tab deep dives, session visualization, and thematic
// analysis. Failures in passes 2-4 are recovered locally; a pass-1 failure
// falls back to the deterministic keyword classifier.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/adambalm/memento/pkg/classifier/prompt"
	"github.com/adambalm/memento/pkg/config"
	"github.com/adambalm/memento/pkg/llm"
	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/store"
)

// Classifier orchestrates the pipeline. It is stateless across runs; every
// Classify call produces a fresh artifact.
type Classifier struct {
	runner  llm.Runner
	prompts *prompt.Builder
	prefs   PreferenceSource
	pricing config.Pricing
}

// New creates a classifier. prefs may be nil, in which case no learned rules
// are injected.
func New(runner llm.Runner, prefs PreferenceSource, pricing config.Pricing) *Classifier {
	return &Classifier{
		runner:  runner,
		prompts: prompt.NewBuilder(),
		prefs:   prefs,
		pricing: pricing,
	}
}

// Options parameterize one classification run.
type Options struct {
	EngineID  string
	Context   *models.ClassifyContext
	DebugMode bool
	Mode      string
}

// run tracks accumulated state across passes for one classification.
type run struct {
	artifact *models.SessionArtifact
	usage    *models.Usage
	trace    []models.TraceEntry
	debug    bool
}

func (r *run) addUsage(u *llm.Usage) {
	if u == nil {
		return
	}
	if r.usage == nil {
		r.usage = &models.Usage{}
	}
	r.usage.InputTokens += u.InputTokens
	r.usage.OutputTokens += u.OutputTokens
}

func (r *run) addTrace(pass int, label, promptText, response, errText string) {
	if !r.debug {
		return
	}
	r.trace = append(r.trace, models.TraceEntry{
		Pass:     pass,
		Label:    label,
		Prompt:   promptText,
		Response: response,
		Error:    errText,
	})
}

// Classify runs the full pipeline over the captured tabs and returns the
// session artifact. It never fails outright: an unrecoverable pass-1 error
// yields the mock-fallback classification tagged source="mock" so the store
// view stays consistent.
func (c *Classifier) Classify(ctx context.Context, tabs []models.Tab, opts Options) *models.SessionArtifact {
	started := time.Now()

	var projects []models.Project
	if opts.Context != nil {
		projects = opts.Context.ActiveProjects
	}

	r := &run{debug: opts.DebugMode}

	approved := c.loadPreferences()
	appliedPrefs := matchPreferences(approved, tabs)

	artifact, err := c.pass1(ctx, tabs, projects, approved, opts, r)
	if err != nil {
		slog.Warn("Pass 1 failed, using mock fallback", "error", err)
		artifact = mockClassify(tabs)
		artifact.Meta = c.buildMeta(opts, 1, models.Timing{Total: time.Since(started).Milliseconds()}, nil)
		artifact.Meta.Source = "mock"
		return artifact
	}
	r.artifact = artifact
	artifact.Preferences = appliedPrefs
	c.recordApplications(appliedPrefs)

	timing := models.Timing{Pass1: time.Since(started).Milliseconds()}
	passes := 1

	if len(tabs) > 0 {
		if len(artifact.DeepDive) > 0 {
			passStart := time.Now()
			artifact.DeepDiveResults = c.pass2(ctx, tabs, artifact.DeepDive, opts.EngineID, r)
			timing.Pass2 = time.Since(passStart).Milliseconds()
			passes = 2
		}

		passStart := time.Now()
		artifact.Visualization = c.pass3(ctx, artifact, opts.EngineID, r)
		timing.Pass3 = time.Since(passStart).Milliseconds()
		passes = 3

		passStart = time.Now()
		artifact.Thematic = c.pass4(ctx, artifact, projects, opts.EngineID, r)
		timing.Pass4 = time.Since(passStart).Milliseconds()
		passes = 4
	} else {
		artifact.Visualization = &models.Visualization{Mermaid: nil}
		artifact.Thematic = &models.ThematicAnalysis{}
	}

	if opts.DebugMode {
		artifact.Attribution = buildAttribution(tabs, artifact.Groups, projects)
		artifact.Trace = r.trace
	}

	timing.Total = time.Since(started).Milliseconds()
	artifact.Meta = c.buildMeta(opts, passes, timing, r.usage)
	return artifact
}

// loadPreferences fetches approved rules; failures are warnings, never
// classification errors.
func (c *Classifier) loadPreferences() []models.PreferenceRule {
	if c.prefs == nil {
		return nil
	}
	rules, err := c.prefs.ApprovedRules()
	if err != nil {
		slog.Warn("Failed to load preferences", "error", err)
		return nil
	}
	return rules
}

func (c *Classifier) recordApplications(applied []models.AppliedPreference) {
	if c.prefs == nil {
		return
	}
	var matched []string
	for _, entry := range applied {
		if len(entry.MatchedTabs) > 0 {
			matched = append(matched, entry.RuleID)
		}
	}
	if len(matched) == 0 {
		return
	}
	if err := c.prefs.IncrementApplications(matched); err != nil {
		slog.Warn("Failed to record preference applications", "error", err)
	}
}

// pass1 runs classify-and-triage and assembles the artifact skeleton.
func (c *Classifier) pass1(ctx context.Context, tabs []models.Tab, projects []models.Project, approved []models.PreferenceRule, opts Options, r *run) (*models.SessionArtifact, error) {
	artifact := &models.SessionArtifact{
		Timestamp:    store.NowTimestamp(),
		TotalTabs:    len(tabs),
		Groups:       map[string][]models.GroupItem{},
		Reasoning:    models.Reasoning{PerTab: map[string]models.TabReasoning{}},
		Dispositions: []models.Disposition{},
	}
	if len(tabs) == 0 {
		artifact.Narrative = "Empty session."
		return artifact, nil
	}

	contextBlock, customCategories := c.prompts.ContextBlock(projects)
	preferenceLines := c.prompts.PreferenceLines(approved)
	promptText := c.prompts.BuildPass1Prompt(tabs, contextBlock, preferenceLines, customCategories)

	resp, err := c.runner.RunModel(ctx, opts.EngineID, promptText)
	if err != nil {
		r.addTrace(1, "classify", promptText, "", err.Error())
		return nil, fmt.Errorf("pass 1 model call: %w", err)
	}
	r.addUsage(resp.Usage)

	var parsed pass1Response
	if err := RepairJSON(resp.Text, &parsed); err != nil {
		r.addTrace(1, "classify", promptText, resp.Text, err.Error())
		return nil, fmt.Errorf("pass 1 parse: %w", err)
	}
	r.addTrace(1, "classify", promptText, resp.Text, "")

	artifact.Narrative = parsed.Narrative
	artifact.SessionIntent = parsed.SessionIntent
	artifact.DeepDive = parsed.DeepDive
	artifact.Reasoning.OverallConfidence = parsed.OverallConfidence
	artifact.Reasoning.Uncertainties = parsed.Uncertainties

	var missing []int
	for i, tab := range tabs {
		index := i + 1
		key := strconv.Itoa(index)
		assignment, ok := parsed.Assignments[key]
		category := assignment.Category
		if !ok || category == "" {
			category = models.CategoryUnclassified
			missing = append(missing, index)
		}
		artifact.Groups[category] = append(artifact.Groups[category], models.GroupItem{
			TabIndex: index,
			Title:    tab.Title,
			URL:      tab.URL,
		})
		artifact.Reasoning.PerTab[key] = models.TabReasoning{
			Category:   category,
			Signals:    assignment.Signals,
			Confidence: assignment.Confidence,
			Title:      tab.Title,
			URL:        tab.URL,
		}
	}
	if len(missing) > 0 {
		slog.Warn("Model response missing tab assignments, forced to Unclassified",
			"count", len(missing), "tabs", missing)
	}

	// Tabs forced into the synthetic group were not classified by the model
	// and do not count.
	artifact.ClassifiedCount = len(tabs) - len(missing)
	artifact.Tasks = deriveTasks(artifact.Groups)
	return artifact, nil
}

// categoryActions maps categories to the suggested action attached to their
// derived task entry.
var categoryActions = map[string]string{
	"Development":             "Review open work and close or file issues",
	"Research":                "Capture findings into notes, then close",
	"Shopping":                "Decide: buy, wishlist, or drop",
	"Social Media":            "Close; nothing here needs a tab",
	"Entertainment":           "Queue for later and close",
	"News":                    "Skim headlines and close",
	"Communication":           "Reply or archive, then close",
	"Productivity":            "Fold into your task system",
	"Education":               "Bookmark the course and close",
	"Transaction (Protected)": "Finish the transaction before anything else",
	"Academic (Synthesis)":    "Roll into notes before closing",
	"Health":                  "Act on it or let it go",
	"Travel":                  "Pin bookings, close the rest",
}

func deriveTasks(groups map[string][]models.GroupItem) []models.CategoryTask {
	categories := make([]string, 0, len(groups))
	for category := range groups {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	tasks := make([]models.CategoryTask, 0, len(categories))
	for _, category := range categories {
		action, ok := categoryActions[category]
		if !ok {
			action = "Review and resolve"
		}
		tasks = append(tasks, models.CategoryTask{
			Category:  category,
			ItemCount: len(groups[category]),
			Action:    action,
		})
	}
	return tasks
}

func (c *Classifier) buildMeta(opts Options, passes int, timing models.Timing, usage *models.Usage) models.Meta {
	meta := models.Meta{
		SchemaVersion: models.SchemaVersion,
		Engine:        opts.EngineID,
		Passes:        passes,
		Timing:        timing,
		Mode:          opts.Mode,
	}
	if info, err := c.runner.EngineInfo(opts.EngineID); err == nil {
		meta.Engine = info.Engine
		meta.Model = info.Model
		meta.Endpoint = info.Endpoint
	}
	if usage != nil {
		meta.Usage = usage
		inputCost := float64(usage.InputTokens) / 1e6 * c.pricing.InputPerMillion
		outputCost := float64(usage.OutputTokens) / 1e6 * c.pricing.OutputPerMillion
		meta.Cost = &models.Cost{
			Input:  inputCost,
			Output: outputCost,
			Total:  inputCost + outputCost,
		}
	}
	return meta
}
