package classifier

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/adambalm/memento/pkg/models"
)

// pass2Concurrency bounds how many deep-dive calls run at once so a large
// flagged set cannot saturate the driver.
const pass2Concurrency = 3

// pass2 runs the deep-dive pass over every flagged tab whose index is in
// range. Per-tab failures are recorded in the result and never abort the
// pass; out-of-range indices are skipped with a warning.
func (c *Classifier) pass2(ctx context.Context, tabs []models.Tab, requests []models.DeepDiveRequest, engineID string, r *run) []models.DeepDiveResult {
	type indexed struct {
		pos int
		req models.DeepDiveRequest
	}
	valid := make([]indexed, 0, len(requests))
	for _, req := range requests {
		if req.TabIndex < 1 || req.TabIndex > len(tabs) {
			slog.Warn("Deep-dive index out of range, skipping", "tabIndex", req.TabIndex)
			continue
		}
		valid = append(valid, indexed{pos: len(valid), req: req})
	}

	results := make([]models.DeepDiveResult, len(valid))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pass2Concurrency)

	for _, entry := range valid {
		g.Go(func() error {
			tab := tabs[entry.req.TabIndex-1]
			result := models.DeepDiveResult{URL: tab.URL, Title: tab.Title}

			promptText := c.prompts.BuildDeepDivePrompt(tab, entry.req)
			resp, err := c.runner.RunModel(gctx, engineID, promptText)
			if err != nil {
				result.Error = err.Error()
				r.addTrace(2, "deep-dive", promptText, "", err.Error())
				results[entry.pos] = result
				return nil
			}
			r.addUsage(resp.Usage)

			var parsed deepDiveResponse
			if err := RepairJSON(resp.Text, &parsed); err != nil {
				result.Error = err.Error()
				r.addTrace(2, "deep-dive", promptText, resp.Text, err.Error())
			} else {
				result.Analysis = parsed.Analysis
				r.addTrace(2, "deep-dive", promptText, resp.Text, "")
			}
			results[entry.pos] = result
			return nil
		})
	}
	// Workers never return errors; Wait only observes context cancellation.
	_ = g.Wait()
	return results
}

// pass3 requests the session Mermaid diagram. A failed call or an invalid
// diagram yields {mermaid: null, error} and the pipeline continues.
func (c *Classifier) pass3(ctx context.Context, artifact *models.SessionArtifact, engineID string, r *run) *models.Visualization {
	failures := 0
	for _, result := range artifact.DeepDiveResults {
		if result.Error != "" {
			failures++
		}
	}
	viz := &models.Visualization{Mermaid: nil, FailuresVisualized: failures}

	promptText := c.prompts.BuildVisualizationPrompt(artifact)
	resp, err := c.runner.RunModel(ctx, engineID, promptText)
	if err != nil {
		viz.Error = err.Error()
		r.addTrace(3, "visualization", promptText, "", err.Error())
		return viz
	}
	r.addUsage(resp.Usage)

	mermaid, err := ValidateMermaid(resp.Text)
	if err != nil {
		viz.Error = err.Error()
		r.addTrace(3, "visualization", promptText, resp.Text, err.Error())
		return viz
	}
	r.addTrace(3, "visualization", promptText, resp.Text, "")
	viz.Mermaid = &mermaid
	return viz
}

// pass4 runs the thematic analysis. It always runs; on any failure it
// returns the empty shape with error set.
func (c *Classifier) pass4(ctx context.Context, artifact *models.SessionArtifact, projects []models.Project, engineID string, r *run) *models.ThematicAnalysis {
	promptText := c.prompts.BuildThematicPrompt(artifact, projects)
	resp, err := c.runner.RunModel(ctx, engineID, promptText)
	if err != nil {
		r.addTrace(4, "thematic", promptText, "", err.Error())
		return &models.ThematicAnalysis{Error: err.Error()}
	}
	r.addUsage(resp.Usage)

	var parsed models.ThematicAnalysis
	if err := RepairJSON(resp.Text, &parsed); err != nil {
		r.addTrace(4, "thematic", promptText, resp.Text, err.Error())
		return &models.ThematicAnalysis{Error: err.Error()}
	}
	r.addTrace(4, "thematic", promptText, resp.Text, "")
	return &parsed
}

// Pass4Only reruns the thematic analysis for an existing artifact. Used by
// the reclassification flow; the rest of the artifact is left untouched.
func (c *Classifier) Pass4Only(ctx context.Context, artifact *models.SessionArtifact, projects []models.Project, engineID string) (*models.ThematicAnalysis, error) {
	r := &run{}
	return c.pass4(ctx, artifact, projects, engineID, r), nil
}
