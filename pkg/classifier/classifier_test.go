package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adambalm/memento/pkg/config"
	"github.com/adambalm/memento/pkg/llm"
	"github.com/adambalm/memento/pkg/models"
)

// scriptedRunner returns canned responses in order and records prompts.
// Safe for the concurrent calls the deep-dive pass makes.
type scriptedRunner struct {
	mu        sync.Mutex
	responses []scripted
	calls     int
	prompts   []string
}

type scripted struct {
	text  string
	usage *llm.Usage
	err   error
}

func (s *scriptedRunner) RunModel(_ context.Context, _, prompt string) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.calls >= len(s.responses) {
		return nil, fmt.Errorf("unexpected call %d", s.calls)
	}
	resp := s.responses[s.calls]
	s.calls++
	if resp.err != nil {
		return nil, resp.err
	}
	return &llm.Response{Text: resp.text, Usage: resp.usage}, nil
}

func (s *scriptedRunner) EngineInfo(engineID string) (*llm.EngineInfo, error) {
	return &llm.EngineInfo{Engine: engineID, Model: "test-model", Endpoint: "local"}, nil
}

var testPricing = config.Pricing{InputPerMillion: 1.0, OutputPerMillion: 5.0}

func twoTabs() []models.Tab {
	return []models.Tab{
		{URL: "https://arxiv.org/abs/1", Title: "A paper", Content: "stylometry and authorship"},
		{URL: "https://shop.example/cart", Title: "Cart"},
	}
}

func pass1JSON(assignments string) string {
	return `{"assignments":` + assignments + `,"narrative":"a session","sessionIntent":"research","deepDive":[],"overallConfidence":"high","uncertainties":[]}`
}

func TestClassify_FullPipeline(t *testing.T) {
	runner := &scriptedRunner{responses: []scripted{
		{text: pass1JSON(`{"1":{"category":"Research","signals":["arxiv"],"confidence":"high"},"2":"Shopping"}`),
			usage: &llm.Usage{InputTokens: 1000, OutputTokens: 200}},
		{text: "graph TB\n  subgraph Research\n  t1[A paper]\n  end"},
		{text: `{"thematicThroughlines":["authorship"],"sessionPattern":"focused"}`},
	}}
	c := New(runner, nil, testPricing)

	artifact := c.Classify(context.Background(), twoTabs(), Options{EngineID: "test", Mode: "results"})

	assert.Equal(t, 2, artifact.TotalTabs)
	assert.Equal(t, 2, artifact.ClassifiedCount)
	require.Len(t, artifact.Groups["Research"], 1)
	require.Len(t, artifact.Groups["Shopping"], 1)
	assert.Equal(t, "a session", artifact.Narrative)

	// No deep dives flagged: pass 2 skipped, passes still reach 4.
	assert.Empty(t, artifact.DeepDiveResults)
	assert.Equal(t, 4, artifact.Meta.Passes)
	require.NotNil(t, artifact.Visualization.Mermaid)
	assert.Contains(t, *artifact.Visualization.Mermaid, "graph TB")
	require.NotNil(t, artifact.Thematic)
	assert.Equal(t, "focused", artifact.Thematic.SessionPattern)

	// Usage and cost from the configured unit prices.
	require.NotNil(t, artifact.Meta.Usage)
	assert.Equal(t, 1000, artifact.Meta.Usage.InputTokens)
	require.NotNil(t, artifact.Meta.Cost)
	assert.InDelta(t, 0.001+0.001, artifact.Meta.Cost.Total, 1e-9)

	assert.Equal(t, "test-model", artifact.Meta.Model)
	assert.Equal(t, models.SchemaVersion, artifact.Meta.SchemaVersion)
	assert.Equal(t, "results", artifact.Meta.Mode)
}

// When the model answers for tab 1 only, tab 2 is forced into Unclassified
// and classifiedCount counts only model-assigned tabs.
func TestClassify_MissingAssignmentForcedUnclassified(t *testing.T) {
	runner := &scriptedRunner{responses: []scripted{
		{text: "Here is the JSON: ```json\n" + pass1JSON(`{"1":{"category":"Research","signals":["x"],"confidence":"high"}}`) + "\n```"},
		{text: "graph TB\n t1"},
		{text: `{"sessionPattern":"partial"}`},
	}}
	c := New(runner, nil, testPricing)

	artifact := c.Classify(context.Background(), twoTabs(), Options{EngineID: "test"})

	require.Len(t, artifact.Groups["Research"], 1)
	require.Len(t, artifact.Groups[models.CategoryUnclassified], 1)
	assert.Equal(t, 2, artifact.Groups[models.CategoryUnclassified][0].TabIndex)

	assert.Equal(t, 1, artifact.ClassifiedCount)
	assert.Equal(t, "Unclassified", artifact.Reasoning.PerTab["2"].Category)
}

func TestClassify_Pass1FailureFallsBackToMock(t *testing.T) {
	runner := &scriptedRunner{responses: []scripted{
		{err: errors.New("driver exploded")},
	}}
	c := New(runner, nil, testPricing)

	artifact := c.Classify(context.Background(), twoTabs(), Options{EngineID: "test"})

	assert.Equal(t, "mock", artifact.Meta.Source)
	assert.Equal(t, 2, artifact.ClassifiedCount)
	assert.Equal(t, 1, artifact.Meta.Passes)
	// arxiv URL lands in Research via the pattern table.
	require.NotEmpty(t, artifact.Groups["Research"])
}

func TestClassify_UnparseableResponseFallsBackToMock(t *testing.T) {
	runner := &scriptedRunner{responses: []scripted{
		{text: "I cannot classify these tabs, sorry."},
	}}
	c := New(runner, nil, testPricing)

	artifact := c.Classify(context.Background(), twoTabs(), Options{EngineID: "test"})
	assert.Equal(t, "mock", artifact.Meta.Source)
}

func TestClassify_DeepDiveFailuresRecoverPerTab(t *testing.T) {
	pass1 := `{"assignments":{"1":"Research","2":"Shopping"},"narrative":"n","sessionIntent":"i","deepDive":[{"tabIndex":1,"reason":"dense paper","extractHints":["abstract"]},{"tabIndex":99,"reason":"out of range"},{"tabIndex":2,"reason":"cart"}],"overallConfidence":"high","uncertainties":[]}`
	runner := &scriptedRunner{responses: []scripted{
		{text: pass1},
		{text: `{"analysis":"a close reading"}`},
		{err: errors.New("timeout")},
		{text: "graph TB\n t1"},
		{text: `{"sessionPattern":"mixed"}`},
	}}
	c := New(runner, nil, testPricing)

	artifact := c.Classify(context.Background(), twoTabs(), Options{EngineID: "test"})

	// Out-of-range index skipped; two results, one failed.
	require.Len(t, artifact.DeepDiveResults, 2)
	succeeded := 0
	failed := 0
	for _, result := range artifact.DeepDiveResults {
		if result.Error != "" {
			failed++
		} else {
			succeeded++
			assert.Equal(t, "a close reading", result.Analysis)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 4, artifact.Meta.Passes)
	assert.Equal(t, 1, artifact.Visualization.FailuresVisualized)
}

func TestClassify_InvalidMermaidRecorded(t *testing.T) {
	runner := &scriptedRunner{responses: []scripted{
		{text: pass1JSON(`{"1":"Research","2":"Shopping"}`)},
		{text: "this is prose, not a diagram"},
		{text: `{"sessionPattern":"p"}`},
	}}
	c := New(runner, nil, testPricing)

	artifact := c.Classify(context.Background(), twoTabs(), Options{EngineID: "test"})

	assert.Nil(t, artifact.Visualization.Mermaid)
	assert.NotEmpty(t, artifact.Visualization.Error)
	require.NotNil(t, artifact.Thematic)
	assert.Equal(t, "p", artifact.Thematic.SessionPattern)
}

func TestClassify_ZeroTabs(t *testing.T) {
	runner := &scriptedRunner{}
	c := New(runner, nil, testPricing)

	artifact := c.Classify(context.Background(), []models.Tab{}, Options{EngineID: "test"})

	assert.Equal(t, 0, artifact.TotalTabs)
	assert.Equal(t, 0, artifact.ClassifiedCount)
	assert.Empty(t, artifact.Groups)
	assert.NotNil(t, artifact.Visualization)
	assert.NotNil(t, artifact.Thematic)
	assert.Zero(t, runner.calls, "no model calls for an empty capture")
}

func TestClassify_ProjectContextExtendsCategories(t *testing.T) {
	runner := &scriptedRunner{responses: []scripted{
		{text: pass1JSON(`{"1":{"category":"Project: thesis"},"2":"Shopping"}`)},
		{text: "graph TB\n t1"},
		{text: `{"projectSupport":{"thesis":["https://arxiv.org/abs/1"]},"sessionPattern":"project"}`},
	}}
	c := New(runner, nil, testPricing)

	artifact := c.Classify(context.Background(), twoTabs(), Options{
		EngineID: "test",
		Context: &models.ClassifyContext{ActiveProjects: []models.Project{
			{Name: "thesis", Keywords: []string{"authorship", "stylometry"}},
		}},
	})

	require.Len(t, artifact.Groups["Project: thesis"], 1)
	// The pass-1 prompt carries the project context lines.
	assert.True(t, strings.Contains(runner.prompts[0], "thesis"))
	assert.True(t, strings.Contains(runner.prompts[0], "Project: thesis"))
	// Pass 4 uses the project-aware shape.
	assert.True(t, strings.Contains(runner.prompts[2], "projectSupport"))
}

func TestClassify_DebugModeAttribution(t *testing.T) {
	runner := &scriptedRunner{responses: []scripted{
		{text: pass1JSON(`{"1":"Research","2":"Shopping"}`)},
		{text: "graph TB\n t1"},
		{text: `{"sessionPattern":"p"}`},
	}}
	c := New(runner, nil, testPricing)

	artifact := c.Classify(context.Background(), twoTabs(), Options{
		EngineID:  "test",
		DebugMode: true,
		Context: &models.ClassifyContext{ActiveProjects: []models.Project{
			{Name: "thesis", Keywords: []string{"authorship"}},
		}},
	})

	require.Len(t, artifact.Attribution, 2)
	first := artifact.Attribution[0]
	assert.Equal(t, 1, first.TabIndex)
	assert.Contains(t, strings.Join(first.Chain, " "), "thesis")
	assert.NotEmpty(t, artifact.Trace)
}
