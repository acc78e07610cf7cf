package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adambalm/memento/pkg/models"
)

func TestMockClassify_URLHitsOutweighKeywords(t *testing.T) {
	artifact := mockClassify([]models.Tab{
		{URL: "https://github.com/foo/bar", Title: "buy shopping list"},
	})

	// URL hit (3) for Development beats the title keyword "buy" (2) for
	// Shopping.
	require.Len(t, artifact.Groups["Development"], 1)
	assert.Equal(t, 1, artifact.ClassifiedCount)
	assert.Equal(t, "low", artifact.Reasoning.OverallConfidence)
}

func TestMockClassify_FallsBackToOther(t *testing.T) {
	artifact := mockClassify([]models.Tab{
		{URL: "https://unknown.example/xyz", Title: "zzz"},
	})
	require.Len(t, artifact.Groups["Other"], 1)
}

func TestMockClassify_Narrative(t *testing.T) {
	artifact := mockClassify([]models.Tab{
		{URL: "https://github.com/a", Title: "repo a"},
		{URL: "https://github.com/b", Title: "repo b"},
		{URL: "https://youtube.com/watch", Title: "a video"},
	})
	assert.Contains(t, artifact.Narrative, "3 tabs")
	assert.Contains(t, artifact.Narrative, "Development (2)")
}

func TestMockClassify_Scoring(t *testing.T) {
	category, signals := mockCategoryFor(models.Tab{
		URL:     "https://arxiv.org/abs/2401.0001",
		Title:   "A study of authorship",
		Content: "research into stylometric analysis",
	})
	assert.Equal(t, "Research", category)
	assert.NotEmpty(t, signals)
}

func TestMockClassify_EmptyInput(t *testing.T) {
	artifact := mockClassify(nil)
	assert.Zero(t, artifact.TotalTabs)
	assert.Empty(t, artifact.Groups)
	assert.Equal(t, "Empty session.", artifact.Narrative)
}
