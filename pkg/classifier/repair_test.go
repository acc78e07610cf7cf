package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairJSON_FencedWithProse(t *testing.T) {
	raw := "Here is the JSON: ```json\n{\"assignments\":{\"1\":{\"category\":\"Research\",\"signals\":[\"x\"],\"confidence\":\"high\"}},\"narrative\":\"n\",\"sessionIntent\":\"i\",\"deepDive\":[],\"overallConfidence\":\"high\",\"uncertainties\":[]}\n```"

	var parsed pass1Response
	require.NoError(t, RepairJSON(raw, &parsed))
	require.Contains(t, parsed.Assignments, "1")
	assert.Equal(t, "Research", parsed.Assignments["1"].Category)
	assert.Equal(t, []string{"x"}, parsed.Assignments["1"].Signals)
	assert.Equal(t, "high", parsed.Assignments["1"].Confidence)
	assert.Equal(t, "n", parsed.Narrative)
}

func TestRepairJSON_StripsANSI(t *testing.T) {
	raw := "\x1b[32m{\"analysis\": \"fine\"}\x1b[0m"

	var parsed deepDiveResponse
	require.NoError(t, RepairJSON(raw, &parsed))
	assert.Equal(t, "fine", parsed.Analysis)
}

func TestRepairJSON_BracketedByStrayText(t *testing.T) {
	raw := "Sure! The result:\n{\"analysis\": \"ok\"}\nHope that helps."

	var parsed deepDiveResponse
	require.NoError(t, RepairJSON(raw, &parsed))
	assert.Equal(t, "ok", parsed.Analysis)
}

func TestRepairJSON_NoObject(t *testing.T) {
	var parsed deepDiveResponse
	assert.Error(t, RepairJSON("no json here at all", &parsed))
	assert.Error(t, RepairJSON("} backwards {", &parsed))
}

func TestAssignment_LegacyStringShape(t *testing.T) {
	raw := `{"assignments":{"1":"Shopping","2":{"category":"News","confidence":"low"}}}`

	var parsed pass1Response
	require.NoError(t, RepairJSON(raw, &parsed))
	assert.Equal(t, "Shopping", parsed.Assignments["1"].Category)
	assert.Empty(t, parsed.Assignments["1"].Signals)
	assert.Equal(t, "News", parsed.Assignments["2"].Category)
	assert.Equal(t, "low", parsed.Assignments["2"].Confidence)
}

func TestValidateMermaid(t *testing.T) {
	diagram, err := ValidateMermaid("```mermaid\ngraph TB\n  a --> b\n```")
	require.NoError(t, err)
	assert.Contains(t, diagram, "graph TB")

	_, err = ValidateMermaid("flowchart LR\n  a --> b")
	assert.NoError(t, err)

	// Case-insensitive header.
	_, err = ValidateMermaid("GRAPH td\n a-->b")
	assert.NoError(t, err)

	_, err = ValidateMermaid("Here is a description instead of a diagram")
	assert.Error(t, err)

	_, err = ValidateMermaid("pie title nope")
	assert.Error(t, err)
}
