package models

import "strconv"

// SchemaVersion is written into meta.schemaVersion at artifact creation and
// never changes afterwards. There is no migration; old artifacts are read
// as-is.
const SchemaVersion = 3

// CategoryUnclassified is the synthetic group that absorbs tabs the model
// failed to assign. Every tab still lands in exactly one group, but forced
// members do not count toward classifiedCount.
const CategoryUnclassified = "Unclassified"

// BaseCategories is the fixed category set offered on every classification.
// Custom project categories are appended per request.
var BaseCategories = []string{
	"Development",
	"Research",
	"Shopping",
	"Social Media",
	"Entertainment",
	"News",
	"Communication",
	"Productivity",
	"Education",
	"Transaction (Protected)",
	"Academic (Synthesis)",
	"Health",
	"Travel",
	"Other",
}

// GroupItem is one classified tab inside a category group.
type GroupItem struct {
	TabIndex int    `json:"tabIndex"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

// ItemID returns the stable identifier dispositions use for this item:
// the URL, or a synthetic tab-<index> when the URL is absent.
func (g GroupItem) ItemID() string {
	if g.URL != "" {
		return g.URL
	}
	return SyntheticItemID(g.TabIndex)
}

// SyntheticItemID builds the fallback item id for a tab without a URL.
func SyntheticItemID(tabIndex int) string {
	return "tab-" + strconv.Itoa(tabIndex)
}

// CategoryTask is a derived suggestion attached to a category group.
type CategoryTask struct {
	Category  string `json:"category"`
	ItemCount int    `json:"itemCount"`
	Action    string `json:"action"`
}

// DeepDiveRequest is a pass-1 flag asking pass 2 to analyze a tab in depth.
type DeepDiveRequest struct {
	TabIndex     int      `json:"tabIndex"`
	Reason       string   `json:"reason"`
	ExtractHints []string `json:"extractHints,omitempty"`
}

// DeepDiveResult records the pass-2 outcome for one flagged tab. Exactly one
// of Analysis / Error is meaningful; per-tab failures never abort the pass.
type DeepDiveResult struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Analysis string `json:"analysis,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Visualization is the pass-3 output: a Mermaid diagram or an error.
type Visualization struct {
	Mermaid            *string `json:"mermaid"`
	Error              string  `json:"error,omitempty"`
	FailuresVisualized int     `json:"failuresVisualized"`
}

// ThematicAnalysis is the pass-4 output.
type ThematicAnalysis struct {
	ProjectSupport       map[string][]string `json:"projectSupport,omitempty"`
	ThematicThroughlines []string            `json:"thematicThroughlines,omitempty"`
	AlternativeNarrative string              `json:"alternativeNarrative,omitempty"`
	HiddenConnection     string              `json:"hiddenConnection,omitempty"`
	SuggestedActions     []string            `json:"suggestedActions,omitempty"`
	SessionPattern       string              `json:"sessionPattern,omitempty"`
	Error                string              `json:"error,omitempty"`
}

// TabReasoning is the per-tab audit record produced by pass 1.
type TabReasoning struct {
	Category   string   `json:"category"`
	Signals    []string `json:"signals,omitempty"`
	Confidence string   `json:"confidence,omitempty"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
}

// Reasoning collects the classification audit trail.
type Reasoning struct {
	PerTab            map[string]TabReasoning `json:"perTab"`
	OverallConfidence string                  `json:"overallConfidence,omitempty"`
	Uncertainties     []string                `json:"uncertainties,omitempty"`
}

// Usage is token accounting as reported by the model driver.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Cost is the dollar estimate derived from Usage at configured unit prices.
type Cost struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
	Total  float64 `json:"total"`
}

// Timing records per-pass and total wall-clock milliseconds.
type Timing struct {
	Pass1 int64 `json:"pass1,omitempty"`
	Pass2 int64 `json:"pass2,omitempty"`
	Pass3 int64 `json:"pass3,omitempty"`
	Pass4 int64 `json:"pass4,omitempty"`
	Total int64 `json:"total"`
}

// Meta describes how the artifact was produced.
type Meta struct {
	SchemaVersion int    `json:"schemaVersion"`
	Engine        string `json:"engine"`
	Model         string `json:"model,omitempty"`
	Endpoint      string `json:"endpoint,omitempty"`
	Passes        int    `json:"passes"`
	Timing        Timing `json:"timing"`
	Usage         *Usage `json:"usage,omitempty"`
	Cost          *Cost  `json:"cost,omitempty"`
	Source        string `json:"source,omitempty"`
	SessionID     string `json:"sessionId,omitempty"`
	Mode          string `json:"mode,omitempty"`
}

// AppliedPreference records a learned rule injected into pass 1 and the tab
// indices it matched, if any.
type AppliedPreference struct {
	RuleID      string `json:"ruleId"`
	Domain      string `json:"domain,omitempty"`
	Rule        string `json:"rule"`
	MatchedTabs []int  `json:"matchedTabs,omitempty"`
}

// AttributionEntry is a debug-mode diagnostic tracing which signals pulled a
// tab toward its category. It never affects the classification itself.
type AttributionEntry struct {
	TabIndex int      `json:"tabIndex"`
	Category string   `json:"category"`
	Chain    []string `json:"chain"`
}

// SessionArtifact is the immutable per-session record. Only dispositions and
// efforts are appended after creation; thematicAnalysis is written once by
// pass 4 (or the standalone reclassification flow).
type SessionArtifact struct {
	Timestamp       string                 `json:"timestamp"`
	TotalTabs       int                    `json:"totalTabs"`
	ClassifiedCount int                    `json:"classifiedCount"`
	Narrative       string                 `json:"narrative,omitempty"`
	SessionIntent   string                 `json:"sessionIntent,omitempty"`
	Groups          map[string][]GroupItem `json:"groups"`
	Tasks           []CategoryTask         `json:"tasks,omitempty"`
	DeepDive        []DeepDiveRequest      `json:"deepDive,omitempty"`
	DeepDiveResults []DeepDiveResult       `json:"deepDiveResults,omitempty"`
	Visualization   *Visualization         `json:"visualization,omitempty"`
	Thematic        *ThematicAnalysis      `json:"thematicAnalysis,omitempty"`
	Reasoning       Reasoning              `json:"reasoning"`
	Meta            Meta                   `json:"meta"`
	Dispositions    []Disposition          `json:"dispositions"`
	Efforts         []Effort               `json:"efforts,omitempty"`
	Preferences     []AppliedPreference    `json:"appliedPreferences,omitempty"`
	Attribution     []AttributionEntry     `json:"attribution,omitempty"`
	Trace           []TraceEntry           `json:"trace,omitempty"`
}

// TraceEntry captures one model exchange when debug mode is on.
type TraceEntry struct {
	Pass     int    `json:"pass"`
	Label    string `json:"label"`
	Prompt   string `json:"prompt"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// FindItem locates a classified item by its disposition itemId, scanning all
// groups. It tries the exact item id first, then URL and title fallbacks used
// by older extension builds.
func (a *SessionArtifact) FindItem(itemID string) (*GroupItem, string, bool) {
	for category, items := range a.Groups {
		for i := range items {
			if items[i].ItemID() == itemID || items[i].URL == itemID || items[i].Title == itemID {
				return &items[i], category, true
			}
		}
	}
	return nil, "", false
}

// SessionSummary is the list()/search() projection of an artifact.
type SessionSummary struct {
	ID             string `json:"id"`
	Timestamp      string `json:"timestamp"`
	TabCount       int    `json:"tabCount"`
	Narrative      string `json:"narrative,omitempty"`
	SessionPattern string `json:"sessionPattern,omitempty"`
}

// SearchHit is a search() result: the summary plus a context window around
// the first match in the serialized artifact.
type SearchHit struct {
	SessionSummary
	Context string `json:"context"`
}
