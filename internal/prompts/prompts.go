// Package prompts encapsulates every prompt the research pipeline sends to
// an LLM. Prompt text is grouped into families so vendors that need
// different document framing can swap in their own variant without touching
// the pipeline.
package prompts

import "strings"

// ReportParams carries everything a report prompt can reference. Fields not
// relevant to a given report type are ignored.
type ReportParams struct {
	Query        string
	ParentQuery  string
	Context      string
	ReportFormat string
	Tone         string
	Language     string
	TotalWords   int
	CustomPrompt string

	// ExistingHeaders lists section headers already written, so subtopic
	// reports avoid duplicating them.
	ExistingHeaders []string
}

// Family is the strategy object exposing every pipeline prompt. All methods
// return a complete prompt string; output-shape contracts (JSON arrays,
// JSON objects) must hold across families.
type Family interface {
	// SearchQueriesPrompt asks for exactly maxIterations sub-queries as a
	// JSON array of strings.
	SearchQueriesPrompt(query, parentQuery string, maxIterations int) string

	// AutoAgentInstructions asks for a {server, agent_role_prompt} JSON
	// object naming the persona best suited to the topic.
	AutoAgentInstructions() string

	// ReportPrompt builds the main body prompt for a report type.
	ReportPrompt(reportType string, p ReportParams) string

	// CurateSourcesPrompt asks the model to keep the best sources,
	// preserving their content verbatim, returned in the input JSON shape.
	CurateSourcesPrompt(query, sourcesJSON string, maxResults int) string

	// ToolSelectionPrompt asks for up to maxTools tool indices with
	// relevance scores, as a {"selected_tools": [...]} JSON object.
	ToolSelectionPrompt(query, toolCatalogue string, maxTools int) string

	// MCPResearchPrompt instructs a tool-bound model to research a query
	// with the named tools.
	MCPResearchPrompt(query string, toolNames []string) string

	ReportIntroduction(query, context string) string
	ReportConclusion(query, reportContent string) string

	// SubtopicsPrompt asks for at most maxSubtopics subtopic strings as a
	// JSON array.
	SubtopicsPrompt(query, context string, maxSubtopics int) string

	// DraftTitlesPrompt asks for candidate section titles as a JSON array.
	DraftTitlesPrompt(query, parentQuery, context string) string

	// JoinLocalWebDocuments merges a local-document context with a web
	// context, documents first.
	JoinLocalWebDocuments(docContext, webContext string) string
}

// Report type names.
const (
	ResearchReport = "research_report"
	ResourceReport = "resource_report"
	OutlineReport  = "outline_report"
	CustomReport   = "custom_report"
	SubtopicReport = "subtopic_report"
	DeepReport     = "deep"
	MultiAgents    = "multi_agents"
)

// ForModel selects the prompt family for a smart-model identifier. Granite
// models need explicit document-role framing; everything else uses the
// default family.
func ForModel(smartModel string) Family {
	if strings.Contains(strings.ToLower(smartModel), "granite") {
		return &graniteFamily{}
	}
	return &defaultFamily{}
}
