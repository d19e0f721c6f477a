package mcp

import (
	"context"
	"fmt"
	"strings"

	"scout/internal/llm"
	"scout/internal/logging"
)

// defaultMaxTools caps how many tools the selector hands to the research
// skill.
const defaultMaxTools = 3

// researchVerbs are the keywords the fallback ranker matches against tool
// names and descriptions. A name hit counts three times a description hit.
var researchVerbs = []string{
	"search", "get", "fetch", "find", "list", "query",
	"lookup", "retrieve", "browse", "view", "show", "describe",
}

// Selector picks the tools most relevant to a query.
type Selector struct {
	llm      llm.Client
	maxTools int
	logger   logging.Logger

	// PromptFunc overrides the built-in selection prompt. It receives the
	// query, an indexed tool catalogue, and the selection cap.
	PromptFunc func(query, toolCatalogue string, maxTools int) string
}

func NewSelector(client llm.Client, maxTools int, logger logging.Logger) *Selector {
	if maxTools <= 0 {
		maxTools = defaultMaxTools
	}
	return &Selector{llm: client, maxTools: maxTools, logger: logging.OrNop(logger)}
}

// Select asks the LLM to choose up to maxTools tools by index. Any failure
// along the way degrades to keyword ranking.
func (s *Selector) Select(ctx context.Context, query string, tools []ToolSchema) []ToolSchema {
	if len(tools) <= s.maxTools {
		return tools
	}
	if s.llm == nil {
		return s.fallback(query, tools)
	}

	resp, err := s.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "user", Content: s.selectionPrompt(query, tools)},
		},
		Temperature: 0,
	})
	if err != nil {
		s.logger.Warn("tool selection LLM call failed: %v", err)
		return s.fallback(query, tools)
	}

	var decoded struct {
		SelectedTools []struct {
			Index     int     `json:"index"`
			Relevance float64 `json:"relevance"`
			Rationale string  `json:"rationale"`
		} `json:"selected_tools"`
	}
	if err := llm.DecodeJSON(resp.Content, &decoded); err != nil || len(decoded.SelectedTools) == 0 {
		s.logger.Warn("tool selection response unusable: %v", err)
		return s.fallback(query, tools)
	}

	seen := make(map[int]bool)
	var selected []ToolSchema
	for _, pick := range decoded.SelectedTools {
		if pick.Index < 0 || pick.Index >= len(tools) || seen[pick.Index] {
			continue
		}
		seen[pick.Index] = true
		selected = append(selected, tools[pick.Index])
		if len(selected) == s.maxTools {
			break
		}
	}
	if len(selected) == 0 {
		return s.fallback(query, tools)
	}
	return selected
}

func (s *Selector) selectionPrompt(query string, tools []ToolSchema) string {
	var catalogue strings.Builder
	for i, tool := range tools {
		fmt.Fprintf(&catalogue, "%d. %s: %s\n", i, tool.Name, tool.Description)
	}
	if s.PromptFunc != nil {
		return s.PromptFunc(query, catalogue.String(), s.maxTools)
	}
	return fmt.Sprintf(`You are selecting tools to research the query: %q

Available tools:
%s
Pick at most %d tools that are most useful for researching this query.
Respond with JSON only, in this exact shape:
{"selected_tools": [{"index": <int>, "relevance": <0-10>, "rationale": "<short reason>"}]}`,
		query, catalogue.String(), s.maxTools)
}

// fallback ranks tools by keyword overlap with research verbs.
func (s *Selector) fallback(_ string, tools []ToolSchema) []ToolSchema {
	type scored struct {
		tool  ToolSchema
		score int
		order int
	}
	ranked := make([]scored, 0, len(tools))
	for i, tool := range tools {
		name := strings.ToLower(tool.Name)
		desc := strings.ToLower(tool.Description)
		score := 0
		for _, verb := range researchVerbs {
			if strings.Contains(name, verb) {
				score += 3
			}
			if strings.Contains(desc, verb) {
				score++
			}
		}
		ranked = append(ranked, scored{tool: tool, score: score, order: i})
	}

	// Stable: ties keep catalogue order.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	n := min(s.maxTools, len(ranked))
	out := make([]ToolSchema, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, r.tool)
	}
	return out
}
