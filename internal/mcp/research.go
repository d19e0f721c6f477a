package mcp

import (
	"context"
	"fmt"
	"strings"

	"scout/internal/llm"
	"scout/internal/logging"
	"scout/internal/stream"
)

// Research drives one tool-assisted research pass: discover tools, select a
// subset, let the LLM call them, and normalize the results.
type Research struct {
	manager  *Manager
	Selector *Selector
	streamer *stream.Streamer
	logger   logging.Logger

	// LLM drives tool selection and the tool-calling pass. The conductor
	// points this at its strategic-tier client.
	LLM llm.Client

	// PromptFunc overrides the built-in research prompt.
	PromptFunc func(query string, toolNames []string) string
}

func NewResearch(manager *Manager, client llm.Client, streamer *stream.Streamer, logger logging.Logger) *Research {
	logger = logging.OrNop(logger)
	return &Research{
		manager:  manager,
		Selector: NewSelector(client, defaultMaxTools, logger),
		LLM:      client,
		streamer: streamer,
		logger:   logger,
	}
}

// Conduct runs tool research for a query. Per-tool failures are logged and
// skipped; the remaining tools still run. The LLM's own synthesis is
// appended as a final entry.
func (r *Research) Conduct(ctx context.Context, query string) ([]ContextEntry, error) {
	tools, err := r.manager.Tools(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover tools: %w", err)
	}

	selected := r.selectTools(ctx, query, tools)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no tools selected")
	}
	names := make([]string, len(selected))
	for i, tool := range selected {
		names[i] = tool.Name
	}
	r.logger.Info("researching %q with tools: %s", query, strings.Join(names, ", "))
	r.streamer.Log(fmt.Sprintf("Running tool research with: %s", strings.Join(names, ", ")), "", nil)

	prompt := researchPrompt(query, names)
	if r.PromptFunc != nil {
		prompt = r.PromptFunc(query, names)
	}
	resp, err := r.LLM.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
		Temperature: 0,
		Tools:       toolDefinitions(selected),
	})
	if err != nil {
		return nil, fmt.Errorf("tool research call: %w", err)
	}

	byName := make(map[string]ToolSchema, len(selected))
	for _, tool := range selected {
		byName[tool.Name] = tool
	}

	var entries []ContextEntry
	for _, call := range resp.ToolCalls {
		tool, ok := byName[call.Name]
		if !ok {
			r.logger.Warn("model requested unselected tool %s, skipping", call.Name)
			continue
		}
		r.streamer.Tool(call.Name, stream.StageStart, nil)

		payload, err := r.manager.CallTool(ctx, tool, call.Arguments)
		if err != nil {
			r.logger.Warn("tool %s failed: %v", call.Name, err)
			r.streamer.Tool(call.Name, stream.StageComplete, map[string]any{"error": err.Error()})
			continue
		}
		normalized := NormalizeResult(payload, call.Name)
		entries = append(entries, normalized...)
		r.streamer.Tool(call.Name, stream.StageComplete, map[string]any{"results": len(normalized)})
	}

	if analysis := strings.TrimSpace(resp.Content); analysis != "" {
		entries = append(entries, ContextEntry{
			Title:   "LLM analysis",
			URL:     LLMAnalysisURL,
			Content: analysis,
		})
	}
	return entries, nil
}

// selectTools honours a configuration-pinned tool before falling back to LLM
// selection.
func (r *Research) selectTools(ctx context.Context, query string, tools []ToolSchema) []ToolSchema {
	if pinned := r.manager.PinnedTool(); pinned != "" {
		for _, tool := range tools {
			if tool.Name == pinned {
				return []ToolSchema{tool}
			}
		}
		r.logger.Warn("pinned tool %s not found, selecting normally", pinned)
	}
	return r.Selector.Select(ctx, query, tools)
}

func researchPrompt(query string, toolNames []string) string {
	return fmt.Sprintf(`Research the following query using the tools available to you: %s

You have access to these tools: %s

Call whichever tools help answer the query, then summarize what you learned.`,
		query, strings.Join(toolNames, ", "))
}

func toolDefinitions(tools []ToolSchema) []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, len(tools))
	for i, tool := range tools {
		defs[i] = llm.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}
	}
	return defs
}
