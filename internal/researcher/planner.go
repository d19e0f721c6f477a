package researcher

import (
	"context"

	"scout/internal/llm"
	"scout/internal/prompts"
	"scout/internal/retrievers"
)

// planSubQueries expands the task query into search queries. It always
// returns at least the original query: every failure mode along the ladder
// (strategic retry with a larger cap, smart fallback, tolerant parsing)
// degrades rather than errors.
func (c *Conductor) planSubQueries(ctx context.Context, task *Task) []string {
	if c.onlyMCPRetrievers() {
		return []string{task.Query}
	}

	prompt := c.family.SearchQueriesPrompt(task.Query, task.ParentQuery, c.cfg.MaxIterations)
	req := llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.StrategicTokenLimit,
	}

	raw, err := c.planCall(ctx, c.strategicLLM, req)
	if err != nil {
		// One retry with a larger output cap, then the generalist model.
		req.MaxTokens = c.cfg.StrategicTokenLimit * 2
		raw, err = c.planCall(ctx, c.strategicLLM, req)
		if err != nil {
			c.logger.Warn("strategic planner failed twice, falling back to smart model: %v", err)
			req.MaxTokens = c.cfg.SmartTokenLimit
			raw, err = c.planCall(ctx, c.smartLLM, req)
		}
	}
	if err != nil {
		c.logger.Warn("sub-query planning failed, researching the original query only: %v", err)
		return []string{task.Query}
	}

	queries, err := llm.DecodeStringArray(raw)
	if err != nil {
		c.logger.Warn("planner response unusable, researching the original query only: %v", err)
		return []string{task.Query}
	}
	if len(queries) > c.cfg.MaxIterations {
		queries = queries[:c.cfg.MaxIterations]
	}
	return queries
}

func (c *Conductor) planCall(ctx context.Context, client llm.Client, req llm.Request) (string, error) {
	resp, err := client.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *Conductor) onlyMCPRetrievers() bool {
	if len(c.cfg.Retrievers) == 0 {
		return false
	}
	for _, name := range c.cfg.Retrievers {
		if !retrievers.IsMCP(name) {
			return false
		}
	}
	return true
}

// expandPlan appends the original query (except for subtopic reports, whose
// query is already a refinement) and de-duplicates by exact string.
func expandPlan(queries []string, task *Task) []string {
	if task.ReportType != prompts.SubtopicReport {
		queries = append(queries, task.Query)
	}
	seen := make(map[string]bool, len(queries))
	out := queries[:0]
	for _, q := range queries {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}
