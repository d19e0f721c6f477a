package researcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scout/internal/llm"
)

// DeepResearch explores a topic recursively: research the query, derive
// follow-up questions from what was learned, and descend until the depth
// budget runs out. The visited set and cost tracker are shared across the
// whole tree, so no URL is fetched twice.
func (c *Conductor) DeepResearch(ctx context.Context, task *Task) (string, error) {
	breadth := c.cfg.DeepResearchBreadth
	depth := c.cfg.DeepResearchDepth
	if breadth <= 0 {
		breadth = 3
	}
	if depth <= 0 {
		depth = 2
	}

	contexts, err := c.deepLevel(ctx, task, task.Query, breadth, depth)
	if err != nil {
		return "", err
	}
	if len(contexts) == 0 {
		return "", ErrNoSources
	}
	joined := strings.Join(contexts, contextJoiner)
	task.setContext(joined)
	c.emitCost()
	return joined, nil
}

func (c *Conductor) deepLevel(ctx context.Context, task *Task, query string, breadth, depth int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	level := &Task{
		Query:        query,
		ParentQuery:  task.Query,
		ReportType:   task.ReportType,
		ReportSource: task.ReportSource,
		Domains:      task.Domains,
		Headers:      task.Headers,
		MCPConfigs:   task.MCPConfigs,
		MCPStrategy:  task.MCPStrategy,
		AgentRole:    task.AgentRole,
	}
	// Share the visited set so the whole tree de-duplicates.
	level.visited = task.visitedURLs()

	levelContext, err := c.researchBySource(ctx, level)
	if err != nil {
		if errors.Is(err, ErrNoSources) {
			return nil, nil
		}
		return nil, err
	}
	contexts := []string{levelContext}

	if depth <= 1 {
		return contexts, nil
	}

	for _, followUp := range c.followUpQueries(ctx, query, levelContext, breadth) {
		sub, err := c.deepLevel(ctx, task, followUp, breadth, depth-1)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, sub...)
	}
	return contexts, nil
}

// followUpQueries derives the next level's questions from the findings so
// far. Failures just stop the descent.
func (c *Conductor) followUpQueries(ctx context.Context, query, findings string, breadth int) []string {
	prompt := fmt.Sprintf(`Given the research query %q and the findings below, list %d follow-up questions that would deepen the research into areas the findings leave open.

Findings:
%s

Respond with a JSON array of question strings only.`, query, breadth, findings)

	resp, err := c.strategicLLM.Complete(ctx, llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		c.logger.Warn("follow-up planning failed: %v", err)
		return nil
	}
	queries, err := llm.DecodeStringArray(resp.Content)
	if err != nil {
		c.logger.Warn("follow-up response unusable: %v", err)
		return nil
	}
	if len(queries) > breadth {
		queries = queries[:breadth]
	}
	return queries
}
