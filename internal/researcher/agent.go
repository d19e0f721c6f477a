package researcher

import (
	"context"
	"fmt"

	"scout/internal/llm"
)

// defaultAgent is the persona used when automatic selection fails.
var defaultAgent = agentChoice{
	Server: "Default Agent",
	AgentRolePrompt: "You are a critical-thinking AI research assistant. " +
		"Your sole purpose is to write well written, objective and structured reports on given text.",
}

type agentChoice struct {
	Server          string `json:"server"`
	AgentRolePrompt string `json:"agent_role_prompt"`
}

// chooseAgent classifies the query into a research persona. It never fails:
// any provider or parse failure falls back to the default persona.
func (c *Conductor) chooseAgent(ctx context.Context, query string) agentChoice {
	resp, err := c.strategicLLM.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: c.family.AutoAgentInstructions()},
			{Role: "user", Content: fmt.Sprintf("task: %q", query)},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		c.logger.Warn("agent selection failed, using default persona: %v", err)
		return defaultAgent
	}

	var choice agentChoice
	if err := llm.DecodeJSON(resp.Content, &choice); err != nil || choice.AgentRolePrompt == "" {
		c.logger.Warn("agent selection response unusable, using default persona")
		return defaultAgent
	}
	return choice
}
