package researcher

import (
	"context"
	"fmt"
	"strings"

	"scout/internal/llm"
	"scout/internal/prompts"
)

const (
	reportTemperature  = 0.35
	sectionTemperature = 0.25
)

// WriteReport generates the report body for the task from a research
// context. An empty context is a typed error and never reaches the LLM.
// Tokens stream to the subscriber as they arrive.
func (c *Conductor) WriteReport(ctx context.Context, task *Task, researchContext string) (string, error) {
	if strings.TrimSpace(researchContext) == "" {
		return "", fmt.Errorf("%w: cannot write report for %q", ErrEmptyContext, task.Query)
	}

	prompt := c.family.ReportPrompt(task.ReportType, prompts.ReportParams{
		Query:           task.Query,
		ParentQuery:     task.ParentQuery,
		Context:         researchContext,
		ReportFormat:    orDefault(task.ReportFormat, c.cfg.ReportFormat),
		Tone:            task.Tone,
		Language:        task.Language,
		TotalWords:      c.cfg.TotalWords,
		CustomPrompt:    task.CustomPrompt,
		ExistingHeaders: task.Subtopics,
	})
	return c.generate(ctx, task.AgentRole, prompt, reportTemperature)
}

// WriteIntroduction generates the report introduction.
func (c *Conductor) WriteIntroduction(ctx context.Context, task *Task, researchContext string) (string, error) {
	if strings.TrimSpace(researchContext) == "" {
		return "", fmt.Errorf("%w: cannot write introduction for %q", ErrEmptyContext, task.Query)
	}
	return c.generate(ctx, task.AgentRole, c.family.ReportIntroduction(task.Query, researchContext), sectionTemperature)
}

// WriteConclusion generates a conclusion from the already written report.
func (c *Conductor) WriteConclusion(ctx context.Context, task *Task, reportContent string) (string, error) {
	if strings.TrimSpace(reportContent) == "" {
		return "", fmt.Errorf("%w: cannot conclude an empty report", ErrEmptyContext)
	}
	return c.generate(ctx, task.AgentRole, c.family.ReportConclusion(task.Query, reportContent), sectionTemperature)
}

// Subtopics asks for report section subtopics. Failures degrade to the task
// query as the only subtopic.
func (c *Conductor) Subtopics(ctx context.Context, task *Task, researchContext string) []string {
	resp, err := c.strategicLLM.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "user", Content: c.family.SubtopicsPrompt(task.Query, researchContext, c.cfg.MaxSubtopics)},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		c.logger.Warn("subtopic generation failed: %v", err)
		return []string{task.Query}
	}
	subtopics, err := llm.DecodeStringArray(resp.Content)
	if err != nil {
		c.logger.Warn("subtopic response unusable: %v", err)
		return []string{task.Query}
	}
	if len(subtopics) > c.cfg.MaxSubtopics {
		subtopics = subtopics[:c.cfg.MaxSubtopics]
	}
	return subtopics
}

// DraftSectionTitles proposes header titles for a subtopic section.
func (c *Conductor) DraftSectionTitles(ctx context.Context, task *Task, researchContext string) ([]string, error) {
	resp, err := c.strategicLLM.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "user", Content: c.family.DraftTitlesPrompt(task.Query, task.ParentQuery, researchContext)},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return llm.DecodeStringArray(resp.Content)
}

// generate runs the writing ladder: system+user on the smart model, retry
// with a doubled output cap on overflow, then a single concatenated user
// message. Tokens stream through the subscriber as log events.
func (c *Conductor) generate(ctx context.Context, persona, prompt string, temperature float64) (string, error) {
	if persona == "" {
		persona = defaultAgent.AgentRolePrompt
	}
	onDelta := func(delta string) {
		c.streamer.Log("", delta, nil)
	}

	req := llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: persona},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   c.cfg.SmartTokenLimit,
	}
	resp, err := c.smartLLM.StreamComplete(ctx, req, onDelta)
	if err == nil {
		return resp.Content, nil
	}

	if llm.IsOverflow(err) {
		retry := req
		retry.MaxTokens = req.MaxTokens * 2
		if resp, retryErr := c.smartLLM.StreamComplete(ctx, retry, onDelta); retryErr == nil {
			return resp.Content, nil
		}
	}

	// Some providers reject the system role; collapse to one user message.
	c.logger.Warn("system+user generation failed, retrying single-message: %v", err)
	single := llm.Request{
		Messages: []llm.Message{
			{Role: "user", Content: persona + "\n\n" + prompt},
		},
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	}
	resp, err = c.smartLLM.StreamComplete(ctx, single, onDelta)
	if err != nil {
		c.streamer.Error(fmt.Sprintf("report generation failed: %v", err))
		return "", fmt.Errorf("generate report: %w", err)
	}
	return resp.Content, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
