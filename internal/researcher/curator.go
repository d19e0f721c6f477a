package researcher

import (
	"context"
	"encoding/json"

	"scout/internal/llm"
	"scout/internal/memory"
	"scout/internal/scraper"
)

// curatedSource is the JSON shape exchanged with the curation prompt.
type curatedSource struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// curateSources asks the model to keep the sources that best cover the
// query, preserving their content. Best-effort: any failure returns the
// original set unchanged.
func (c *Conductor) curateSources(ctx context.Context, query string, sources []scraper.Source) []scraper.Source {
	if len(sources) == 0 {
		return sources
	}

	payload := make([]curatedSource, len(sources))
	for i, src := range sources {
		content := src.RawText
		if len(content) > c.cfg.BrowseChunkMaxLength {
			content = content[:c.cfg.BrowseChunkMaxLength]
		}
		payload[i] = curatedSource{URL: src.URL, Title: src.Title, Content: content}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return sources
	}

	resp, err := c.smartLLM.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "user", Content: c.family.CurateSourcesPrompt(query, string(encoded), c.cfg.MaxSearchResultsPerQuery)},
		},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		c.logger.Warn("source curation failed, keeping all sources: %v", err)
		return sources
	}

	var kept []curatedSource
	if err := llm.DecodeJSON(resp.Content, &kept); err != nil || len(kept) == 0 {
		c.logger.Warn("curation response unusable, keeping all sources")
		return sources
	}

	byURL := make(map[string]scraper.Source, len(sources))
	for _, src := range sources {
		byURL[src.URL] = src
	}
	out := make([]scraper.Source, 0, len(kept))
	for _, k := range kept {
		if src, ok := byURL[k.URL]; ok {
			out = append(out, src)
		}
	}
	if len(out) == 0 {
		return sources
	}
	return out
}

// curateAndRecompose runs the curator over the task's scraped sources and
// rebuilds the context from the retained set. If curation changes nothing
// usable, the original context stands.
func (c *Conductor) curateAndRecompose(ctx context.Context, task *Task, original string) string {
	sources := task.Sources()
	kept := c.curateSources(ctx, task.Query, sources)
	if len(kept) == 0 || len(kept) == len(sources) {
		return original
	}

	candidates := make([]memory.Candidate, len(kept))
	for i, src := range kept {
		candidates[i] = memory.Candidate{URL: src.URL, Title: src.Title, Content: src.RawText}
	}
	recomposed := c.ranker.RankAndTrim(ctx, task.Query, candidates)
	if recomposed == "" {
		return original
	}
	return recomposed
}
