package retrievers

import "context"

type tavily struct {
	opts Options
}

func newTavily(opts Options) Retriever {
	return &tavily{opts: opts}
}

func (t *tavily) Ready() error {
	if t.opts.Config == nil || t.opts.Config.TavilyAPIKey == "" {
		return missingCredential("tavily", "TAVILY_API_KEY")
	}
	return nil
}

func (t *tavily) Search(ctx context.Context, maxResults int) ([]SearchResult, error) {
	if err := t.Ready(); err != nil {
		return nil, err
	}

	body := map[string]any{
		"api_key":      t.opts.Config.TavilyAPIKey,
		"query":        t.opts.Query,
		"max_results":  clampResults(maxResults),
		"search_depth": "basic",
	}
	if len(t.opts.Domains) > 0 {
		body["include_domains"] = t.opts.Domains
	}

	var resp struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	err := postJSON(ctx, t.opts.httpClient(), "https://api.tavily.com/search",
		t.opts.Headers, body, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, SearchResult{Title: r.Title, Href: r.URL, Body: r.Content})
	}
	return capResults(results, maxResults), nil
}
