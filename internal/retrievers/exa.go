package retrievers

import "context"

type exa struct {
	opts Options
}

func newExa(opts Options) Retriever {
	return &exa{opts: opts}
}

func (e *exa) Ready() error {
	if e.opts.Config == nil || e.opts.Config.ExaAPIKey == "" {
		return missingCredential("exa", "EXA_API_KEY")
	}
	return nil
}

func (e *exa) Search(ctx context.Context, maxResults int) ([]SearchResult, error) {
	if err := e.Ready(); err != nil {
		return nil, err
	}

	headers := map[string]string{"x-api-key": e.opts.Config.ExaAPIKey}
	for k, v := range e.opts.Headers {
		headers[k] = v
	}

	body := map[string]any{
		"query":      e.opts.Query,
		"numResults": clampResults(maxResults),
		"contents":   map[string]any{"text": map[string]any{"maxCharacters": 1000}},
	}
	if len(e.opts.Domains) > 0 {
		body["includeDomains"] = e.opts.Domains
	}

	var resp struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Text  string `json:"text"`
		} `json:"results"`
	}
	err := postJSON(ctx, e.opts.httpClient(), "https://api.exa.ai/search", headers, body, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, SearchResult{Title: r.Title, Href: r.URL, Body: r.Text})
	}
	return capResults(results, maxResults), nil
}
