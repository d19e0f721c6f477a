package retrievers

import "context"

type serper struct {
	opts Options
}

func newSerper(opts Options) Retriever {
	return &serper{opts: opts}
}

func (s *serper) Ready() error {
	if s.opts.Config == nil || s.opts.Config.SerperAPIKey == "" {
		return missingCredential("serper", "SERPER_API_KEY")
	}
	return nil
}

func (s *serper) Search(ctx context.Context, maxResults int) ([]SearchResult, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	headers := map[string]string{"X-API-KEY": s.opts.Config.SerperAPIKey}
	for k, v := range s.opts.Headers {
		headers[k] = v
	}

	var resp struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	err := postJSON(ctx, s.opts.httpClient(), "https://google.serper.dev/search", headers,
		map[string]any{
			"q":   domainQuery(s.opts.Query, s.opts.Domains),
			"num": clampResults(maxResults),
		}, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Organic))
	for _, r := range resp.Organic {
		results = append(results, SearchResult{Title: r.Title, Href: r.Link, Body: r.Snippet})
	}
	return capResults(results, maxResults), nil
}
