package retrievers

import (
	"context"
	"net/url"
	"strings"
)

// searx queries a self-hosted SearxNG instance with JSON output enabled.
type searx struct {
	opts Options
}

func newSearx(opts Options) Retriever {
	return &searx{opts: opts}
}

func (s *searx) Ready() error {
	if s.opts.Config == nil || s.opts.Config.SearxURL == "" {
		return missingCredential("searx", "SEARX_URL")
	}
	return nil
}

func (s *searx) Search(ctx context.Context, maxResults int) ([]SearchResult, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", domainQuery(s.opts.Query, s.opts.Domains))
	params.Set("format", "json")

	base := strings.TrimRight(s.opts.Config.SearxURL, "/")
	var resp struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	err := getJSON(ctx, s.opts.httpClient(), base+"/search?"+params.Encode(), s.opts.Headers, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, SearchResult{Title: r.Title, Href: r.URL, Body: r.Content})
	}
	return capResults(results, maxResults), nil
}
