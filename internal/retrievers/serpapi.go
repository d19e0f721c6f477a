package retrievers

import (
	"context"
	"fmt"
	"net/url"
)

type serpAPI struct {
	opts Options
}

func newSerpAPI(opts Options) Retriever {
	return &serpAPI{opts: opts}
}

func (s *serpAPI) Ready() error {
	if s.opts.Config == nil || s.opts.Config.SerpAPIKey == "" {
		return missingCredential("serpapi", "SERPAPI_API_KEY")
	}
	return nil
}

func (s *serpAPI) Search(ctx context.Context, maxResults int) ([]SearchResult, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("api_key", s.opts.Config.SerpAPIKey)
	params.Set("q", domainQuery(s.opts.Query, s.opts.Domains))
	params.Set("num", fmt.Sprintf("%d", clampResults(maxResults)))

	var resp struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	err := getJSON(ctx, s.opts.httpClient(),
		"https://serpapi.com/search?"+params.Encode(), s.opts.Headers, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		results = append(results, SearchResult{Title: r.Title, Href: r.Link, Body: r.Snippet})
	}
	return capResults(results, maxResults), nil
}
