package retrievers

import (
	"context"
	"fmt"
	"net/url"
)

type searchAPI struct {
	opts Options
}

func newSearchAPI(opts Options) Retriever {
	return &searchAPI{opts: opts}
}

func (s *searchAPI) Ready() error {
	if s.opts.Config == nil || s.opts.Config.SearchAPIKey == "" {
		return missingCredential("searchapi", "SEARCHAPI_API_KEY")
	}
	return nil
}

func (s *searchAPI) Search(ctx context.Context, maxResults int) ([]SearchResult, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", domainQuery(s.opts.Query, s.opts.Domains))
	params.Set("num", fmt.Sprintf("%d", clampResults(maxResults)))

	headers := map[string]string{
		"Authorization": "Bearer " + s.opts.Config.SearchAPIKey,
	}
	for k, v := range s.opts.Headers {
		headers[k] = v
	}

	var resp struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	err := getJSON(ctx, s.opts.httpClient(),
		"https://www.searchapi.io/api/v1/search?"+params.Encode(), headers, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		results = append(results, SearchResult{Title: r.Title, Href: r.Link, Body: r.Snippet})
	}
	return capResults(results, maxResults), nil
}
