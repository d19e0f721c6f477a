package retrievers

import (
	"context"
	"fmt"
	"net/url"
)

// google uses the Programmable Search JSON API, which needs both an API key
// and a search engine id (CX).
type google struct {
	opts Options
}

func newGoogle(opts Options) Retriever {
	return &google{opts: opts}
}

func (g *google) Ready() error {
	if g.opts.Config == nil || g.opts.Config.GoogleAPIKey == "" {
		return missingCredential("google", "GOOGLE_API_KEY")
	}
	if g.opts.Config.GoogleCX == "" {
		return missingCredential("google", "GOOGLE_CX_KEY")
	}
	return nil
}

func (g *google) Search(ctx context.Context, maxResults int) ([]SearchResult, error) {
	if err := g.Ready(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("key", g.opts.Config.GoogleAPIKey)
	params.Set("cx", g.opts.Config.GoogleCX)
	params.Set("q", domainQuery(g.opts.Query, g.opts.Domains))
	params.Set("num", fmt.Sprintf("%d", min(clampResults(maxResults), 10)))

	var resp struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	err := getJSON(ctx, g.opts.httpClient(),
		"https://customsearch.googleapis.com/customsearch/v1?"+params.Encode(),
		g.opts.Headers, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, r := range resp.Items {
		results = append(results, SearchResult{Title: r.Title, Href: r.Link, Body: r.Snippet})
	}
	return capResults(results, maxResults), nil
}
