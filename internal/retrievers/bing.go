package retrievers

import (
	"context"
	"fmt"
	"net/url"
)

type bing struct {
	opts Options
}

func newBing(opts Options) Retriever {
	return &bing{opts: opts}
}

func (b *bing) Ready() error {
	if b.opts.Config == nil || b.opts.Config.BingAPIKey == "" {
		return missingCredential("bing", "BING_API_KEY")
	}
	return nil
}

func (b *bing) Search(ctx context.Context, maxResults int) ([]SearchResult, error) {
	if err := b.Ready(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", domainQuery(b.opts.Query, b.opts.Domains))
	params.Set("count", fmt.Sprintf("%d", clampResults(maxResults)))

	headers := map[string]string{
		"Ocp-Apim-Subscription-Key": b.opts.Config.BingAPIKey,
	}
	for k, v := range b.opts.Headers {
		headers[k] = v
	}

	var resp struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"value"`
		} `json:"webPages"`
	}
	err := getJSON(ctx, b.opts.httpClient(),
		"https://api.bing.microsoft.com/v7.0/search?"+params.Encode(), headers, &resp)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.WebPages.Value))
	for _, r := range resp.WebPages.Value {
		results = append(results, SearchResult{Title: r.Name, Href: r.URL, Body: r.Snippet})
	}
	return capResults(results, maxResults), nil
}
