package retrievers

import (
	"context"
	"net/url"
	"strings"
)

// custom hits a caller-provided search endpoint that returns a JSON array of
// {title, href|url, body|content} objects.
type custom struct {
	opts Options
}

func newCustom(opts Options) Retriever {
	return &custom{opts: opts}
}

func (c *custom) Ready() error {
	if c.opts.Config == nil || c.opts.Config.CustomEndpoint == "" {
		return missingCredential("custom", "RETRIEVER_ENDPOINT")
	}
	return nil
}

func (c *custom) Search(ctx context.Context, maxResults int) ([]SearchResult, error) {
	if err := c.Ready(); err != nil {
		return nil, err
	}

	endpoint := c.opts.Config.CustomEndpoint
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	var items []map[string]any
	err := getJSON(ctx, c.opts.httpClient(),
		endpoint+sep+"query="+url.QueryEscape(c.opts.Query), c.opts.Headers, &items)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(items))
	for _, item := range items {
		href := stringField(item, "href", "url", "link")
		if href == "" {
			continue
		}
		results = append(results, SearchResult{
			Title: stringField(item, "title", "name"),
			Href:  href,
			Body:  stringField(item, "body", "content", "snippet"),
		})
	}
	return capResults(results, maxResults), nil
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
