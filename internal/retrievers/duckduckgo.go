package retrievers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// duckduckgo scrapes the HTML endpoint; no API key required.
type duckduckgo struct {
	opts Options
}

func newDuckDuckGo(opts Options) Retriever {
	return &duckduckgo{opts: opts}
}

func (d *duckduckgo) Ready() error {
	return nil
}

func (d *duckduckgo) Search(ctx context.Context, maxResults int) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("q", domainQuery(d.opts.Query, d.opts.Domains))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://html.duckduckgo.com/html/?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	userAgent := ""
	if d.opts.Config != nil {
		userAgent = d.opts.Config.UserAgent
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	for k, v := range d.opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := d.opts.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var results []SearchResult
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href, _ := link.Attr("href")
		href = resolveRedirect(href)
		if href == "" {
			return true
		}
		results = append(results, SearchResult{
			Title: strings.TrimSpace(link.Text()),
			Href:  href,
			Body:  strings.TrimSpace(sel.Find("a.result__snippet").First().Text()),
		})
		return len(results) < clampResults(maxResults)
	})
	return capResults(results, maxResults), nil
}

// resolveRedirect unwraps the uddg redirect links on the HTML results page.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return href
	}
	return ""
}
