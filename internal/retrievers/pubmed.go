package retrievers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// pubmed goes through the NCBI E-utilities: esearch for ids, esummary for
// titles. An API key raises the rate limit but is not required.
type pubmed struct {
	opts Options
}

func newPubMed(opts Options) Retriever {
	return &pubmed{opts: opts}
}

func (p *pubmed) Ready() error {
	return nil
}

const eutilsBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

func (p *pubmed) Search(ctx context.Context, maxResults int) ([]SearchResult, error) {
	client := p.opts.httpClient()

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", p.opts.Query)
	params.Set("retmax", fmt.Sprintf("%d", clampResults(maxResults)))
	params.Set("retmode", "json")
	if p.opts.Config != nil && p.opts.Config.NCBIAPIKey != "" {
		params.Set("api_key", p.opts.Config.NCBIAPIKey)
	}

	var searchResp struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	err := getJSON(ctx, client, eutilsBase+"/esearch.fcgi?"+params.Encode(), p.opts.Headers, &searchResp)
	if err != nil {
		return nil, err
	}
	ids := searchResp.ESearchResult.IDList
	if len(ids) == 0 {
		return nil, nil
	}

	sumParams := url.Values{}
	sumParams.Set("db", "pubmed")
	sumParams.Set("id", strings.Join(ids, ","))
	sumParams.Set("retmode", "json")
	if p.opts.Config != nil && p.opts.Config.NCBIAPIKey != "" {
		sumParams.Set("api_key", p.opts.Config.NCBIAPIKey)
	}

	var sumResp struct {
		Result map[string]any `json:"result"`
	}
	err = getJSON(ctx, client, eutilsBase+"/esummary.fcgi?"+sumParams.Encode(), p.opts.Headers, &sumResp)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(ids))
	for _, id := range ids {
		entry, ok := sumResp.Result[id].(map[string]any)
		if !ok {
			continue
		}
		title, _ := entry["title"].(string)
		source, _ := entry["source"].(string)
		pubdate, _ := entry["pubdate"].(string)
		results = append(results, SearchResult{
			Title: title,
			Href:  "https://pubmed.ncbi.nlm.nih.gov/" + id + "/",
			Body:  strings.TrimSpace(source + " " + pubdate),
		})
	}
	return capResults(results, maxResults), nil
}
