package retrievers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"scout/internal/config"
	"scout/internal/logging"
)

// SearchResult is one retriever hit. Bodies are snippets, not page text.
type SearchResult struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Body  string `json:"body"`
}

// Retriever turns a query into search hits.
type Retriever interface {
	// Search returns up to maxResults hits. Callers must not invoke it
	// with maxResults == 0.
	Search(ctx context.Context, maxResults int) ([]SearchResult, error)

	// Ready reports whether the retriever has the credentials it needs.
	Ready() error
}

// Options carries per-instantiation retriever inputs.
type Options struct {
	Query   string
	Domains []string
	Headers map[string]string
	Config  *config.Config
	Logger  logging.Logger
	Client  *http.Client
}

func (o *Options) httpClient() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	timeout := 15 * time.Second
	if o.Config != nil && o.Config.RetrieverTimeout > 0 {
		timeout = o.Config.RetrieverTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (o *Options) logger() logging.Logger {
	return logging.OrNop(o.Logger)
}

// Factory builds a retriever for one query.
type Factory func(opts Options) Retriever

var registry = map[string]Factory{
	"tavily":     newTavily,
	"serper":     newSerper,
	"google":     newGoogle,
	"serpapi":    newSerpAPI,
	"searchapi":  newSearchAPI,
	"bing":       newBing,
	"exa":        newExa,
	"searx":      newSearx,
	"duckduckgo": newDuckDuckGo,
	"pubmed":     newPubMed,
	"custom":     newCustom,
}

// IsMCP reports whether name denotes the MCP pseudo-retriever. MCP does not
// produce URLs for scraping and is orchestrated separately.
func IsMCP(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "mcp")
}

// Build instantiates the named retriever. MCP has no factory here.
func Build(name string, opts Options) (Retriever, error) {
	if IsMCP(name) {
		return nil, fmt.Errorf("retriever %q is not a web retriever", name)
	}
	factory, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown retriever %q", name)
	}
	return factory(opts), nil
}

// Names returns the registered web retriever names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// domainQuery appends site: operators for retrievers without a native
// domain-filter parameter.
func domainQuery(query string, domains []string) string {
	if len(domains) == 0 {
		return query
	}
	parts := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = strings.TrimSpace(d); d != "" {
			parts = append(parts, "site:"+d)
		}
	}
	if len(parts) == 0 {
		return query
	}
	return query + " " + strings.Join(parts, " OR ")
}

func missingCredential(name, envKey string) error {
	return fmt.Errorf("retriever %s: missing credential %s", name, envKey)
}

// capResults trims to maxResults; APIs sometimes return more than asked.
func capResults(results []SearchResult, maxResults int) []SearchResult {
	if maxResults > 0 && len(results) > maxResults {
		return results[:maxResults]
	}
	return results
}

func clampResults(n int) int {
	if n < 1 {
		return 1
	}
	if n > 20 {
		return 20
	}
	return n
}
