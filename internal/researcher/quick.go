package researcher

import (
	"context"
	"fmt"

	"scout/internal/retrievers"
)

// QuickSearch runs a single search on the first usable retriever, without
// scraping or ranking. Used for lightweight lookups like subtopic seeding.
func (c *Conductor) QuickSearch(ctx context.Context, query string) ([]retrievers.SearchResult, error) {
	if c.cfg.MaxSearchResultsPerQuery == 0 {
		return nil, nil
	}
	for _, name := range c.cfg.Retrievers {
		if retrievers.IsMCP(name) {
			continue
		}
		r, err := c.buildRetriever(name, retrievers.Options{
			Query:  query,
			Config: c.cfg,
			Logger: c.logger,
		})
		if err != nil {
			continue
		}
		if err := r.Ready(); err != nil {
			c.logger.Debug("retriever %s not ready: %v", name, err)
			continue
		}
		results, err := r.Search(ctx, c.cfg.MaxSearchResultsPerQuery)
		if err != nil {
			c.logger.Warn("quick search on %s failed: %v", name, err)
			continue
		}
		return results, nil
	}
	return nil, fmt.Errorf("no usable retriever for quick search")
}
