package researcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"scout/internal/config"
	"scout/internal/llm"
	"scout/internal/logging"
	"scout/internal/mcp"
	"scout/internal/memory"
	"scout/internal/prompts"
	"scout/internal/retrievers"
	"scout/internal/scraper"
	"scout/internal/stream"
)

// contextJoiner separates per-sub-query contexts in the final task context.
const contextJoiner = "\n\n"

// Ranker composes a bounded, relevance-ordered context from candidates.
type Ranker interface {
	RankAndTrim(ctx context.Context, query string, candidates []memory.Candidate) string
}

// ScrapePool fetches a batch of URLs.
type ScrapePool interface {
	Run(ctx context.Context, urls []string) []scraper.Source
}

// ToolResearcher runs one tool-assisted research pass.
type ToolResearcher interface {
	Conduct(ctx context.Context, query string) ([]mcp.ContextEntry, error)
}

// BlobLoader fetches an external document corpus (azure report source).
type BlobLoader interface {
	Load(ctx context.Context) ([]Document, error)
}

// Conductor schedules the research pipeline for one task at a time.
type Conductor struct {
	cfg    *config.Config
	family prompts.Family

	smartLLM     llm.Client
	strategicLLM llm.Client

	ranker   Ranker
	scraper  ScrapePool
	tools    ToolResearcher // nil when no MCP servers are usable
	blobs    BlobLoader     // nil unless the azure source is wired
	streamer *stream.Streamer
	costs    *llm.CostTracker
	logger   logging.Logger

	// buildRetriever is swappable for tests.
	buildRetriever func(name string, opts retrievers.Options) (retrievers.Retriever, error)
}

// Options wires a conductor. Streamer, Tools, Blobs and Logger are optional.
type Options struct {
	Config       *config.Config
	Family       prompts.Family
	SmartLLM     llm.Client
	StrategicLLM llm.Client
	Ranker       Ranker
	Scraper      ScrapePool
	Tools        ToolResearcher
	Blobs        BlobLoader
	Streamer     *stream.Streamer
	Costs        *llm.CostTracker
	Logger       logging.Logger
}

func NewConductor(opts Options) *Conductor {
	family := opts.Family
	if family == nil {
		family = prompts.ForModel(opts.Config.SmartLLM.Model)
	}
	streamer := opts.Streamer
	if streamer == nil {
		streamer = stream.New(nil, opts.Logger)
	}
	return &Conductor{
		cfg:            opts.Config,
		family:         family,
		smartLLM:       opts.SmartLLM,
		strategicLLM:   opts.StrategicLLM,
		ranker:         opts.Ranker,
		scraper:        opts.Scraper,
		tools:          opts.Tools,
		blobs:          opts.Blobs,
		streamer:       streamer,
		costs:          opts.Costs,
		logger:         logging.OrNop(opts.Logger),
		buildRetriever: retrievers.Build,
	}
}

// ConductResearch runs the full pipeline for the task and returns the joined
// context. The context is also stored on the task for report generation.
func (c *Conductor) ConductResearch(ctx context.Context, task *Task) (string, error) {
	task.resetVisited()
	c.logger.Info("starting research %q with retrievers: %s", task.Query, strings.Join(c.cfg.Retrievers, ", "))
	c.streamer.Log(fmt.Sprintf("Starting research for: %s", task.Query), "", nil)

	if task.AgentRole == "" {
		choice := c.chooseAgent(ctx, task.Query)
		task.AgentRole = choice.AgentRolePrompt
		c.streamer.Log(fmt.Sprintf("Agent selected: %s", choice.Server), "", nil)
	}

	if task.ReportType == prompts.DeepReport {
		return c.DeepResearch(ctx, task)
	}

	research, err := c.researchBySource(ctx, task)
	if err != nil {
		return "", err
	}
	task.setContext(research)
	c.emitCost()
	return research, nil
}

// emitCost publishes the accumulated usage snapshot. Cost events are
// essential and never dropped.
func (c *Conductor) emitCost() {
	if c.costs == nil {
		return
	}
	snap := c.costs.Snapshot()
	c.streamer.Cost(snap.TotalTokens, snap.PromptTokens, snap.CompletionTokens, snap.TotalCost)
}

func (c *Conductor) researchBySource(ctx context.Context, task *Task) (string, error) {
	if len(task.SourceURLs) > 0 {
		return c.researchStaticURLs(ctx, task)
	}

	switch task.ReportSource {
	case SourceLocal:
		docs, err := c.localCorpus()
		if err != nil {
			return "", err
		}
		return c.researchCorpus(ctx, task, docs)
	case SourceHybrid:
		docs, err := c.localCorpus()
		if err != nil {
			return "", err
		}
		docContext, err := c.researchCorpus(ctx, task, docs)
		if err != nil && !errors.Is(err, ErrNoSources) {
			return "", err
		}
		webContext, err := c.researchWeb(ctx, task)
		if err != nil && !errors.Is(err, ErrNoSources) {
			return "", err
		}
		joined := c.family.JoinLocalWebDocuments(docContext, webContext)
		if strings.TrimSpace(joined) == "" {
			return "", ErrNoSources
		}
		return joined, nil
	case SourceDocs:
		return c.researchCorpus(ctx, task, corpusCandidates(task.Documents))
	case SourceVectorDB:
		// The ranker already sits on the configured vector store; ranking
		// the externally loaded corpus against each sub-query is the store
		// path.
		return c.researchCorpus(ctx, task, corpusCandidates(task.Documents))
	case SourceAzure:
		if c.blobs == nil {
			return "", fmt.Errorf("azure report source requires a blob loader")
		}
		docs, err := c.blobs.Load(ctx)
		if err != nil {
			return "", fmt.Errorf("load blob documents: %w", err)
		}
		return c.researchCorpus(ctx, task, corpusCandidates(docs))
	default:
		return c.researchWeb(ctx, task)
	}
}

// researchWeb is the main branch: MCP pre-pass, plan, fan out, combine.
func (c *Conductor) researchWeb(ctx context.Context, task *Task) (string, error) {
	strategy := config.ResolveStrategy(task.MCPStrategy, c.cfg, c.logger)

	if c.tools != nil && strategy == config.StrategyFast {
		entries, err := c.tools.Conduct(ctx, task.Query)
		if err != nil {
			c.logger.Warn("tool research failed, continuing web-only: %v", err)
		}
		// Written exactly once, read-only during fan-out.
		task.setMCPCache(entries)
	}

	subQueries := expandPlan(c.planSubQueries(ctx, task), task)
	c.streamer.Log(fmt.Sprintf("Planned %d sub-queries", len(subQueries)), "", map[string]any{"queries": subQueries})

	contexts, err := c.fanOut(ctx, task, subQueries, strategy)
	if err != nil {
		return "", err
	}

	var nonEmpty []string
	for _, sc := range contexts {
		if strings.TrimSpace(sc) != "" {
			nonEmpty = append(nonEmpty, sc)
		}
	}
	if len(nonEmpty) == 0 {
		return "", ErrNoSources
	}
	joined := strings.Join(nonEmpty, contextJoiner)

	if c.cfg.CurateSources {
		joined = c.curateAndRecompose(ctx, task, joined)
	}
	return joined, nil
}

// fanOut researches sub-queries in parallel. Results keep sub-query order;
// individual failures surface as empty contexts, not errors.
func (c *Conductor) fanOut(ctx context.Context, task *Task, subQueries []string, strategy string) ([]string, error) {
	contexts := make([]string, len(subQueries))
	var mu sync.Mutex
	completed := 0

	g, gctx := errgroup.WithContext(ctx)
	for i, sq := range subQueries {
		i, sq := i, sq
		g.Go(func() error {
			contexts[i] = c.subQueryContext(gctx, task, sq, strategy)

			mu.Lock()
			completed++
			current := completed
			mu.Unlock()
			c.streamer.Progress(current, len(subQueries))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return contexts, nil
}

// subQueryContext produces the combined web+tool context for one sub-query.
func (c *Conductor) subQueryContext(ctx context.Context, task *Task, subQuery, strategy string) string {
	c.streamer.Log(fmt.Sprintf("Researching: %s", subQuery), "", nil)

	webContext := c.webContext(ctx, task, subQuery)

	var entries []mcp.ContextEntry
	switch {
	case c.tools == nil || strategy == config.StrategyDisabled:
	case strategy == config.StrategyFast:
		entries = task.cachedMCP()
	case strategy == config.StrategyDeep:
		var err error
		entries, err = c.tools.Conduct(ctx, subQuery)
		if err != nil {
			c.logger.Warn("tool research for %q failed: %v", subQuery, err)
		}
	}

	return CombineContexts(webContext, entries)
}

// webContext searches, scrapes and ranks for one sub-query.
func (c *Conductor) webContext(ctx context.Context, task *Task, subQuery string) string {
	urls := c.searchURLs(ctx, task, subQuery)
	if len(urls) == 0 {
		return ""
	}

	sources := c.scraper.Run(ctx, urls)
	var candidates []memory.Candidate
	var images []string
	var kept []scraper.Source
	for _, src := range sources {
		if src.Status != scraper.StatusSuccess {
			continue
		}
		kept = append(kept, src)
		images = append(images, src.ImageURLs...)
		candidates = append(candidates, memory.Candidate{
			URL:     src.URL,
			Title:   src.Title,
			Content: src.RawText,
		})
	}
	task.addSources(kept)
	task.addImages(images)
	c.streamer.Images(images)

	if len(candidates) == 0 {
		return ""
	}
	return c.ranker.RankAndTrim(ctx, subQuery, candidates)
}

// searchURLs fans out across the configured non-MCP retrievers. Each
// retriever failure is classified and skipped. New URLs are claimed through
// the task's visited set as they stream in, then shuffled.
func (c *Conductor) searchURLs(ctx context.Context, task *Task, subQuery string) []string {
	if c.cfg.MaxSearchResultsPerQuery == 0 {
		return nil
	}

	var urls []string
	for _, name := range c.cfg.Retrievers {
		if retrievers.IsMCP(name) {
			continue
		}
		r, err := c.buildRetriever(name, retrievers.Options{
			Query:   subQuery,
			Domains: task.Domains,
			Headers: task.Headers,
			Config:  c.cfg,
			Logger:  c.logger,
		})
		if err != nil {
			c.logger.Warn("retriever %s unavailable: %v", name, err)
			continue
		}
		results, err := r.Search(ctx, c.cfg.MaxSearchResultsPerQuery)
		if err != nil {
			c.logger.Warn("retriever %s failed for %q: %v", name, subQuery, err)
			continue
		}
		for _, hit := range results {
			if hit.Href == "" || !task.markVisited(hit.Href) {
				continue
			}
			urls = append(urls, hit.Href)
		}
	}

	rand.Shuffle(len(urls), func(i, j int) { urls[i], urls[j] = urls[j], urls[i] })
	return urls
}

// researchCorpus ranks a fixed document corpus against each planned
// sub-query. No scraping and no tool research: the corpus is the world.
func (c *Conductor) researchCorpus(ctx context.Context, task *Task, docs []memory.Candidate) (string, error) {
	if len(docs) == 0 {
		return "", ErrNoSources
	}

	subQueries := expandPlan(c.planSubQueries(ctx, task), task)
	contexts := make([]string, len(subQueries))
	g, gctx := errgroup.WithContext(ctx)
	for i, sq := range subQueries {
		i, sq := i, sq
		g.Go(func() error {
			contexts[i] = c.ranker.RankAndTrim(gctx, sq, docs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var nonEmpty []string
	for _, sc := range contexts {
		if strings.TrimSpace(sc) != "" {
			nonEmpty = append(nonEmpty, sc)
		}
	}
	if len(nonEmpty) == 0 {
		return "", ErrNoSources
	}
	return strings.Join(nonEmpty, contextJoiner), nil
}

// researchStaticURLs scrapes the caller-provided URLs directly, optionally
// complemented by a normal web pass.
func (c *Conductor) researchStaticURLs(ctx context.Context, task *Task) (string, error) {
	var fresh []string
	for _, url := range task.SourceURLs {
		if task.markVisited(url) {
			fresh = append(fresh, url)
		}
	}

	var candidates []memory.Candidate
	sources := c.scraper.Run(ctx, fresh)
	var kept []scraper.Source
	for _, src := range sources {
		if src.Status != scraper.StatusSuccess {
			continue
		}
		kept = append(kept, src)
		candidates = append(candidates, memory.Candidate{URL: src.URL, Title: src.Title, Content: src.RawText})
	}
	task.addSources(kept)

	staticContext := ""
	if len(candidates) > 0 {
		staticContext = c.ranker.RankAndTrim(ctx, task.Query, candidates)
	}

	if task.ComplementSourceURLs {
		webContext, err := c.researchWeb(ctx, task)
		if err != nil && !errors.Is(err, ErrNoSources) {
			return "", err
		}
		joined := joinNonEmpty(staticContext, webContext)
		if joined == "" {
			return "", ErrNoSources
		}
		return joined, nil
	}

	if staticContext == "" {
		return "", ErrNoSources
	}
	return staticContext, nil
}

func (c *Conductor) localCorpus() ([]memory.Candidate, error) {
	if c.cfg.DocPath == "" {
		return nil, fmt.Errorf("local report source requires DOC_PATH")
	}
	docs, err := memory.LoadDocuments(c.cfg.DocPath)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func corpusCandidates(docs []Document) []memory.Candidate {
	out := make([]memory.Candidate, len(docs))
	for i, doc := range docs {
		out[i] = memory.Candidate{URL: doc.URL, Title: doc.Title, Content: doc.Content}
	}
	return out
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, contextJoiner)
}

// CombineContexts merges a web context with tool entries: web first, then
// each entry as content plus a citation line, entries separated by a
// horizontal rule. Empty iff both inputs are empty.
func CombineContexts(webContext string, entries []mcp.ContextEntry) string {
	blocks := make([]string, 0, len(entries))
	for _, entry := range entries {
		citation := fmt.Sprintf("*Source: %s (%s)*", entry.Title, entry.URL)
		if entry.URL == "" || entry.URL == mcp.LLMAnalysisURL {
			citation = fmt.Sprintf("*Source: %s*", entry.Title)
		}
		blocks = append(blocks, entry.Content+"\n"+citation)
	}
	toolBlock := strings.Join(blocks, "\n\n---\n\n")

	switch {
	case webContext == "" && toolBlock == "":
		return ""
	case webContext == "":
		return toolBlock
	case toolBlock == "":
		return webContext
	default:
		return webContext + "\n\n" + toolBlock
	}
}
