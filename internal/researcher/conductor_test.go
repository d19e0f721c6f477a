package researcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"scout/internal/config"
	"scout/internal/llm"
	"scout/internal/mcp"
	"scout/internal/memory"
	"scout/internal/retrievers"
	"scout/internal/scraper"
	"scout/internal/stream"
)

// scriptedLLM returns canned responses in order; once exhausted it repeats
// the last one. A non-nil err fails every call.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (s *scriptedLLM) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	idx := min(s.calls-1, len(s.responses)-1)
	return &llm.Response{Content: s.responses[idx]}, nil
}

func (s *scriptedLLM) StreamComplete(ctx context.Context, req llm.Request, onDelta func(string)) (*llm.Response, error) {
	resp, err := s.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if onDelta != nil {
		onDelta(resp.Content)
	}
	return resp, nil
}

func (s *scriptedLLM) Model() string { return "test-model" }

func (s *scriptedLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubRetriever returns fixed hits, or an error.
type stubRetriever struct {
	hits []retrievers.SearchResult
	err  error
}

func (s *stubRetriever) Search(_ context.Context, _ int) ([]retrievers.SearchResult, error) {
	return s.hits, s.err
}

func (s *stubRetriever) Ready() error { return nil }

// stubScraper turns every URL into a successful source.
type stubScraper struct {
	mu   sync.Mutex
	urls []string
}

func (s *stubScraper) Run(_ context.Context, urls []string) []scraper.Source {
	s.mu.Lock()
	s.urls = append(s.urls, urls...)
	s.mu.Unlock()

	out := make([]scraper.Source, len(urls))
	for i, url := range urls {
		out[i] = scraper.Source{
			URL:     url,
			Title:   "Page " + url,
			RawText: "Body of " + url,
			Status:  scraper.StatusSuccess,
		}
	}
	return out
}

// joinRanker composes a deterministic context from candidate contents.
type joinRanker struct{}

func (joinRanker) RankAndTrim(_ context.Context, _ string, candidates []memory.Candidate) string {
	var parts []string
	for _, cand := range candidates {
		parts = append(parts, cand.Content)
	}
	return strings.Join(parts, " | ")
}

// countingTools records every research invocation.
type countingTools struct {
	mu      sync.Mutex
	queries []string
	entries []mcp.ContextEntry
	err     error
}

func (c *countingTools) Conduct(_ context.Context, query string) ([]mcp.ContextEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, query)
	return c.entries, c.err
}

func (c *countingTools) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}

func emptyEnv(string) (string, bool) { return "", false }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(config.WithEnv(emptyEnv))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

type conductorFixture struct {
	conductor *Conductor
	strategic *scriptedLLM
	smart     *scriptedLLM
	scraper   *stubScraper
	tools     *countingTools
}

// planOf builds the strategic responses for a fixed three-query plan plus a
// persona choice.
const personaJSON = `{"server": "Test Agent", "agent_role_prompt": "You are a test researcher."}`
const planJSON = `["sub query one", "sub query two", "sub query three"]`

func newFixture(t *testing.T, cfg *config.Config, tools *countingTools) *conductorFixture {
	t.Helper()
	if cfg == nil {
		cfg = testConfig(t)
	}
	strategic := &scriptedLLM{responses: []string{personaJSON, planJSON}}
	smart := &scriptedLLM{responses: []string{"report text"}}
	pool := &stubScraper{}

	c := NewConductor(Options{
		Config:       cfg,
		SmartLLM:     smart,
		StrategicLLM: strategic,
		Ranker:       joinRanker{},
		Scraper:      pool,
		Streamer:     stream.New(nil, nil),
	})
	if tools != nil {
		c.tools = tools
	}
	c.buildRetriever = func(name string, opts retrievers.Options) (retrievers.Retriever, error) {
		return &stubRetriever{hits: []retrievers.SearchResult{
			{Title: "hit", Href: fmt.Sprintf("https://%s.example/%s", name, strings.ReplaceAll(opts.Query, " ", "-")), Body: "snippet"},
		}}, nil
	}
	return &conductorFixture{conductor: c, strategic: strategic, smart: smart, scraper: pool, tools: tools}
}

func TestConductResearchWebPipeline(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	f := newFixture(t, cfg, nil)
	task := &Task{Query: "capital of France", ReportType: "research_report"}

	got, err := f.conductor.ConductResearch(context.Background(), task)
	if err != nil {
		t.Fatalf("ConductResearch: %v", err)
	}
	if got == "" || task.Context() != got {
		t.Fatalf("context not composed or not stored: %q", got)
	}
	// Three planned sub-queries plus the appended original.
	if visited := task.VisitedURLs(); len(visited) != 4 {
		t.Fatalf("expected 4 visited URLs, got %d: %v", len(visited), visited)
	}
	if task.AgentRole != "You are a test researcher." {
		t.Fatalf("persona not applied: %q", task.AgentRole)
	}
}

func TestConductResearchVisitedDedup(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily", "serper"}
	f := newFixture(t, cfg, nil)
	// Both retrievers return the same URL for a given query.
	f.conductor.buildRetriever = func(name string, opts retrievers.Options) (retrievers.Retriever, error) {
		return &stubRetriever{hits: []retrievers.SearchResult{
			{Href: "https://shared.example/" + strings.ReplaceAll(opts.Query, " ", "-")},
		}}, nil
	}
	task := &Task{Query: "dedup test"}

	if _, err := f.conductor.ConductResearch(context.Background(), task); err != nil {
		t.Fatalf("ConductResearch: %v", err)
	}
	seen := make(map[string]int)
	for _, url := range f.scraper.urls {
		seen[url]++
	}
	for url, n := range seen {
		if n > 1 {
			t.Errorf("url %s scraped %d times", url, n)
		}
	}
}

func TestConductResearchRetrieverFailureIsolated(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily", "serper"}
	f := newFixture(t, cfg, nil)
	f.conductor.buildRetriever = func(name string, opts retrievers.Options) (retrievers.Retriever, error) {
		if name == "tavily" {
			return &stubRetriever{err: errors.New("boom")}, nil
		}
		return &stubRetriever{hits: []retrievers.SearchResult{
			{Href: "https://ok.example/" + strings.ReplaceAll(opts.Query, " ", "-")},
		}}, nil
	}
	task := &Task{Query: "resilience"}

	got, err := f.conductor.ConductResearch(context.Background(), task)
	if err != nil {
		t.Fatalf("one failing retriever must not fail the task: %v", err)
	}
	if got == "" {
		t.Fatal("expected context from the surviving retriever")
	}
}

func TestConductResearchMaxResultsZeroSkipsRetrievers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	cfg.MaxSearchResultsPerQuery = 0
	f := newFixture(t, cfg, nil)
	invoked := false
	f.conductor.buildRetriever = func(string, retrievers.Options) (retrievers.Retriever, error) {
		invoked = true
		return &stubRetriever{}, nil
	}

	_, err := f.conductor.ConductResearch(context.Background(), &Task{Query: "q"})
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
	if invoked {
		t.Fatal("retriever must not be invoked when max results is zero")
	}
}

func TestMCPStrategyFastRunsOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily", "mcp"}
	cfg.MCPStrategy = config.StrategyFast
	tools := &countingTools{entries: []mcp.ContextEntry{{Title: "T", URL: "mcp://t", Content: "tool data"}}}
	f := newFixture(t, cfg, tools)
	task := &Task{Query: "fast strategy"}

	got, err := f.conductor.ConductResearch(context.Background(), task)
	if err != nil {
		t.Fatalf("ConductResearch: %v", err)
	}
	if tools.count() != 1 {
		t.Fatalf("fast strategy must invoke tool research exactly once, got %d", tools.count())
	}
	if n := strings.Count(got, "tool data"); n != 4 {
		t.Fatalf("cached entries should appear in all 4 sub-query contexts, got %d", n)
	}
	if tools.queries[0] != "fast strategy" {
		t.Fatalf("fast pre-pass must use the original query, got %q", tools.queries[0])
	}
}

func TestMCPStrategyDeepRunsPerSubQuery(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily", "mcp"}
	cfg.MCPStrategy = config.StrategyDeep
	tools := &countingTools{entries: []mcp.ContextEntry{{Title: "T", URL: "mcp://t", Content: "tool data"}}}
	f := newFixture(t, cfg, tools)

	if _, err := f.conductor.ConductResearch(context.Background(), &Task{Query: "deep strategy"}); err != nil {
		t.Fatalf("ConductResearch: %v", err)
	}
	// Three planned sub-queries plus the appended original.
	if tools.count() != 4 {
		t.Fatalf("deep strategy must invoke tool research per sub-query (4), got %d", tools.count())
	}
}

func TestMCPStrategyDisabledNeverInvokes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily", "mcp"}
	cfg.MCPStrategy = config.StrategyDisabled
	tools := &countingTools{}
	f := newFixture(t, cfg, tools)

	if _, err := f.conductor.ConductResearch(context.Background(), &Task{Query: "disabled"}); err != nil {
		t.Fatalf("ConductResearch: %v", err)
	}
	if tools.count() != 0 {
		t.Fatalf("disabled strategy must never invoke tool research, got %d", tools.count())
	}
}

func TestTaskStrategyOptionOverridesConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily", "mcp"}
	cfg.MCPStrategy = config.StrategyDeep
	tools := &countingTools{}
	f := newFixture(t, cfg, tools)

	task := &Task{Query: "override", MCPStrategy: config.StrategyDisabled}
	if _, err := f.conductor.ConductResearch(context.Background(), task); err != nil {
		t.Fatalf("ConductResearch: %v", err)
	}
	if tools.count() != 0 {
		t.Fatalf("task option must override config strategy, got %d invocations", tools.count())
	}
}

func TestPlannerFallsBackToOriginalQuery(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	f := newFixture(t, cfg, nil)
	f.conductor.strategicLLM = &scriptedLLM{err: errors.New("provider down")}
	f.conductor.smartLLM = &scriptedLLM{err: errors.New("provider down")}

	task := &Task{Query: "only query", AgentRole: "preset"}
	got := f.conductor.planSubQueries(context.Background(), task)
	if len(got) != 1 || got[0] != "only query" {
		t.Fatalf("planner floor is the original query, got %v", got)
	}
}

func TestPlannerMCPOnlySkipsLLM(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"mcp"}
	f := newFixture(t, cfg, nil)

	got := f.conductor.planSubQueries(context.Background(), &Task{Query: "q"})
	if len(got) != 1 || got[0] != "q" {
		t.Fatalf("MCP-only plan must be the bare query, got %v", got)
	}
	if f.strategic.callCount() != 0 {
		t.Fatalf("planner must not call the LLM for MCP-only retrievers, got %d calls", f.strategic.callCount())
	}
}

func TestPlannerStrategicFailureFallsBackToSmart(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	f := newFixture(t, cfg, nil)
	f.conductor.strategicLLM = &scriptedLLM{err: errors.New("overloaded")}
	smart := &scriptedLLM{responses: []string{`["a", "b"]`}}
	f.conductor.smartLLM = smart

	got := f.conductor.planSubQueries(context.Background(), &Task{Query: "q"})
	if len(got) != 2 || got[0] != "a" {
		t.Fatalf("expected smart fallback plan, got %v", got)
	}
	if smart.callCount() != 1 {
		t.Fatalf("smart model should be called once, got %d", smart.callCount())
	}
}

func TestExpandPlan(t *testing.T) {
	task := &Task{Query: "orig"}
	got := expandPlan([]string{"a", "b", "a", ""}, task)
	want := []string{"a", "b", "orig"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	sub := &Task{Query: "orig", ReportType: "subtopic_report"}
	got = expandPlan([]string{"a"}, sub)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("subtopic plans must not append the original query, got %v", got)
	}
}

func TestCombineContexts(t *testing.T) {
	entries := []mcp.ContextEntry{
		{Title: "Tool A", URL: "https://a.example", Content: "alpha"},
		{Title: "LLM analysis", URL: mcp.LLMAnalysisURL, Content: "synthesis"},
		{Title: "Untitled", URL: "", Content: "bare"},
	}

	got := CombineContexts("WEB", entries)
	want := "WEB\n\n" +
		"alpha\n*Source: Tool A (https://a.example)*" +
		"\n\n---\n\n" +
		"synthesis\n*Source: LLM analysis*" +
		"\n\n---\n\n" +
		"bare\n*Source: Untitled*"
	if got != want {
		t.Fatalf("combined context mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestCombineContextsEmptyCases(t *testing.T) {
	if got := CombineContexts("", nil); got != "" {
		t.Fatalf("both empty must combine to empty, got %q", got)
	}
	if got := CombineContexts("WEB", nil); got != "WEB" {
		t.Fatalf("web only, got %q", got)
	}
	entries := []mcp.ContextEntry{{Title: "T", URL: "u", Content: "c"}}
	if got := CombineContexts("", entries); got != "c\n*Source: T (u)*" {
		t.Fatalf("tool only, got %q", got)
	}
}

func TestConductResearchCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	f := newFixture(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.conductor.ConductResearch(ctx, &Task{Query: "q", AgentRole: "preset"})
	if err == nil {
		t.Fatal("expected an error on a cancelled context")
	}
}

func TestStaticSourceURLs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}
	f := newFixture(t, cfg, nil)

	task := &Task{
		Query:      "pinned",
		AgentRole:  "preset",
		SourceURLs: []string{"https://one.example", "https://two.example"},
	}
	got, err := f.conductor.ConductResearch(context.Background(), task)
	if err != nil {
		t.Fatalf("ConductResearch: %v", err)
	}
	if !strings.Contains(got, "Body of https://one.example") || !strings.Contains(got, "Body of https://two.example") {
		t.Fatalf("static URLs should be scraped directly, got %q", got)
	}
	if f.strategic.callCount() != 0 {
		t.Fatalf("static URL research should not plan sub-queries, got %d strategic calls", f.strategic.callCount())
	}
}
