package researcher

import (
	"sync"

	"scout/internal/mcp"
	"scout/internal/scraper"
)

// Report sources.
const (
	SourceWeb        = "web"
	SourceLocal      = "local"
	SourceHybrid     = "hybrid"
	SourceDocs       = "langchain_docs"
	SourceVectorDB   = "langchain_vstore"
	SourceAzure      = "azure"
	SourceStaticURLs = "static"
)

// Tones accepted by name.
var Tones = []string{
	"objective", "formal", "analytical", "persuasive", "informative",
	"explanatory", "descriptive", "critical", "comparative", "speculative",
	"reflective", "narrative", "humorous", "optimistic", "pessimistic",
	"simple", "casual",
}

// Task is one research request plus all state accumulated while serving it.
// A task belongs to a single conductor; its mutable state is safe for the
// conductor's internal fan-out.
type Task struct {
	Query        string
	ParentQuery  string
	ReportType   string
	ReportSource string
	ReportFormat string
	Tone         string
	Language     string
	CustomPrompt string

	// Domains restricts web search to these sites.
	Domains []string
	// Headers are passed through to retrievers and the scraper.
	Headers map[string]string

	// SourceURLs bypass search: these URLs are scraped directly.
	// ComplementSourceURLs additionally runs a web search on top.
	SourceURLs           []string
	ComplementSourceURLs bool

	// Documents is an externally supplied corpus (langchain_docs source).
	Documents []Document

	Subtopics []string

	MCPConfigs  []mcp.ServerConfig
	MCPStrategy string

	// AgentRole is the persona system prompt. Chosen automatically when
	// empty.
	AgentRole string

	mu       sync.Mutex
	visited  *visitedSet
	mcpCache []mcp.ContextEntry
	context  string
	images   []string
	sources  []scraper.Source
}

// visitedSet is the task-wide URL claim set. Deep research shares one set
// across its whole task tree.
type visitedSet struct {
	mu   sync.Mutex
	urls map[string]bool
}

func newVisitedSet() *visitedSet {
	return &visitedSet{urls: make(map[string]bool)}
}

// claim records a URL, returning true the first time it is seen.
func (v *visitedSet) claim(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.urls[url] {
		return false
	}
	v.urls[url] = true
	return true
}

func (v *visitedSet) snapshot() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	urls := make([]string, 0, len(v.urls))
	for url := range v.urls {
		urls = append(urls, url)
	}
	return urls
}

// Document is one externally supplied corpus document.
type Document struct {
	URL     string
	Title   string
	Content string
}

func (t *Task) resetVisited() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visited = newVisitedSet()
}

func (t *Task) visitedURLs() *visitedSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.visited == nil {
		t.visited = newVisitedSet()
	}
	return t.visited
}

// markVisited records a URL, returning true the first time it is seen.
func (t *Task) markVisited(url string) bool {
	return t.visitedURLs().claim(url)
}

// VisitedURLs returns a snapshot of every URL considered so far.
func (t *Task) VisitedURLs() []string {
	return t.visitedURLs().snapshot()
}

func (t *Task) setMCPCache(entries []mcp.ContextEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mcpCache = entries
}

func (t *Task) cachedMCP() []mcp.ContextEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mcpCache
}

func (t *Task) addImages(urls []string) {
	if len(urls) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.images = append(t.images, urls...)
}

// Images returns every content image collected while scraping.
func (t *Task) Images() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.images...)
}

func (t *Task) addSources(sources []scraper.Source) {
	if len(sources) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = append(t.sources, sources...)
}

// Sources returns every successfully scraped source.
func (t *Task) Sources() []scraper.Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]scraper.Source(nil), t.sources...)
}

func (t *Task) setContext(context string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.context = context
}

// Context returns the joined research context composed by the conductor.
func (t *Task) Context() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.context
}
