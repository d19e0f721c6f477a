package config

import "time"

// ModelSpec identifies an LLM or embedding model as a provider:model pair.
type ModelSpec struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (m ModelSpec) String() string {
	if m.Provider == "" {
		return m.Model
	}
	return m.Provider + ":" + m.Model
}

// Config holds every runtime setting the research pipeline reads.
//
// Values resolve in three layers: compiled defaults, then an optional JSON
// config file, then environment variables. Later layers win.
type Config struct {
	Retrievers []string `json:"retrievers"`

	FastLLM      ModelSpec `json:"fast_llm"`
	SmartLLM     ModelSpec `json:"smart_llm"`
	StrategicLLM ModelSpec `json:"strategic_llm"`
	Embedding    ModelSpec `json:"embedding"`

	ReasoningEffort string `json:"reasoning_effort"`
	ReportSource    string `json:"report_source"`
	ReportFormat    string `json:"report_format"`
	MCPStrategy     string `json:"mcp_strategy"`
	DocPath         string `json:"doc_path"`
	VectorStorePath string `json:"vector_store_path"`

	MaxIterations            int     `json:"max_iterations"`
	MaxSearchResultsPerQuery int     `json:"max_search_results_per_query"`
	MaxSubtopics             int     `json:"max_subtopics"`
	TotalWords               int     `json:"total_words"`
	Temperature              float64 `json:"temperature"`
	SmartTokenLimit          int     `json:"smart_token_limit"`
	StrategicTokenLimit      int     `json:"strategic_token_limit"`
	BrowseChunkMaxLength     int     `json:"browse_chunk_max_length"`
	MaxContextWords          int     `json:"max_context_words"`
	CurateSources            bool    `json:"curate_sources"`
	DeepResearchBreadth      int     `json:"deep_research_breadth"`
	DeepResearchDepth        int     `json:"deep_research_depth"`

	UserAgent string `json:"user_agent"`

	RetrieverTimeout time.Duration `json:"-"`
	ScrapeTimeout    time.Duration `json:"-"`

	// Provider credentials. The LLM and embedding back-ends speak the
	// OpenAI-compatible HTTP surface.
	APIKey           string `json:"-"`
	BaseURL          string `json:"base_url"`
	EmbeddingAPIKey  string `json:"-"`
	EmbeddingBaseURL string `json:"embedding_base_url"`

	// Retriever credentials, one field per back-end.
	TavilyAPIKey   string `json:"-"`
	SerperAPIKey   string `json:"-"`
	GoogleAPIKey   string `json:"-"`
	GoogleCX       string `json:"-"`
	SerpAPIKey     string `json:"-"`
	SearchAPIKey   string `json:"-"`
	BingAPIKey     string `json:"-"`
	ExaAPIKey      string `json:"-"`
	SearxURL       string `json:"searx_url"`
	NCBIAPIKey     string `json:"-"`
	CustomEndpoint string `json:"custom_retriever_endpoint"`
}

// CharsPerWord approximates the context character budget from MaxContextWords.
// Provider token budgets are enforced by length, not exact token counts.
const CharsPerWord = 6

// MaxContextChars returns the character budget for a composed context.
func (c *Config) MaxContextChars() int {
	return c.MaxContextWords * CharsPerWord
}

const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"

	DefaultFastModel      = "gpt-4o-mini"
	DefaultSmartModel     = "gpt-4o"
	DefaultStrategicModel = "o3-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultProvider       = "openai"
)

// ValidReasoningEfforts enumerates accepted REASONING_EFFORT values.
var ValidReasoningEfforts = []string{"low", "medium", "high"}

// KnownRetrievers enumerates the retriever names the registry can build.
var KnownRetrievers = []string{
	"tavily", "serper", "google", "serpapi", "searchapi", "bing",
	"exa", "searx", "duckduckgo", "pubmed", "custom", "mcp",
}

func defaults() Config {
	return Config{
		Retrievers:               []string{"tavily"},
		FastLLM:                  ModelSpec{Provider: DefaultProvider, Model: DefaultFastModel},
		SmartLLM:                 ModelSpec{Provider: DefaultProvider, Model: DefaultSmartModel},
		StrategicLLM:             ModelSpec{Provider: DefaultProvider, Model: DefaultStrategicModel},
		Embedding:                ModelSpec{Provider: DefaultProvider, Model: DefaultEmbeddingModel},
		ReasoningEffort:          "medium",
		ReportSource:             "web",
		ReportFormat:             "APA",
		MCPStrategy:              StrategyFast,
		MaxIterations:            3,
		MaxSearchResultsPerQuery: 5,
		MaxSubtopics:             3,
		TotalWords:               1200,
		Temperature:              0.4,
		SmartTokenLimit:          6000,
		StrategicTokenLimit:      4000,
		BrowseChunkMaxLength:     8192,
		MaxContextWords:          25000,
		CurateSources:            false,
		DeepResearchBreadth:      3,
		DeepResearchDepth:        2,
		UserAgent:                DefaultUserAgent,
		RetrieverTimeout:         15 * time.Second,
		ScrapeTimeout:            20 * time.Second,
		BaseURL:                  "https://api.openai.com/v1",
	}
}
