package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"scout/internal/logging"
)

// EnvLookup mirrors os.LookupEnv so tests can inject a fixed environment.
type EnvLookup func(key string) (string, bool)

type loadOptions struct {
	envLookup EnvLookup
	readFile  func(name string) ([]byte, error)
	filePath  string
	logger    logging.Logger
}

// Option customizes Load.
type Option func(*loadOptions)

// WithEnv replaces the process environment lookup.
func WithEnv(lookup EnvLookup) Option {
	return func(o *loadOptions) { o.envLookup = lookup }
}

// WithFileReader replaces the config file reader.
func WithFileReader(read func(name string) ([]byte, error)) Option {
	return func(o *loadOptions) { o.readFile = read }
}

// WithFile sets the JSON config file path.
func WithFile(path string) Option {
	return func(o *loadOptions) { o.filePath = path }
}

// WithLogger sets the logger used for load-time warnings.
func WithLogger(logger logging.Logger) Option {
	return func(o *loadOptions) { o.logger = logger }
}

// Load resolves the runtime configuration: defaults, then the optional JSON
// config file, then environment overrides.
func Load(opts ...Option) (*Config, error) {
	options := loadOptions{
		envLookup: os.LookupEnv,
		readFile:  os.ReadFile,
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	logger := logging.OrNop(options.logger)

	cfg := defaults()

	if options.filePath != "" {
		data, err := options.readFile(options.filePath)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", options.filePath, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", options.filePath, err)
		}
	}

	applyEnv(&cfg, options.envLookup, logger)

	cfg.MCPStrategy = NormalizeStrategy(cfg.MCPStrategy, logger)
	if !slices.Contains(ValidReasoningEfforts, cfg.ReasoningEffort) {
		logger.Warn("invalid reasoning effort %q, using medium", cfg.ReasoningEffort)
		cfg.ReasoningEffort = "medium"
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup EnvLookup, logger logging.Logger) {
	if raw, ok := lookup("RETRIEVER"); ok {
		cfg.Retrievers = ParseRetrievers(raw, logger)
	}
	applyModelEnv(cfg, lookup, "FAST_LLM", &cfg.FastLLM, logger)
	applyModelEnv(cfg, lookup, "SMART_LLM", &cfg.SmartLLM, logger)
	applyModelEnv(cfg, lookup, "STRATEGIC_LLM", &cfg.StrategicLLM, logger)
	applyModelEnv(cfg, lookup, "EMBEDDING", &cfg.Embedding, logger)

	setString(lookup, "REASONING_EFFORT", &cfg.ReasoningEffort)
	setString(lookup, "REPORT_SOURCE", &cfg.ReportSource)
	setString(lookup, "REPORT_FORMAT", &cfg.ReportFormat)
	setString(lookup, "MCP_STRATEGY", &cfg.MCPStrategy)
	setString(lookup, "DOC_PATH", &cfg.DocPath)
	setString(lookup, "VECTOR_STORE_PATH", &cfg.VectorStorePath)
	setString(lookup, "USER_AGENT", &cfg.UserAgent)

	setInt(lookup, "MAX_ITERATIONS", &cfg.MaxIterations, logger)
	setInt(lookup, "MAX_SEARCH_RESULTS_PER_QUERY", &cfg.MaxSearchResultsPerQuery, logger)
	setInt(lookup, "MAX_SUBTOPICS", &cfg.MaxSubtopics, logger)
	setInt(lookup, "TOTAL_WORDS", &cfg.TotalWords, logger)
	setInt(lookup, "SMART_TOKEN_LIMIT", &cfg.SmartTokenLimit, logger)
	setInt(lookup, "STRATEGIC_TOKEN_LIMIT", &cfg.StrategicTokenLimit, logger)
	setInt(lookup, "BROWSE_CHUNK_MAX_LENGTH", &cfg.BrowseChunkMaxLength, logger)
	setInt(lookup, "MAX_CONTEXT_WORDS", &cfg.MaxContextWords, logger)
	setBool(lookup, "CURATE_SOURCES", &cfg.CurateSources, logger)

	setString(lookup, "OPENAI_API_KEY", &cfg.APIKey)
	setString(lookup, "OPENAI_BASE_URL", &cfg.BaseURL)
	setString(lookup, "EMBEDDING_API_KEY", &cfg.EmbeddingAPIKey)
	setString(lookup, "EMBEDDING_BASE_URL", &cfg.EmbeddingBaseURL)
	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = cfg.APIKey
	}
	if cfg.EmbeddingBaseURL == "" {
		cfg.EmbeddingBaseURL = cfg.BaseURL
	}

	setString(lookup, "TAVILY_API_KEY", &cfg.TavilyAPIKey)
	setString(lookup, "SERPER_API_KEY", &cfg.SerperAPIKey)
	setString(lookup, "GOOGLE_API_KEY", &cfg.GoogleAPIKey)
	setString(lookup, "GOOGLE_CX_KEY", &cfg.GoogleCX)
	setString(lookup, "SERPAPI_API_KEY", &cfg.SerpAPIKey)
	setString(lookup, "SEARCHAPI_API_KEY", &cfg.SearchAPIKey)
	setString(lookup, "BING_API_KEY", &cfg.BingAPIKey)
	setString(lookup, "EXA_API_KEY", &cfg.ExaAPIKey)
	setString(lookup, "SEARX_URL", &cfg.SearxURL)
	setString(lookup, "NCBI_API_KEY", &cfg.NCBIAPIKey)
	setString(lookup, "RETRIEVER_ENDPOINT", &cfg.CustomEndpoint)
}

func applyModelEnv(cfg *Config, lookup EnvLookup, key string, dst *ModelSpec, logger logging.Logger) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}
	spec, err := ParseModelSpec(raw)
	if err != nil {
		logger.Warn("invalid %s value %q: %v", key, raw, err)
		return
	}
	*dst = spec
}

func setString(lookup EnvLookup, key string, dst *string) {
	if v, ok := lookup(key); ok && v != "" {
		*dst = v
	}
}

func setInt(lookup EnvLookup, key string, dst *int, logger logging.Logger) {
	raw, ok := lookup(key)
	if !ok || raw == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("invalid %s value %q, keeping %d", key, raw, *dst)
		return
	}
	*dst = v
}

func setBool(lookup EnvLookup, key string, dst *bool, logger logging.Logger) {
	raw, ok := lookup(key)
	if !ok || raw == "" {
		return
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn("invalid %s value %q, keeping %v", key, raw, *dst)
		return
	}
	*dst = v
}

// ParseModelSpec parses a provider:model pair. The model part may itself
// contain colons (deployment paths), so only the first separator splits.
func ParseModelSpec(raw string) (ModelSpec, error) {
	raw = strings.TrimSpace(raw)
	provider, model, found := strings.Cut(raw, ":")
	if !found || provider == "" || model == "" {
		return ModelSpec{}, fmt.Errorf("expected provider:model, got %q", raw)
	}
	return ModelSpec{Provider: provider, Model: model}, nil
}

// ParseRetrievers parses a comma-separated retriever list, dropping unknown
// names with a warning. An empty valid set falls back to tavily.
func ParseRetrievers(raw string, logger logging.Logger) []string {
	logger = logging.OrNop(logger)
	var valid []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !slices.Contains(KnownRetrievers, name) {
			logger.Warn("unknown retriever %q ignored", name)
			continue
		}
		if !slices.Contains(valid, name) {
			valid = append(valid, name)
		}
	}
	if len(valid) == 0 {
		logger.Warn("no valid retrievers in %q, defaulting to tavily", raw)
		return []string{"tavily"}
	}
	return valid
}
