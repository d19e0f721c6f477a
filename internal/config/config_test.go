package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout/internal/logging"
)

func envFrom(m map[string]string) EnvLookup {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithEnv(envFrom(nil)))
	require.NoError(t, err)

	assert.Equal(t, []string{"tavily"}, cfg.Retrievers)
	assert.Equal(t, "openai", cfg.FastLLM.Provider)
	assert.Equal(t, DefaultSmartModel, cfg.SmartLLM.Model)
	assert.Equal(t, StrategyFast, cfg.MCPStrategy)
	assert.Equal(t, "medium", cfg.ReasoningEffort)
	assert.Equal(t, 3, cfg.MaxIterations)
	assert.Equal(t, 5, cfg.MaxSearchResultsPerQuery)
	assert.Greater(t, cfg.MaxContextChars(), 0)
}

func TestLoadFileThenEnvPrecedence(t *testing.T) {
	file := []byte(`{
		"retrievers": ["serper"],
		"smart_llm": {"provider": "groq", "model": "llama-3.3-70b"},
		"total_words": 800,
		"mcp_strategy": "deep"
	}`)

	cfg, err := Load(
		WithFile("scout.json"),
		WithFileReader(func(string) ([]byte, error) { return file, nil }),
		WithEnv(envFrom(map[string]string{
			"TOTAL_WORDS": "2000",
			"SMART_LLM":   "openai:gpt-4o",
		})),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"serper"}, cfg.Retrievers)
	assert.Equal(t, 2000, cfg.TotalWords, "env overrides file")
	assert.Equal(t, ModelSpec{Provider: "openai", Model: "gpt-4o"}, cfg.SmartLLM)
	assert.Equal(t, StrategyDeep, cfg.MCPStrategy)
}

func TestLoadEnvOverrides(t *testing.T) {
	cfg, err := Load(WithEnv(envFrom(map[string]string{
		"RETRIEVER":        "duckduckgo, mcp",
		"FAST_LLM":         "openai:gpt-4o-mini",
		"STRATEGIC_LLM":    "openai:o3-mini",
		"EMBEDDING":        "openai:text-embedding-3-large",
		"REASONING_EFFORT": "high",
		"REPORT_SOURCE":    "hybrid",
		"MCP_STRATEGY":     "disabled",
		"DOC_PATH":         "/tmp/docs",
		"TAVILY_API_KEY":   "tvly-test",
		"OPENAI_API_KEY":   "sk-test",
	})))
	require.NoError(t, err)

	assert.Equal(t, []string{"duckduckgo", "mcp"}, cfg.Retrievers)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedding.Model)
	assert.Equal(t, "high", cfg.ReasoningEffort)
	assert.Equal(t, "hybrid", cfg.ReportSource)
	assert.Equal(t, StrategyDisabled, cfg.MCPStrategy)
	assert.Equal(t, "/tmp/docs", cfg.DocPath)
	assert.Equal(t, "tvly-test", cfg.TavilyAPIKey)
	assert.Equal(t, "sk-test", cfg.EmbeddingAPIKey, "embedding key falls back to the LLM key")
}

func TestLoadInvalidReasoningEffort(t *testing.T) {
	cfg, err := Load(WithEnv(envFrom(map[string]string{"REASONING_EFFORT": "max"})))
	require.NoError(t, err)
	assert.Equal(t, "medium", cfg.ReasoningEffort)
}

func TestParseModelSpec(t *testing.T) {
	spec, err := ParseModelSpec("openai:gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, ModelSpec{Provider: "openai", Model: "gpt-4o"}, spec)

	spec, err = ParseModelSpec("azure:deployments:gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "azure", spec.Provider)
	assert.Equal(t, "deployments:gpt-4o", spec.Model, "only the first colon splits")

	_, err = ParseModelSpec("gpt-4o")
	assert.Error(t, err)
}

func TestParseRetrieversFallback(t *testing.T) {
	got := ParseRetrievers("nope,alsono", logging.Nop())
	assert.Equal(t, []string{"tavily"}, got)

	got = ParseRetrievers("tavily,nope,duckduckgo,tavily", logging.Nop())
	assert.Equal(t, []string{"tavily", "duckduckgo"}, got)
}

func TestNormalizeStrategyAliases(t *testing.T) {
	cases := map[string]string{
		"fast":          StrategyFast,
		"deep":          StrategyDeep,
		"disabled":      StrategyDisabled,
		"optimized":     StrategyFast,
		"comprehensive": StrategyDeep,
		"DEEP":          StrategyDeep,
		"":              StrategyFast,
		"garbage":       StrategyFast,
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeStrategy(raw, logging.Nop()), "raw=%q", raw)
	}
}

func TestResolveStrategyPriority(t *testing.T) {
	cfg := &Config{MCPStrategy: StrategyDeep}
	assert.Equal(t, StrategyDisabled, ResolveStrategy("disabled", cfg, logging.Nop()))
	assert.Equal(t, StrategyDeep, ResolveStrategy("", cfg, logging.Nop()))
	assert.Equal(t, StrategyFast, ResolveStrategy("", &Config{}, logging.Nop()))
}

func TestStrategyFromMaxIterations(t *testing.T) {
	assert.Equal(t, StrategyDisabled, StrategyFromMaxIterations(0, logging.Nop()))
	assert.Equal(t, StrategyFast, StrategyFromMaxIterations(1, logging.Nop()))
	assert.Equal(t, StrategyDeep, StrategyFromMaxIterations(-1, logging.Nop()))
	assert.Equal(t, StrategyFast, StrategyFromMaxIterations(7, logging.Nop()))
}
