package researcher

import (
	"fmt"

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

// Engine bundles everything a task needs: the conductor plus the shared
// collaborators whose lifecycle outlives a single call.
type Engine struct {
	Conductor *Conductor
	Costs     *llm.CostTracker
	Streamer  *stream.Streamer

	manager *mcp.Manager
}

// NewEngine assembles a conductor for the task from configuration. sub may
// be nil for logging-only streaming.
func NewEngine(cfg *config.Config, task *Task, sub stream.Subscriber, logger logging.Logger) (*Engine, error) {
	logger = logging.OrNop(logger)
	streamer := stream.New(sub, logger)

	costs := llm.NewCostTracker(func(snap llm.CostSnapshot) {
		streamer.Cost(snap.TotalTokens, snap.PromptTokens, snap.CompletionTokens, snap.TotalCost)
	})

	newClient := func(spec config.ModelSpec, reasoningEffort string) llm.Client {
		return llm.NewOpenAIClient(llm.Options{
			Model:           spec.Model,
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			ReasoningEffort: reasoningEffort,
			Logger:          logger,
			OnUsage:         costs.OnUsage,
		})
	}
	smartLLM := newClient(cfg.SmartLLM, "")
	// The strategic tier is the reasoning tier; effort applies only there.
	strategicLLM := newClient(cfg.StrategicLLM, cfg.ReasoningEffort)

	embedder, err := memory.NewEmbedder(memory.EmbedderConfig{
		Model:   cfg.Embedding.Model,
		APIKey:  cfg.EmbeddingAPIKey,
		BaseURL: cfg.EmbeddingBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	// The vector-store source ranks through a chromem collection instead of
	// embedding candidates directly.
	var store memory.VectorStore
	if task.ReportSource == SourceVectorDB {
		store, err = memory.NewVectorStore(memory.StoreConfig{PersistPath: cfg.VectorStorePath}, embedder)
		if err != nil {
			return nil, fmt.Errorf("open vector store: %w", err)
		}
	}
	ranker, err := memory.NewContextManager(embedder, store, cfg.MaxContextChars(), logger)
	if err != nil {
		return nil, fmt.Errorf("create context manager: %w", err)
	}

	pool := scraper.NewPool(scraper.Config{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.ScrapeTimeout,
		Logger:    logger,
	})

	family := prompts.ForModel(cfg.SmartLLM.Model)

	var tools ToolResearcher
	var manager *mcp.Manager
	if len(task.MCPConfigs) > 0 && mcpEnabled(cfg) {
		manager = mcp.NewManager(task.MCPConfigs, logger)
		research := mcp.NewResearch(manager, strategicLLM, streamer, logger)
		research.PromptFunc = family.MCPResearchPrompt
		research.Selector.PromptFunc = family.ToolSelectionPrompt
		tools = research
	}

	conductor := NewConductor(Options{
		Config:       cfg,
		Family:       family,
		SmartLLM:     smartLLM,
		StrategicLLM: strategicLLM,
		Ranker:       ranker,
		Scraper:      pool,
		Tools:        tools,
		Streamer:     streamer,
		Costs:        costs,
		Logger:       logger,
	})

	return &Engine{
		Conductor: conductor,
		Costs:     costs,
		Streamer:  streamer,
		manager:   manager,
	}, nil
}

// Close releases the MCP connections and flushes the streamer.
func (e *Engine) Close() {
	if e.manager != nil {
		e.manager.Close()
	}
	e.Streamer.Close()
}

func mcpEnabled(cfg *config.Config) bool {
	for _, name := range cfg.Retrievers {
		if retrievers.IsMCP(name) {
			return true
		}
	}
	return false
}
