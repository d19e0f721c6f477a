package researcher

import (
	"testing"

	"scout/internal/mcp"
)

// The tool-research subsystem must run on the strategic tier, not on a
// cheaper model: tool selection and the tool-calling pass both need it.
func TestNewEngineWiresStrategicLLMIntoToolResearch(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily", "mcp"}
	cfg.StrategicLLM.Model = "strategic-model"
	cfg.SmartLLM.Model = "smart-model"
	cfg.FastLLM.Model = "fast-model"

	task := &Task{
		Query:      "quantum error correction",
		MCPConfigs: []mcp.ServerConfig{{Name: "tools", Command: "tools-bin"}},
	}

	eng, err := NewEngine(cfg, task, nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	research, ok := eng.Conductor.tools.(*mcp.Research)
	if !ok {
		t.Fatalf("expected tool research to be configured, got %T", eng.Conductor.tools)
	}
	if got := research.LLM.Model(); got != "strategic-model" {
		t.Errorf("tool research model = %q, want the strategic tier", got)
	}
}

// Without MCP in the retriever list the engine must not build the tool
// subsystem even when server configs are supplied.
func TestNewEngineSkipsToolResearchWithoutMCPRetriever(t *testing.T) {
	cfg := testConfig(t)
	cfg.Retrievers = []string{"tavily"}

	task := &Task{
		Query:      "quantum error correction",
		MCPConfigs: []mcp.ServerConfig{{Name: "tools", Command: "tools-bin"}},
	}

	eng, err := NewEngine(cfg, task, nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	if eng.Conductor.tools != nil {
		t.Fatalf("expected no tool research, got %T", eng.Conductor.tools)
	}
}
