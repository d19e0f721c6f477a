package llm

import (
	"strings"
	"sync"
)

// Per-model price per 1000 tokens, prompt and completion priced together.
// Unknown models fall back to a small default so totals stay conservative.
var costPer1kTokens = map[string]float64{
	"gpt-3.5-turbo": 0.002,
	"gpt-4":         0.03,
	"gpt-4-32k":     0.06,
	"gpt-4o":        0.00001,
	"gpt-4o-mini":   0.000001,
	"o3-mini":       0.0000005,
}

const defaultCostPer1k = 0.0001

// CostSnapshot is a point-in-time view of accumulated usage.
type CostSnapshot struct {
	TotalTokens      int     `json:"total_tokens"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalCost        float64 `json:"total_cost"`
}

// CostTracker accumulates LLM spend for one task. The total only grows.
type CostTracker struct {
	mu       sync.Mutex
	snapshot CostSnapshot
	onChange func(CostSnapshot)
}

// NewCostTracker returns a tracker. onChange, when non-nil, observes every
// increment and runs outside the lock.
func NewCostTracker(onChange func(CostSnapshot)) *CostTracker {
	return &CostTracker{onChange: onChange}
}

// OnUsage implements UsageFunc.
func (t *CostTracker) OnUsage(usage TokenUsage, model, _ string) {
	rate, ok := costPer1kTokens[normalizeModel(model)]
	if !ok {
		rate = defaultCostPer1k
	}
	tokens := usage.PromptTokens + usage.CompletionTokens
	if tokens == 0 {
		tokens = usage.TotalTokens
	}

	t.mu.Lock()
	t.snapshot.PromptTokens += usage.PromptTokens
	t.snapshot.CompletionTokens += usage.CompletionTokens
	t.snapshot.TotalTokens += tokens
	t.snapshot.TotalCost += float64(tokens) / 1000 * rate
	snap := t.snapshot
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(snap)
	}
}

// Total returns the accumulated cost in currency units.
func (t *CostTracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot.TotalCost
}

// Snapshot returns the current accumulated usage.
func (t *CostTracker) Snapshot() CostSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot
}

// normalizeModel strips dated suffixes such as gpt-4o-2024-08-06 so that
// versioned model ids still hit the rate table.
func normalizeModel(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if _, ok := costPer1kTokens[model]; ok {
		return model
	}
	best := ""
	for known := range costPer1kTokens {
		if strings.HasPrefix(model, known+"-") && len(known) > len(best) {
			best = known
		}
	}
	if best != "" {
		return best
	}
	return model
}
