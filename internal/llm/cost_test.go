package llm

import (
	"sync"
	"testing"
)

func TestCostTrackerMonotonic(t *testing.T) {
	tracker := NewCostTracker(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.OnUsage(TokenUsage{PromptTokens: 100, CompletionTokens: 50}, "gpt-4o", "openai")
		}()
	}
	wg.Wait()

	snap := tracker.Snapshot()
	if snap.PromptTokens != 2000 || snap.CompletionTokens != 1000 {
		t.Errorf("token totals = %d/%d, want 2000/1000", snap.PromptTokens, snap.CompletionTokens)
	}
	want := 20 * 150.0 / 1000 * 0.00001
	if diff := snap.TotalCost - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("total cost = %v, want %v", snap.TotalCost, want)
	}
}

func TestCostTrackerUnknownModelDefault(t *testing.T) {
	tracker := NewCostTracker(nil)
	tracker.OnUsage(TokenUsage{PromptTokens: 500, CompletionTokens: 500}, "mystery-model", "custom")

	want := 1000.0 / 1000 * defaultCostPer1k
	if got := tracker.Total(); got != want {
		t.Errorf("total = %v, want %v", got, want)
	}
}

func TestCostTrackerOnChangeObservesIncrements(t *testing.T) {
	var seen []float64
	tracker := NewCostTracker(func(snap CostSnapshot) {
		seen = append(seen, snap.TotalCost)
	})

	tracker.OnUsage(TokenUsage{PromptTokens: 10, CompletionTokens: 10}, "gpt-4", "openai")
	tracker.OnUsage(TokenUsage{PromptTokens: 10, CompletionTokens: 10}, "gpt-4", "openai")

	if len(seen) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(seen))
	}
	if seen[1] <= seen[0] {
		t.Errorf("cost not monotonic: %v", seen)
	}
}

func TestNormalizeModelDatedSuffix(t *testing.T) {
	if got := normalizeModel("gpt-4o-2024-08-06"); got != "gpt-4o" {
		t.Errorf("got %q", got)
	}
	if got := normalizeModel("gpt-4o-mini-2024-07-18"); got != "gpt-4o-mini" {
		t.Errorf("got %q", got)
	}
}
