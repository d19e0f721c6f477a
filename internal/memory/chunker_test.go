package memory

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	c, err := NewChunker(ChunkerConfig{})
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}

	chunks := c.Split("A short paragraph that easily fits in one chunk.")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestSplitRespectsTokenBound(t *testing.T) {
	c, err := NewChunker(ChunkerConfig{ChunkSize: 40, ChunkOverlap: 8})
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}

	var paras []string
	for i := 0; i < 12; i++ {
		paras = append(paras, "The quick brown fox jumps over the lazy dog near the river bank.")
	}
	chunks := c.Split(strings.Join(paras, "\n\n"))

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Overlap may push a chunk slightly past the bound, but never by more
	// than the overlap itself.
	for i, chunk := range chunks {
		if got := c.CountTokens(chunk); got > 40+8 {
			t.Errorf("chunk %d has %d tokens, want <= 48", i, got)
		}
	}
}

func TestSplitLongParagraphOnSentences(t *testing.T) {
	c, err := NewChunker(ChunkerConfig{ChunkSize: 30, ChunkOverlap: 5})
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}

	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("Sentence number with enough words to count toward the limit. ")
	}
	chunks := c.Split(b.String())

	if len(chunks) < 2 {
		t.Fatalf("expected paragraph to split, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if !strings.HasSuffix(strings.TrimSpace(chunk), ".") {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", i, chunk)
		}
	}
}

func TestSplitEmptyText(t *testing.T) {
	c, err := NewChunker(ChunkerConfig{})
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	if chunks := c.Split("   \n\n  "); chunks != nil {
		t.Fatalf("expected nil for blank input, got %v", chunks)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First one. Second one! Third?\nFourth line")
	want := []string{"First one.", "Second one!", "Third?", "Fourth line"}
	if len(got) != len(want) {
		t.Fatalf("got %d sentences %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %q, want %q", i, got[i], want[i])
		}
	}
}
