package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"scout/internal/logging"
)

// Candidate is one scraped or loaded document offered for ranking.
type Candidate struct {
	URL     string
	Title   string
	Content string
}

// entryDelimiter separates ranked entries in the composed context. The
// budget cut always lands on this boundary.
const entryDelimiter = "\n\n"

// ContextManager ranks candidate passages against a query and composes a
// bounded context string.
type ContextManager struct {
	embedder Embedder
	store    VectorStore
	chunker  *Chunker
	maxChars int
	logger   logging.Logger
}

// NewContextManager builds a manager. embedder may be nil, in which case
// ranking is lexical. store is optional; when present it takes precedence
// over direct embedding.
func NewContextManager(embedder Embedder, store VectorStore, maxChars int, logger logging.Logger) (*ContextManager, error) {
	chunker, err := NewChunker(ChunkerConfig{})
	if err != nil {
		return nil, err
	}
	if maxChars <= 0 {
		maxChars = 100000
	}
	return &ContextManager{
		embedder: embedder,
		store:    store,
		chunker:  chunker,
		maxChars: maxChars,
		logger:   logging.OrNop(logger),
	}, nil
}

type rankedEntry struct {
	url    string
	title  string
	chunks []string
	score  float64
}

// RankAndTrim returns a context string with one entry per unique URL,
// ordered by descending relevance and cut at the character budget. It never
// fails: ranking degrades to lexical overlap when embeddings are
// unavailable, and an empty candidate set yields an empty string.
func (m *ContextManager) RankAndTrim(ctx context.Context, query string, candidates []Candidate) string {
	type chunkRef struct {
		entry *rankedEntry
		text  string
		score float64
	}

	seen := make(map[string]bool)
	var entries []*rankedEntry
	var refs []chunkRef
	var texts []string
	for _, cand := range candidates {
		content := strings.TrimSpace(cand.Content)
		if content == "" || seen[cand.URL] {
			continue
		}
		seen[cand.URL] = true
		entry := &rankedEntry{url: cand.URL, title: cand.Title}
		entries = append(entries, entry)
		for _, chunk := range m.chunker.Split(content) {
			refs = append(refs, chunkRef{entry: entry, text: chunk})
			texts = append(texts, chunk)
		}
	}
	if len(refs) == 0 {
		return ""
	}

	scores, err := m.scoreChunks(ctx, query, texts)
	if err != nil {
		m.logger.Warn("embedding ranking unavailable, using lexical overlap: %v", err)
		scores = lexicalScores(query, texts)
	}

	// Order chunks by similarity, then fold them into one entry per URL.
	// The first (best) chunk of an entry sets its score.
	order := make([]int, len(refs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	for _, idx := range order {
		ref := refs[idx]
		if len(ref.entry.chunks) == 0 {
			ref.entry.score = scores[idx]
		}
		ref.entry.chunks = append(ref.entry.chunks, ref.text)
	}
	sort.SliceStable(entries, func(a, b int) bool { return entries[a].score > entries[b].score })

	var out strings.Builder
	for _, entry := range entries {
		if len(entry.chunks) == 0 {
			continue
		}
		block := formatEntry(entry)
		if out.Len() > 0 && out.Len()+len(entryDelimiter)+len(block) > m.maxChars {
			break
		}
		if out.Len() == 0 && len(block) > m.maxChars {
			// A single oversized entry is cut at a chunk boundary.
			block = trimEntry(entry, m.maxChars)
			if block == "" {
				continue
			}
		}
		if out.Len() > 0 {
			out.WriteString(entryDelimiter)
		}
		out.WriteString(block)
	}
	return out.String()
}

func formatEntry(entry *rankedEntry) string {
	var b strings.Builder
	b.WriteString("Source: ")
	b.WriteString(entry.url)
	b.WriteString("\n")
	if entry.title != "" {
		b.WriteString("Title: ")
		b.WriteString(entry.title)
		b.WriteString("\n")
	}
	b.WriteString("Content: ")
	b.WriteString(strings.Join(entry.chunks, "\n"))
	return b.String()
}

func trimEntry(entry *rankedEntry, budget int) string {
	trimmed := &rankedEntry{url: entry.url, title: entry.title}
	for _, chunk := range entry.chunks {
		next := append(trimmed.chunks, chunk)
		candidate := formatEntry(&rankedEntry{url: entry.url, title: entry.title, chunks: next})
		if len(candidate) > budget {
			break
		}
		trimmed.chunks = next
	}
	if len(trimmed.chunks) == 0 {
		return ""
	}
	return formatEntry(trimmed)
}

func (m *ContextManager) scoreChunks(ctx context.Context, query string, texts []string) ([]float64, error) {
	if m.store != nil {
		return m.scoreWithStore(ctx, query, texts)
	}
	if m.embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}

	queryEmb, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	chunkEmbs, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(texts))
	for i, emb := range chunkEmbs {
		scores[i] = cosine(queryEmb, emb)
	}
	return scores, nil
}

// scoreWithStore loads the chunks into the vector store and reads scores
// back from a similarity query.
func (m *ContextManager) scoreWithStore(ctx context.Context, query string, texts []string) ([]float64, error) {
	docs := make([]Document, len(texts))
	for i, text := range texts {
		docs[i] = Document{ID: fmt.Sprintf("chunk-%d", i), Content: text}
	}
	if err := m.store.Add(ctx, docs); err != nil {
		return nil, err
	}
	results, err := m.store.Query(ctx, query, len(texts), nil)
	if err != nil {
		return nil, err
	}
	byContent := make(map[string]float64, len(results))
	for _, r := range results {
		byContent[r.Document.Content] = float64(r.Similarity)
	}
	scores := make([]float64, len(texts))
	for i, text := range texts {
		scores[i] = byContent[text]
	}
	return scores, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// lexicalScores ranks chunks by query term overlap. It is the fallback when
// no embedding provider is reachable.
func lexicalScores(query string, texts []string) []float64 {
	terms := tokenizeWords(query)
	scores := make([]float64, len(texts))
	if len(terms) == 0 {
		return scores
	}
	for i, text := range texts {
		words := make(map[string]bool)
		for _, w := range tokenizeWords(text) {
			words[w] = true
		}
		hits := 0
		for _, term := range terms {
			if words[term] {
				hits++
			}
		}
		scores[i] = float64(hits) / float64(len(terms))
	}
	return scores
}

func tokenizeWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
}
