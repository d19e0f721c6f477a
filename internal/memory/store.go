package memory

import (
	"context"
	"fmt"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"
)

// Document is one stored passage with provenance metadata.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// StoreResult is a similarity hit.
type StoreResult struct {
	Document   Document
	Similarity float32
}

// VectorStore persists passages and answers similarity queries.
type VectorStore interface {
	Add(ctx context.Context, docs []Document) error

	// Query runs text-based similarity search with an optional metadata
	// filter.
	Query(ctx context.Context, text string, topK int, where map[string]string) ([]StoreResult, error)

	Count() int
	Close() error
}

// StoreConfig holds vector store settings.
type StoreConfig struct {
	PersistPath string
	Collection  string
}

type chromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewVectorStore opens a chromem-backed store. Embeddings are produced by the
// given embedder via chromem's embedding hook.
func NewVectorStore(config StoreConfig, embedder Embedder) (VectorStore, error) {
	if config.Collection == "" {
		config.Collection = "research"
	}

	var db *chromem.DB
	var err error
	if config.PersistPath != "" {
		db, err = chromem.NewPersistentDB(filepath.Join(config.PersistPath, "scout.gob"), false)
		if err != nil {
			return nil, fmt.Errorf("create persistent store: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
	collection, err := db.GetOrCreateCollection(config.Collection, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &chromemStore{db: db, collection: collection}, nil
}

func (s *chromemStore) Add(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		err := s.collection.AddDocument(ctx, chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: doc.Metadata,
		})
		if err != nil {
			return fmt.Errorf("add document %s: %w", doc.ID, err)
		}
	}
	return nil
}

func (s *chromemStore) Query(ctx context.Context, text string, topK int, where map[string]string) ([]StoreResult, error) {
	if topK <= 0 {
		topK = 5
	}
	// chromem errors when asked for more results than stored.
	if count := s.collection.Count(); topK > count {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	results, err := s.collection.Query(ctx, text, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}
	out := make([]StoreResult, 0, len(results))
	for _, r := range results {
		out = append(out, StoreResult{
			Document:   Document{ID: r.ID, Content: r.Content, Metadata: r.Metadata},
			Similarity: r.Similarity,
		})
	}
	return out, nil
}

func (s *chromemStore) Count() int {
	return s.collection.Count()
}

func (s *chromemStore) Close() error {
	// chromem persists on write; nothing to flush.
	return nil
}
