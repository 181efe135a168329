package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sweetpotato0/ragalytics/vector"
)

// Store implements vector.Store using in-memory storage.
type Store struct {
	embeddings map[string]*vector.Embedding
	mu         sync.RWMutex
}

// New creates a new in-memory vector store.
func New() *Store {
	return &Store{
		embeddings: make(map[string]*vector.Embedding),
	}
}

// Add inserts embeddings into the store.
func (s *Store) Add(ctx context.Context, embeddings ...*vector.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, embedding := range embeddings {
		if embedding == nil {
			return fmt.Errorf("embedding cannot be nil")
		}
		if embedding.ID == "" {
			return fmt.Errorf("embedding ID cannot be empty")
		}
		if len(embedding.Vector) == 0 {
			return fmt.Errorf("embedding vector cannot be empty")
		}
		s.embeddings[embedding.ID] = embedding
	}
	return nil
}

// Search finds embeddings similar to the query vector.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]*vector.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}

	type scored struct {
		embedding  *vector.Embedding
		similarity float32
	}

	results := make([]scored, 0, len(s.embeddings))
	for _, emb := range s.embeddings {
		if len(emb.Vector) != len(queryVector) {
			continue
		}
		results = append(results, scored{
			embedding:  emb,
			similarity: vector.CosineSimilarity(queryVector, emb.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].similarity > results[j].similarity
	})

	limit := topK
	if limit > len(results) {
		limit = len(results)
	}

	embeddings := make([]*vector.Embedding, limit)
	for i := 0; i < limit; i++ {
		embeddings[i] = results[i].embedding
	}
	return embeddings, nil
}

// Clear removes all embeddings.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.embeddings = make(map[string]*vector.Embedding)
	return nil
}

// Count returns the number of embeddings.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.embeddings), nil
}
