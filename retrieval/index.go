// Package retrieval implements the documentation pipeline: passages are
// embedded into a vector store and questions are answered from the most
// similar passages.
package retrieval

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/ragalytics/vector"
)

// Passage is one titled block of product documentation.
type Passage struct {
	ID         string
	Title      string
	Body       string
	Provenance string
}

// DefaultTopK is the number of passages retrieved per question.
const DefaultTopK = 5

// Index stores and searches passages through an embedder and a vector store.
type Index struct {
	store    vector.Store
	embedder vector.Embedder
}

// NewIndex creates a passage index.
func NewIndex(store vector.Store, embedder vector.Embedder) *Index {
	return &Index{store: store, embedder: embedder}
}

// Add embeds and stores passages. The embedded text is the full passage
// (title line plus body) so titles contribute to similarity.
func (idx *Index) Add(ctx context.Context, passages ...Passage) error {
	if len(passages) == 0 {
		return nil
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Title + "\n" + p.Body
	}
	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(passages) {
		return fmt.Errorf("expected %d embeddings, got %d", len(passages), len(vectors))
	}

	embeddings := make([]*vector.Embedding, len(passages))
	for i, p := range passages {
		embeddings[i] = &vector.Embedding{
			ID:     p.ID,
			Vector: vectors[i],
			Text:   p.Body,
			Metadata: map[string]string{
				"title":      p.Title,
				"provenance": p.Provenance,
			},
		}
	}
	return idx.store.Add(ctx, embeddings...)
}

// Search returns the topK most similar passages to the question.
func (idx *Index) Search(ctx context.Context, question string, topK int) ([]Passage, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	queryVec, err := idx.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	hits, err := idx.store.Search(ctx, queryVec, topK)
	if err != nil {
		return nil, fmt.Errorf("search passages: %w", err)
	}

	passages := make([]Passage, 0, len(hits))
	for _, hit := range hits {
		passages = append(passages, Passage{
			ID:         hit.ID,
			Title:      hit.Metadata["title"],
			Body:       hit.Text,
			Provenance: hit.Metadata["provenance"],
		})
	}
	return passages, nil
}

// IsEmpty reports whether the index holds no passages.
func (idx *Index) IsEmpty(ctx context.Context) (bool, error) {
	count, err := idx.store.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count passages: %w", err)
	}
	return count == 0, nil
}
