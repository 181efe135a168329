// Package vector defines the retrieval index capability: embedding storage
// and nearest-neighbour search by cosine similarity.
package vector

import (
	"context"
	"math"
)

// Embedding represents one stored vector with its source text and metadata.
type Embedding struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// Store defines the interface for vector storage and similarity search.
type Store interface {
	// Add inserts embeddings into the store.
	Add(ctx context.Context, embeddings ...*Embedding) error

	// Search finds the topK embeddings most similar to the query vector,
	// best first.
	Search(ctx context.Context, queryVector []float32, topK int) ([]*Embedding, error)

	// Clear removes all embeddings.
	Clear(ctx context.Context) error

	// Count returns the number of embeddings.
	Count(ctx context.Context) (int, error)
}

// Embedder converts text into vector embeddings.
type Embedder interface {
	// Embed converts text to a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the number of embedding dimensions.
	Dimension() int
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA)))*float32(math.Sqrt(float64(normB))) + 1e-8)
}

// Normalize scales the vector to unit length (L2 norm).
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
