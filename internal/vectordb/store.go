package vectordb

import "context"

// VectorStore defines the interface for storing catalog documents and
// ranking them against a query embedding.
type VectorStore interface {
	// AddDocuments adds or replaces documents. Every document must carry
	// its precomputed embedding.
	AddDocuments(ctx context.Context, docs []Document) error

	// QueryEmbedding ranks documents by descending cosine similarity to
	// the query embedding, breaking ties by ascending position.
	QueryEmbedding(ctx context.Context, embedding []float32, limit int) ([]SearchResult, error)

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of documents in the store.
	Count() int
}
