package vectordb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
)

const (
	collectionName = "drinks"
	indexFile      = "drinks.gob.gz"
)

// ErrMissingEmbedding is returned when a document has no precomputed vector.
var ErrMissingEmbedding = errors.New("document has no embedding")

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemStore creates a new in-memory ChromemStore. Documents and
// queries arrive already embedded, so the collection never embeds text
// itself.
func NewChromemStore() (*ChromemStore, error) {
	db := chromem.NewDB()

	col, err := db.GetOrCreateCollection(collectionName, nil, refuseEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{db: db, collection: col}, nil
}

func refuseEmbedding(context.Context, string) ([]float32, error) {
	return nil, ErrMissingEmbedding
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("%s: %w", doc.ID, ErrMissingEmbedding)
		}
		// Copy so chromem's in-place normalization never touches the caller's slice.
		emb := make([]float32, len(doc.Embedding))
		copy(emb, doc.Embedding)
		chromDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: emb,
			Metadata:  metadataToMap(doc.Metadata),
		}
	}

	return s.collection.AddDocuments(ctx, chromDocs, 1)
}

func (s *ChromemStore) QueryEmbedding(ctx context.Context, embedding []float32, limit int) ([]SearchResult, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 4
	}

	// Rank the whole collection so ties at the cut-off resolve by position
	// rather than by chromem's internal ordering.
	q := make([]float32, len(embedding))
	copy(q, embedding)
	results, err := s.collection.QueryEmbedding(ctx, q, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}

	SortResults(searchResults)
	if len(searchResults) > limit {
		searchResults = searchResults[:limit]
	}
	return searchResults, nil
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	return s.db.ExportToFile(filepath.Join(dir, indexFile), true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	err := s.db.ImportFromFile(filepath.Join(dir, indexFile), "")
	if err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, refuseEmbedding)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// SortResults orders results by descending similarity, then ascending
// catalog position.
func SortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Document.Metadata.Position < results[j].Document.Metadata.Position
	})
}

// metadataToMap converts DocumentMetadata to a flat map[string]string for chromem.
func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"name":          m.Name,
		"reference_url": m.ReferenceURL,
		"position":      strconv.Itoa(m.Position),
	}
}

// mapToMetadata converts a flat map[string]string back to DocumentMetadata.
func mapToMetadata(m map[string]string) DocumentMetadata {
	position, _ := strconv.Atoi(m["position"])
	return DocumentMetadata{
		Name:         m["name"],
		ReferenceURL: m["reference_url"],
		Position:     position,
	}
}
