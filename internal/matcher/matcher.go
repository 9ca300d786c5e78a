// Package matcher ranks catalog drinks against accumulated mood and
// ingredient signals.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ziadkadry99/barback/internal/catalog"
	"github.com/ziadkadry99/barback/internal/embeddings"
	"github.com/ziadkadry99/barback/internal/vectordb"
)

// DefaultTopK is the number of candidates returned when none is configured.
const DefaultTopK = 4

// ErrUnavailable is returned when the query could not be embedded.
var ErrUnavailable = errors.New("matcher unavailable")

// Candidate is one ranked drink.
type Candidate struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	ReferenceURL string  `json:"reference_url,omitempty"`
	Similarity   float32 `json:"similarity"`
}

// Matcher embeds a signal query and ranks the indexed catalog.
type Matcher struct {
	index    vectordb.VectorStore
	embedder embeddings.Embedder
	topK     int
}

// New creates a Matcher over an index. topK <= 0 selects DefaultTopK.
func New(index vectordb.VectorStore, embedder embeddings.Embedder, topK int) *Matcher {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Matcher{index: index, embedder: embedder, topK: topK}
}

// Query builds the text embedded for a set of signals.
func Query(ingredients, moods []string) string {
	return "Has ingredients: " + strings.Join(ingredients, ", ") + "; For these moods: " + strings.Join(moods, ", ")
}

// Rank returns up to topK candidates, best first. An empty catalog yields
// an empty result without calling the embedder.
func (m *Matcher) Rank(ctx context.Context, ingredients, moods []string) ([]Candidate, error) {
	if m.index.Count() == 0 {
		return nil, nil
	}

	vec, err := embeddings.EmbedOne(ctx, m.embedder, Query(ingredients, moods))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", ErrUnavailable)
	}

	results, err := m.index.QueryEmbedding(ctx, vec, m.topK)
	if err != nil {
		return nil, fmt.Errorf("ranking drinks: %w", err)
	}

	candidates := make([]Candidate, len(results))
	for i, r := range results {
		candidates[i] = Candidate{
			ID:           r.Document.ID,
			Name:         r.Document.Metadata.Name,
			Description:  r.Document.Content,
			ReferenceURL: r.Document.Metadata.ReferenceURL,
			Similarity:   r.Similarity,
		}
	}
	return candidates, nil
}

// BuildIndex loads every embedded drink from the catalog into an index.
// Drinks without a stored embedding are skipped and counted.
func BuildIndex(ctx context.Context, store *catalog.Store, index vectordb.VectorStore) (skipped int, err error) {
	drinks, err := store.List(ctx)
	if err != nil {
		return 0, err
	}

	docs := make([]vectordb.Document, 0, len(drinks))
	for _, d := range drinks {
		if len(d.Embedding) == 0 {
			skipped++
			continue
		}
		docs = append(docs, vectordb.Document{
			ID:        d.ID,
			Content:   d.DescriptiveText(),
			Embedding: d.Embedding,
			Metadata: vectordb.DocumentMetadata{
				Name:         d.Name,
				ReferenceURL: d.ReferenceURL,
				Position:     d.Position,
			},
		})
	}
	if err := index.AddDocuments(ctx, docs); err != nil {
		return skipped, fmt.Errorf("indexing drinks: %w", err)
	}
	return skipped, nil
}

// FormatCandidates renders ranked candidates as human-readable text.
func FormatCandidates(candidates []Candidate) string {
	if len(candidates) == 0 {
		return "No drinks found."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d drink(s):\n\n", len(candidates)))
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("%d. %s (similarity: %.4f)\n", i+1, c.Name, c.Similarity))
		if c.ReferenceURL != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", c.ReferenceURL))
		}
	}
	return sb.String()
}
