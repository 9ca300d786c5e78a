package catalog

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/barback/internal/embeddings"
)

const importBatchSize = 32

// Import embeds each drink's descriptive text and upserts it. onProgress,
// when set, receives the number of drinks stored so far.
func Import(ctx context.Context, store *Store, embedder embeddings.Embedder, drinks []Drink, onProgress func(done int)) error {
	for start := 0; start < len(drinks); start += importBatchSize {
		end := start + importBatchSize
		if end > len(drinks) {
			end = len(drinks)
		}
		batch := drinks[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.DescriptiveText()
		}
		vecs, err := embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding drinks %d-%d: %w", start+1, end, err)
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d drinks", len(vecs), len(batch))
		}

		for i := range batch {
			d := batch[i]
			d.Embedding = vecs[i]
			if err := store.Upsert(ctx, d); err != nil {
				return err
			}
			if onProgress != nil {
				onProgress(start + i + 1)
			}
		}
	}
	return nil
}
