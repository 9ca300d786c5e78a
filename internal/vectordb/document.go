package vectordb

// Document is a catalog entry as held by the vector index.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  DocumentMetadata
}

// DocumentMetadata holds the fields the recommendation needs without a
// second catalog lookup.
type DocumentMetadata struct {
	Name         string
	ReferenceURL string
	// Position is the catalog insertion order; it breaks similarity ties.
	Position int
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}
