package catalog

import (
	"strings"
	"time"
)

// Drink is one entry of the read-only recommendation catalog.
type Drink struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description" yaml:"description"`
	Ingredients  []string  `json:"ingredients" yaml:"ingredients"`
	Tags         []string  `json:"tags" yaml:"tags"`
	ReferenceURL string    `json:"reference_url,omitempty" yaml:"reference_url"`
	Embedding    []float32 `json:"-" yaml:"-"`
	Position     int       `json:"position" yaml:"-"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"-"`
}

// DescriptiveText is the text embedded for similarity ranking. It mirrors
// the shape of the matcher's query so drinks and signals land in the same
// region of the embedding space.
func (d Drink) DescriptiveText() string {
	var sb strings.Builder
	sb.WriteString(d.Name)
	if len(d.Ingredients) > 0 {
		sb.WriteString("; Has ingredients: ")
		sb.WriteString(strings.Join(d.Ingredients, ", "))
	}
	if len(d.Tags) > 0 {
		sb.WriteString("; For these moods: ")
		sb.WriteString(strings.Join(d.Tags, ", "))
	}
	if d.Description != "" {
		sb.WriteString("; ")
		sb.WriteString(d.Description)
	}
	return sb.String()
}
