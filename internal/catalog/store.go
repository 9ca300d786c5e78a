package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/barback/internal/db"
)

// Store persists the drink catalog in SQLite. Insertion order is kept in
// the position column and is the tie-break order for ranking.
type Store struct {
	db *db.DB
}

// NewStore creates a new catalog store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Upsert inserts a drink or updates it in place. An existing drink keeps
// its original position.
func (s *Store) Upsert(ctx context.Context, d Drink) error {
	if d.ID == "" {
		return fmt.Errorf("drink %q has no id", d.Name)
	}
	ingredients, err := json.Marshal(nonNil(d.Ingredients))
	if err != nil {
		return fmt.Errorf("encoding ingredients: %w", err)
	}
	tags, err := json.Marshal(nonNil(d.Tags))
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	var embedding sql.NullString
	if len(d.Embedding) > 0 {
		raw, err := json.Marshal(d.Embedding)
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		embedding = sql.NullString{String: string(raw), Valid: true}
	}
	var refURL sql.NullString
	if d.ReferenceURL != "" {
		refURL = sql.NullString{String: d.ReferenceURL, Valid: true}
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drinks (id, name, description, ingredients, tags, reference_url, embedding, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   ingredients = excluded.ingredients,
		   tags = excluded.tags,
		   reference_url = excluded.reference_url,
		   embedding = COALESCE(excluded.embedding, drinks.embedding),
		   updated_at = excluded.updated_at`,
		d.ID, d.Name, d.Description, string(ingredients), string(tags), refURL, embedding, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting drink %s: %w", d.ID, err)
	}
	return nil
}

// Get retrieves a drink by id. It returns nil, nil when no drink matches.
func (s *Store) Get(ctx context.Context, id string) (*Drink, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT position, id, name, description, ingredients, tags, reference_url, embedding, created_at, updated_at
		 FROM drinks WHERE id = ?`, id)
	d, err := scanDrink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting drink: %w", err)
	}
	return d, nil
}

// List returns the catalog in insertion order.
func (s *Store) List(ctx context.Context) ([]Drink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, id, name, description, ingredients, tags, reference_url, embedding, created_at, updated_at
		 FROM drinks ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing drinks: %w", err)
	}
	defer rows.Close()

	var drinks []Drink
	for rows.Next() {
		d, err := scanDrink(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning drink: %w", err)
		}
		drinks = append(drinks, *d)
	}
	return drinks, rows.Err()
}

// IngredientSearchLimit caps the results of Ingredients.
const IngredientSearchLimit = 50

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Ingredients returns distinct catalog ingredients containing search,
// case-insensitively, in alphabetical order. An empty search lists all.
func (s *Store) Ingredients(ctx context.Context, search string) ([]string, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT LOWER(j.value) AS name
		 FROM drinks, json_each(drinks.ingredients) AS j
		 WHERE LOWER(j.value) LIKE ? ESCAPE '\'
		 ORDER BY name
		 LIMIT ?`, pattern, IngredientSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching ingredients: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning ingredient: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the number of drinks in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drinks`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDrink(sc scanner) (*Drink, error) {
	var d Drink
	var ingredients, tags string
	var refURL, embedding sql.NullString
	if err := sc.Scan(&d.Position, &d.ID, &d.Name, &d.Description, &ingredients, &tags, &refURL, &embedding, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ingredients), &d.Ingredients); err != nil {
		return nil, fmt.Errorf("decoding ingredients of %s: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of %s: %w", d.ID, err)
	}
	d.ReferenceURL = refURL.String
	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &d.Embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding of %s: %w", d.ID, err)
		}
	}
	return &d, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
