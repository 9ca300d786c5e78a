package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Explainer writes a rationale for d against the given moods and
// ingredient preferences.
type Explainer func(ctx context.Context, d Drink, moods, ingredients []string) (string, error)

// RegisterRoutes mounts the catalog API routes. The rationale route is
// only mounted when explain is non-nil.
func RegisterRoutes(r chi.Router, store *Store, explain Explainer) {
	r.Route("/api/drinks", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Get("/{id}", handleGet(store))
		if explain != nil {
			r.Post("/rationale", handleRationale(store, explain))
		}
	})
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drinks, err := store.List(r.Context())
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if drinks == nil {
			drinks = []Drink{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(drinks)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if d == nil {
			http.Error(w, `{"error":"drink not found"}`, http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(d)
	}
}

type rationaleRequest struct {
	ItemID      string   `json:"item_id"`
	Moods       []string `json:"moods"`
	Ingredients []string `json:"ingredients"`
}

type rationaleResponse struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Rationale string `json:"rationale"`
}

func handleRationale(store *Store, explain Explainer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rationaleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if blank(req.Moods) || blank(req.Ingredients) {
			http.Error(w, `{"error":"moods and preferences are required"}`, http.StatusBadRequest)
			return
		}

		d, err := store.Get(r.Context(), req.ItemID)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if d == nil {
			http.Error(w, `{"error":"drink not found"}`, http.StatusNotFound)
			return
		}

		text, err := explain(r.Context(), *d, req.Moods, req.Ingredients)
		if err != nil {
			http.Error(w, `{"error":"failed to generate rationale"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rationaleResponse{ItemID: d.ID, Name: d.Name, Rationale: text})
	}
}

// blank reports whether tags holds no non-whitespace entry.
func blank(tags []string) bool {
	for _, t := range tags {
		if strings.TrimSpace(t) != "" {
			return false
		}
	}
	return true
}
