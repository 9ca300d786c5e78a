package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/barback/internal/catalog"
	"github.com/ziadkadry99/barback/internal/checkpoint"
	"github.com/ziadkadry99/barback/internal/dialogue"
	"github.com/ziadkadry99/barback/internal/matcher"
)

type startRequest struct {
	Weather  string `json:"weather"`
	Location string `json:"location"`
	Time     string `json:"time"`
}

func (r startRequest) context() dialogue.Context {
	return dialogue.Context{Weather: r.Weather, Location: r.Location, LocalTime: r.Time}
}

type messageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type sessionResponse struct {
	SessionID      string                   `json:"session_id"`
	Phase          dialogue.Phase           `json:"phase"`
	Transcript     []dialogue.Turn          `json:"transcript"`
	Moods          []string                 `json:"moods"`
	Ingredients    []string                 `json:"ingredients"`
	Context        dialogue.Context         `json:"context"`
	Recommendation *dialogue.Recommendation `json:"recommendation,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	// An empty body, chunked or not, starts a session without context.
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := s.sessions.Start(r.Context(), req.context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	unlock := s.locks.lock(req.SessionID)
	defer unlock()

	out, err := s.sessions.Resume(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID:      st.SessionID,
		Phase:          st.Phase,
		Transcript:     st.Transcript,
		Moods:          nonNil(st.Moods),
		Ingredients:    nonNil(st.Ingredients),
		Context:        st.Context,
		Recommendation: st.Recommendation,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	list, err := s.sessions.List(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]checkpoint.Summary{"sessions": list})
}

func (s *Server) handleIngredients(w http.ResponseWriter, r *http.Request) {
	names, err := s.catalog.Ingredients(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ingredients": names})
}

// explainDrink adapts the session service to the catalog rationale route.
func (s *Server) explainDrink(ctx context.Context, d catalog.Drink, moods, ingredients []string) (string, error) {
	c := matcher.Candidate{
		ID:           d.ID,
		Name:         d.Name,
		Description:  d.DescriptiveText(),
		ReferenceURL: d.ReferenceURL,
	}
	return s.sessions.Explain(ctx, c, moods, ingredients)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dialogue.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, checkpoint.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dialogue.ErrMatcherUnavailable), errors.Is(err, dialogue.ErrNoCandidates):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
