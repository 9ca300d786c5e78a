// Package checkpoint persists dialogue state between requests, keyed by
// session id.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ziadkadry99/barback/internal/config"
	"github.com/ziadkadry99/barback/internal/db"
	"github.com/ziadkadry99/barback/internal/dialogue"
)

// ErrNotFound is returned by Load for an unknown or expired session.
var ErrNotFound = errors.New("session not found")

// Checkpointer loads and saves dialogue state. Implementations do no
// per-session locking; callers serialize access to a session.
type Checkpointer interface {
	Load(ctx context.Context, sessionID string) (*dialogue.State, error)
	Save(ctx context.Context, sessionID string, st *dialogue.State) error
	// List returns up to limit live sessions, newest first.
	List(ctx context.Context, limit int) ([]Summary, error)
	Close() error
}

// Summary is one row of the session history.
type Summary struct {
	SessionID string         `json:"session_id"`
	Phase     dialogue.Phase `json:"phase"`
	DrinkID   string         `json:"drink_id,omitempty"`
	DrinkName string         `json:"drink_name,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func summarize(st *dialogue.State) Summary {
	s := Summary{
		SessionID: st.SessionID,
		Phase:     st.Phase,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
	if st.Recommendation != nil {
		s.DrinkID = st.Recommendation.ItemID
		s.DrinkName = st.Recommendation.Name
	}
	return s
}

// sortNewestFirst orders by creation time, newest first, then by id.
func sortNewestFirst(list []Summary) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].SessionID < list[j].SessionID
	})
}

// New builds the checkpointer selected by cfg.Backend. database is only
// used by the sqlite backend.
func New(cfg config.CheckpointConfig, database *db.DB) (Checkpointer, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(cfg.TTL), nil
	case config.BackendSQLite, "":
		if database == nil {
			return nil, fmt.Errorf("sqlite checkpoint backend needs a database")
		}
		return NewSQLiteStore(database, cfg.TTL), nil
	case config.BackendRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}
