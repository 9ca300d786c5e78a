package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ziadkadry99/barback/internal/db"
	"github.com/ziadkadry99/barback/internal/dialogue"
)

// SQLiteStore keeps checkpoints in the checkpoints table as JSON blobs.
type SQLiteStore struct {
	db  *db.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteStore creates a SQLiteStore. ttl <= 0 disables expiry.
func NewSQLiteStore(database *db.DB, ttl time.Duration) *SQLiteStore {
	return &SQLiteStore{db: database, ttl: ttl, now: time.Now}
}

func (s *SQLiteStore) Load(ctx context.Context, sessionID string) (*dialogue.State, error) {
	var raw string
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT state, updated_at FROM checkpoints WHERE session_id = ?`, sessionID,
	).Scan(&raw, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	if s.ttl > 0 && s.now().Sub(updatedAt) > s.ttl {
		return nil, ErrNotFound
	}

	var st dialogue.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", sessionID, err)
	}
	return &st, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sessionID string, st *dialogue.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (session_id, phase, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   phase = excluded.phase,
		   state = excluded.state,
		   updated_at = excluded.updated_at`,
		sessionID, string(st.Phase), string(raw), now, now,
	)
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT session_id, phase,
	        COALESCE(json_extract(state, '$.recommendation.item_id'), ''),
	        COALESCE(json_extract(state, '$.recommendation.name'), ''),
	        created_at, updated_at
	   FROM checkpoints`
	args := []any{}
	if s.ttl > 0 {
		query += ` WHERE updated_at >= ?`
		args = append(args, s.now().UTC().Add(-s.ttl))
	}
	query += ` ORDER BY created_at DESC, session_id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	defer rows.Close()

	list := []Summary{}
	for rows.Next() {
		var sum Summary
		var phase string
		if err := rows.Scan(&sum.SessionID, &phase, &sum.DrinkID, &sum.DrinkName, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning checkpoint: %w", err)
		}
		sum.Phase = dialogue.Phase(phase)
		list = append(list, sum)
	}
	return list, rows.Err()
}

// Prune deletes checkpoints idle for longer than the TTL and returns how
// many were removed.
func (s *SQLiteStore) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-s.ttl)
	result, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning checkpoints: %w", err)
	}
	return result.RowsAffected()
}

// CountByPhase returns how many stored sessions are in each phase.
func (s *SQLiteStore) CountByPhase(ctx context.Context) (map[dialogue.Phase]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT phase, COUNT(*) FROM checkpoints GROUP BY phase`)
	if err != nil {
		return nil, fmt.Errorf("counting checkpoints: %w", err)
	}
	defer rows.Close()

	counts := make(map[dialogue.Phase]int)
	for rows.Next() {
		var phase string
		var n int
		if err := rows.Scan(&phase, &n); err != nil {
			return nil, fmt.Errorf("scanning checkpoint count: %w", err)
		}
		counts[dialogue.Phase(phase)] = n
	}
	return counts, rows.Err()
}

// Close is a no-op; the database is owned by the caller.
func (s *SQLiteStore) Close() error { return nil }
