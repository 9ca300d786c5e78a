package checkpoint

import (
	"context"
	"sync"
	"time"

	"github.com/ziadkadry99/barback/internal/dialogue"
)

type memoryEntry struct {
	state   *dialogue.State
	savedAt time.Time
}

// MemoryStore keeps checkpoints in process memory. State is copied on the
// way in and out so callers never share it with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore. ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (*dialogue.State, error) {
	m.mu.RLock()
	e, ok := m.entries[sessionID]
	m.mu.RUnlock()
	if !ok || m.expired(e.savedAt) {
		return nil, ErrNotFound
	}
	return e.state.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, st *dialogue.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sessionID] = memoryEntry{state: st.Clone(), savedAt: m.now()}
	m.evictExpired()
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) List(_ context.Context, limit int) ([]Summary, error) {
	m.mu.RLock()
	list := make([]Summary, 0, len(m.entries))
	for _, e := range m.entries {
		if !m.expired(e.savedAt) {
			list = append(list, summarize(e.state))
		}
	}
	m.mu.RUnlock()

	sortNewestFirst(list)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MemoryStore) expired(savedAt time.Time) bool {
	return m.ttl > 0 && m.now().Sub(savedAt) > m.ttl
}

// evictExpired must be called with mu held.
func (m *MemoryStore) evictExpired() {
	if m.ttl <= 0 {
		return
	}
	for id, e := range m.entries {
		if m.expired(e.savedAt) {
			delete(m.entries, id)
		}
	}
}
