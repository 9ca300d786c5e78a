package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/barback/internal/config"
	"github.com/ziadkadry99/barback/internal/db"
	"github.com/ziadkadry99/barback/internal/dialogue"
	"github.com/ziadkadry99/barback/internal/matcher"
)

var t0 = time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

func sampleState(id string) *dialogue.State {
	return &dialogue.State{
		SessionID: id,
		Transcript: []dialogue.Turn{
			{Speaker: dialogue.SpeakerAssistant, Text: "Evening! Hope Tulsa is treating you well."},
			{Speaker: dialogue.SpeakerUser, Text: "I love citrus and whiskey"},
			{Speaker: dialogue.SpeakerAssistant, Text: "How are you feeling?", Options: []string{"Relaxed", "Wired"}},
		},
		Moods:       dialogue.SignalSet{"curious"},
		Ingredients: dialogue.SignalSet{"citrus", "whiskey"},
		Phase:       dialogue.PhaseInterviewing,
		Context:     dialogue.Context{Location: "Tulsa", Weather: "clear", LocalTime: "9:00 PM"},
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
}

func doneState(id string) *dialogue.State {
	st := sampleState(id)
	st.Phase = dialogue.PhaseDone
	st.Recommendation = &dialogue.Recommendation{
		ItemID:     "whiskey-sour",
		Name:       "Whiskey Sour",
		Rationale:  "Tart and easy.",
		Candidates: []matcher.Candidate{{ID: "whiskey-sour", Name: "Whiskey Sour", Similarity: 0.9}},
	}
	return st
}

// exerciseCheckpointer runs the behaviour every backend shares.
func exerciseCheckpointer(t *testing.T, store Checkpointer) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	st := sampleState("s1")
	require.NoError(t, store.Save(ctx, "s1", st))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, st, got)

	// Overwrite with a later state.
	done := doneState("s1")
	require.NoError(t, store.Save(ctx, "s1", done))
	got, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, dialogue.PhaseDone, got.Phase)
	require.NotNil(t, got.Recommendation)
	assert.Equal(t, "whiskey-sour", got.Recommendation.ItemID)

	// Loaded state is independent of the store.
	got.Moods = got.Moods.Add("mutated")
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, again.Moods.Contains("mutated"))

	// History carries the picked drink and honours the limit.
	second := sampleState("s2")
	second.CreatedAt = t0.Add(time.Minute)
	require.NoError(t, store.Save(ctx, "s2", second))

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	byID := map[string]Summary{}
	for _, sum := range list {
		byID[sum.SessionID] = sum
	}
	assert.Equal(t, dialogue.PhaseDone, byID["s1"].Phase)
	assert.Equal(t, "whiskey-sour", byID["s1"].DrinkID)
	assert.Equal(t, "Whiskey Sour", byID["s1"].DrinkName)
	assert.Equal(t, dialogue.PhaseInterviewing, byID["s2"].Phase)
	assert.Empty(t, byID["s2"].DrinkID)
	assert.False(t, byID["s2"].CreatedAt.IsZero())

	list, err = store.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestMemoryStore(t *testing.T) {
	exerciseCheckpointer(t, NewMemoryStore(0))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	now := t0
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", sampleState("old")))
	now = now.Add(30 * time.Minute)
	_, err := store.Load(ctx, "old")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = store.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)

	newer := sampleState("new")
	newer.CreatedAt = t0.Add(90 * time.Minute)
	require.NoError(t, store.Save(ctx, "new", newer))
	require.NoError(t, store.Save(ctx, "newest", doneState("newest")))
	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].SessionID)
	assert.Equal(t, "newest", list[1].SessionID)
	assert.Equal(t, "Whiskey Sour", list[1].DrinkName)
}

func TestSQLiteStore(t *testing.T) {
	exerciseCheckpointer(t, NewSQLiteStore(newTestDB(t), 0))
}

func TestSQLiteStoreExpiryAndPrune(t *testing.T) {
	store := NewSQLiteStore(newTestDB(t), time.Hour)
	now := t0
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "stale", sampleState("stale")))
	now = now.Add(2 * time.Hour)
	require.NoError(t, store.Save(ctx, "fresh", doneState("fresh")))

	_, err := store.Load(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Load(ctx, "fresh")
	assert.NoError(t, err)

	counts, err := store.CountByPhase(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[dialogue.PhaseInterviewing])
	assert.Equal(t, 1, counts[dialogue.PhaseDone])

	n, err := store.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	counts, err = store.CountByPhase(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts[dialogue.PhaseInterviewing])
}

func TestSQLiteStoreListSkipsExpiredNewestFirst(t *testing.T) {
	store := NewSQLiteStore(newTestDB(t), time.Hour)
	now := t0
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "stale", sampleState("stale")))
	now = now.Add(2 * time.Hour)
	require.NoError(t, store.Save(ctx, "earlier", sampleState("earlier")))
	now = now.Add(time.Minute)
	require.NoError(t, store.Save(ctx, "later", doneState("later")))

	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "later", list[0].SessionID)
	assert.Equal(t, "whiskey-sour", list[0].DrinkID)
	assert.Equal(t, "earlier", list[1].SessionID)
	assert.True(t, list[1].CreatedAt.Equal(t0.Add(2*time.Hour)))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Ping(context.Background()))
	exerciseCheckpointer(t, store)
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", sampleState("s1")))
	assert.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+"s1"))

	mr.FastForward(2 * time.Hour)
	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewSelectsBackend(t *testing.T) {
	database := newTestDB(t)

	cp, err := New(config.CheckpointConfig{Backend: config.BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, cp)

	cp, err = New(config.CheckpointConfig{Backend: config.BackendSQLite}, database)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, cp)

	_, err = New(config.CheckpointConfig{Backend: config.BackendSQLite}, nil)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	cp, err = New(config.CheckpointConfig{Backend: config.BackendRedis, RedisAddr: mr.Addr()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, cp)
	cp.Close()

	_, err = New(config.CheckpointConfig{Backend: "etcd"}, nil)
	assert.Error(t, err)
}
