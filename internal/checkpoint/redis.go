package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ziadkadry99/barback/internal/dialogue"
)

const redisKeyPrefix = "barback:session:"

// RedisStore keeps checkpoints as JSON strings; Redis expires idle
// sessions through the key TTL, refreshed on every save.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects lazily to addr. ttl <= 0 stores keys without expiry.
func NewRedisStore(addr, password string, database int, ttl time.Duration) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       database,
	}), ttl)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, sessionID string) (*dialogue.State, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}

	var st dialogue.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", sessionID, err)
	}
	return &st, nil
}

func (r *RedisStore) Save(ctx context.Context, sessionID string, st *dialogue.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+sessionID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// List scans every session key. It reads each state, so it is meant for
// the occasional history view rather than hot paths.
func (r *RedisStore) List(ctx context.Context, limit int) ([]Summary, error) {
	list := []Summary{}
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("listing checkpoints: %w", err)
		}
		var st dialogue.State
		if err := json.Unmarshal(raw, &st); err != nil {
			return nil, fmt.Errorf("decoding checkpoint %s: %w", iter.Val(), err)
		}
		list = append(list, summarize(&st))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}

	sortNewestFirst(list)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
