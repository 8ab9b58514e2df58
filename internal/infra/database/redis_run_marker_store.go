package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a client and checks the server answers.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisRunMarkerStore keeps the last batch run per owner under run_marker:<owner>.
type RedisRunMarkerStore struct {
	client redis.UniversalClient
}

func NewRedisRunMarkerStore(client redis.UniversalClient) *RedisRunMarkerStore {
	return &RedisRunMarkerStore{client: client}
}

func runMarkerKey(ownerID string) string {
	return fmt.Sprintf("run_marker:%s", ownerID)
}

func (s *RedisRunMarkerStore) Get(ctx context.Context, ownerID string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, runMarkerKey(ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis run marker error: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("error parsing run marker %q: %w", raw, err)
	}
	return at, true, nil
}

func (s *RedisRunMarkerStore) Set(ctx context.Context, ownerID string, at time.Time) error {
	if err := s.client.Set(ctx, runMarkerKey(ownerID), at.Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("redis run marker error: %w", err)
	}
	return nil
}

func (s *RedisRunMarkerStore) Clear(ctx context.Context, ownerID string) error {
	if err := s.client.Del(ctx, runMarkerKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("redis run marker error: %w", err)
	}
	return nil
}
