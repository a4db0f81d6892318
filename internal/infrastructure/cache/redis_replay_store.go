package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "packaging:replay:"

// RedisReplayStore implements ReplayStore using Redis
// This is suitable for deployments where several instances share replay state
type RedisReplayStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisReplayStore connects to addr and verifies the connection
func NewRedisReplayStore(addr, password string, db int) (*RedisReplayStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisReplayStoreWithClient(client, ""), nil
}

// NewRedisReplayStoreWithClient creates a store with an existing Redis client
func NewRedisReplayStoreWithClient(client *redis.Client, keyPrefix string) *RedisReplayStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisReplayStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Remember stores payload under key with SETNX so only the first writer wins
func (s *RedisReplayStore) Remember(ctx context.Context, key string, payload []byte, ttl time.Duration) (bool, error) {
	stored, err := s.client.SetNX(ctx, s.keyPrefix+key, payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remember replay key: %w", err)
	}
	return stored, nil
}

// Store overwrites the payload under key
func (s *RedisReplayStore) Store(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store replay key: %w", err)
	}
	return nil
}

// Forget removes key
func (s *RedisReplayStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to forget replay key: %w", err)
	}
	return nil
}

// Recall returns the payload stored under key
func (s *RedisReplayStore) Recall(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to recall replay key: %w", err)
	}
	return payload, true, nil
}

// Close closes the Redis client
func (s *RedisReplayStore) Close() error {
	return s.client.Close()
}

var _ shared.ReplayStore = (*RedisReplayStore)(nil)
