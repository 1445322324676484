package recordstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/skill-assessment/internal/assessment"
)

// DefaultKeyPrefix namespaces record keys in Redis
const DefaultKeyPrefix = "assessment:"

// RedisStore keeps one JSON record per owner under <prefix><owner>
type RedisStore struct {
	BaseStore
	client redis.UniversalClient
	prefix string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg.Prefix), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		BaseStore: BaseStore{storeType: "redis"},
		client:    client,
		prefix:    prefix,
	}
}

// Key returns the Redis key holding the owner's record
func (s *RedisStore) Key(owner string) string {
	return s.prefix + owner
}

// Put overwrites the owner's record. Records never expire.
func (s *RedisStore) Put(ctx context.Context, owner string, rec *assessment.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := s.client.Set(ctx, s.Key(owner), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store record in redis: %w", err)
	}

	slog.Debug("record stored in redis", "key", s.Key(owner), "bytes", len(data))
	return nil
}

// Latest reads the owner's record
func (s *RedisStore) Latest(ctx context.Context, owner string) (*assessment.Record, error) {
	data, err := s.client.Get(ctx, s.Key(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read record from redis: %w", err)
	}

	var rec assessment.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

// Invalidate deletes the owner's record so reads fall through to the next store
func (s *RedisStore) Invalidate(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, s.Key(owner)).Err(); err != nil {
		return fmt.Errorf("failed to delete record from redis: %w", err)
	}
	return nil
}

// HealthCheck verifies Redis connectivity
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
