package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ironsheep/calligraphy-grader/internal/features"
)

// FeatureStore persists template features beyond the life of one process.
type FeatureStore interface {
	Load(ctx context.Context, char string, size image.Point) (*features.FeatureSet, bool, error)
	Save(ctx context.Context, char string, size image.Point, fs *features.FeatureSet) error
	Close() error
}

const redisKeyPrefix = "calligraphy:template"

// RedisStore keeps template FeatureSets as JSON strings in Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the Redis server at url and checks it is
// reachable.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisStoreFromClient(client, ttl), nil
}

// NewRedisStoreFromClient wraps an existing client. A ttl of zero keeps keys
// forever.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Load implements FeatureStore.
func (s *RedisStore) Load(ctx context.Context, char string, size image.Point) (*features.FeatureSet, bool, error) {
	data, err := s.client.Get(ctx, redisKey(char, size)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read template features: %w", err)
	}

	var fs features.FeatureSet
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, false, fmt.Errorf("failed to decode template features for %q: %w", char, err)
	}
	return &fs, true, nil
}

// Save implements FeatureStore.
func (s *RedisStore) Save(ctx context.Context, char string, size image.Point, fs *features.FeatureSet) error {
	data, err := json.Marshal(fs)
	if err != nil {
		return fmt.Errorf("failed to encode template features: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(char, size), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store template features: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(char string, size image.Point) string {
	return fmt.Sprintf("%s:%dx%d:%s", redisKeyPrefix, size.X, size.Y, char)
}
