package corpus

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list key used when none is configured.
const DefaultRedisKey = "ebooks:corpus"

// RedisStore is a Store backed by a Redis list.
type RedisStore struct {
	rdb redis.Cmdable
	key string
}

// NewRedisStore returns a store that keeps its texts under key. An empty key
// uses DefaultRedisKey.
func NewRedisStore(rdb redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

// Get returns every stored text in insertion order.
func (s *RedisStore) Get(ctx context.Context) ([]string, error) {
	texts, err := s.rdb.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("could not read corpus list %s: %w", s.key, err)
	}
	return texts, nil
}

// Append adds a single text.
func (s *RedisStore) Append(ctx context.Context, text string) error {
	if err := s.rdb.RPush(ctx, s.key, text).Err(); err != nil {
		return fmt.Errorf("could not append to corpus list %s: %w", s.key, err)
	}
	return nil
}

// AppendMany pushes texts with a single RPUSH and returns how many
// were written. Empty texts are skipped.
func (s *RedisStore) AppendMany(ctx context.Context, texts []string) (int, error) {
	values := make([]any, 0, len(texts))
	for _, text := range texts {
		if text != "" {
			values = append(values, text)
		}
	}
	if len(values) == 0 {
		return 0, nil
	}
	if err := s.rdb.RPush(ctx, s.key, values...).Err(); err != nil {
		return 0, fmt.Errorf("could not append to corpus list %s: %w", s.key, err)
	}
	return len(values), nil
}

// Count returns the number of stored texts.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.rdb.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Clear removes every stored text.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}

// DialRedis connects to addr and verifies the connection with a PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
