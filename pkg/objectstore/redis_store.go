package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "objectstore:"

// RedisStore keeps payloads as JSON strings in Redis. Object names are
// namespaced under a fixed prefix so a shared Redis instance stays tidy.
type RedisStore struct {
	client *redis.Client
}

var _ Store = &RedisStore{}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) GetPayload(ctx context.Context, objectName string) (map[string]any, error) {
	raw, err := s.client.Get(ctx, keyPrefix+objectName).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("objectstore get %s: %w", objectName, err)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("objectstore decode %s: %w", objectName, err)
	}
	return payload, nil
}

func (s *RedisStore) PutPayload(ctx context.Context, objectName string, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("objectstore encode %s: %w", objectName, err)
	}
	if err := s.client.Set(ctx, keyPrefix+objectName, raw, 0).Err(); err != nil {
		return fmt.Errorf("objectstore put %s: %w", objectName, err)
	}
	return nil
}

// DeletePayloads removes every object whose name starts with prefix.
// Used when a collection or document is dropped.
func (s *RedisStore) DeletePayloads(ctx context.Context, prefix string) error {
	iter := s.client.Scan(ctx, 0, keyPrefix+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("objectstore delete %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("objectstore scan: %w", err)
	}
	return nil
}
