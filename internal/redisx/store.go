package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store: helper JSON cache + penanda dedup di atas satu client.
type Store struct{ R *redis.Client }

func (s *Store) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	b, err := s.R.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.R.Set(ctx, key, b, ttl).Err()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.R.Del(ctx, keys...).Err()
}

func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	return Exists(ctx, s.R, key)
}

func (s *Store) Mark(ctx context.Context, key string, ttl time.Duration) error {
	return s.R.Set(ctx, key, "1", ttl).Err()
}
