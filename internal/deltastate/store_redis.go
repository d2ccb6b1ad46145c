package deltastate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKey   = "dirsync:delta:token"
	savedAtKey = "dirsync:delta:saved_at"
)

// RedisStore persists the delta watermark in Redis so multiple service
// instances observe the same sync position.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context) (Lookup, error) {
	token, err := s.client.Get(ctx, tokenKey).Result()
	if err == redis.Nil {
		return Lookup{}, nil
	}
	if err != nil {
		return Lookup{}, fmt.Errorf("read delta token: %w", err)
	}

	lookup := Lookup{Token: token, Found: true}
	raw, err := s.client.Get(ctx, savedAtKey).Result()
	if err == nil {
		if at, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			lookup.SavedAt = at
		}
	}
	return lookup, nil
}

func (s *RedisStore) Save(ctx context.Context, token string, at time.Time) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, tokenKey, token, 0)
	pipe.Set(ctx, savedAtKey, at.UTC().Format(time.RFC3339Nano), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save delta token: %w", err)
	}
	return nil
}

func (s *RedisStore) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, tokenKey, savedAtKey).Err(); err != nil {
		return fmt.Errorf("reset delta token: %w", err)
	}
	return nil
}
