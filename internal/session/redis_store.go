package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "dealflow:session:"

// RedisStore is the durable store used when sessions must survive a restart.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisClient parses url and checks connectivity.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	var ttl time.Duration
	if !s.ExpiresAt.IsZero() {
		ttl = time.Until(s.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}
	return r.rdb.Set(ctx, redisKeyPrefix+s.ID, payload, ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, redisKeyPrefix+id).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}
