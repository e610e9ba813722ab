// internal/common/session/redis.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loan-console/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// clearIfCurrent deletes both keys only when the token key still holds ARGV[1].
var clearIfCurrent = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1], KEYS[2])
	return 1
end
return 0
`)

// NewRedisClient creates a Redis client for the session store.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})
}

// RedisStore keeps the credential in Redis so that it survives between CLI
// invocations and can be shared by several console processes.
type RedisStore struct {
	client     redis.Cmdable
	tokenKey   string
	refreshKey string
}

// NewRedisStore builds a store using the key naming from cfg.
func NewRedisStore(client redis.Cmdable, cfg config.SessionConfig) *RedisStore {
	return &RedisStore{
		client:     client,
		tokenKey:   cfg.Key(TokenKey),
		refreshKey: cfg.Key(RefreshTokenKey),
	}
}

// Ping tests the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	return s.get(ctx, s.tokenKey)
}

func (s *RedisStore) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, s.refreshKey)
}

func (s *RedisStore) get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session read %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) Save(ctx context.Context, token, refreshToken string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey, token, 0)
		if refreshToken != "" {
			pipe.Set(ctx, s.refreshKey, refreshToken, 0)
		} else {
			pipe.Del(ctx, s.refreshKey)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearIfCurrent(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := clearIfCurrent.Run(ctx, s.client, []string{s.tokenKey, s.refreshKey}, token).Int()
	if err != nil {
		return false, fmt.Errorf("session clear: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.tokenKey, s.refreshKey).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}
