// internal/common/session/open.go
package session

import (
	"context"

	"loan-console/internal/common/config"
)

// Open returns the configured store and a function releasing its resources.
// Without a Redis address the token lives in memory, seeded from cfg.Token.
func Open(ctx context.Context, cfg config.SessionConfig) (Store, func() error, error) {
	if !cfg.RedisEnabled() {
		return NewMemoryStore(cfg.Token), func() error { return nil }, nil
	}

	client := NewRedisClient(cfg.Redis)
	store := NewRedisStore(client, cfg)
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	if cfg.Token != "" {
		if current, err := store.Token(ctx); err == nil && current == "" {
			_ = store.Save(ctx, cfg.Token, "")
		}
	}
	return store, client.Close, nil
}
