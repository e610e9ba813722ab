// internal/common/session/store.go
package session

import (
	"context"
	"sync"
)

const (
	TokenKey        = "jwt_token"
	RefreshTokenKey = "jwt_refresh_token"
)

// Store holds the bearer credential for the console. The gateway is the only
// component that clears it on its own; everything else goes through Clear on
// explicit logout.
type Store interface {
	// Token returns the current bearer token, or "" when none is stored.
	Token(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	Save(ctx context.Context, token, refreshToken string) error
	// ClearIfCurrent removes both credentials only if token is still the
	// stored one. It reports whether this call performed the removal.
	ClearIfCurrent(ctx context.Context, token string) (bool, error)
	Clear(ctx context.Context) error
}

// MemoryStore keeps the credential for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	token   string
	refresh string
}

// NewMemoryStore returns a store seeded with token, which may be empty.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) RefreshToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh, nil
}

func (s *MemoryStore) Save(_ context.Context, token, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.refresh = refreshToken
	return nil
}

func (s *MemoryStore) ClearIfCurrent(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || s.token != token {
		return false, nil
	}
	s.token = ""
	s.refresh = ""
	return true, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.refresh = ""
	return nil
}
