package providers

import (
	"sync"
	"time"
)

// Tokens are refreshed this long before their stated expiry.
const tokenRefreshMargin = 60 * time.Second

// TokenCache holds one OAuth bearer token for the process lifetime. It is
// injected into the adapter that needs it instead of living as package state.
// Concurrent callers may both see a stale token and race to refresh; any
// valid token is interchangeable, so the last successful Put simply wins and
// no lock is held across the refresh itself.
type TokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

// Get returns the cached token if it is still comfortably inside its
// lifetime.
func (c *TokenCache) Get(now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || !now.Before(c.expiresAt.Add(-tokenRefreshMargin)) {
		return "", false
	}
	return c.token, true
}

func (c *TokenCache) Put(token string, expiresAt time.Time) {
	c.mu.Lock()
	c.token = token
	c.expiresAt = expiresAt
	c.mu.Unlock()
}
