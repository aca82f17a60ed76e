package hsjwt

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cybergodev/hsjwt/internal/security"
)

const maxCacheSize = 64

type cacheEntry struct {
	jwt        *JWT
	lastAccess atomic.Int64
}

type handleCache struct {
	entries map[string]*cacheEntry
	mu      sync.RWMutex
}

// Handles are keyed by secret fingerprint so the cache never holds the
// secret as a map key.
var cache = &handleCache{
	entries: make(map[string]*cacheEntry, 16),
}

// Encode signs claims with secret using the default configuration.
// Handles are cached per secret, so repeated calls avoid re-keying.
func Encode(secret []byte, claims Claims) (string, error) {
	j, err := cachedHandle(secret)
	if err != nil {
		return "", err
	}
	return j.Encode(claims)
}

// Decode verifies token with secret using the default configuration.
func Decode(secret []byte, token string) (Claims, error) {
	j, err := cachedHandle(secret)
	if err != nil {
		return nil, err
	}
	return j.Decode(token)
}

func cachedHandle(secret []byte) (*JWT, error) {
	if len(secret) == 0 {
		return nil, ErrInvalidSecret
	}

	s := security.NewSecret(secret)
	key := s.Fingerprint()
	now := time.Now().UnixNano()

	cache.mu.RLock()
	entry, ok := cache.entries[key]
	cache.mu.RUnlock()

	if ok && entry.jwt.secret.Equal(s) {
		entry.lastAccess.Store(now)
		return entry.jwt, nil
	}

	j, err := New(secret)
	if err != nil {
		return nil, err
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()

	if entry, ok := cache.entries[key]; ok && entry.jwt.secret.Equal(s) {
		entry.lastAccess.Store(now)
		return entry.jwt, nil
	}

	if len(cache.entries) >= maxCacheSize {
		cache.evictOldestLocked()
	}

	entry = &cacheEntry{jwt: j}
	entry.lastAccess.Store(now)
	cache.entries[key] = entry
	return j, nil
}

func (c *handleCache) evictOldestLocked() {
	oldestKey := ""
	oldest := int64(1<<63 - 1)
	for k, e := range c.entries {
		if t := e.lastAccess.Load(); t < oldest {
			oldestKey, oldest = k, t
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *handleCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ClearCache drops every cached handle used by Encode and Decode.
func ClearCache() {
	cache.mu.Lock()
	clear(cache.entries)
	cache.mu.Unlock()
}
