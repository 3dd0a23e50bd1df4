// Package profilecache provides a read-through cache of user profile
// snapshots so rendering many posts and comments from the same author does
// not trigger redundant lookups.
package profilecache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fridgegram/fridgegram/internal/domain"
)

// ProfileStore is the slice of the profile repository the cache reads through.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (domain.UserProfile, error)
}

// Observer receives cache hit and miss events.
type Observer interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// PlaceholderName is the display name substituted when a profile cannot be
// loaded. Placeholder results are never cached, so a later successful read
// still populates the entry.
const PlaceholderName = "Unknown User"

type entry struct {
	profile  domain.UserProfile
	cachedAt time.Time
}

// Cache is a process-wide read-through profile cache. A zero TTL keeps
// entries for the lifetime of the process.
type Cache struct {
	store    ProfileStore
	ttl      time.Duration
	logger   *log.Logger
	now      func() time.Time
	observer Observer

	mu      sync.RWMutex
	entries map[string]entry
}

// New constructs a Cache over the given store. ttl of 0 disables expiry.
func New(store ProfileStore, ttl time.Duration, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{
		store:   store,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns the profile for userID. It never fails the caller: lookup
// errors and missing profiles degrade to a placeholder profile.
func (c *Cache) Get(ctx context.Context, userID string) domain.UserProfile {
	if profile, ok := c.lookup(userID); ok {
		if c.observer != nil {
			c.observer.RecordCacheHit()
		}
		return profile
	}
	if c.observer != nil {
		c.observer.RecordCacheMiss()
	}

	profile, err := c.store.GetByID(ctx, userID)
	if err != nil {
		c.logger.Printf("profilecache: load %s: %v", userID, err)
		return Placeholder(userID)
	}

	c.mu.Lock()
	c.entries[userID] = entry{profile: profile, cachedAt: c.now()}
	c.mu.Unlock()
	return profile
}

// GetMany resolves a set of author ids, deduplicated, for rendering a
// comment list. Every id maps to a profile; unknown authors map to the
// placeholder.
func (c *Cache) GetMany(ctx context.Context, userIDs []string) map[string]domain.UserProfile {
	profiles := make(map[string]domain.UserProfile, len(userIDs))
	for _, id := range userIDs {
		if _, done := profiles[id]; done {
			continue
		}
		profiles[id] = c.Get(ctx, id)
	}
	return profiles
}

// SetObserver attaches a hit/miss observer. Call before the cache is shared
// across goroutines.
func (c *Cache) SetObserver(o Observer) {
	c.observer = o
}

// Invalidate drops a cached entry, e.g. after the profile changed at sign-in.
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// Len reports the number of cached entries, for tests and metrics.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) lookup(userID string) (domain.UserProfile, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return domain.UserProfile{}, false
	}
	if c.ttl > 0 && c.now().Sub(e.cachedAt) > c.ttl {
		c.Invalidate(userID)
		return domain.UserProfile{}, false
	}
	return e.profile, true
}

// Placeholder is the degraded profile rendered when a lookup fails.
func Placeholder(userID string) domain.UserProfile {
	return domain.UserProfile{
		ID:          userID,
		DisplayName: PlaceholderName,
		JoinDate:    time.Now(),
	}
}
