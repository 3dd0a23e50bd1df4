package profilecache

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/fridgegram/fridgegram/internal/domain"
)

type countingStore struct {
	profiles map[string]domain.UserProfile
	err      error
	calls    int
}

func (s *countingStore) GetByID(ctx context.Context, id string) (domain.UserProfile, error) {
	s.calls++
	if s.err != nil {
		return domain.UserProfile{}, s.err
	}
	profile, ok := s.profiles[id]
	if !ok {
		return domain.UserProfile{}, errors.New("not found")
	}
	return profile, nil
}

type countingObserver struct {
	hits   int
	misses int
}

func (o *countingObserver) RecordCacheHit()  { o.hits++ }
func (o *countingObserver) RecordCacheMiss() { o.misses++ }

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestCacheReadThrough(t *testing.T) {
	store := &countingStore{profiles: map[string]domain.UserProfile{
		"alice": {ID: "alice", DisplayName: "Alice"},
	}}
	cache := New(store, 0, quietLogger())

	ctx := context.Background()
	first := cache.Get(ctx, "alice")
	second := cache.Get(ctx, "alice")

	if first.DisplayName != "Alice" || second.DisplayName != "Alice" {
		t.Fatalf("unexpected profiles: %+v, %+v", first, second)
	}
	if store.calls != 1 {
		t.Fatalf("store calls = %d, want 1", store.calls)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", cache.Len())
	}
}

func TestCachePlaceholderNeverCached(t *testing.T) {
	store := &countingStore{err: errors.New("db down")}
	cache := New(store, 0, quietLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got := cache.Get(ctx, "ghost")
		if got.DisplayName != PlaceholderName {
			t.Fatalf("DisplayName = %q, want placeholder", got.DisplayName)
		}
		if got.ID != "ghost" {
			t.Fatalf("placeholder keeps requested id, got %q", got.ID)
		}
	}
	if store.calls != 3 {
		t.Fatalf("store calls = %d, want 3 (placeholder must not be cached)", store.calls)
	}
	if cache.Len() != 0 {
		t.Fatalf("cache len = %d, want 0", cache.Len())
	}

	// Once the store recovers, the next read populates the entry.
	store.err = nil
	store.profiles = map[string]domain.UserProfile{"ghost": {ID: "ghost", DisplayName: "Ghost"}}
	if got := cache.Get(ctx, "ghost"); got.DisplayName != "Ghost" {
		t.Fatalf("DisplayName after recovery = %q, want Ghost", got.DisplayName)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache len after recovery = %d, want 1", cache.Len())
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	store := &countingStore{profiles: map[string]domain.UserProfile{
		"alice": {ID: "alice", DisplayName: "Alice"},
	}}
	cache := New(store, time.Minute, quietLogger())

	current := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	ctx := context.Background()
	cache.Get(ctx, "alice")
	cache.Get(ctx, "alice")
	if store.calls != 1 {
		t.Fatalf("store calls before expiry = %d, want 1", store.calls)
	}

	current = current.Add(2 * time.Minute)
	cache.Get(ctx, "alice")
	if store.calls != 2 {
		t.Fatalf("store calls after expiry = %d, want 2", store.calls)
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	store := &countingStore{profiles: map[string]domain.UserProfile{
		"alice": {ID: "alice", DisplayName: "Alice"},
	}}
	cache := New(store, 0, quietLogger())

	current := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	ctx := context.Background()
	cache.Get(ctx, "alice")
	current = current.Add(24 * 365 * time.Hour)
	cache.Get(ctx, "alice")
	if store.calls != 1 {
		t.Fatalf("store calls = %d, want 1", store.calls)
	}
}

func TestCacheGetManyDeduplicates(t *testing.T) {
	store := &countingStore{profiles: map[string]domain.UserProfile{
		"alice": {ID: "alice", DisplayName: "Alice"},
		"bob":   {ID: "bob", DisplayName: "Bob"},
	}}
	cache := New(store, 0, quietLogger())

	profiles := cache.GetMany(context.Background(), []string{"alice", "bob", "alice", "ghost", "bob"})
	if len(profiles) != 3 {
		t.Fatalf("profiles len = %d, want 3", len(profiles))
	}
	if store.calls != 3 {
		t.Fatalf("store calls = %d, want 3", store.calls)
	}
	if profiles["ghost"].DisplayName != PlaceholderName {
		t.Fatalf("unknown author should map to placeholder, got %+v", profiles["ghost"])
	}
}

func TestCacheInvalidate(t *testing.T) {
	store := &countingStore{profiles: map[string]domain.UserProfile{
		"alice": {ID: "alice", DisplayName: "Alice"},
	}}
	cache := New(store, 0, quietLogger())
	ctx := context.Background()

	cache.Get(ctx, "alice")
	cache.Invalidate("alice")
	cache.Get(ctx, "alice")
	if store.calls != 2 {
		t.Fatalf("store calls = %d, want 2 after invalidate", store.calls)
	}
}

func TestCacheObserver(t *testing.T) {
	store := &countingStore{profiles: map[string]domain.UserProfile{
		"alice": {ID: "alice", DisplayName: "Alice"},
	}}
	cache := New(store, 0, quietLogger())
	observer := &countingObserver{}
	cache.SetObserver(observer)

	ctx := context.Background()
	cache.Get(ctx, "alice")
	cache.Get(ctx, "alice")
	cache.Get(ctx, "alice")

	if observer.misses != 1 {
		t.Fatalf("misses = %d, want 1", observer.misses)
	}
	if observer.hits != 2 {
		t.Fatalf("hits = %d, want 2", observer.hits)
	}
}
