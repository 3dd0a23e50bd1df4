package streak

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/fridgegram/fridgegram/internal/domain"
)

type fakeProfileStore struct {
	profile   domain.UserProfile
	getErr    error
	updateErr error

	updatedStreak   int
	updatedLastPost time.Time
	updateCalls     int
}

func (f *fakeProfileStore) GetByID(ctx context.Context, id string) (domain.UserProfile, error) {
	if f.getErr != nil {
		return domain.UserProfile{}, f.getErr
	}
	return f.profile, nil
}

func (f *fakeProfileStore) UpdateStreak(ctx context.Context, id string, streak int, lastPost time.Time) error {
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedStreak = streak
	f.updatedLastPost = lastPost
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestNext(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, time.August, 29, 14, 30, 0, 0, loc)
	day := func(offset int, hour int) *time.Time {
		d := time.Date(2026, time.August, 29+offset, hour, 0, 0, 0, loc)
		return &d
	}

	tests := []struct {
		name     string
		current  int
		lastPost *time.Time
		want     int
	}{
		{name: "first post ever", current: 0, lastPost: nil, want: 1},
		{name: "second post same day", current: 4, lastPost: day(0, 1), want: 4},
		{name: "same day with zero streak", current: 0, lastPost: day(0, 1), want: 1},
		{name: "posted yesterday", current: 4, lastPost: day(-1, 23), want: 5},
		{name: "yesterday starting fresh", current: 0, lastPost: day(-1, 12), want: 1},
		{name: "two day gap resets", current: 9, lastPost: day(-2, 12), want: 1},
		{name: "long gap resets", current: 30, lastPost: day(-14, 12), want: 1},
		{name: "future last post treated as same day", current: 6, lastPost: day(2, 12), want: 6},
		{name: "negative stored streak clamped", current: -3, lastPost: day(0, 1), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Next(tt.current, tt.lastPost, now); got != tt.want {
				t.Fatalf("Next(%d, %v) = %d, want %d", tt.current, tt.lastPost, got, tt.want)
			}
		})
	}
}

func TestNextAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// The night of 2026-03-29 is 23 hours long in Berlin.
	lastPost := time.Date(2026, time.March, 28, 22, 0, 0, 0, loc)
	now := time.Date(2026, time.March, 29, 8, 0, 0, 0, loc)

	if got := Next(2, &lastPost, now); got != 3 {
		t.Fatalf("Next across spring DST = %d, want 3", got)
	}
}

func TestRecordPost(t *testing.T) {
	loc := time.UTC
	yesterday := time.Date(2026, time.August, 28, 9, 0, 0, 0, loc)

	store := &fakeProfileStore{
		profile: domain.UserProfile{
			ID:           "alice",
			Streak:       2,
			LastPostDate: &yesterday,
		},
	}
	tracker := New(store, loc, quietLogger())
	tracker.now = func() time.Time {
		return time.Date(2026, time.August, 29, 10, 0, 0, 0, loc)
	}

	got := tracker.RecordPost(context.Background(), "alice")
	if got != 3 {
		t.Fatalf("RecordPost = %d, want 3", got)
	}
	if store.updatedStreak != 3 {
		t.Fatalf("stored streak = %d, want 3", store.updatedStreak)
	}
	if !store.updatedLastPost.Equal(tracker.now()) {
		t.Fatalf("stored last post = %v, want now", store.updatedLastPost)
	}
}

func TestRecordPostRefreshesTimestampOnSameDay(t *testing.T) {
	loc := time.UTC
	earlier := time.Date(2026, time.August, 29, 7, 0, 0, 0, loc)

	store := &fakeProfileStore{
		profile: domain.UserProfile{
			ID:           "alice",
			Streak:       5,
			LastPostDate: &earlier,
		},
	}
	tracker := New(store, loc, quietLogger())
	tracker.now = func() time.Time {
		return time.Date(2026, time.August, 29, 20, 0, 0, 0, loc)
	}

	if got := tracker.RecordPost(context.Background(), "alice"); got != 5 {
		t.Fatalf("RecordPost = %d, want unchanged 5", got)
	}
	if store.updateCalls != 1 {
		t.Fatalf("update calls = %d, want 1", store.updateCalls)
	}
	if !store.updatedLastPost.Equal(tracker.now()) {
		t.Fatalf("timestamp not refreshed: %v", store.updatedLastPost)
	}
}

func TestRecordPostBestEffort(t *testing.T) {
	loc := time.UTC

	t.Run("load failure", func(t *testing.T) {
		store := &fakeProfileStore{getErr: errors.New("db down")}
		tracker := New(store, loc, quietLogger())
		if got := tracker.RecordPost(context.Background(), "alice"); got != 0 {
			t.Fatalf("RecordPost = %d, want 0 on load failure", got)
		}
	})

	t.Run("write failure", func(t *testing.T) {
		store := &fakeProfileStore{
			profile:   domain.UserProfile{ID: "alice"},
			updateErr: errors.New("db down"),
		}
		tracker := New(store, loc, quietLogger())
		if got := tracker.RecordPost(context.Background(), "alice"); got != 0 {
			t.Fatalf("RecordPost = %d, want 0 on write failure", got)
		}
	})
}
