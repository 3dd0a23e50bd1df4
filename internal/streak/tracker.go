// Package streak maintains the per-user consecutive-day posting counter.
package streak

import (
	"context"
	"log"
	"time"

	"github.com/fridgegram/fridgegram/internal/domain"
)

// ProfileStore is the slice of the profile repository the tracker needs.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (domain.UserProfile, error)
	UpdateStreak(ctx context.Context, id string, streak int, lastPost time.Time) error
}

// Tracker computes streak transitions on post upload. It is deliberately
// best-effort: the read and write are not transactional with the post
// creation, and any failure is logged rather than surfaced, so an upload
// never fails because of its streak bookkeeping.
type Tracker struct {
	profiles ProfileStore
	loc      *time.Location
	now      func() time.Time
	logger   *log.Logger
}

// New constructs a Tracker. Streak days are aligned to midnight in loc.
func New(profiles ProfileStore, loc *time.Location, logger *log.Logger) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Tracker{
		profiles: profiles,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// RecordPost updates the user's streak for a post made now and returns the
// new value. On any failure it returns 0 and the caller proceeds as if
// nothing happened.
func (t *Tracker) RecordPost(ctx context.Context, userID string) int {
	profile, err := t.profiles.GetByID(ctx, userID)
	if err != nil {
		t.logger.Printf("streak: load profile %s: %v", userID, err)
		return 0
	}

	now := t.now().In(t.loc)
	newStreak := Next(profile.Streak, profile.LastPostDate, now)

	// The timestamp is written even on the unchanged branch so a same-day
	// second post keeps refreshing last_post_date.
	if err := t.profiles.UpdateStreak(ctx, userID, newStreak, now); err != nil {
		t.logger.Printf("streak: update %s: %v", userID, err)
		return 0
	}
	return newStreak
}

// Next applies the streak transition table for a post made at now.
//
//	no prior post        -> 1
//	same day             -> unchanged
//	previous day         -> current + 1
//	gap of more than one -> 1
//
// A last-post day in the future (device clock skew) is clamped to the
// same-day branch so the streak is never destroyed by a clock change.
func Next(current int, lastPost *time.Time, now time.Time) int {
	if current < 0 {
		current = 0
	}
	if lastPost == nil {
		return 1
	}

	today := midnight(now)
	lastDay := midnight(lastPost.In(now.Location()))
	days := daysBetween(lastDay, today)

	switch {
	case days <= 0:
		if current == 0 {
			return 1
		}
		return current
	case days == 1:
		return current + 1
	default:
		return 1
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b. Rounding absorbs DST
// transitions where a day is 23 or 25 hours long.
func daysBetween(a, b time.Time) int {
	const day = 24 * time.Hour
	d := b.Sub(a)
	if d < 0 {
		return -int((-d + day/2) / day)
	}
	return int((d + day/2) / day)
}
