package domain

import "time"

// Rating represents a single user's score for a post. Ratings are immutable
// once committed.
type Rating struct {
	ID        string
	PostID    string
	RaterID   string
	Value     float64
	CreatedAt time.Time
}

// RatingSummary is the post's aggregate after a ledger operation.
type RatingSummary struct {
	Average float64
	Count   int64
}
