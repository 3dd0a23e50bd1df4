package domain

import "time"

// Post represents a fridge entry in the feed, including the denormalized
// rating aggregate maintained by the rating ledger.
type Post struct {
	ID            string
	Owner         string
	ImageURL      string
	Description   string
	AverageRating float64
	RatingsCount  int64
	CreatedAt     time.Time
}
