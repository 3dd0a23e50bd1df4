package domain

import "time"

// UserProfile is the denormalized public snapshot of a user, rendered next to
// posts and comments.
type UserProfile struct {
	ID           string
	DisplayName  string
	PhotoURL     *string
	JoinDate     time.Time
	Streak       int
	LastPostDate *time.Time
}
