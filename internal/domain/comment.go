package domain

import "time"

// Comment is a free-text reply on a post. Comments are immutable.
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Body      string
	CreatedAt time.Time
}
