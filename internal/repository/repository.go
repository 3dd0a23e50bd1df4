package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fridgegram/fridgegram/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrAlreadyRated indicates the rater has a committed rating for the post.
var ErrAlreadyRated = errors.New("repository: already rated")

// ErrOwnerRating indicates a post owner attempted to rate their own post.
var ErrOwnerRating = errors.New("repository: owner cannot rate own post")

// ErrRatingRange indicates a rating value outside the 0-12 scale.
var ErrRatingRange = errors.New("repository: rating out of range")

// isNotFound folds the ways a lookup can miss into one case: no rows, a
// malformed uuid in the key position, or a foreign key pointing at nothing.
func isNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "22P02" || pgErr.Code == "23503")
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Posts    *PostsRepository
	Ratings  *RatingsRepository
	Comments *CommentsRepository
	Profiles *ProfilesRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Posts:    &PostsRepository{pool: pool},
		Ratings:  &RatingsRepository{pool: pool},
		Comments: &CommentsRepository{pool: pool},
		Profiles: &ProfilesRepository{pool: pool},
	}
}
