package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fridgegram/fridgegram/internal/domain"
)

// PostUpdatesChannel is the Postgres notification channel carrying committed
// aggregate changes for live feed subscribers.
const PostUpdatesChannel = "post_updates"

// ratingNamespace seeds deterministic rating identifiers. Deriving the id from
// (post, rater) makes the duplicate check part of the transaction's read set
// instead of a separate pre-query.
var ratingNamespace = uuid.MustParse("c0a8016e-9d3b-4d6a-8f21-5b3f0e6a7d42")

// RatingID returns the deterministic identifier for a (post, rater) pair.
func RatingID(postID, raterID string) string {
	return uuid.NewSHA1(ratingNamespace, []byte(postID+"/"+raterID)).String()
}

// RatingsRepository is the rating ledger: it records at most one rating per
// (post, rater) pair and maintains the post's incremental average.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

// RatingSubmitParams captures the payload required to submit a rating.
type RatingSubmitParams struct {
	PostID  string
	RaterID string
	Value   float64
}

// PostUpdate is the payload published on PostUpdatesChannel after a commit.
type PostUpdate struct {
	PostID        string  `json:"postId"`
	AverageRating float64 `json:"averageRating"`
	RatingsCount  int64   `json:"ratingsCount"`
}

// Submit records a rating and recomputes the post's aggregate inside one
// transaction. The post row is locked for the duration, so concurrent raters
// on the same post serialize and neither update is lost. The incremental
// formula newAverage = round2((average*count + value) / (count+1)) avoids
// re-reading the full rating set at O(1) cost per rating; rounding to two
// decimals accumulates, which is the accepted tradeoff.
func (r *RatingsRepository) Submit(ctx context.Context, params RatingSubmitParams) (domain.RatingSummary, error) {
	if math.IsNaN(params.Value) || params.Value < 0 || params.Value > 12 {
		return domain.RatingSummary{}, ErrRatingRange
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("begin rating tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		owner   string
		average float64
		count   int64
	)
	err = tx.QueryRow(ctx, `
        SELECT owner, average_rating, ratings_count
        FROM posts
        WHERE id = $1
        FOR UPDATE
    `, params.PostID).Scan(&owner, &average, &count)
	if err != nil {
		if isNotFound(err) {
			return domain.RatingSummary{}, ErrNotFound
		}
		return domain.RatingSummary{}, fmt.Errorf("lock post for rating: %w", err)
	}

	if owner == params.RaterID {
		return domain.RatingSummary{}, ErrOwnerRating
	}

	ratingID := RatingID(params.PostID, params.RaterID)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ratings WHERE id = $1)`, ratingID).Scan(&exists); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("check existing rating: %w", err)
	}
	if exists {
		return domain.RatingSummary{}, ErrAlreadyRated
	}

	// Stored aggregates may be absent or invalid on legacy rows; fall back to
	// zero rather than poisoning the new average.
	if math.IsNaN(average) || average < 0 {
		average = 0
	}
	if count < 0 {
		count = 0
	}

	if _, err := tx.Exec(ctx, `
        INSERT INTO ratings (id, post_id, rater_id, value)
        VALUES ($1,$2,$3,$4)
    `, ratingID, params.PostID, params.RaterID, params.Value); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("insert rating: %w", err)
	}

	newCount := count + 1
	newAverage := round2((average*float64(count) + params.Value) / float64(newCount))

	if _, err := tx.Exec(ctx, `
        UPDATE posts
        SET average_rating = $2, ratings_count = $3
        WHERE id = $1
    `, params.PostID, newAverage, newCount); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("update post aggregate: %w", err)
	}

	payload, err := json.Marshal(PostUpdate{
		PostID:        params.PostID,
		AverageRating: newAverage,
		RatingsCount:  newCount,
	})
	if err != nil {
		return domain.RatingSummary{}, fmt.Errorf("marshal post update: %w", err)
	}
	// NOTIFY is delivered on commit, so subscribers only ever observe
	// committed aggregates.
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, PostUpdatesChannel, string(payload)); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("notify post update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.RatingSummary{}, fmt.Errorf("commit rating tx: %w", err)
	}

	return domain.RatingSummary{Average: newAverage, Count: newCount}, nil
}

// Get retrieves a rating for a specific rater/post combination.
func (r *RatingsRepository) Get(ctx context.Context, postID, raterID string) (domain.Rating, error) {
	const query = `
        SELECT id, post_id, rater_id, value, created_at
        FROM ratings
        WHERE post_id = $1 AND rater_id = $2
    `
	var rating domain.Rating
	err := r.pool.QueryRow(ctx, query, postID, raterID).Scan(
		&rating.ID,
		&rating.PostID,
		&rating.RaterID,
		&rating.Value,
		&rating.CreatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
