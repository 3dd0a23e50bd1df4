package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fridgegram/fridgegram/internal/domain"
)

// CommentsRepository provides persistence helpers for post comments.
type CommentsRepository struct {
	pool *pgxpool.Pool
}

// CommentCreateParams bundles the fields required to create a comment.
type CommentCreateParams struct {
	PostID   string
	AuthorID string
	Body     string
}

// Create inserts a new comment under a post. A missing post surfaces as
// ErrNotFound via the foreign key.
func (r *CommentsRepository) Create(ctx context.Context, params CommentCreateParams) (domain.Comment, error) {
	const query = `
        INSERT INTO comments (id, post_id, author_id, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, post_id, author_id, body, created_at
    `
	var comment domain.Comment
	err := r.pool.QueryRow(ctx, query, uuid.NewString(), params.PostID, params.AuthorID, params.Body).Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&comment.Body,
		&comment.CreatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			return domain.Comment{}, ErrNotFound
		}
		return domain.Comment{}, err
	}
	return comment, nil
}

// ListByPost returns a post's comments newest first.
func (r *CommentsRepository) ListByPost(ctx context.Context, postID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, post_id, author_id, body, created_at
        FROM comments
        WHERE post_id = $1
        ORDER BY created_at DESC, id DESC
    `
	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.PostID,
			&comment.AuthorID,
			&comment.Body,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return comments, nil
}
