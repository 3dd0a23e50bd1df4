package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fridgegram/fridgegram/internal/domain"
)

// PostsRepository provides persistence helpers for fridge posts.
type PostsRepository struct {
	pool *pgxpool.Pool
}

const postColumns = `
    id,
    owner,
    image_url,
    description,
    average_rating,
    ratings_count,
    created_at
`

// PostCreateParams bundles the fields required to create a post.
type PostCreateParams struct {
	Owner       string
	ImageURL    string
	Description string
}

// PostListFilters encapsulates feed filtering and pagination options.
type PostListFilters struct {
	Owner  *string
	Limit  int
	Cursor *PostCursor
}

// PostCursor allows stable pagination by created_at/id.
type PostCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// PostListResult returns the paginated feed payload.
type PostListResult struct {
	Items      []domain.Post
	NextCursor *string
}

// Create inserts a new post row with zeroed aggregates and returns the stored
// entity. Aggregates are mutated only by the rating ledger afterwards.
func (r *PostsRepository) Create(ctx context.Context, params PostCreateParams) (domain.Post, error) {
	query := fmt.Sprintf(`
        INSERT INTO posts (id, owner, image_url, description)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, postColumns)

	row := r.pool.QueryRow(ctx, query, uuid.NewString(), params.Owner, params.ImageURL, params.Description)
	return scanPost(row)
}

// GetByID fetches a post by its identifier.
func (r *PostsRepository) GetByID(ctx context.Context, id string) (domain.Post, error) {
	query := fmt.Sprintf(`SELECT %s FROM posts WHERE id = $1`, postColumns)
	row := r.pool.QueryRow(ctx, query, id)
	post, err := scanPost(row)
	if err != nil {
		if isNotFound(err) {
			return domain.Post{}, ErrNotFound
		}
		return domain.Post{}, err
	}
	return post, nil
}

// List returns posts newest first, optionally restricted to one owner.
func (r *PostsRepository) List(ctx context.Context, filters PostListFilters) (PostListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	} else if filters.Limit > 100 {
		filters.Limit = 100
	}

	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Owner != nil && strings.TrimSpace(*filters.Owner) != "" {
		where = append(where, fmt.Sprintf("owner = %s", arg(strings.TrimSpace(*filters.Owner))))
	}
	if filters.Cursor != nil {
		cursorCreated := arg(filters.Cursor.CreatedAt)
		cursorID := arg(filters.Cursor.ID)
		where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s::uuid)", cursorCreated, cursorID))
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(postColumns)
	queryBuilder.WriteString(" FROM posts")
	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d", filters.Limit))

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return PostListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return PostListResult{}, err
		}
		items = append(items, post)
	}
	if err := rows.Err(); err != nil {
		return PostListResult{}, err
	}

	var nextCursor *string
	if len(items) == filters.Limit {
		last := items[len(items)-1]
		token, err := encodeCursor(PostCursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return PostListResult{}, err
		}
		nextCursor = &token
	}

	return PostListResult{Items: items, NextCursor: nextCursor}, nil
}

func scanPost(row pgx.Row) (domain.Post, error) {
	var post domain.Post
	err := row.Scan(
		&post.ID,
		&post.Owner,
		&post.ImageURL,
		&post.Description,
		&post.AverageRating,
		&post.RatingsCount,
		&post.CreatedAt,
	)
	if err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func encodeCursor(c PostCursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a cursor token into a PostCursor.
func DecodeCursor(token string) (*PostCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var cursor PostCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	return &cursor, nil
}
