package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fridgegram/fridgegram/internal/domain"
)

// ProfilesRepository provides persistence helpers for user profiles.
type ProfilesRepository struct {
	pool *pgxpool.Pool
}

const profileColumns = `
    id,
    display_name,
    photo_url,
    join_date,
    user_streak,
    last_post_date
`

// ProfileUpsertParams captures the identity fields refreshed at sign-in.
type ProfileUpsertParams struct {
	ID          string
	DisplayName string
	PhotoURL    *string
}

// Upsert creates the profile on first sign-in and refreshes the identity
// fields on later sign-ins. Streak fields and join date are never touched
// here; the boolean reports whether the row was newly created.
func (r *ProfilesRepository) Upsert(ctx context.Context, params ProfileUpsertParams) (domain.UserProfile, bool, error) {
	query := `
        INSERT INTO users (id, display_name, photo_url)
        VALUES ($1,$2,$3)
        ON CONFLICT (id)
        DO UPDATE SET display_name = EXCLUDED.display_name,
                      photo_url = EXCLUDED.photo_url,
                      updated_at = now()
        RETURNING ` + profileColumns + `, (xmax = 0) AS inserted
    `
	var (
		profile  domain.UserProfile
		inserted bool
	)
	err := r.pool.QueryRow(ctx, query, params.ID, params.DisplayName, params.PhotoURL).Scan(
		&profile.ID,
		&profile.DisplayName,
		&profile.PhotoURL,
		&profile.JoinDate,
		&profile.Streak,
		&profile.LastPostDate,
		&inserted,
	)
	if err != nil {
		return domain.UserProfile{}, false, err
	}
	return profile, inserted, nil
}

// GetByID fetches a profile by user identifier.
func (r *ProfilesRepository) GetByID(ctx context.Context, id string) (domain.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`
	var profile domain.UserProfile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.DisplayName,
		&profile.PhotoURL,
		&profile.JoinDate,
		&profile.Streak,
		&profile.LastPostDate,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.UserProfile{}, ErrNotFound
		}
		return domain.UserProfile{}, err
	}
	return profile, nil
}

// UpdateStreak writes the recomputed streak and the last-post timestamp. The
// timestamp is refreshed even when the streak value is unchanged.
func (r *ProfilesRepository) UpdateStreak(ctx context.Context, id string, streak int, lastPost time.Time) error {
	tag, err := r.pool.Exec(ctx, `
        UPDATE users
        SET user_streak = $2, last_post_date = $3, updated_at = now()
        WHERE id = $1
    `, id, streak, lastPost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
