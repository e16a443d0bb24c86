// Package postgres implements the repository interfaces with raw SQL on a
// pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

// UserRepository implements repository.User for PostgreSQL
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// EnsureUser upserts the identity on first contact, keeping the username
// fresh on later messages.
func (r *UserRepository) EnsureUser(ctx context.Context, userID, username string) error {
	query := `
		INSERT INTO users (user_id, username, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, userID, username); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpsertUser, err)
	}
	return nil
}

// GetUser returns the identity or domain.ErrUserNotFound
func (r *UserRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, banned, download_count, created_at
		FROM users
		WHERE user_id = $1
	`
	var user domain.User
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&user.ID, &user.Username, &user.Banned, &user.DownloadCount, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetUser, err)
	}
	return &user, nil
}

// IsBanned reports whether the identity is on the ban list. Unknown
// identities are not banned.
func (r *UserRepository) IsBanned(ctx context.Context, userID string) (bool, error) {
	var banned bool
	err := r.db.QueryRow(ctx, `SELECT banned FROM users WHERE user_id = $1`, userID).Scan(&banned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToGetUser, err)
	}
	return banned, nil
}

// BanUser puts the identity on the ban list
func (r *UserRepository) BanUser(ctx context.Context, userID string) error {
	return r.setBanned(ctx, userID, true)
}

// UnbanUser removes the identity from the ban list
func (r *UserRepository) UnbanUser(ctx context.Context, userID string) error {
	return r.setBanned(ctx, userID, false)
}

func (r *UserRepository) setBanned(ctx context.Context, userID string, banned bool) error {
	query := `
		INSERT INTO users (user_id, username, banned, created_at, updated_at)
		VALUES ($1, '', $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET banned = EXCLUDED.banned, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, userID, banned); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateBan, err)
	}
	return nil
}

// ListIdentities returns all known identity ids for broadcast fan-out,
// skipping banned ones.
func (r *UserRepository) ListIdentities(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM users WHERE NOT banned ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListIdentities, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListIdentities, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TotalUsers returns the registered identity count
func (r *UserRepository) TotalUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToCountUsers, err)
	}
	return count, nil
}
