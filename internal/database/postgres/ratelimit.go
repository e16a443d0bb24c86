package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RateLimitRepository implements repository.RateLimit for PostgreSQL
type RateLimitRepository struct {
	db *pgxpool.Pool
}

// NewRateLimitRepository creates a new RateLimitRepository
func NewRateLimitRepository(db *pgxpool.Pool) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// TryStamp atomically checks the last stamp and refreshes it when the
// cooldown has elapsed. The row lock serializes concurrent attempts for the
// same (user, action) so exactly one wins the window.
func (r *RateLimitRepository) TryStamp(ctx context.Context, userID, action string, cooldown time.Duration, now time.Time) (bool, time.Duration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	defer tx.Rollback(ctx)

	var lastAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT last_at FROM rate_limits WHERE user_id = $1 AND action = $2 FOR UPDATE`,
		userID, action,
	).Scan(&lastAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, 0, fmt.Errorf("%s: %w", ErrMsgFailedToStampCooldown, err)
	}

	if err == nil {
		if elapsed := now.Sub(lastAt); elapsed < cooldown {
			return false, cooldown - elapsed, nil
		}
	}

	upsert := `
		INSERT INTO rate_limits (user_id, action, last_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, action) DO UPDATE
		SET last_at = EXCLUDED.last_at
	`
	if _, err := tx.Exec(ctx, upsert, userID, action, now); err != nil {
		return false, 0, fmt.Errorf("%s: %w", ErrMsgFailedToStampCooldown, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("%s: %w", ErrMsgFailedToStampCooldown, err)
	}
	return true, 0, nil
}
