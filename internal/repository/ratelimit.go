package repository

import (
	"context"
	"time"
)

// RateLimit defines data access for per-identity request stamps. TryStamp
// must be atomic per identity: concurrent calls for the same identity must
// never both be admitted inside the cooldown window.
type RateLimit interface {
	// TryStamp compares the stored stamp for (userID, action) against now.
	// When the cooldown has elapsed it records now and returns allowed=true.
	// Otherwise it returns the remaining wait.
	TryStamp(ctx context.Context, userID, action string, cooldown time.Duration, now time.Time) (allowed bool, retryAfter time.Duration, err error)
}
