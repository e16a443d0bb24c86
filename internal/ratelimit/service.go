package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/repository"
)

// Service gates requests per identity with a cooldown window.
type Service interface {
	// TryAcquire admits the request and stamps the current time, or denies
	// it with the remaining wait.
	TryAcquire(ctx context.Context, userID string, cooldown time.Duration) (allowed bool, retryAfter time.Duration, err error)
}

type service struct {
	store repository.RateLimit
	now   func() time.Time
}

// NewService creates a rate limiter on top of a stamp store.
func NewService(store repository.RateLimit) Service {
	return &service{store: store, now: time.Now}
}

func (s *service) TryAcquire(ctx context.Context, userID string, cooldown time.Duration) (bool, time.Duration, error) {
	allowed, retryAfter, err := s.store.TryStamp(ctx, userID, domain.ActionDownload, cooldown, s.now())
	if err != nil {
		return false, 0, fmt.Errorf("failed to check cooldown: %w", err)
	}
	return allowed, retryAfter, nil
}
