package repository

import (
	"context"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

// User defines data access for chat identities.
type User interface {
	// EnsureUser upserts the identity on first contact.
	EnsureUser(ctx context.Context, userID, username string) error

	// GetUser returns the identity or domain.ErrUserNotFound.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// IsBanned reports whether the identity is on the ban list.
	IsBanned(ctx context.Context, userID string) (bool, error)

	// BanUser / UnbanUser maintain the ban list.
	BanUser(ctx context.Context, userID string) error
	UnbanUser(ctx context.Context, userID string) error

	// ListIdentities returns all known identities, for broadcast fan-out.
	ListIdentities(ctx context.Context) ([]string, error)

	// TotalUsers returns the registered identity count.
	TotalUsers(ctx context.Context) (int64, error)
}
