package repository

import (
	"context"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

// Account defines data access for linked provider accounts and pending
// verifications.
type Account interface {
	// HasVerifiedAccount reports whether the identity owns at least one
	// verified linked account.
	HasVerifiedAccount(ctx context.Context, userID string) (bool, error)

	// CreatePendingVerification persists a pending linked account with its
	// one-time code and returns the record id.
	CreatePendingVerification(ctx context.Context, account *domain.LinkedAccount) (string, error)

	// GetPendingVerification returns the pending record by id, or
	// domain.ErrVerificationNotFound.
	GetPendingVerification(ctx context.Context, id string) (*domain.LinkedAccount, error)

	// DeletePendingVerification removes the pending record. Deleting an
	// absent record is not an error.
	DeletePendingVerification(ctx context.Context, id string) error

	// MarkVerified promotes the account to verified and clears its code.
	MarkVerified(ctx context.Context, id string) error

	// ListAccounts returns all linked accounts for an identity.
	ListAccounts(ctx context.Context, userID string) ([]domain.LinkedAccount, error)

	// DeleteAccount removes a linked account by explicit user action.
	DeleteAccount(ctx context.Context, id string) error
}
