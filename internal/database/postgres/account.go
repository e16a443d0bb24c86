package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

// AccountRepository implements repository.Account for PostgreSQL
type AccountRepository struct {
	db *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// HasVerifiedAccount reports whether the identity owns a verified account
func (r *AccountRepository) HasVerifiedAccount(ctx context.Context, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM provider_accounts
			WHERE user_id = $1 AND state = $2
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, domain.VerificationVerified).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToListAccounts, err)
	}
	return exists, nil
}

// CreatePendingVerification persists a pending linked account with its code.
// A fresh request for the same (user, username) pair replaces the old code.
func (r *AccountRepository) CreatePendingVerification(ctx context.Context, account *domain.LinkedAccount) (string, error) {
	query := `
		INSERT INTO provider_accounts
			(user_id, provider_username, state, code, code_issued_at, code_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id, provider_username) DO UPDATE
		SET state = EXCLUDED.state,
		    code = EXCLUDED.code,
		    code_issued_at = EXCLUDED.code_issued_at,
		    code_expires_at = EXCLUDED.code_expires_at,
		    updated_at = NOW()
		RETURNING id
	`
	var id string
	err := r.db.QueryRow(ctx, query,
		account.UserID,
		account.ProviderUsername,
		account.State,
		account.Code,
		account.CodeIssuedAt,
		account.CodeExpiresAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrMsgFailedToCreatePending, err)
	}
	return id, nil
}

// GetPendingVerification returns the pending record by id
func (r *AccountRepository) GetPendingVerification(ctx context.Context, id string) (*domain.LinkedAccount, error) {
	query := `
		SELECT id, user_id, provider_username, state, code, code_issued_at, code_expires_at
		FROM provider_accounts
		WHERE id = $1 AND state = $2
	`
	var account domain.LinkedAccount
	err := r.db.QueryRow(ctx, query, id, domain.VerificationPending).Scan(
		&account.ID,
		&account.UserID,
		&account.ProviderUsername,
		&account.State,
		&account.Code,
		&account.CodeIssuedAt,
		&account.CodeExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVerificationNotFound
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetPending, err)
	}
	return &account, nil
}

// DeletePendingVerification removes a pending record; absent rows are fine
func (r *AccountRepository) DeletePendingVerification(ctx context.Context, id string) error {
	query := `DELETE FROM provider_accounts WHERE id = $1 AND state = $2`
	if _, err := r.db.Exec(ctx, query, id, domain.VerificationPending); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToDeletePending, err)
	}
	return nil
}

// MarkVerified promotes the account to verified and clears its code
func (r *AccountRepository) MarkVerified(ctx context.Context, id string) error {
	query := `
		UPDATE provider_accounts
		SET state = $2, code = '', updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, domain.VerificationVerified)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToMarkVerified, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVerificationNotFound
	}
	return nil
}

// ListAccounts returns all linked accounts for an identity
func (r *AccountRepository) ListAccounts(ctx context.Context, userID string) ([]domain.LinkedAccount, error) {
	query := `
		SELECT id, user_id, provider_username, state, code_issued_at, code_expires_at
		FROM provider_accounts
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListAccounts, err)
	}
	defer rows.Close()

	var accounts []domain.LinkedAccount
	for rows.Next() {
		var a domain.LinkedAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProviderUsername, &a.State, &a.CodeIssuedAt, &a.CodeExpiresAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToListAccounts, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// DeleteAccount removes a linked account by id
func (r *AccountRepository) DeleteAccount(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM provider_accounts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToDeleteAccount, err)
	}
	return nil
}
