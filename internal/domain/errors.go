package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	// User errors
	ErrMsgUserNotFound = "user not found"
	ErrMsgUserBanned   = "user is banned"

	// Rate limit errors
	ErrMsgOnCooldown = "request on cooldown"

	// Verification errors
	ErrMsgNoVerifiedAccount    = "no verified account"
	ErrMsgVerificationNotFound = "verification not found"
	ErrMsgVerificationExpired  = "verification code expired"
	ErrMsgInvalidUsername      = "invalid provider username"

	// Session errors
	ErrMsgNotAuthenticated = "provider session not authenticated"
	ErrMsgAuthLost         = "provider authentication lost"
	ErrMsgBadCredentials   = "bad credentials"
	ErrMsgTwoFactorNeeded  = "two-factor code required"
	ErrMsgChallengeNeeded  = "interactive challenge required"
	ErrMsgRateLimited      = "rate limited by provider"
	ErrMsgInvalidBlob      = "malformed credential blob"

	// Pipeline errors
	ErrMsgMediaNotFound    = "media not found"
	ErrMsgFileTooLarge     = "file exceeds size limit"
	ErrMsgInvalidLink      = "link is not downloadable"
	ErrMsgFetchFailed      = "media fetch failed"
	ErrMsgProbeFailed      = "metadata probe failed"
	ErrMsgSelectionExpired = "quality selection expired"

	// Validation errors
	ErrMsgInvalidInput = "invalid input"
)

// Common domain errors
// These errors should be used consistently across all layers of the application.
// Wrap these errors with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	// User errors
	ErrUserNotFound = errors.New(ErrMsgUserNotFound)
	ErrUserBanned   = errors.New(ErrMsgUserBanned)

	// Rate limit errors
	ErrOnCooldown = errors.New(ErrMsgOnCooldown)

	// Verification errors
	ErrNoVerifiedAccount    = errors.New(ErrMsgNoVerifiedAccount)
	ErrVerificationNotFound = errors.New(ErrMsgVerificationNotFound)
	ErrVerificationExpired  = errors.New(ErrMsgVerificationExpired)
	ErrInvalidUsername      = errors.New(ErrMsgInvalidUsername)

	// Session errors
	ErrNotAuthenticated = errors.New(ErrMsgNotAuthenticated)
	ErrAuthLost         = errors.New(ErrMsgAuthLost)
	ErrBadCredentials   = errors.New(ErrMsgBadCredentials)
	ErrTwoFactorNeeded  = errors.New(ErrMsgTwoFactorNeeded)
	ErrChallengeNeeded  = errors.New(ErrMsgChallengeNeeded)
	ErrRateLimited      = errors.New(ErrMsgRateLimited)
	ErrInvalidBlob      = errors.New(ErrMsgInvalidBlob)

	// Pipeline errors
	ErrMediaNotFound    = errors.New(ErrMsgMediaNotFound)
	ErrFileTooLarge     = errors.New(ErrMsgFileTooLarge)
	ErrInvalidLink      = errors.New(ErrMsgInvalidLink)
	ErrFetchFailed      = errors.New(ErrMsgFetchFailed)
	ErrProbeFailed      = errors.New(ErrMsgProbeFailed)
	ErrSelectionExpired = errors.New(ErrMsgSelectionExpired)

	// Validation errors
	ErrInvalidInput = errors.New(ErrMsgInvalidInput)
)

// IsAuthError reports whether err belongs to the authentication class that
// must invalidate the shared provider session.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthLost) || errors.Is(err, ErrNotAuthenticated)
}

// IsTransient reports whether err is a transient provider failure the caller
// may retry with guidance instead of treating as fatal.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProbeFailed)
}
