package domain

import "time"

// Verification states for a linked provider account
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
)

// LinkedAccount is a claimed provider username associated with one chat
// identity. Many may exist per identity; one verified account unlocks
// provider downloads.
type LinkedAccount struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	ProviderUsername string    `json:"provider_username"`
	State            string    `json:"state"`
	Code             string    `json:"code,omitempty"`
	CodeIssuedAt     time.Time `json:"code_issued_at,omitempty"`
	CodeExpiresAt    time.Time `json:"code_expires_at,omitempty"`
}

// Expired reports whether the one-time code has passed its expiry window.
func (a *LinkedAccount) Expired(now time.Time) bool {
	return now.After(a.CodeExpiresAt)
}
