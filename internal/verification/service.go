// Package verification proves a user controls a claimed provider username
// without the provider's own OAuth: the bot issues a one-time code, the user
// sends it to the bot's provider inbox as a direct message, and the bot
// scans both the regular and the pending inbox for it.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/logger"
	"github.com/mxbot/MXBot_Go/internal/metrics"
	"github.com/mxbot/MXBot_Go/internal/provider"
	"github.com/mxbot/MXBot_Go/internal/repository"
)

// Outcome of a Confirm call.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeExpired
)

// String returns the metric label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeExpired:
		return "expired"
	default:
		return "not_found"
	}
}

// Issued describes a freshly issued verification.
type Issued struct {
	ID        string
	Code      string
	ExpiresAt time.Time
}

// SessionHandle supplies the current authenticated provider client.
type SessionHandle interface {
	Handle() (provider.Client, error)
	Invalidate(ctx context.Context, reason string)
}

// Service is the verification workflow.
type Service interface {
	// Issue generates a one-time code and persists a pending linked account.
	Issue(ctx context.Context, userID, providerUsername string) (*Issued, error)

	// Confirm scans the bot's inboxes for the pending record's code.
	Confirm(ctx context.Context, id string) (Outcome, error)

	// HasVerified reports whether the identity owns a verified account.
	HasVerified(ctx context.Context, userID string) (bool, error)

	// ListAccounts returns the identity's linked accounts, pending included.
	ListAccounts(ctx context.Context, userID string) ([]domain.LinkedAccount, error)
}

type service struct {
	accounts repository.Account
	sessions SessionHandle
	now      func() time.Time
}

// NewService creates the verification workflow.
func NewService(accounts repository.Account, sessions SessionHandle) Service {
	return &service{accounts: accounts, sessions: sessions, now: time.Now}
}

func (s *service) Issue(ctx context.Context, userID, providerUsername string) (*Issued, error) {
	if !validUsername(providerUsername) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidUsername, providerUsername)
	}

	code, err := generateCode(domain.VerificationCodeLength)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &domain.LinkedAccount{
		UserID:           userID,
		ProviderUsername: providerUsername,
		State:            domain.VerificationPending,
		Code:             code,
		CodeIssuedAt:     now,
		CodeExpiresAt:    now.Add(domain.VerificationCodeTTL),
	}

	id, err := s.accounts.CreatePendingVerification(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending verification: %w", err)
	}

	logger.FromContext(ctx).Info("Verification issued",
		"user_id", userID,
		"provider_username", providerUsername,
		"expires_at", account.CodeExpiresAt)

	return &Issued{ID: id, Code: code, ExpiresAt: account.CodeExpiresAt}, nil
}

func (s *service) Confirm(ctx context.Context, id string) (Outcome, error) {
	log := logger.FromContext(ctx)

	pending, err := s.accounts.GetPendingVerification(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrVerificationNotFound) {
			return OutcomeNotFound, err
		}
		return OutcomeNotFound, fmt.Errorf("failed to load pending verification: %w", err)
	}

	if pending.Expired(s.now()) {
		// Expired records are dropped unconditionally; a repeat Confirm for
		// the same id then reports "no such record", not a second expiry.
		if err := s.accounts.DeletePendingVerification(ctx, id); err != nil {
			log.Error("Failed to delete expired verification", "error", err, "id", id)
		}
		metrics.VerificationOutcomes.WithLabelValues(OutcomeExpired.String()).Inc()
		return OutcomeExpired, nil
	}

	client, err := s.sessions.Handle()
	if err != nil {
		// No authenticated session: retryable, the pending record stays.
		log.Warn("Confirm attempted without authenticated session", "id", id)
		return OutcomeNotFound, nil
	}

	found, fromPending := s.scanInboxes(ctx, client, pending.Code)
	if !found {
		metrics.VerificationOutcomes.WithLabelValues(OutcomeNotFound.String()).Inc()
		return OutcomeNotFound, nil
	}

	if err := s.accounts.MarkVerified(ctx, id); err != nil {
		return OutcomeNotFound, fmt.Errorf("failed to mark account verified: %w", err)
	}
	if err := s.accounts.DeletePendingVerification(ctx, id); err != nil {
		log.Error("Failed to delete confirmed verification", "error", err, "id", id)
	}

	if fromPending != "" {
		// Best-effort: promote the thread so future messages land in the
		// regular inbox. Failure is a non-fatal degradation.
		if err := client.ApproveThread(ctx, fromPending); err != nil {
			log.Warn("Could not approve pending thread", "error", err, "thread_id", fromPending)
		}
	}

	log.Info("Account verified",
		"user_id", pending.UserID,
		"provider_username", pending.ProviderUsername)
	metrics.VerificationOutcomes.WithLabelValues(OutcomeFound.String()).Inc()
	return OutcomeFound, nil
}

// scanInboxes looks for code in the regular inbox first, then the pending
// queue, with bounded depth. Returns whether the code was found and, when it
// came from the pending queue, that thread's id. Any provider failure is
// treated as not-found so the operation stays retryable.
func (s *service) scanInboxes(ctx context.Context, client provider.Client, code string) (bool, string) {
	log := logger.FromContext(ctx)

	threads, err := client.ListInboxThreads(ctx, domain.InboxScanThreads)
	if err != nil {
		s.noteScanError(ctx, "inbox scan failed", err)
		return false, ""
	}
	if s.threadsContain(ctx, client, threads, code) {
		return true, ""
	}

	// Messages from accounts without a mutual connection land in a separate
	// pending queue; a first-time verifier's DM will be there.
	pendingThreads, err := client.ListPendingInboxThreads(ctx, domain.InboxScanThreads)
	if err != nil {
		log.Warn("Could not check pending inbox", "error", err)
		return false, ""
	}
	for _, thread := range pendingThreads {
		messages, err := client.ListThreadMessages(ctx, thread.ID, domain.InboxScanMessages)
		if err != nil {
			s.noteScanError(ctx, "pending thread scan failed", err)
			continue
		}
		for _, msg := range messages {
			if msg.Text != "" && strings.Contains(msg.Text, code) {
				return true, thread.ID
			}
		}
	}
	return false, ""
}

func (s *service) threadsContain(ctx context.Context, client provider.Client, threads []provider.Thread, code string) bool {
	for _, thread := range threads {
		messages, err := client.ListThreadMessages(ctx, thread.ID, domain.InboxScanMessages)
		if err != nil {
			s.noteScanError(ctx, "thread scan failed", err)
			continue
		}
		for _, msg := range messages {
			if msg.Text != "" && strings.Contains(msg.Text, code) {
				return true
			}
		}
	}
	return false
}

// noteScanError logs a scan failure and invalidates the shared session when
// the failure is authentication-class.
func (s *service) noteScanError(ctx context.Context, what string, err error) {
	logger.FromContext(ctx).Warn("Inbox scan degraded", "stage", what, "error", err)
	if domain.IsAuthError(err) {
		s.sessions.Invalidate(ctx, what+": "+err.Error())
	}
}

func (s *service) HasVerified(ctx context.Context, userID string) (bool, error) {
	return s.accounts.HasVerifiedAccount(ctx, userID)
}

func (s *service) ListAccounts(ctx context.Context, userID string) ([]domain.LinkedAccount, error) {
	return s.accounts.ListAccounts(ctx, userID)
}
