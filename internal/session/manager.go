package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/logger"
	"github.com/mxbot/MXBot_Go/internal/metrics"
	"github.com/mxbot/MXBot_Go/internal/provider"
)

// State of the single shared provider session.
type State string

const (
	StateUninitialized     State = "uninitialized"
	StateAuthenticated     State = "authenticated"
	StateAwaitingChallenge State = "awaiting_challenge"
	StateBackoff           State = "backoff"
)

// Status is a snapshot of the session for the operator surface.
type Status struct {
	State         State     `json:"state"`
	Username      string    `json:"username,omitempty"`
	LastCheckedAt time.Time `json:"last_checked_at,omitempty"`
	LastFailure   string    `json:"last_failure,omitempty"`
}

// LoginOutcome is the typed result of a Login call.
type LoginOutcome int

const (
	LoginSucceeded LoginOutcome = iota
	LoginNeedsTwoFactor
	LoginNeedsChallenge
	LoginThrottled
	LoginRejected
)

// Manager owns the authenticated-client state machine. The provider client
// handle is a shared, mutually exclusive resource: every mutating operation
// (bootstrap, login, blob upload, invalidation) funnels through one mutex.
// Read-style calls receive the current handle via Handle() and run
// concurrently; when the handle is invalidated under them they fail with an
// auth-class error and the next call revalidates lazily.
type Manager struct {
	factory provider.Factory
	store   BlobStore

	defaultUsername string
	password        string

	mu          sync.Mutex
	state       State
	client      provider.Client
	username    string
	lastChecked time.Time
	lastFailure string
}

// NewManager creates a session manager in the Uninitialized state.
func NewManager(factory provider.Factory, store BlobStore, defaultUsername, password string) *Manager {
	return &Manager{
		factory:         factory,
		store:           store,
		defaultUsername: defaultUsername,
		password:        password,
		state:           StateUninitialized,
	}
}

// Bootstrap attempts load-and-validate from a persisted blob for the
// configured username, falling through to a fresh login when credentials are
// configured. Both failures leave the manager Uninitialized; the process
// keeps running and the operator can upload a blob later.
func (m *Manager) Bootstrap(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if m.defaultUsername == "" {
		log.Info("No provider username configured, session stays uninitialized")
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store.Exists(m.defaultUsername) {
		if err := m.loadAndValidateLocked(ctx, m.defaultUsername); err == nil {
			log.Info("Provider session restored from persisted blob", "username", m.defaultUsername)
			return nil
		} else {
			log.Warn("Persisted session is unusable, falling through to fresh login", "error", err)
		}
	}

	if m.password == "" {
		log.Info("No provider password configured, skipping fresh login")
		return nil
	}

	outcome, err := m.loginLocked(ctx, m.defaultUsername, m.password, "")
	if err != nil {
		return err
	}
	if outcome != LoginSucceeded {
		log.Warn("Bootstrap login did not authenticate", "outcome", outcome)
	}
	return nil
}

// Login performs a fresh login and persists the credential blob on success.
func (m *Manager) Login(ctx context.Context, username, password, twoFactorCode string) (LoginOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginLocked(ctx, username, password, twoFactorCode)
}

func (m *Manager) loginLocked(ctx context.Context, username, password, twoFactorCode string) (LoginOutcome, error) {
	log := logger.FromContext(ctx)

	client := m.factory()
	result, err := client.Login(ctx, username, password, twoFactorCode)
	if err != nil {
		m.recordFailureLocked("login failed: " + err.Error())
		return LoginRejected, fmt.Errorf("provider login failed: %w", err)
	}

	switch result {
	case provider.LoginOK:
		blob, err := client.DumpCredentials()
		if err != nil {
			m.recordFailureLocked("credential dump failed: " + err.Error())
			return LoginRejected, fmt.Errorf("failed to dump credentials: %w", err)
		}
		if err := m.store.Store(username, blob); err != nil {
			// Session works even if persistence failed; log and continue.
			log.Error("Failed to persist credential blob", "error", err, "username", username)
		}
		m.promoteLocked(client, username)
		log.Info("Provider login succeeded", "username", username)
		return LoginSucceeded, nil

	case provider.LoginTwoFactorRequired:
		m.state = StateAwaitingChallenge
		m.lastFailure = domain.ErrMsgTwoFactorNeeded
		metrics.SessionTransitions.WithLabelValues(string(StateAwaitingChallenge)).Inc()
		return LoginNeedsTwoFactor, nil

	case provider.LoginChallengeRequired:
		m.state = StateAwaitingChallenge
		m.lastFailure = domain.ErrMsgChallengeNeeded
		metrics.SessionTransitions.WithLabelValues(string(StateAwaitingChallenge)).Inc()
		return LoginNeedsChallenge, nil

	case provider.LoginRateLimited:
		m.state = StateBackoff
		m.lastFailure = domain.ErrMsgRateLimited
		metrics.SessionTransitions.WithLabelValues(string(StateBackoff)).Inc()
		return LoginThrottled, nil

	default:
		m.state = StateUninitialized
		m.lastFailure = domain.ErrMsgBadCredentials
		metrics.SessionTransitions.WithLabelValues(string(StateUninitialized)).Inc()
		return LoginRejected, nil
	}
}

// UploadBlob validates an uploaded credential blob, persists it keyed by the
// username embedded in the blob (or the configured default), then runs
// load-and-validate before promoting to Authenticated. Returns the username
// the blob was stored under.
func (m *Manager) UploadBlob(ctx context.Context, blob []byte) (string, error) {
	if err := ValidateBlob(blob); err != nil {
		return "", err
	}

	username := ExtractUsername(blob)
	if username == "" {
		username = m.defaultUsername
	}
	if username == "" {
		return "", fmt.Errorf("%w: no username in blob and none configured", domain.ErrInvalidBlob)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Store(username, blob); err != nil {
		return "", err
	}
	if err := m.loadAndValidateLocked(ctx, username); err != nil {
		return username, err
	}
	return username, nil
}

// loadAndValidateLocked loads the persisted blob for username into a fresh
// client, probes it, and promotes on success. Caller holds m.mu.
func (m *Manager) loadAndValidateLocked(ctx context.Context, username string) error {
	blob, err := m.store.Load(username)
	if err != nil {
		return err
	}

	client := m.factory()
	if err := client.LoadCredentials(blob); err != nil {
		m.recordFailureLocked("credential load failed: " + err.Error())
		return fmt.Errorf("%w: %v", domain.ErrInvalidBlob, err)
	}
	if err := client.ProbeAuth(ctx); err != nil {
		m.recordFailureLocked("session probe failed: " + err.Error())
		return fmt.Errorf("session validation failed: %w", err)
	}

	m.promoteLocked(client, username)
	return nil
}

func (m *Manager) promoteLocked(client provider.Client, username string) {
	m.client = client
	m.username = username
	m.state = StateAuthenticated
	m.lastChecked = time.Now()
	m.lastFailure = ""
	metrics.SessionTransitions.WithLabelValues(string(StateAuthenticated)).Inc()
}

func (m *Manager) recordFailureLocked(reason string) {
	m.state = StateUninitialized
	m.client = nil
	m.lastFailure = reason
	metrics.SessionTransitions.WithLabelValues(string(StateUninitialized)).Inc()
}

// Handle returns the current authenticated client for read-style calls, or
// domain.ErrNotAuthenticated. The returned handle is a snapshot: an
// invalidation racing with an in-flight read never mutates shared state
// under the reader.
func (m *Manager) Handle() (provider.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated || m.client == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return m.client, nil
}

// Invalidate drops the authenticated handle after an auth-class failure and
// records the reason for operator visibility. Safe to call repeatedly.
func (m *Manager) Invalidate(ctx context.Context, reason string) {
	logger.FromContext(ctx).Warn("Provider session invalidated", "reason", reason)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticated {
		m.recordFailureLocked(reason)
	}
}

// Revalidate re-runs load-and-validate for the current (or default)
// username. Used by the admin relogin flow and lazy revalidation.
func (m *Manager) Revalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	username := m.username
	if username == "" {
		username = m.defaultUsername
	}
	if username == "" {
		return domain.ErrNotAuthenticated
	}
	return m.loadAndValidateLocked(ctx, username)
}

// DeleteSession drops the persisted blob for the active username and resets
// the state machine.
func (m *Manager) DeleteSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	username := m.username
	if username == "" {
		username = m.defaultUsername
	}
	if username == "" {
		return nil
	}
	if err := m.store.Delete(username); err != nil {
		return err
	}
	m.recordFailureLocked("session deleted by operator")
	return nil
}

// Status returns a snapshot for the ops/admin surface.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		State:         m.state,
		Username:      m.username,
		LastCheckedAt: m.lastChecked,
		LastFailure:   m.lastFailure,
	}
}
