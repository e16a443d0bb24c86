// Package provider defines the boundary to the verification-capable content
// provider's client library. The core consumes this contract; the concrete
// client is wired in at startup.
package provider

import (
	"context"
	"time"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

// Thread is one direct-message conversation.
type Thread struct {
	ID string
}

// Message is one direct message inside a thread.
type Message struct {
	ID     string
	UserID string
	Text   string
	SentAt time.Time
}

// LoginResult is the typed outcome of a login attempt.
type LoginResult int

const (
	LoginOK LoginResult = iota
	LoginTwoFactorRequired
	LoginChallengeRequired
	LoginRateLimited
	LoginBadCredentials
)

// Client is the provider client handle. Implementations must map their
// library's failures onto the domain error taxonomy: auth-class failures as
// domain.ErrAuthLost, throttling as domain.ErrRateLimited, missing media as
// domain.ErrMediaNotFound.
//
// Login, LoadCredentials and DumpCredentials mutate the handle and are
// serialized by the session manager; the remaining calls are read-style and
// may run concurrently on an authenticated handle.
type Client interface {
	// Login authenticates with username/password and an optional two-factor
	// code. A non-OK LoginResult is returned without error for outcomes the
	// caller must surface (2FA, challenge, throttle, bad credentials).
	Login(ctx context.Context, username, password, twoFactorCode string) (LoginResult, error)

	// LoadCredentials restores a previously dumped credential blob.
	LoadCredentials(blob []byte) error

	// DumpCredentials serializes the current credential state.
	DumpCredentials() ([]byte, error)

	// ProbeAuth issues a lightweight authenticated call to validate the
	// session.
	ProbeAuth(ctx context.Context) error

	// ResolvePostID resolves a post URL to the provider's media id.
	ResolvePostID(ctx context.Context, url string) (string, error)

	// FetchPostInfo returns typed metadata for a post.
	FetchPostInfo(ctx context.Context, mediaID string) (*domain.MediaInfo, error)

	// DownloadPost downloads all items of a post into dir and returns the
	// written paths (one for photo/video, several for a carousel).
	DownloadPost(ctx context.Context, mediaID, dir string) ([]string, error)

	// ListInboxThreads returns recent threads from the regular inbox.
	ListInboxThreads(ctx context.Context, limit int) ([]Thread, error)

	// ListPendingInboxThreads returns threads from the pending/unapproved
	// queue, where first-contact messages land.
	ListPendingInboxThreads(ctx context.Context, limit int) ([]Thread, error)

	// ListThreadMessages returns recent messages of a thread, newest first.
	ListThreadMessages(ctx context.Context, threadID string, limit int) ([]Message, error)

	// ApproveThread promotes a pending thread to the regular inbox.
	ApproveThread(ctx context.Context, threadID string) error
}

// Factory creates a fresh, unauthenticated client handle. The session
// manager builds a new handle per login/load so stale state never leaks
// across re-authentication.
type Factory func() Client
