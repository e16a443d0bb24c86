package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/provider"
)

// Mock objects
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Login(ctx context.Context, username, password, twoFactorCode string) (provider.LoginResult, error) {
	args := m.Called(ctx, username, password, twoFactorCode)
	return args.Get(0).(provider.LoginResult), args.Error(1)
}
func (m *MockClient) LoadCredentials(blob []byte) error {
	args := m.Called(blob)
	return args.Error(0)
}
func (m *MockClient) DumpCredentials() ([]byte, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockClient) ProbeAuth(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockClient) ResolvePostID(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}
func (m *MockClient) FetchPostInfo(ctx context.Context, mediaID string) (*domain.MediaInfo, error) {
	args := m.Called(ctx, mediaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MediaInfo), args.Error(1)
}
func (m *MockClient) DownloadPost(ctx context.Context, mediaID, dir string) ([]string, error) {
	args := m.Called(ctx, mediaID, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *MockClient) ListInboxThreads(ctx context.Context, limit int) ([]provider.Thread, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Thread), args.Error(1)
}
func (m *MockClient) ListPendingInboxThreads(ctx context.Context, limit int) ([]provider.Thread, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Thread), args.Error(1)
}
func (m *MockClient) ListThreadMessages(ctx context.Context, threadID string, limit int) ([]provider.Message, error) {
	args := m.Called(ctx, threadID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Message), args.Error(1)
}
func (m *MockClient) ApproveThread(ctx context.Context, threadID string) error {
	args := m.Called(ctx, threadID)
	return args.Error(0)
}

func factoryFor(clients ...*MockClient) provider.Factory {
	i := 0
	return func() provider.Client {
		c := clients[i]
		if i < len(clients)-1 {
			i++
		}
		return c
	}
}

func newStore(t *testing.T) *FileStore {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestManager_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("successful login persists blob and authenticates", func(t *testing.T) {
		store := newStore(t)
		client := new(MockClient)
		client.On("Login", ctx, "botuser", "secret", "").Return(provider.LoginOK, nil)
		client.On("DumpCredentials").Return([]byte(`{"authorization_data":{"ds_user":"botuser"}}`), nil)

		m := NewManager(factoryFor(client), store, "botuser", "secret")
		outcome, err := m.Login(ctx, "botuser", "secret", "")
		require.NoError(t, err)
		assert.Equal(t, LoginSucceeded, outcome)
		assert.Equal(t, StateAuthenticated, m.Status().State)
		assert.True(t, store.Exists("botuser"))

		handle, err := m.Handle()
		require.NoError(t, err)
		assert.NotNil(t, handle)
	})

	t.Run("two factor required surfaces typed outcome", func(t *testing.T) {
		client := new(MockClient)
		client.On("Login", ctx, "botuser", "secret", "").Return(provider.LoginTwoFactorRequired, nil)

		m := NewManager(factoryFor(client), newStore(t), "botuser", "secret")
		outcome, err := m.Login(ctx, "botuser", "secret", "")
		require.NoError(t, err)
		assert.Equal(t, LoginNeedsTwoFactor, outcome)
		assert.Equal(t, StateAwaitingChallenge, m.Status().State)
	})

	t.Run("rate limited transitions to backoff", func(t *testing.T) {
		client := new(MockClient)
		client.On("Login", ctx, "botuser", "secret", "").Return(provider.LoginRateLimited, nil)

		m := NewManager(factoryFor(client), newStore(t), "botuser", "secret")
		outcome, err := m.Login(ctx, "botuser", "secret", "")
		require.NoError(t, err)
		assert.Equal(t, LoginThrottled, outcome)
		assert.Equal(t, StateBackoff, m.Status().State)
	})

	t.Run("bad credentials stay uninitialized", func(t *testing.T) {
		client := new(MockClient)
		client.On("Login", ctx, "botuser", "wrong", "").Return(provider.LoginBadCredentials, nil)

		m := NewManager(factoryFor(client), newStore(t), "botuser", "wrong")
		outcome, err := m.Login(ctx, "botuser", "wrong", "")
		require.NoError(t, err)
		assert.Equal(t, LoginRejected, outcome)
		assert.Equal(t, StateUninitialized, m.Status().State)
		assert.Contains(t, m.Status().LastFailure, "bad credentials")
	})
}

func TestManager_Bootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("restores persisted session", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Store("botuser", []byte(`{"uuids":{"username":"botuser"}}`)))

		client := new(MockClient)
		client.On("LoadCredentials", mock.Anything).Return(nil)
		client.On("ProbeAuth", ctx).Return(nil)

		m := NewManager(factoryFor(client), store, "botuser", "")
		require.NoError(t, m.Bootstrap(ctx))
		assert.Equal(t, StateAuthenticated, m.Status().State)
	})

	t.Run("stale blob falls through to fresh login", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Store("botuser", []byte(`{"uuids":{"username":"botuser"}}`)))

		stale := new(MockClient)
		stale.On("LoadCredentials", mock.Anything).Return(nil)
		stale.On("ProbeAuth", ctx).Return(domain.ErrAuthLost)

		fresh := new(MockClient)
		fresh.On("Login", ctx, "botuser", "secret", "").Return(provider.LoginOK, nil)
		fresh.On("DumpCredentials").Return([]byte(`{"uuids":{"username":"botuser"}}`), nil)

		m := NewManager(factoryFor(stale, fresh), store, "botuser", "secret")
		require.NoError(t, m.Bootstrap(ctx))
		assert.Equal(t, StateAuthenticated, m.Status().State)
	})

	t.Run("no configured username is a no-op", func(t *testing.T) {
		m := NewManager(factoryFor(new(MockClient)), newStore(t), "", "")
		require.NoError(t, m.Bootstrap(ctx))
		assert.Equal(t, StateUninitialized, m.Status().State)
	})
}

func TestManager_UploadBlob(t *testing.T) {
	ctx := context.Background()

	t.Run("valid blob promotes to authenticated", func(t *testing.T) {
		store := newStore(t)
		client := new(MockClient)
		client.On("LoadCredentials", mock.Anything).Return(nil)
		client.On("ProbeAuth", ctx).Return(nil)

		m := NewManager(factoryFor(client), store, "fallback", "")
		username, err := m.UploadBlob(ctx, []byte(`{"authorization_data":{"ds_user":"uploaded"}}`))
		require.NoError(t, err)
		assert.Equal(t, "uploaded", username)
		assert.True(t, store.Exists("uploaded"))
		assert.Equal(t, StateAuthenticated, m.Status().State)
	})

	t.Run("malformed blob is rejected before any provider call", func(t *testing.T) {
		m := NewManager(factoryFor(new(MockClient)), newStore(t), "fallback", "")
		_, err := m.UploadBlob(ctx, []byte("not json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidBlob)
	})

	t.Run("blob without username falls back to configured default", func(t *testing.T) {
		store := newStore(t)
		client := new(MockClient)
		client.On("LoadCredentials", mock.Anything).Return(nil)
		client.On("ProbeAuth", ctx).Return(nil)

		m := NewManager(factoryFor(client), store, "fallback", "")
		username, err := m.UploadBlob(ctx, []byte(`{"cookies":{}}`))
		require.NoError(t, err)
		assert.Equal(t, "fallback", username)
	})
}

func TestManager_Invalidate(t *testing.T) {
	ctx := context.Background()

	store := newStore(t)
	client := new(MockClient)
	client.On("Login", ctx, "botuser", "secret", "").Return(provider.LoginOK, nil)
	client.On("DumpCredentials").Return([]byte(`{"uuids":{"username":"botuser"}}`), nil)

	m := NewManager(factoryFor(client), store, "botuser", "secret")
	_, err := m.Login(ctx, "botuser", "secret", "")
	require.NoError(t, err)

	// A handle obtained before invalidation stays usable as a snapshot.
	handle, err := m.Handle()
	require.NoError(t, err)
	require.NotNil(t, handle)

	m.Invalidate(ctx, "auth error on read")

	status := m.Status()
	assert.Equal(t, StateUninitialized, status.State)
	assert.Equal(t, "auth error on read", status.LastFailure)

	_, err = m.Handle()
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	// Repeated invalidation does not clobber state.
	m.Invalidate(ctx, "second")
	assert.Equal(t, "auth error on read", m.Status().LastFailure)
}

func TestExtractUsername(t *testing.T) {
	t.Run("authorization_data ds_user", func(t *testing.T) {
		assert.Equal(t, "alice", ExtractUsername([]byte(`{"authorization_data":{"ds_user":"alice"}}`)))
	})
	t.Run("uuids username", func(t *testing.T) {
		assert.Equal(t, "bob", ExtractUsername([]byte(`{"uuids":{"username":"bob"}}`)))
	})
	t.Run("nested fallback", func(t *testing.T) {
		assert.Equal(t, "carol", ExtractUsername([]byte(`{"whatever":{"username":"carol"}}`)))
	})
	t.Run("absent", func(t *testing.T) {
		assert.Empty(t, ExtractUsername([]byte(`{"cookies":{}}`)))
	})
	t.Run("invalid json", func(t *testing.T) {
		assert.Empty(t, ExtractUsername([]byte(`nope`)))
	})
}

func TestFileStore(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Store("alice", []byte(`{"a":1}`)))
	assert.True(t, store.Exists("alice"))

	blob, err := store.Load("alice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(blob))

	require.NoError(t, store.Delete("alice"))
	assert.False(t, store.Exists("alice"))

	// Deleting again is fine.
	require.NoError(t, store.Delete("alice"))

	_, err = store.Load("alice")
	require.Error(t, err)
}
