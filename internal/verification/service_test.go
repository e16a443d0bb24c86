package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/provider"
)

// Mock objects
type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) HasVerifiedAccount(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}
func (m *MockAccountRepo) CreatePendingVerification(ctx context.Context, account *domain.LinkedAccount) (string, error) {
	args := m.Called(ctx, account)
	return args.String(0), args.Error(1)
}
func (m *MockAccountRepo) GetPendingVerification(ctx context.Context, id string) (*domain.LinkedAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LinkedAccount), args.Error(1)
}
func (m *MockAccountRepo) DeletePendingVerification(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockAccountRepo) MarkVerified(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockAccountRepo) ListAccounts(ctx context.Context, userID string) ([]domain.LinkedAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LinkedAccount), args.Error(1)
}
func (m *MockAccountRepo) DeleteAccount(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// inboxClient is a canned provider client for inbox scans.
type inboxClient struct {
	provider.Client

	inbox        map[string][]string // threadID -> message texts
	pending      map[string][]string
	approved     []string
	approveErr   error
	inboxErr     error
	messagesErr  error
	pendingErr   error
	messageCalls int
}

func (c *inboxClient) ListInboxThreads(_ context.Context, _ int) ([]provider.Thread, error) {
	if c.inboxErr != nil {
		return nil, c.inboxErr
	}
	return threadsOf(c.inbox), nil
}
func (c *inboxClient) ListPendingInboxThreads(_ context.Context, _ int) ([]provider.Thread, error) {
	if c.pendingErr != nil {
		return nil, c.pendingErr
	}
	return threadsOf(c.pending), nil
}
func (c *inboxClient) ListThreadMessages(_ context.Context, threadID string, _ int) ([]provider.Message, error) {
	c.messageCalls++
	if c.messagesErr != nil {
		return nil, c.messagesErr
	}
	texts, ok := c.inbox[threadID]
	if !ok {
		texts = c.pending[threadID]
	}
	var messages []provider.Message
	for i, text := range texts {
		messages = append(messages, provider.Message{ID: threadID + "-" + string(rune('a'+i)), Text: text})
	}
	return messages, nil
}
func (c *inboxClient) ApproveThread(_ context.Context, threadID string) error {
	if c.approveErr != nil {
		return c.approveErr
	}
	c.approved = append(c.approved, threadID)
	return nil
}

func threadsOf(m map[string][]string) []provider.Thread {
	var threads []provider.Thread
	for id := range m {
		threads = append(threads, provider.Thread{ID: id})
	}
	return threads
}

// fixedSession hands out a fixed client.
type fixedSession struct {
	client      provider.Client
	err         error
	invalidated []string
}

func (s *fixedSession) Handle() (provider.Client, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.client, nil
}
func (s *fixedSession) Invalidate(_ context.Context, reason string) {
	s.invalidated = append(s.invalidated, reason)
}

func newTestService(repo *MockAccountRepo, sess SessionHandle, now time.Time) *service {
	return &service{accounts: repo, sessions: sess, now: func() time.Time { return now }}
}

func pendingAccount(code string, expiresAt time.Time) *domain.LinkedAccount {
	return &domain.LinkedAccount{
		ID:               "ver-1",
		UserID:           "user-1",
		ProviderUsername: "claimed_user",
		State:            domain.VerificationPending,
		Code:             code,
		CodeExpiresAt:    expiresAt,
	}
}

func TestGenerateCode(t *testing.T) {
	t.Run("fixed length and alphabet", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			code, err := generateCode(domain.VerificationCodeLength)
			require.NoError(t, err)
			assert.Len(t, code, domain.VerificationCodeLength)
			for _, r := range code {
				assert.Contains(t, codeAlphabet, string(r))
			}
		}
	})
}

func TestIssue(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("persists pending record with expiry", func(t *testing.T) {
		repo := new(MockAccountRepo)
		repo.On("CreatePendingVerification", ctx, mock.MatchedBy(func(a *domain.LinkedAccount) bool {
			return a.UserID == "user-1" &&
				a.ProviderUsername == "claimed_user" &&
				a.State == domain.VerificationPending &&
				len(a.Code) == domain.VerificationCodeLength &&
				a.CodeExpiresAt.Equal(now.Add(domain.VerificationCodeTTL))
		})).Return("ver-1", nil)

		svc := newTestService(repo, &fixedSession{}, now)
		issued, err := svc.Issue(ctx, "user-1", "claimed_user")
		require.NoError(t, err)
		assert.Equal(t, "ver-1", issued.ID)
		assert.Len(t, issued.Code, domain.VerificationCodeLength)
		repo.AssertExpectations(t)
	})

	t.Run("rejects malformed username without touching storage", func(t *testing.T) {
		repo := new(MockAccountRepo)
		svc := newTestService(repo, &fixedSession{}, now)

		_, err := svc.Issue(ctx, "user-1", "has spaces!")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidUsername)
		repo.AssertNotCalled(t, "CreatePendingVerification", mock.Anything, mock.Anything)
	})
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("expired record is dropped and reported expired", func(t *testing.T) {
		repo := new(MockAccountRepo)
		repo.On("GetPendingVerification", ctx, "ver-1").
			Return(pendingAccount("ABCD1234", now.Add(-time.Minute)), nil)
		repo.On("DeletePendingVerification", ctx, "ver-1").Return(nil)

		svc := newTestService(repo, &fixedSession{}, now)
		outcome, err := svc.Confirm(ctx, "ver-1")
		require.NoError(t, err)
		assert.Equal(t, OutcomeExpired, outcome)
		repo.AssertExpectations(t)
	})

	t.Run("second confirm after expiry drop reports missing record", func(t *testing.T) {
		repo := new(MockAccountRepo)
		repo.On("GetPendingVerification", ctx, "ver-1").
			Return(nil, domain.ErrVerificationNotFound)

		svc := newTestService(repo, &fixedSession{}, now)
		outcome, err := svc.Confirm(ctx, "ver-1")
		assert.Equal(t, OutcomeNotFound, outcome)
		assert.ErrorIs(t, err, domain.ErrVerificationNotFound)
	})

	t.Run("code found in regular inbox marks verified", func(t *testing.T) {
		repo := new(MockAccountRepo)
		repo.On("GetPendingVerification", ctx, "ver-1").
			Return(pendingAccount("ABCD1234", now.Add(time.Minute)), nil)
		repo.On("MarkVerified", ctx, "ver-1").Return(nil)
		repo.On("DeletePendingVerification", ctx, "ver-1").Return(nil)

		client := &inboxClient{inbox: map[string][]string{
			"t1": {"hey", "my code is ABCD1234 thanks"},
		}}
		svc := newTestService(repo, &fixedSession{client: client}, now)

		outcome, err := svc.Confirm(ctx, "ver-1")
		require.NoError(t, err)
		assert.Equal(t, OutcomeFound, outcome)
		assert.Empty(t, client.approved, "regular-inbox match needs no approval")
		repo.AssertExpectations(t)
	})

	t.Run("code found in pending inbox approves thread", func(t *testing.T) {
		repo := new(MockAccountRepo)
		repo.On("GetPendingVerification", ctx, "ver-1").
			Return(pendingAccount("ABCD1234", now.Add(time.Minute)), nil)
		repo.On("MarkVerified", ctx, "ver-1").Return(nil)
		repo.On("DeletePendingVerification", ctx, "ver-1").Return(nil)

		client := &inboxClient{
			inbox:   map[string][]string{"t1": {"unrelated"}},
			pending: map[string][]string{"p1": {"ABCD1234"}},
		}
		svc := newTestService(repo, &fixedSession{client: client}, now)

		outcome, err := svc.Confirm(ctx, "ver-1")
		require.NoError(t, err)
		assert.Equal(t, OutcomeFound, outcome)
		assert.Equal(t, []string{"p1"}, client.approved)
	})

	t.Run("approve failure does not affect verification result", func(t *testing.T) {
		repo := new(MockAccountRepo)
		repo.On("GetPendingVerification", ctx, "ver-1").
			Return(pendingAccount("ABCD1234", now.Add(time.Minute)), nil)
		repo.On("MarkVerified", ctx, "ver-1").Return(nil)
		repo.On("DeletePendingVerification", ctx, "ver-1").Return(nil)

		client := &inboxClient{
			pending:    map[string][]string{"p1": {"ABCD1234"}},
			approveErr: errors.New("approve denied"),
		}
		svc := newTestService(repo, &fixedSession{client: client}, now)

		outcome, err := svc.Confirm(ctx, "ver-1")
		require.NoError(t, err)
		assert.Equal(t, OutcomeFound, outcome)
	})

	t.Run("no match leaves the pending record intact", func(t *testing.T) {
		repo := new(MockAccountRepo)
		repo.On("GetPendingVerification", ctx, "ver-1").
			Return(pendingAccount("ABCD1234", now.Add(time.Minute)), nil)

		client := &inboxClient{inbox: map[string][]string{"t1": {"nothing here"}}}
		svc := newTestService(repo, &fixedSession{client: client}, now)

		outcome, err := svc.Confirm(ctx, "ver-1")
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, outcome)
		repo.AssertNotCalled(t, "DeletePendingVerification", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything)
	})

	t.Run("provider failure during scan is retryable not fatal", func(t *testing.T) {
		repo := new(MockAccountRepo)
		repo.On("GetPendingVerification", ctx, "ver-1").
			Return(pendingAccount("ABCD1234", now.Add(time.Minute)), nil)

		client := &inboxClient{inboxErr: errors.New("network down")}
		svc := newTestService(repo, &fixedSession{client: client}, now)

		outcome, err := svc.Confirm(ctx, "ver-1")
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, outcome)
	})

	t.Run("auth-class scan failure invalidates the session", func(t *testing.T) {
		repo := new(MockAccountRepo)
		repo.On("GetPendingVerification", ctx, "ver-1").
			Return(pendingAccount("ABCD1234", now.Add(time.Minute)), nil)

		client := &inboxClient{inboxErr: domain.ErrAuthLost}
		sess := &fixedSession{client: client}
		svc := newTestService(repo, sess, now)

		outcome, err := svc.Confirm(ctx, "ver-1")
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, outcome)
		assert.NotEmpty(t, sess.invalidated)
	})

	t.Run("no authenticated session is retryable", func(t *testing.T) {
		repo := new(MockAccountRepo)
		repo.On("GetPendingVerification", ctx, "ver-1").
			Return(pendingAccount("ABCD1234", now.Add(time.Minute)), nil)

		svc := newTestService(repo, &fixedSession{err: domain.ErrNotAuthenticated}, now)
		outcome, err := svc.Confirm(ctx, "ver-1")
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, outcome)
	})
}
