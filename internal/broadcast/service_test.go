package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/transport"
)

type fakeUsers struct {
	ids []string
	err error
}

func (f *fakeUsers) EnsureUser(context.Context, string, string) error { return nil }
func (f *fakeUsers) GetUser(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}
func (f *fakeUsers) IsBanned(context.Context, string) (bool, error) { return false, nil }
func (f *fakeUsers) BanUser(context.Context, string) error          { return nil }
func (f *fakeUsers) UnbanUser(context.Context, string) error        { return nil }
func (f *fakeUsers) ListIdentities(context.Context) ([]string, error) {
	return f.ids, f.err
}
func (f *fakeUsers) TotalUsers(context.Context) (int64, error) { return int64(len(f.ids)), nil }

type fakeMessenger struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeMessenger) SendText(_ context.Context, userID, _ string) (string, error) {
	if f.failFor[userID] {
		return "", errors.New("dm closed")
	}
	f.sent = append(f.sent, userID)
	return "m1", nil
}
func (f *fakeMessenger) EditText(context.Context, string, string, string) error { return nil }
func (f *fakeMessenger) DeleteMessage(context.Context, string, string) error    { return nil }
func (f *fakeMessenger) SendMedia(context.Context, string, transport.Media) error {
	return nil
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to every identity", func(t *testing.T) {
		users := &fakeUsers{ids: []string{"a", "b", "c"}}
		msg := &fakeMessenger{}

		report, err := NewService(users, msg, 0).Send(ctx, "hello")

		require.NoError(t, err)
		assert.Equal(t, 3, report.Recipients)
		assert.Equal(t, 3, report.Sent)
		assert.Zero(t, report.Failed)
		assert.Equal(t, []string{"a", "b", "c"}, msg.sent)
	})

	t.Run("continues past individual failures", func(t *testing.T) {
		users := &fakeUsers{ids: []string{"a", "b", "c"}}
		msg := &fakeMessenger{failFor: map[string]bool{"b": true}}

		report, err := NewService(users, msg, 0).Send(ctx, "hello")

		require.NoError(t, err)
		assert.Equal(t, 2, report.Sent)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, []string{"a", "c"}, msg.sent)
	})

	t.Run("cancellation stops between sends", func(t *testing.T) {
		users := &fakeUsers{ids: []string{"a", "b", "c"}}
		msg := &fakeMessenger{}
		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		report, err := NewService(users, msg, 50*time.Millisecond).Send(cancelCtx, "hello")

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, report.Sent, "first send happens before any pacing wait")
	})

	t.Run("listing failure aborts", func(t *testing.T) {
		users := &fakeUsers{err: errors.New("db down")}

		_, err := NewService(users, &fakeMessenger{}, 0).Send(ctx, "hello")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "broadcast recipients")
	})
}
