// Package broadcast fans an admin announcement out to every known identity,
// paced so the chat transport is not flooded.
package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/mxbot/MXBot_Go/internal/logger"
	"github.com/mxbot/MXBot_Go/internal/metrics"
	"github.com/mxbot/MXBot_Go/internal/repository"
	"github.com/mxbot/MXBot_Go/internal/transport"
)

// Report summarizes one broadcast run.
type Report struct {
	Recipients int
	Sent       int
	Failed     int
}

// Service delivers announcements to all registered identities.
type Service struct {
	users     repository.User
	messenger transport.Messenger
	delay     time.Duration
}

// NewService creates a broadcaster. delay is the pause between consecutive
// sends.
func NewService(users repository.User, messenger transport.Messenger, delay time.Duration) *Service {
	return &Service{users: users, messenger: messenger, delay: delay}
}

// Send delivers text to every identity. Individual failures are logged and
// counted but never abort the run; cancellation stops between sends.
func (s *Service) Send(ctx context.Context, text string) (*Report, error) {
	log := logger.FromContext(ctx)

	ids, err := s.users.ListIdentities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcast recipients: %w", err)
	}

	report := &Report{Recipients: len(ids)}
	for i, id := range ids {
		if i > 0 && s.delay > 0 {
			select {
			case <-ctx.Done():
				log.Warn("Broadcast cancelled", "sent", report.Sent, "remaining", len(ids)-i)
				return report, ctx.Err()
			case <-time.After(s.delay):
			}
		}

		if _, err := s.messenger.SendText(ctx, id, text); err != nil {
			report.Failed++
			log.Warn("Broadcast send failed", "user_id", id, "error", err)
			continue
		}
		report.Sent++
		metrics.BroadcastsSent.Inc()
	}

	log.Info("Broadcast complete", "recipients", report.Recipients, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}
