package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/format"
	"github.com/mxbot/MXBot_Go/internal/logger"
	"github.com/mxbot/MXBot_Go/internal/session"
)

func (b *Bot) handleAdminCommand(ctx context.Context, userID, cmd string, args []string) {
	switch cmd {
	case "session":
		b.replySessionStatus(ctx, userID)

	case "login":
		conv := b.conv.get(userID)
		conv.state = stateAwaitUsername
		b.conv.put(userID, conv)
		b.reply(ctx, userID, MsgAskUsername)

	case "relogin":
		b.runJob(ctx, userID, func(ctx context.Context) error {
			if err := b.deps.Sessions.Revalidate(ctx); err != nil {
				b.reply(ctx, userID, "❌ Revalidation failed: "+err.Error())
				return nil
			}
			b.reply(ctx, userID, "✅ Session revalidated.")
			return nil
		})

	case "upload_session":
		conv := b.conv.get(userID)
		conv.state = stateAwaitBlob
		b.conv.put(userID, conv)
		b.reply(ctx, userID, MsgAskBlob)

	case "delete_session":
		if err := b.deps.Sessions.DeleteSession(ctx); err != nil {
			logger.FromContext(ctx).Error("Failed to delete session", "error", err)
			b.reply(ctx, userID, MsgGenericError)
			return
		}
		b.reply(ctx, userID, MsgSessionDeleted)

	case "stats":
		b.replyStats(ctx, userID)

	case "ban":
		b.handleBan(ctx, userID, args, true)

	case "unban":
		b.handleBan(ctx, userID, args, false)

	case "broadcast":
		conv := b.conv.get(userID)
		conv.state = stateAwaitBroadcast
		b.conv.put(userID, conv)
		b.reply(ctx, userID, MsgAskBroadcast)
	}
}

func (b *Bot) replySessionStatus(ctx context.Context, userID string) {
	status := b.deps.Sessions.Status()

	var sb strings.Builder
	sb.WriteString("🔧 **Provider Session**\n")
	sb.WriteString("State: `" + string(status.State) + "`\n")
	if status.Username != "" {
		sb.WriteString("Username: `" + status.Username + "`\n")
	}
	if !status.LastCheckedAt.IsZero() {
		sb.WriteString("Last checked: " + status.LastCheckedAt.Format("2006-01-02 15:04:05") + "\n")
	}
	if status.LastFailure != "" {
		sb.WriteString("Last failure: " + status.LastFailure + "\n")
	}
	b.reply(ctx, userID, sb.String())
}

func (b *Bot) replyStats(ctx context.Context, userID string) {
	log := logger.FromContext(ctx)

	users, err := b.deps.Users.TotalUsers(ctx)
	if err != nil {
		log.Error("Failed to count users", "error", err)
		b.reply(ctx, userID, MsgGenericError)
		return
	}
	downloads, err := b.deps.Downloads.TotalDownloads(ctx)
	if err != nil {
		log.Error("Failed to count downloads", "error", err)
		b.reply(ctx, userID, MsgGenericError)
		return
	}
	byKind, err := b.deps.Downloads.DownloadsByKind(ctx)
	if err != nil {
		log.Error("Failed to count downloads by kind", "error", err)
		b.reply(ctx, userID, MsgGenericError)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 **Stats**\n")
	sb.WriteString("Users: **" + format.GroupedCount(users) + "**\n")
	sb.WriteString("Downloads: **" + format.GroupedCount(downloads) + "**\n")
	for _, kind := range []domain.MediaKind{
		domain.MediaKindPhoto, domain.MediaKindVideo, domain.MediaKindAudio,
		domain.MediaKindDocument, domain.MediaKindCarousel,
	} {
		if n, ok := byKind[kind]; ok && n > 0 {
			sb.WriteString(fmt.Sprintf("• %s: %s\n", kind, format.Count(n)))
		}
	}
	b.reply(ctx, userID, sb.String())
}

func (b *Bot) handleBan(ctx context.Context, adminID string, args []string, ban bool) {
	if len(args) != 1 {
		b.reply(ctx, adminID, "Usage: `/ban <user-id>` or `/unban <user-id>`")
		return
	}
	target := args[0]

	var err error
	if ban {
		err = b.deps.Users.BanUser(ctx, target)
	} else {
		err = b.deps.Users.UnbanUser(ctx, target)
	}
	if err != nil {
		logger.FromContext(ctx).Error("Ban list update failed", "target", target, "error", err)
		b.reply(ctx, adminID, MsgGenericError)
		return
	}
	if ban {
		b.reply(ctx, adminID, "🔨 Banned `"+target+"`.")
	} else {
		b.reply(ctx, adminID, "🕊️ Unbanned `"+target+"`.")
	}
}

// continueFlow feeds the next message of a multi-step conversation into its
// state machine.
func (b *Bot) continueFlow(ctx context.Context, m *discordgo.MessageCreate, conv *conversation) {
	userID := m.Author.ID
	content := strings.TrimSpace(m.Content)

	switch conv.state {
	case stateAwaitUsername:
		conv.username = content
		conv.state = stateAwaitPassword
		b.conv.put(userID, conv)
		b.reply(ctx, userID, MsgAskPassword)

	case stateAwaitPassword:
		conv.password = content
		conv.state = stateNone
		b.conv.put(userID, conv)
		b.startLogin(ctx, userID, conv.username, conv.password, "")

	case stateAwaitTwoFactor:
		username, password := conv.username, conv.password
		conv.state = stateNone
		conv.username = ""
		conv.password = ""
		b.conv.put(userID, conv)
		b.startLogin(ctx, userID, username, password, content)

	case stateAwaitBlob:
		b.handleBlobUpload(ctx, m, conv)

	case stateAwaitBroadcast:
		conv.state = stateNone
		b.conv.put(userID, conv)
		b.startBroadcast(ctx, userID, content)
	}
}

// startLogin runs the provider login on the pool and walks the outcome.
func (b *Bot) startLogin(ctx context.Context, userID, username, password, twoFactorCode string) {
	b.runJob(ctx, userID, func(ctx context.Context) error {
		outcome, err := b.deps.Sessions.Login(ctx, username, password, twoFactorCode)
		if err != nil {
			logger.FromContext(ctx).Error("Login failed", "error", err)
			b.reply(ctx, userID, MsgLoginRejected)
			return nil
		}

		switch outcome {
		case session.LoginSucceeded:
			// Secrets are no longer needed once the blob is persisted.
			conv := b.conv.get(userID)
			conv.username = ""
			conv.password = ""
			b.conv.put(userID, conv)
			b.reply(ctx, userID, MsgLoginOK)

		case session.LoginNeedsTwoFactor:
			conv := b.conv.get(userID)
			conv.username = username
			conv.password = password
			conv.state = stateAwaitTwoFactor
			b.conv.put(userID, conv)
			b.reply(ctx, userID, MsgAskTwoFactor)

		case session.LoginNeedsChallenge:
			b.reply(ctx, userID, MsgLoginChallenge)

		case session.LoginThrottled:
			b.reply(ctx, userID, MsgLoginThrottled)

		default:
			b.reply(ctx, userID, MsgLoginRejected)
		}
		return nil
	})
}

func (b *Bot) handleBlobUpload(ctx context.Context, m *discordgo.MessageCreate, conv *conversation) {
	userID := m.Author.ID

	if len(m.Attachments) == 0 {
		b.reply(ctx, userID, MsgAskBlob)
		return
	}
	url := m.Attachments[0].URL

	conv.state = stateNone
	b.conv.put(userID, conv)

	b.runJob(ctx, userID, func(ctx context.Context) error {
		blob, err := fetchAttachment(ctx, url)
		if err != nil {
			logger.FromContext(ctx).Error("Attachment fetch failed", "error", err)
			b.reply(ctx, userID, MsgGenericError)
			return nil
		}

		username, err := b.deps.Sessions.UploadBlob(ctx, blob)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidBlob) {
				b.reply(ctx, userID, MsgBlobInvalid)
				return nil
			}
			b.reply(ctx, userID, "⚠️ Stored the blob but validation failed: "+err.Error())
			return nil
		}
		b.reply(ctx, userID, "✅ Session for `"+username+"` uploaded and validated.")
		return nil
	})
}

func (b *Bot) startBroadcast(ctx context.Context, adminID, text string) {
	b.runJob(ctx, adminID, func(ctx context.Context) error {
		report, err := b.deps.Broadcast.Send(ctx, text)
		if err != nil {
			logger.FromContext(ctx).Error("Broadcast failed", "error", err)
			b.reply(ctx, adminID, MsgGenericError)
			return nil
		}
		b.reply(ctx, adminID, fmt.Sprintf(
			"📣 Broadcast done: %d sent, %d failed of %d.",
			report.Sent, report.Failed, report.Recipients))
		return nil
	})
}
