package discord

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/format"
	"github.com/mxbot/MXBot_Go/internal/logger"
	"github.com/mxbot/MXBot_Go/internal/pipeline"
	"github.com/mxbot/MXBot_Go/internal/verification"
)

// funcJob adapts a closure to the worker pool's Job interface.
type funcJob func(ctx context.Context) error

func (f funcJob) Process(ctx context.Context) error { return f(ctx) }

func (b *Bot) messageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	// The bot lives in DMs; guild chatter is not for us.
	if m.GuildID != "" {
		return
	}

	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
	log := logger.FromContext(ctx)
	userID := m.Author.ID

	if err := b.deps.Users.EnsureUser(ctx, userID, m.Author.Username); err != nil {
		log.Error("Failed to ensure user", "user_id", userID, "error", err)
	}

	content := strings.TrimSpace(m.Content)

	if cmd, args := parseCommand(content); cmd != "" {
		b.handleCommand(ctx, m, cmd, args)
		return
	}

	conv := b.conv.get(userID)
	if conv.state != stateNone {
		b.continueFlow(ctx, m, conv)
		return
	}

	b.enqueueDownload(ctx, userID, content)
}

func (b *Bot) handleCommand(ctx context.Context, m *discordgo.MessageCreate, cmd string, args []string) {
	userID := m.Author.ID

	switch cmd {
	case "start", "help":
		b.reply(ctx, userID, MsgHelp)

	case "verify":
		b.handleVerify(ctx, userID, args)

	case "confirm":
		b.handleConfirm(ctx, userID)

	case "accounts":
		b.handleAccounts(ctx, userID)

	case "cancel":
		menuDropped := b.deps.Pipeline.Cancel(userID)
		flowDropped := b.conv.resetFlow(userID)
		if menuDropped || flowDropped {
			b.reply(ctx, userID, MsgCancelled)
		} else {
			b.reply(ctx, userID, MsgNothingToCancel)
		}

	case "login", "session", "relogin", "upload_session", "delete_session",
		"stats", "ban", "unban", "broadcast":
		if !b.isAdmin(userID) {
			b.reply(ctx, userID, MsgAdminOnly)
			return
		}
		b.handleAdminCommand(ctx, userID, cmd, args)

	default:
		b.reply(ctx, userID, MsgHelp)
	}
}

func (b *Bot) handleVerify(ctx context.Context, userID string, args []string) {
	if len(args) != 1 {
		b.reply(ctx, userID, MsgVerifyUsage)
		return
	}

	issued, err := b.deps.Verification.Issue(ctx, userID, args[0])
	if err != nil {
		if errors.Is(err, domain.ErrInvalidUsername) {
			b.reply(ctx, userID, MsgVerifyBadUsername)
			return
		}
		logger.FromContext(ctx).Error("Failed to issue verification", "user_id", userID, "error", err)
		b.reply(ctx, userID, MsgGenericError)
		return
	}

	conv := b.conv.get(userID)
	conv.verificationID = issued.ID
	b.conv.put(userID, conv)

	b.reply(ctx, userID,
		"🔑 **Your code:** `"+issued.Code+"`\n"+
			"DM it to my provider account from **"+args[0]+"**, then run `/confirm`.\n"+
			"The code is valid for "+format.Duration(domain.VerificationCodeTTL)+".")
}

func (b *Bot) handleConfirm(ctx context.Context, userID string) {
	conv := b.conv.get(userID)
	if conv.verificationID == "" {
		b.reply(ctx, userID, MsgConfirmNothing)
		return
	}
	id := conv.verificationID

	b.runJob(ctx, userID, func(ctx context.Context) error {
		outcome, err := b.deps.Verification.Confirm(ctx, id)
		if err != nil {
			logger.FromContext(ctx).Warn("Verification confirm failed", "user_id", userID, "error", err)
			b.reply(ctx, userID, MsgConfirmNotFound)
			return nil
		}
		switch outcome {
		case verification.OutcomeFound:
			conv := b.conv.get(userID)
			conv.verificationID = ""
			b.conv.put(userID, conv)
			b.reply(ctx, userID, MsgConfirmDone)
		case verification.OutcomeExpired:
			conv := b.conv.get(userID)
			conv.verificationID = ""
			b.conv.put(userID, conv)
			b.reply(ctx, userID, MsgConfirmExpired)
		default:
			b.reply(ctx, userID, MsgConfirmNotFound)
		}
		return nil
	})
}

func (b *Bot) handleAccounts(ctx context.Context, userID string) {
	accounts, err := b.deps.Verification.ListAccounts(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to list accounts", "user_id", userID, "error", err)
		b.reply(ctx, userID, MsgGenericError)
		return
	}
	if len(accounts) == 0 {
		b.reply(ctx, userID, "🔗 No linked accounts. Run `/verify <username>` to add one.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🔗 **Linked accounts**\n")
	for _, a := range accounts {
		marker := "⏳ pending"
		if a.State == domain.VerificationVerified {
			marker = "✅ verified"
		}
		sb.WriteString("• `" + a.ProviderUsername + "` — " + marker + "\n")
	}
	b.reply(ctx, userID, sb.String())
}

// enqueueDownload hands a link submission to the worker pool so the gateway
// handler thread never blocks on a fetch.
func (b *Bot) enqueueDownload(ctx context.Context, userID, text string) {
	ok := b.deps.Pool.TryEnqueue(funcJob(func(ctx context.Context) error {
		workingID, _ := b.messenger.SendText(ctx, userID, MsgWorking)

		result, err := b.deps.Pipeline.Submit(ctx, userID, text)

		if workingID != "" {
			_ = b.messenger.DeleteMessage(ctx, userID, workingID)
		}
		b.renderOutcome(ctx, userID, result, err)
		return nil
	}))
	if !ok {
		b.reply(ctx, userID, MsgQueueFull)
	}
}

// renderOutcome maps a pipeline result or error onto a user-facing message.
func (b *Bot) renderOutcome(ctx context.Context, userID string, result *pipeline.Result, err error) {
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserBanned):
			b.reply(ctx, userID, MsgBanned)
		case errors.Is(err, domain.ErrFileTooLarge):
			b.reply(ctx, userID, MsgTooLarge)
		case errors.Is(err, domain.ErrSelectionExpired):
			b.reply(ctx, userID, MsgSelectionExpired)
		case errors.Is(err, domain.ErrFetchFailed), errors.Is(err, domain.ErrMediaNotFound):
			b.reply(ctx, userID, MsgFetchFailed)
		default:
			logger.FromContext(ctx).Error("Download failed", "user_id", userID, "error", err)
			b.reply(ctx, userID, MsgGenericError)
		}
		return
	}

	switch result.Status {
	case pipeline.StatusDelivered:
		// Media already arrived; nothing more to say.
	case pipeline.StatusRateLimited:
		b.reply(ctx, userID, "⏳ **Whoa there!**\nTry again in "+format.Duration(result.RetryAfter)+".")
	case pipeline.StatusNotDownloadable:
		b.reply(ctx, userID, MsgNotDownloadable)
	case pipeline.StatusNeedsVerification:
		b.reply(ctx, userID, MsgNeedsVerification)
	case pipeline.StatusQualityChoice:
		if err := b.sendQualityMenu(userID, result.Prompt, result.Options); err != nil {
			logger.FromContext(ctx).Error("Failed to send quality menu", "user_id", userID, "error", err)
		}
	}
}

func (b *Bot) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	user := i.User
	if user == nil && i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}

	customID := i.MessageComponentData().CustomID
	if !strings.HasPrefix(customID, menuCustomIDPrefix) {
		return
	}

	ctx := logger.WithRequestID(context.Background(), logger.GenerateRequestID())
	userID := user.ID

	// Acknowledge immediately; the fetch runs on the pool.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		logger.FromContext(ctx).Warn("Failed to ack component interaction", "error", err)
	}
	if i.Message != nil {
		b.clearMenu(i.ChannelID, i.Message.ID)
	}

	suffix := strings.TrimPrefix(customID, menuCustomIDPrefix)
	if suffix == "cancel" {
		b.deps.Pipeline.Cancel(userID)
		b.reply(ctx, userID, MsgCancelled)
		return
	}

	index, err := strconv.Atoi(suffix)
	if err != nil {
		return
	}

	b.runJob(ctx, userID, func(ctx context.Context) error {
		workingID, _ := b.messenger.SendText(ctx, userID, MsgWorking)
		result, err := b.deps.Pipeline.Select(ctx, userID, index)
		if workingID != "" {
			_ = b.messenger.DeleteMessage(ctx, userID, workingID)
		}
		b.renderOutcome(ctx, userID, result, err)
		return nil
	})
}

// runJob enqueues work on the pool, pushing back when the queue is full.
func (b *Bot) runJob(ctx context.Context, userID string, fn func(ctx context.Context) error) {
	if !b.deps.Pool.TryEnqueue(funcJob(fn)) {
		b.reply(ctx, userID, MsgQueueFull)
	}
}

// reply sends a DM and logs delivery failure instead of propagating it.
func (b *Bot) reply(ctx context.Context, userID, text string) {
	if _, err := b.messenger.SendText(ctx, userID, text); err != nil {
		logger.FromContext(ctx).Warn("Failed to send reply", "user_id", userID, "error", err)
	}
}
