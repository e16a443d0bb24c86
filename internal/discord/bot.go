// Package discord is the chat-transport adapter: a DM-driven bot that routes
// links into the acquisition pipeline and runs the verification and admin
// flows.
package discord

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/mxbot/MXBot_Go/internal/broadcast"
	"github.com/mxbot/MXBot_Go/internal/logger"
	"github.com/mxbot/MXBot_Go/internal/pipeline"
	"github.com/mxbot/MXBot_Go/internal/repository"
	"github.com/mxbot/MXBot_Go/internal/session"
	"github.com/mxbot/MXBot_Go/internal/verification"
	"github.com/mxbot/MXBot_Go/internal/worker"
)

// Config holds the bot configuration
type Config struct {
	Token       string
	AdminUserID string
}

// Deps are the services the bot drives.
type Deps struct {
	Pipeline     *pipeline.Service
	Verification verification.Service
	Sessions     *session.Manager
	Broadcast    *broadcast.Service
	Users        repository.User
	Downloads    repository.Download
	Pool         *worker.Pool
}

// Bot represents the Discord bot
type Bot struct {
	session   *discordgo.Session
	messenger *Messenger
	adminID   string
	deps      Deps
	conv      *conversations
}

// New creates a new Discord bot. Services are attached afterwards with
// SetDeps: the acquisition pipeline delivers through this bot's Messenger,
// so the transport has to exist before the services that use it.
func New(cfg Config) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	return &Bot{
		session:   s,
		messenger: NewMessenger(s),
		adminID:   cfg.AdminUserID,
		conv:      newConversations(),
	}, nil
}

// SetDeps attaches the services the bot drives. Must be called before Start.
func (b *Bot) SetDeps(deps Deps) {
	b.deps = deps
}

// Messenger exposes the transport adapter bound to this bot's session.
func (b *Bot) Messenger() *Messenger {
	return b.messenger
}

// Start starts the bot
func (b *Bot) Start() error {
	b.session.AddHandler(b.ready)
	b.session.AddHandler(b.messageCreate)
	b.session.AddHandler(b.interactionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	return nil
}

// Stop stops the bot
func (b *Bot) Stop() {
	b.session.Close()
}

// Run runs the bot until a signal is received
func (b *Bot) Run() error {
	if err := b.Start(); err != nil {
		return err
	}
	defer b.Stop()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	return nil
}

func (b *Bot) ready(s *discordgo.Session, _ *discordgo.Ready) {
	logger.FromContext(context.Background()).Info("Bot is ready", "user", s.State.User.Username)
}

// isAdmin gates the operator surface to the configured identity.
func (b *Bot) isAdmin(userID string) bool {
	return userID != "" && userID == b.adminID
}
