package discord

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/mxbot/MXBot_Go/internal/transport"
)

// Messenger implements transport.Messenger over Discord DMs. Discord uploads
// every media kind through the same attachment API, so the kind only matters
// upstream where size and caption policy are decided.
type Messenger struct {
	session *discordgo.Session

	mu       sync.Mutex
	channels map[string]string // user ID -> DM channel ID
}

// NewMessenger creates the Discord transport adapter.
func NewMessenger(session *discordgo.Session) *Messenger {
	return &Messenger{
		session: session,
		channels: make(map[string]string),
	}
}

// dmChannel resolves and caches the DM channel for a user.
func (m *Messenger) dmChannel(userID string) (string, error) {
	m.mu.Lock()
	if id, ok := m.channels[userID]; ok {
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	ch, err := m.session.UserChannelCreate(userID)
	if err != nil {
		return "", fmt.Errorf("failed to open DM channel: %w", err)
	}

	m.mu.Lock()
	m.channels[userID] = ch.ID
	m.mu.Unlock()
	return ch.ID, nil
}

// SendText delivers a plain text DM and returns the message id.
func (m *Messenger) SendText(_ context.Context, userID, text string) (string, error) {
	channelID, err := m.dmChannel(userID)
	if err != nil {
		return "", err
	}
	msg, err := m.session.ChannelMessageSend(channelID, text)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	return msg.ID, nil
}

// EditText replaces the text of a previously sent DM.
func (m *Messenger) EditText(_ context.Context, userID, messageID, text string) error {
	channelID, err := m.dmChannel(userID)
	if err != nil {
		return err
	}
	if _, err := m.session.ChannelMessageEdit(channelID, messageID, text); err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// DeleteMessage removes a previously sent DM.
func (m *Messenger) DeleteMessage(_ context.Context, userID, messageID string) error {
	channelID, err := m.dmChannel(userID)
	if err != nil {
		return err
	}
	if err := m.session.ChannelMessageDelete(channelID, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// SendMedia uploads one file with an optional caption.
func (m *Messenger) SendMedia(_ context.Context, userID string, media transport.Media) error {
	channelID, err := m.dmChannel(userID)
	if err != nil {
		return err
	}

	f, err := os.Open(media.Path)
	if err != nil {
		return fmt.Errorf("failed to open media file: %w", err)
	}
	defer f.Close()

	_, err = m.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: media.Caption,
		Files: []*discordgo.File{
			{Name: filepath.Base(media.Path), Reader: f},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload media: %w", err)
	}
	return nil
}

var _ transport.Messenger = (*Messenger)(nil)
