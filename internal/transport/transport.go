// Package transport defines the chat-transport contract the core consumes.
// The concrete adapter (Discord) lives in internal/discord; the core never
// sees transport-specific types.
package transport

import (
	"context"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

// Media is one file to deliver, classified for the transport's upload kinds.
type Media struct {
	Path    string
	Kind    domain.MediaKind
	Caption string
}

// Messenger sends messages and files to one identity. All methods are
// best-effort with typed failure on transport error.
type Messenger interface {
	// SendText delivers a plain text message and returns the message id.
	SendText(ctx context.Context, userID, text string) (string, error)

	// EditText replaces the text of a previously sent message.
	EditText(ctx context.Context, userID, messageID, text string) error

	// DeleteMessage removes a previously sent message.
	DeleteMessage(ctx context.Context, userID, messageID string) error

	// SendMedia uploads a file with a caption, using the upload channel
	// matching media.Kind (photo/video/audio/document).
	SendMedia(ctx context.Context, userID string, media Media) error
}
