package domain

import "time"

// User represents a chat-platform identity known to the bot.
// The platform owns the identifier; we only read it.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Banned        bool      `json:"banned"`
	DownloadCount int       `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
}
