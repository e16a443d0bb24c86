package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxbot/MXBot_Go/internal/domain"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCmd  string
		wantArgs []string
	}{
		{"plain text", "hello there", "", nil},
		{"bare command", "/help", "help", []string{}},
		{"command with arg", "/verify some_user", "verify", []string{"some_user"}},
		{"uppercase is normalized", "/VERIFY User", "verify", []string{"User"}},
		{"extra whitespace", "/ban   123   ", "ban", []string{"123"}},
		{"url is not a command", "https://youtube.com/watch?v=x", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := parseCommand(tt.content)
			assert.Equal(t, tt.wantCmd, cmd)
			if tt.wantCmd != "" {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestBuildQualityMenu(t *testing.T) {
	t.Run("one row plus cancel for few options", func(t *testing.T) {
		options := []domain.QualityOption{
			{Label: "1080p", FormatID: "137"},
			{Label: "720p", FormatID: "136"},
			{Label: "audio", Audio: true},
		}

		rows := buildQualityMenu(options)
		require.Len(t, rows, 2)

		first, ok := rows[0].(discordgo.ActionsRow)
		require.True(t, ok)
		require.Len(t, first.Components, 3)

		btn, ok := first.Components[0].(discordgo.Button)
		require.True(t, ok)
		assert.Equal(t, "1080p", btn.Label)
		assert.Equal(t, "dlq:0", btn.CustomID)

		last, ok := rows[1].(discordgo.ActionsRow)
		require.True(t, ok)
		cancel, ok := last.Components[0].(discordgo.Button)
		require.True(t, ok)
		assert.Equal(t, menuCancelID, cancel.CustomID)
	})

	t.Run("options wrap at five per row", func(t *testing.T) {
		options := make([]domain.QualityOption, 9)
		for i := range options {
			options[i] = domain.QualityOption{Label: "q", FormatID: "f"}
		}

		rows := buildQualityMenu(options)
		require.Len(t, rows, 3) // 5 + 4 + cancel

		first := rows[0].(discordgo.ActionsRow)
		second := rows[1].(discordgo.ActionsRow)
		assert.Len(t, first.Components, 5)
		assert.Len(t, second.Components, 4)
	})

	t.Run("filesize lands in the label", func(t *testing.T) {
		rows := buildQualityMenu([]domain.QualityOption{
			{Label: "720p", FormatID: "136", Filesize: 10 << 20},
		})
		first := rows[0].(discordgo.ActionsRow)
		btn := first.Components[0].(discordgo.Button)
		assert.Contains(t, btn.Label, "720p")
		assert.Contains(t, btn.Label, "10.0 MB")
	})
}

func TestConversations(t *testing.T) {
	t.Run("blank conversation on first touch", func(t *testing.T) {
		c := newConversations()
		conv := c.get("u1")
		assert.Equal(t, stateNone, conv.state)
	})

	t.Run("reset clears flow but keeps verification id", func(t *testing.T) {
		c := newConversations()
		conv := c.get("u1")
		conv.state = stateAwaitPassword
		conv.username = "admin"
		conv.password = "secret"
		conv.verificationID = "v-1"
		c.put("u1", conv)

		assert.True(t, c.resetFlow("u1"))

		conv = c.get("u1")
		assert.Equal(t, stateNone, conv.state)
		assert.Empty(t, conv.username)
		assert.Empty(t, conv.password)
		assert.Equal(t, "v-1", conv.verificationID)
	})

	t.Run("reset with no active flow reports false", func(t *testing.T) {
		c := newConversations()
		assert.False(t, c.resetFlow("u1"))
		c.get("u1")
		assert.False(t, c.resetFlow("u1"))
	})
}
