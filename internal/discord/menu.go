package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/format"
)

const (
	menuCustomIDPrefix = "dlq:"
	menuCancelID       = menuCustomIDPrefix + "cancel"
	buttonsPerRow      = 5
)

// buildQualityMenu renders quality options as button rows plus a cancel
// button. Custom IDs carry the option index; the pipeline owns the parked
// state, so a stale click simply reports an expired menu.
func buildQualityMenu(options []domain.QualityOption) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var row []discordgo.MessageComponent

	for i, opt := range options {
		label := opt.Label
		if opt.Filesize > 0 {
			label = fmt.Sprintf("%s (%s)", opt.Label, format.FileSize(opt.Filesize))
		}
		row = append(row, discordgo.Button{
			Label:    label,
			Style:    discordgo.PrimaryButton,
			CustomID: fmt.Sprintf("%s%d", menuCustomIDPrefix, i),
		})
		if len(row) == buttonsPerRow || i == len(options)-1 {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}

	rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Cancel",
			Style:    discordgo.DangerButton,
			CustomID: menuCancelID,
		},
	}})
	return rows
}

// sendQualityMenu DMs the prompt with the option buttons attached.
func (b *Bot) sendQualityMenu(userID, prompt string, options []domain.QualityOption) error {
	channelID, err := b.messenger.dmChannel(userID)
	if err != nil {
		return err
	}
	content := "🎚️ **Pick a quality**"
	if prompt != "" {
		content = prompt + "\n\n" + content
	}
	_, err = b.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    content,
		Components: buildQualityMenu(options),
	})
	return err
}

// clearMenu strips the buttons off a menu message once it is consumed.
func (b *Bot) clearMenu(channelID, messageID string) {
	empty := []discordgo.MessageComponent{}
	_, _ = b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Components: &empty,
	})
}
