package discord

import (
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

// reportError posts an internal failure to the operator log channel, if one
// is configured.
func (b *Bot) reportError(s *discordgo.Session, commandName string, err error) {
	if b.cfg.LogChannelID == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Command failure",
		Description: fmt.Sprintf("`/%s`\n```%v```", commandName, err),
		Color:       0xcc3333,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if _, sendErr := s.ChannelMessageSendEmbed(b.cfg.LogChannelID, embed); sendErr != nil {
		log.Printf("[ERR] Failed to report error to log channel: %v", sendErr)
	}
}
