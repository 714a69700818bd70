package discord

import (
	"context"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"ashenrealm/internal/command"
	"ashenrealm/pkg/cmd"
)

// registerLimiter keeps command registration well under Discord's rate limit.
var registerLimiter = rate.NewLimiter(rate.Every(50*time.Millisecond), 1)

// registerCommands syncs slash commands for a guild with Discord: deletes
// obsolete ones, then upserts the full local set.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	local := buildCommandDefinitions()
	localNames := make(map[string]struct{}, len(local))
	for _, d := range local {
		localNames[d.Name] = struct{}{}
	}

	remote, _ := b.dg.ApplicationCommands(appID, guildID)
	for _, rc := range remote {
		if _, exists := localNames[rc.Name]; exists {
			continue
		}
		log.Printf("[INFO] [%s] Deleting obsolete command: %s", guildID, rc.Name)
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			log.Printf("[ERR] [%s] Failed to delete %s: %v", guildID, rc.Name, err)
		}
	}

	for _, d := range local {
		_ = registerLimiter.Wait(context.Background())
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, d); err != nil {
			log.Printf("[ERR] [%s] Failed to register %s: %v", guildID, d.Name, err)
		} else {
			log.Printf("[DONE] [%s] Registered: %s", guildID, d.Name)
		}
	}
	return nil
}

// buildCommandDefinitions returns ApplicationCommand definitions for all
// registered commands.
func buildCommandDefinitions() []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range command.All() {
		if def := commandDefinition(c); def != nil {
			defs = append(defs, def)
		}
	}
	return defs
}

// commandDefinition extracts the slash definition from a registered command,
// walking through middleware wrappers via cmd.Root.
func commandDefinition(c cmd.Command) *discordgo.ApplicationCommand {
	root := cmd.Root(c)
	slash, ok := root.(command.SlashProvider)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def == nil {
		return nil
	}
	if def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}

func (b *Bot) appID() (string, error) {
	if b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	user, err := b.dg.User("@me")
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
