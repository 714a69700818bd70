// Package admin holds the developer-only maintenance command.
package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/command"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/middleware"
	"ashenrealm/pkg/cmd"
)

type AdminCommand struct{}

func (c *AdminCommand) Name() string        { return "admin" }
func (c *AdminCommand) Description() string { return "Realm maintenance (developer only)" }
func (c *AdminCommand) RequireDev() bool    { return true }

func (c *AdminCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "give-money",
				Description: "Conjure gold into a player's pouch",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The player", Required: true},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "amount", Description: "Gold (negative to remove)", Required: true},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "reset-cooldown",
				Description: "Clear a player's cooldown on a command",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The player", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "command", Description: "Command name", Required: true},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "stop-session",
				Description: "Cancel a running session",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "kind", Description: "Session kind (trade, raid)", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "key", Description: "Session key (user or guild ID)", Required: true},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "sessions",
				Description: "List running sessions",
			},
		},
	}
}

func (c *AdminCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, ok := inv.Data.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type %T", inv.Data)
	}
	opts := sc.Options()

	if sub, ok := opts.Sub("give-money"); ok {
		target, amount := sub.User("user"), sub.Int("amount")
		if err := sc.Deps.Profiles.AddMoney(ctx, target, amount); err != nil {
			return err
		}
		return discord.RespondEphemeral(sc.Session, sc.Event,
			fmt.Sprintf("Adjusted <@%s>'s pouch by %d gold.", target, amount))
	}

	if sub, ok := opts.Sub("reset-cooldown"); ok {
		target, name := sub.User("user"), sub.String("command")
		if err := sc.Deps.Cooldowns.Reset(ctx, target, name); err != nil {
			return err
		}
		return discord.RespondEphemeral(sc.Session, sc.Event,
			fmt.Sprintf("Cooldown on `/%s` cleared for <@%s>.", name, target))
	}

	if sub, ok := opts.Sub("stop-session"); ok {
		kind, key := sub.String("kind"), sub.String("key")
		if !sc.Deps.Sessions.Stop(kind, key) {
			return discord.RespondEphemeral(sc.Session, sc.Event,
				fmt.Sprintf("No %s session under %q.", kind, key))
		}
		return discord.RespondEphemeral(sc.Session, sc.Event,
			fmt.Sprintf("Stopped %s session %q.", kind, key))
	}

	// Default: list sessions.
	sessions := sc.Deps.Sessions.List()
	if len(sessions) == 0 {
		return discord.RespondEphemeral(sc.Session, sc.Event, "No sessions are running.")
	}
	var b strings.Builder
	for _, s := range sessions {
		fmt.Fprintf(&b, "**%s** `%s` — running since %s\n", s.Kind, s.Key, s.Started.Format("15:04:05"))
	}
	return discord.RespondEphemeral(sc.Session, sc.Event, b.String())
}

func init() {
	command.Register(middleware.Standard(&AdminCommand{}))
}
