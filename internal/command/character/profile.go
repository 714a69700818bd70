package character

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/command"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/game"
	"ashenrealm/internal/guard"
	"ashenrealm/internal/middleware"
	"ashenrealm/pkg/cmd"
)

type ProfileCommand struct{}

func (c *ProfileCommand) Name() string        { return "profile" }
func (c *ProfileCommand) Description() string { return "Inspect a character" }

func (c *ProfileCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Whose character (default: yours)",
			},
		},
	}
}

func (c *ProfileCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	target := sc.Options().User("user")
	if target == "" {
		target = sc.UserID()
	}

	var p *game.Profile
	if target == sc.UserID() {
		r, err := sc.Guard(ctx, guard.HasCharacter())
		if err != nil {
			return err
		}
		p, _ = r.Profile(ctx)
	} else {
		p, err = sc.Deps.Profiles.Get(ctx, target)
		if errors.Is(err, game.ErrProfileNotFound) {
			return game.Userf(game.FailNoCharacter, "<@%s> doesn't have a character.", target)
		}
		if err != nil {
			return err
		}
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s — level %d %s", p.Name, p.Level(), p.Class),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Gold", Value: fmt.Sprintf("%d", p.Money), Inline: true},
			{Name: "XP", Value: fmt.Sprintf("%d", p.XP), Inline: true},
			{Name: "Daily streak", Value: fmt.Sprintf("%d", p.DailyStreak), Inline: true},
			{Name: "Faith", Value: orDash(p.God), Inline: true},
			{Name: "Spouse", Value: mentionOrDash(p.Spouse), Inline: true},
			{Name: "Guild", Value: guildLine(ctx, sc, p), Inline: true},
		},
	}
	return discord.RespondEmbed(sc.Session, sc.Event, embed)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "—"
	}
	return *s
}

func mentionOrDash(s *string) string {
	if s == nil || *s == "" {
		return "—"
	}
	return fmt.Sprintf("<@%s>", *s)
}

func guildLine(ctx context.Context, sc *command.SlashContext, p *game.Profile) string {
	if p.GuildID == nil {
		return "—"
	}
	g, err := sc.Deps.Profiles.GetGuild(ctx, *p.GuildID)
	if err != nil {
		return "—"
	}
	return fmt.Sprintf("%s (%s)", g.Name, strings.ToLower(string(p.GuildRank)))
}

func init() {
	command.Register(middleware.Standard(&ProfileCommand{}))
}
