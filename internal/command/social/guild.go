package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/command"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/game"
	"ashenrealm/internal/guard"
	"ashenrealm/internal/middleware"
	"ashenrealm/pkg/cmd"
)

// Founding a guild costs gold; joining is free.
const guildFoundingCost = 500

type GuildCommand struct{}

func (c *GuildCommand) Name() string        { return "guild" }
func (c *GuildCommand) Description() string { return "Found, join, or run a guild" }

func (c *GuildCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "create",
				Description: fmt.Sprintf("Found a guild (%d gold)", guildFoundingCost),
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Guild name", Required: true},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "join",
				Description: "Join a guild by its number",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "guild", Description: "Guild number", Required: true},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "invite",
				Description: "Invite a player into your guild (officer or above)",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The recruit", Required: true},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "leave",
				Description: "Leave your guild",
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "promote",
				Description: "Promote a member to officer (leader only)",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "The member", Required: true},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "info",
				Description: "Show your guild",
			},
		},
	}
}

func (c *GuildCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}
	opts := sc.Options()

	if sub, ok := opts.Sub("create"); ok {
		return c.create(ctx, sc, sub.String("name"))
	}
	if sub, ok := opts.Sub("join"); ok {
		return c.join(ctx, sc, sub.Int("guild"))
	}
	if sub, ok := opts.Sub("invite"); ok {
		return c.invite(ctx, sc, sub.User("user"))
	}
	if _, ok := opts.Sub("leave"); ok {
		return c.leave(ctx, sc)
	}
	if sub, ok := opts.Sub("promote"); ok {
		return c.promote(ctx, sc, sub.User("user"))
	}
	return c.info(ctx, sc)
}

func (c *GuildCommand) create(ctx context.Context, sc *command.SlashContext, name string) error {
	r, err := sc.Guard(ctx,
		guard.HasCharacter(),
		guard.NotInGuild(),
		guard.HasMoney(guildFoundingCost),
	)
	if err != nil {
		return err
	}
	if name == "" {
		return game.Userf(game.FailBadArgument, "A guild needs a name.")
	}

	// The fee is charged inside the same transaction that signs the charter:
	// a failed founding never costs a coin.
	g, err := sc.Deps.Profiles.CreateGuild(ctx, name, sc.UserID(), guildFoundingCost)
	if err != nil {
		if errors.Is(err, game.ErrGuildExists) {
			return game.Userf(game.FailBadArgument, "A guild named **%s** already flies its banner.", name)
		}
		if errors.Is(err, game.ErrInsufficientBalance) {
			p, _ := r.Profile(ctx)
			return game.InsufficientFunds(guildFoundingCost, p.Money)
		}
		return err
	}

	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("⚔️ The banner of **%s** (`#%d`) rises, with <@%s> at its head.", g.Name, g.ID, sc.UserID()))
}

func (c *GuildCommand) join(ctx context.Context, sc *command.SlashContext, guildID int64) error {
	if _, err := sc.Guard(ctx, guard.HasCharacter(), guard.NotInGuild()); err != nil {
		return err
	}

	g, err := sc.Deps.Profiles.GetGuild(ctx, guildID)
	if errors.Is(err, game.ErrGuildNotFound) {
		return game.Userf(game.FailNotFound, "No guild `#%d` exists.", guildID)
	}
	if err != nil {
		return err
	}

	if err := sc.Deps.Profiles.JoinGuild(ctx, sc.UserID(), guildID); err != nil {
		return err
	}
	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> swears the oath of **%s**.", sc.UserID(), g.Name))
}

func (c *GuildCommand) invite(ctx context.Context, sc *command.SlashContext, target string) error {
	r, err := sc.Guard(ctx,
		guard.HasCharacter(),
		guard.GuildRankAtLeast(game.RankOfficer),
		guard.NotSelf(target),
		guard.TargetHasCharacter(target),
	)
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)

	tp, err := sc.Deps.Profiles.Get(ctx, target)
	if err != nil {
		return err
	}
	if tp.GuildID != nil {
		return game.Userf(game.FailInGuild, "<@%s> already serves a banner.", target)
	}

	g, err := sc.Deps.Profiles.GetGuild(ctx, *p.GuildID)
	if err != nil {
		return err
	}

	if err := discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> extends the banner of **%s** to <@%s>...", sc.UserID(), g.Name, target)); err != nil {
		return err
	}
	accepted, err := sc.Deps.Prompts.Confirm(ctx, sc.ChannelID(),
		fmt.Sprintf("<@%s>, swear the oath of **%s**?", target, g.Name),
		target, sc.Deps.Cfg.PromptTimeout)
	if err != nil {
		return err
	}
	if !accepted {
		return discord.Followup(sc.Session, sc.Event,
			fmt.Sprintf("<@%s> declines the oath. The banner is rolled back up.", target))
	}

	// They may have joined elsewhere while deciding.
	tp, err = sc.Deps.Profiles.Get(ctx, target)
	if err != nil {
		return err
	}
	if tp.GuildID != nil {
		return &game.ConflictError{Reason: fmt.Sprintf("<@%s> swore to another banner while deciding", target)}
	}

	if err := sc.Deps.Profiles.JoinGuild(ctx, target, g.ID); err != nil {
		return err
	}
	return discord.Followup(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> swears the oath of **%s**. The hall gains a shadow.", target, g.Name))
}

func (c *GuildCommand) leave(ctx context.Context, sc *command.SlashContext) error {
	r, err := sc.Guard(ctx, guard.HasCharacter(), guard.InGuild())
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)
	if p.GuildRank == game.RankLeader {
		return game.Userf(game.FailWrongGuildRank, "A leader can't abandon the banner. Pass the mantle first.")
	}

	if err := sc.Deps.Profiles.LeaveGuild(ctx, sc.UserID()); err != nil {
		return err
	}
	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> walks away from the guild hall.", sc.UserID()))
}

func (c *GuildCommand) promote(ctx context.Context, sc *command.SlashContext, target string) error {
	r, err := sc.Guard(ctx,
		guard.HasCharacter(),
		guard.GuildRankAtLeast(game.RankLeader),
		guard.NotSelf(target),
		guard.TargetHasCharacter(target),
	)
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)

	tp, err := sc.Deps.Profiles.Get(ctx, target)
	if err != nil {
		return err
	}
	if tp.GuildID == nil || *tp.GuildID != *p.GuildID {
		return game.Userf(game.FailNotGuildMember, "<@%s> doesn't serve under your banner.", target)
	}
	if tp.GuildRank != game.RankMember {
		return game.Userf(game.FailBadArgument, "<@%s> already holds rank.", target)
	}

	if err := sc.Deps.Profiles.SetGuildRank(ctx, target, game.RankOfficer); err != nil {
		return err
	}
	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> is raised to officer. The hall cheers, mostly.", target))
}

func (c *GuildCommand) info(ctx context.Context, sc *command.SlashContext) error {
	r, err := sc.Guard(ctx, guard.HasCharacter(), guard.InGuild())
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)

	g, err := sc.Deps.Profiles.GetGuild(ctx, *p.GuildID)
	if err != nil {
		return err
	}

	return discord.RespondEmbed(sc.Session, sc.Event, &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s (`#%d`)", g.Name, g.ID),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Leader", Value: fmt.Sprintf("<@%s>", g.LeaderID), Inline: true},
			{Name: "Bank", Value: fmt.Sprintf("%d gold", g.Bank), Inline: true},
			{Name: "Your rank", Value: string(p.GuildRank), Inline: true},
		},
	})
}

func init() {
	command.Register(middleware.Standard(&GuildCommand{}))
}
