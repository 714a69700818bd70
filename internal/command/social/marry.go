package social

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/command"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/guard"
	"ashenrealm/internal/middleware"
	"ashenrealm/pkg/cmd"
)

// --- /marry ---

type MarryCommand struct{}

func (c *MarryCommand) Name() string        { return "marry" }
func (c *MarryCommand) Description() string { return "Propose to another player" }

func (c *MarryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Your intended",
				Required:    true,
			},
		},
	}
}

func (c *MarryCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	target := sc.Options().User("user")
	if _, err := sc.Guard(ctx,
		guard.HasCharacter(),
		guard.NotMarried(),
		guard.NotSelf(target),
		guard.TargetHasCharacter(target),
	); err != nil {
		return err
	}

	if err := discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> goes down on one knee before <@%s>...", sc.UserID(), target)); err != nil {
		return err
	}

	// Only the proposee may answer; everyone else gets brushed off.
	ok, err := sc.Deps.Prompts.Confirm(ctx, sc.ChannelID(),
		fmt.Sprintf("<@%s>, will you marry <@%s>?", target, sc.UserID()),
		target, sc.Deps.Cfg.PromptTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return discord.Followup(sc.Session, sc.Event,
			fmt.Sprintf("<@%s> says no. The ring goes back in the pocket.", target))
	}

	// Marry re-checks both sides under row locks; a yes means nothing if
	// either of them wed someone else while the question hung in the air.
	if err := sc.Deps.Profiles.Marry(ctx, sc.UserID(), target); err != nil {
		return err
	}

	return discord.Followup(sc.Session, sc.Event,
		fmt.Sprintf("🔔 Bells ring across the realm: <@%s> and <@%s> are wed!", sc.UserID(), target))
}

// --- /divorce ---

type DivorceCommand struct{}

func (c *DivorceCommand) Name() string        { return "divorce" }
func (c *DivorceCommand) Description() string { return "End your marriage" }

func (c *DivorceCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *DivorceCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	r, err := sc.Guard(ctx, guard.HasCharacter(), guard.IsMarried())
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)
	spouse := *p.Spouse

	if err := discord.RespondEphemeral(sc.Session, sc.Event, "Confirm below."); err != nil {
		return err
	}
	ok, err := sc.Deps.Prompts.Confirm(ctx, sc.ChannelID(),
		fmt.Sprintf("<@%s>, end your marriage to <@%s>?", sc.UserID(), spouse),
		sc.UserID(), sc.Deps.Cfg.PromptTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return discord.Followup(sc.Session, sc.Event, "The marriage survives another day.")
	}

	if err := sc.Deps.Profiles.Divorce(ctx, sc.UserID()); err != nil {
		return err
	}

	return discord.Followup(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> and <@%s> go their separate ways.", sc.UserID(), spouse))
}

func init() {
	command.Register(middleware.Standard(&MarryCommand{}))
	command.Register(middleware.Standard(&DivorceCommand{}))
}
