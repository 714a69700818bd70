package character

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/command"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/game"
	"ashenrealm/internal/guard"
	"ashenrealm/internal/middleware"
	"ashenrealm/pkg/cmd"
)

// --- /follow ---

type FollowCommand struct{}

func (c *FollowCommand) Name() string        { return "follow" }
func (c *FollowCommand) Description() string { return "Pledge yourself to a god" }

func (c *FollowCommand) SlashDefinition() *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(game.Gods))
	for _, g := range game.Gods {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: g, Value: g})
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "god",
				Description: "Who gets your devotion",
				Required:    true,
				Choices:     choices,
			},
		},
	}
}

func (c *FollowCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	if _, err := sc.Guard(ctx, guard.HasCharacter(), guard.HasNoGod()); err != nil {
		return err
	}

	god := sc.Options().String("god")
	if !game.ValidGod(god) {
		return game.Userf(game.FailBadArgument, "No shrine in this realm answers to %q.", god)
	}

	if err := sc.Deps.Profiles.SetGod(ctx, sc.UserID(), god); err != nil {
		return err
	}
	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> kneels. **%s** takes notice.", sc.UserID(), god))
}

// --- /unfollow ---

type UnfollowCommand struct{}

func (c *UnfollowCommand) Name() string        { return "unfollow" }
func (c *UnfollowCommand) Description() string { return "Renounce your god" }

func (c *UnfollowCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *UnfollowCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	r, err := sc.Guard(ctx, guard.HasCharacter(), guard.HasGod())
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)
	god := *p.God

	if err := sc.Deps.Profiles.ClearGod(ctx, sc.UserID()); err != nil {
		return err
	}
	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> turns their back on **%s**. Somewhere, a candle gutters out.", sc.UserID(), god))
}

// --- /pray ---

type PrayCommand struct{}

func (c *PrayCommand) Name() string            { return "pray" }
func (c *PrayCommand) Description() string     { return "Pray to your god" }
func (c *PrayCommand) Cooldown() time.Duration { return time.Hour }

func (c *PrayCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

var prayLines = []string{
	"**%s** hears your whispers. %d gold materializes in your pouch.",
	"**%s** is amused by your groveling. %d gold, for the entertainment.",
	"**%s** says nothing, but your pouch is %d gold heavier.",
}

func (c *PrayCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	r, err := sc.Guard(ctx, guard.HasCharacter(), guard.HasGod())
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)

	blessing := int64(20 + rand.Intn(81)) // 20..100
	if err := sc.Deps.Profiles.AddMoney(ctx, sc.UserID(), blessing); err != nil {
		return err
	}
	if err := sc.Deps.Profiles.AddXP(ctx, sc.UserID(), 10); err != nil {
		return err
	}

	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf(prayLines[rand.Intn(len(prayLines))], *p.God, blessing))
}

func init() {
	command.Register(middleware.Standard(&FollowCommand{}))
	command.Register(middleware.Standard(&UnfollowCommand{}))
	command.Register(middleware.Standard(&PrayCommand{}))
}
