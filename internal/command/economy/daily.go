package economy

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/command"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/guard"
	"ashenrealm/internal/middleware"
	"ashenrealm/pkg/cmd"
)

type DailyCommand struct{}

func (c *DailyCommand) Name() string            { return "daily" }
func (c *DailyCommand) Description() string     { return "Collect your daily stipend" }
func (c *DailyCommand) Cooldown() time.Duration { return 23 * time.Hour }

func (c *DailyCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *DailyCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	if _, err := sc.Guard(ctx, guard.HasCharacter()); err != nil {
		return err
	}

	streak, reward, err := sc.Deps.Profiles.ClaimDaily(ctx, sc.UserID(), time.Now())
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("The realm pays its dues: **%d** gold.", reward)
	if streak > 1 {
		msg += fmt.Sprintf(" Day **%d** of your streak — don't break it now.", streak)
	}
	return discord.Respond(sc.Session, sc.Event, msg)
}

func init() {
	command.Register(middleware.Standard(&DailyCommand{}))
}
