// Package combat holds the raid: a guild-wide event gated by a realm flag,
// mustered by reaction vote, and resolved in stages by a background session.
package combat

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"ashenrealm/internal/command"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/game"
	"ashenrealm/internal/guard"
	"ashenrealm/internal/middleware"
	"ashenrealm/pkg/cmd"
)

const (
	// One raid per guild at a time, enforced across processes by a Redis flag.
	raidFlagTTL   = 15 * time.Minute
	raidStageWait = 30 * time.Second
	raidXPReward  = 50
)

var raidStages = []string{
	"The party slips past the outer watchtowers...",
	"Steel rings against steel in the inner courtyard!",
	"The vault door gives way!",
}

type RaidCommand struct{}

func (c *RaidCommand) Name() string            { return "raid" }
func (c *RaidCommand) Description() string     { return "Rally your guild for a raid" }
func (c *RaidCommand) Cooldown() time.Duration { return time.Hour }

func (c *RaidCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *RaidCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, ok := inv.Data.(*command.SlashContext)
	if !ok {
		return fmt.Errorf("wrong context type %T", inv.Data)
	}

	r, err := sc.Guard(ctx, guard.HasCharacter(), guard.InGuild())
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)
	flag := fmt.Sprintf("raid:%d", *p.GuildID)

	ok, remaining, err := sc.Deps.Cooldowns.AcquireFlag(ctx, flag, raidFlagTTL)
	if err != nil {
		return err
	}
	if !ok {
		return game.Userf(game.FailSessionActive,
			"Your guild is already raiding. Give them %s to come home.", remaining.Round(time.Second))
	}

	if err := discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("⚔️ <@%s> calls the guild to arms! React to join the raid.", sc.UserID())); err != nil {
		_ = sc.Deps.Cooldowns.ReleaseFlag(ctx, flag)
		return err
	}

	eligible := func(userID string) bool {
		_, err := sc.Deps.Profiles.Get(ctx, userID)
		return err == nil
	}
	voters, err := sc.Deps.Prompts.Quorum(ctx, sc.ChannelID(),
		fmt.Sprintf("The raid needs **%d** raiders. ⚔️ to enlist.", sc.Deps.Cfg.RaidQuorum),
		"⚔️", sc.Deps.Cfg.RaidQuorum, eligible, sc.Deps.Cfg.RaidVoteTimeout)
	if err != nil {
		_ = sc.Deps.Cooldowns.ReleaseFlag(ctx, flag)
		_ = discord.Followup(sc.Session, sc.Event,
			fmt.Sprintf("Only %d answered the call. The raid disbands before it begins.", len(voters)))
		return err
	}

	party := enlist(voters, sc.UserID())
	session, channelID, deps := sc.Session, sc.ChannelID(), sc.Deps

	err = deps.Sessions.Start("raid", fmt.Sprintf("%d", *p.GuildID), party, func(ctx context.Context) error {
		defer func() {
			_ = deps.Cooldowns.ReleaseFlag(context.Background(), flag)
		}()
		return runRaid(ctx, session, channelID, deps, party)
	})
	if err != nil {
		_ = sc.Deps.Cooldowns.ReleaseFlag(ctx, flag)
		return err
	}

	return discord.Followup(sc.Session, sc.Event,
		fmt.Sprintf("**%d** raiders march out. May they return rich.", len(party)))
}

// enlist merges the initiator into the voter roster without double-counting.
func enlist(voters []string, initiator string) []string {
	for _, v := range voters {
		if v == initiator {
			return voters
		}
	}
	return append(voters, initiator)
}

// runRaid plays out the staged raid. Each stage waits cancelably; a stopped
// session ends the raid with no loot.
func runRaid(ctx context.Context, s *discordgo.Session, channelID string, deps *command.Deps, party []string) error {
	for _, stage := range raidStages {
		select {
		case <-time.After(raidStageWait):
		case <-ctx.Done():
			_, _ = s.ChannelMessageSend(channelID, "The raid is called off. The party slinks home empty-handed.")
			return ctx.Err()
		}
		_, _ = s.ChannelMessageSend(channelID, stage)
	}

	summary := "🏆 The raid returns victorious!\n"
	for _, userID := range party {
		loot := int64(100 + rand.Intn(201)) // 100..300
		if err := deps.Profiles.AddMoney(ctx, userID, loot); err != nil {
			deps.Log.Named("Raid").Warn("loot payout failed", zap.String("user", userID), zap.Error(err))
			continue
		}
		_ = deps.Profiles.AddXP(ctx, userID, raidXPReward)
		summary += fmt.Sprintf("<@%s> hauls back **%d** gold.\n", userID, loot)
	}
	_, _ = s.ChannelMessageSend(channelID, summary)
	return nil
}

func init() {
	command.Register(middleware.Standard(&RaidCommand{}))
}
