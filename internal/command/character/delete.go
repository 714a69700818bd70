package character

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

type DeleteCommand struct{}

func (c *DeleteCommand) Name() string        { return "delete" }
func (c *DeleteCommand) Description() string { return "Delete your character. Forever." }

func (c *DeleteCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *DeleteCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	r, err := sc.Guard(ctx, guard.HasCharacter())
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)

	if err := discord.RespondEphemeral(sc.Session, sc.Event, "Think carefully."); err != nil {
		return err
	}

	ok, err := sc.Deps.Prompts.Confirm(ctx, sc.ChannelID(),
		fmt.Sprintf("<@%s>, erase **%s** and everything they own? There is no way back.", sc.UserID(), p.Name),
		sc.UserID(), sc.Deps.Cfg.PromptTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return discord.Followup(sc.Session, sc.Event, fmt.Sprintf("**%s** lives to fight another day.", p.Name))
	}

	// The confirmation took its time; the character may be gone already.
	if err := sc.Deps.Profiles.Delete(ctx, sc.UserID()); err != nil {
		if errors.Is(err, game.ErrProfileNotFound) {
			return &game.ConflictError{Reason: "that character was already gone"}
		}
		return err
	}

	return discord.Followup(sc.Session, sc.Event,
		fmt.Sprintf("**%s** fades from the realm's memory. The wind forgets their name.", p.Name))
}

func init() {
	command.Register(middleware.Standard(&DeleteCommand{}))
}
