// Package command defines the runtime contexts handed to game commands and
// the provider interfaces the gateway inspects when registering them. Command
// bodies live in the subpackages (character, economy, social, combat, admin)
// and self-register into the shared registry from init().
package command

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"ashenrealm/internal/config"
	"ashenrealm/internal/cooldown"
	"ashenrealm/internal/guard"
	"ashenrealm/internal/inventory"
	"ashenrealm/internal/profile"
	"ashenrealm/internal/prompt"
	"ashenrealm/internal/session"
	"ashenrealm/pkg/cmd"
)

// Deps is the shared dependency bundle built once in main and threaded to
// every command through its context.
type Deps struct {
	Profiles  *profile.Repository
	Items     *inventory.Repository
	Cooldowns *cooldown.Store
	Prompts   *prompt.Prompter
	Sessions  *session.Registry
	Cfg       *config.Config
	Log       *zap.Logger
}

// Providers — how a command is surfaced to Discord.

type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// Cooldowner marks a command as cooldown-gated. The cooldown middleware reads
// the duration off the root command.
type Cooldowner interface {
	Cooldown() time.Duration
}

// DevGated commands only run for the configured developer.
type DevGated interface {
	RequireDev() bool
}

// Contexts — what the runtime hands a command when executing it.

type SlashContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Deps    *Deps
}

type ReactionContext struct {
	Session  *discordgo.Session
	Reaction *discordgo.MessageReactionAdd
	Deps     *Deps
}

type MessageContext struct {
	Session *discordgo.Session
	Event   *discordgo.MessageCreate
	Deps    *Deps
}

// UserID returns the invoking user's ID, wherever the event came from.
func (c *SlashContext) UserID() string {
	if c.Event.Member != nil && c.Event.Member.User != nil {
		return c.Event.Member.User.ID
	}
	if c.Event.User != nil {
		return c.Event.User.ID
	}
	return ""
}

func (c *SlashContext) GuildID() string   { return c.Event.GuildID }
func (c *SlashContext) ChannelID() string { return c.Event.ChannelID }

// Request builds the per-invocation guard request. One request per
// invocation: the memoized profile read is shared by every guard and by the
// command body.
func (c *SlashContext) Request() *guard.Request {
	return guard.NewRequest(c.UserID(), c.GuildID(), c.Deps.Profiles, c.Deps.Profiles)
}

// Guard runs checks against a fresh request and returns it for the body to
// reuse.
func (c *SlashContext) Guard(ctx context.Context, checks ...guard.Check) (*guard.Request, error) {
	r := c.Request()
	if err := guard.Chain(checks...)(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds a command to the shared registry. Called from init() in the
// command subpackages.
func Register(c cmd.Command) {
	cmd.DefaultRegistry.Register(c)
}

// Get looks a command up by name.
func Get(name string) cmd.Command {
	return cmd.DefaultRegistry.Get(name)
}

// All returns every registered command, sorted by name.
func All() []cmd.Command {
	return cmd.DefaultRegistry.GetAll()
}
