// Package discord is the gateway adapter: it owns the discordgo session,
// dispatches slash commands into the registry, and feeds component clicks,
// reactions, and messages into the prompt broker so suspended commands can
// resume.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/command"
	"ashenrealm/internal/config"
	"ashenrealm/internal/game"
	"ashenrealm/internal/prompt"
	"ashenrealm/pkg/cmd"
)

// Bot is the Discord gateway.
type Bot struct {
	dg   *discordgo.Session
	cfg  *config.Config
	deps *command.Deps
}

// NewBot creates the gateway session without opening it. The caller wires the
// session into the prompter before Run.
func NewBot(cfg *config.Config, deps *command.Deps) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &Bot{dg: dg, cfg: cfg, deps: deps}, nil
}

// Session exposes the underlying discordgo session.
func (b *Bot) Session() *discordgo.Session { return b.dg }

// Run opens the gateway and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.configureIntents()
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onInteractionCreate)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onMessageReactionAdd)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Cleaning up...")
	return nil
}

func (b *Bot) configureIntents() {
	b.dg.Identify.Intents = discordgo.IntentsAll
}

// onReady leaves blacklisted guilds and syncs slash commands everywhere else.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	botInfo, err := s.User("@me")
	if err != nil {
		log.Println("[WARN] Error retrieving bot user:", err)
		return
	}

	for _, g := range r.Guilds {
		if b.isGuildBlacklisted(g.ID) {
			log.Printf("[INFO] Leaving blacklisted guild: %s", g.ID)
			if err := s.GuildLeave(g.ID); err != nil {
				log.Printf("[ERR] Failed to leave guild %s: %v", g.ID, err)
			}
			continue
		}

		if b.cfg.InitSlashCommands {
			if err := b.registerCommands(g.ID); err != nil {
				log.Println("[ERR] Error registering slash commands for guild", g.ID, ":", err)
			}
		} else {
			log.Println("[INFO] Registering slash commands skipped")
		}
	}

	log.Printf("[INFO] ✅ Discord bot %v is running.", botInfo.Username)
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	log.Printf("[INFO] Bot added to guild: %s (%s)", g.Guild.ID, g.Guild.Name)

	if b.isGuildBlacklisted(g.Guild.ID) {
		log.Printf("[INFO] Leaving blacklisted guild: %s (%s)", g.Guild.ID, g.Guild.Name)
		if err := s.GuildLeave(g.Guild.ID); err != nil {
			log.Printf("[ERR] Failed to leave guild %s: %v", g.Guild.ID, err)
		}
		return
	}

	if err := b.registerCommands(g.Guild.ID); err != nil {
		log.Printf("[ERR] Failed to register commands for new guild %s: %v", g.Guild.ID, err)
	}
}

// onInteractionCreate dispatches slash commands and routes component clicks.
// Clicks go to the broker first: if a suspended command is waiting on the
// message, it consumes the click; otherwise the prompt is long gone.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		c := command.Get(name)
		if c == nil {
			log.Printf("[WARN] Unknown command: %s", name)
			return
		}

		sc := &command.SlashContext{Session: s, Event: i, Deps: b.deps}
		if err := c.Run(context.Background(), &cmd.Invocation{Data: sc}); err != nil {
			b.handleCommandError(s, i, name, err)
		}

	case discordgo.InteractionMessageComponent:
		evt := prompt.Event{
			Kind:        prompt.KindComponent,
			UserID:      interactionUserID(i),
			ChannelID:   i.ChannelID,
			CustomID:    i.MessageComponentData().CustomID,
			Interaction: i,
		}
		if i.Message != nil {
			evt.MessageID = i.Message.ID
		}
		if b.deps.Prompts.Broker().Publish(evt) {
			return
		}
		_ = RespondEphemeral(s, i, "That prompt has expired.")
	}
}

// onMessageCreate feeds messages to waiting text prompts.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}
	b.deps.Prompts.Broker().Publish(prompt.Event{
		Kind:      prompt.KindMessage,
		UserID:    m.Author.ID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Content:   m.Content,
	})
}

// onMessageReactionAdd feeds reactions to waiting quorum prompts.
func (b *Bot) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == s.State.User.ID {
		return
	}
	b.deps.Prompts.Broker().Publish(prompt.Event{
		Kind:      prompt.KindReaction,
		UserID:    r.UserID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		Emoji:     r.Emoji.APIName(),
	})
}

// handleCommandError renders the failure to the user. Refusals are private,
// conflicts explain what went stale, and everything else gets an apology
// while the details go to the operator channel.
func (b *Bot) handleCommandError(s *discordgo.Session, i *discordgo.InteractionCreate, name string, err error) {
	if ue, ok := game.AsUserError(err); ok {
		respondOrFollowupEphemeral(s, i, ue.Message)
		return
	}
	if ce, ok := game.AsConflict(err); ok {
		respondOrFollowupEphemeral(s, i, "The deal fell through: "+ce.Reason)
		return
	}
	if errors.Is(err, prompt.ErrTimeout) {
		respondOrFollowupEphemeral(s, i, "Nobody answered in time. Nothing happened.")
		return
	}

	log.Printf("[ERR] Command %s failed: %v", name, err)
	b.reportError(s, name, err)
	respondOrFollowupEphemeral(s, i, "Something broke on my side. The realm's keepers have been notified.")
}

// respondOrFollowupEphemeral replies ephemerally whether or not the command
// already acknowledged the interaction.
func respondOrFollowupEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := RespondEphemeral(s, i, content); err != nil {
		_ = FollowupEphemeral(s, i, content)
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (b *Bot) isGuildBlacklisted(guildID string) bool {
	return slices.Contains(b.cfg.GuildBlacklist, guildID)
}
