package character

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/command"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/game"
	"ashenrealm/internal/guard"
	"ashenrealm/internal/middleware"
	"ashenrealm/pkg/cmd"
)

// Starting funds for a fresh character.
const startingMoney = 100

type CreateCommand struct{}

func (c *CreateCommand) Name() string        { return "create" }
func (c *CreateCommand) Description() string { return "Create your character" }

func (c *CreateCommand) SlashDefinition() *discordgo.ApplicationCommand {
	classChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(game.Classes))
	for _, cl := range game.Classes {
		label := string(cl)
		label = strings.ToUpper(label[:1]) + label[1:]
		classChoices = append(classChoices, &discordgo.ApplicationCommandOptionChoice{
			Name: label, Value: string(cl),
		})
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "class",
				Description: "Your calling in the realm",
				Required:    true,
				Choices:     classChoices,
			},
		},
	}
}

func (c *CreateCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	if _, err := sc.Guard(ctx, guard.HasNoCharacter()); err != nil {
		return err
	}

	class := game.Class(sc.Options().String("class"))
	if !game.ValidClass(class) {
		return game.Userf(game.FailBadArgument, "There is no such calling as %q.", class)
	}

	if err := discord.Respond(sc.Session, sc.Event,
		"The realm awaits. Speak your hero's name in this channel."); err != nil {
		return err
	}

	name, err := sc.Deps.Prompts.Text(ctx, sc.ChannelID(), "", sc.UserID(), sc.Deps.Cfg.PromptTimeout)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 32 {
		return game.Userf(game.FailBadArgument, "A name needs 2 to 32 characters. %q doesn't qualify.", name)
	}

	p := &game.Profile{
		UserID: sc.UserID(),
		Name:   name,
		Money:  startingMoney,
		Class:  class,
	}
	if err := sc.Deps.Profiles.Create(ctx, p); err != nil {
		if errors.Is(err, game.ErrProfileExists) {
			// Someone raced two /create prompts to the finish line.
			return &game.ConflictError{Reason: "you already created a character while I was waiting"}
		}
		return err
	}

	return discord.Followup(sc.Session, sc.Event, fmt.Sprintf(
		"**%s** the %s steps into the realm with %d gold. A pet ember hatchling tags along.",
		name, class, startingMoney))
}

func init() {
	command.Register(middleware.Standard(&CreateCommand{}))
}
