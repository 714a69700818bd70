package economy

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

type GambleCommand struct{}

func (c *GambleCommand) Name() string            { return "gamble" }
func (c *GambleCommand) Description() string     { return "Bet gold on a coin flip or a dice roll" }
func (c *GambleCommand) Cooldown() time.Duration { return 5 * time.Minute }

func (c *GambleCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "amount",
				Description: "Your stake — a number, \"half\", or \"all\"",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "game",
				Description: "Coin flip (default) or dice against the house",
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Coin flip", Value: "coin"},
					{Name: "Dice", Value: "dice"},
				},
			},
		},
	}
}

var gambleWinLines = []string{
	"Lady luck winks. You pocket **%d** gold.",
	"The house grumbles and pays out **%d** gold.",
}

var gambleLossLines = []string{
	"The house always wins. **%d** gold lighter.",
	"Your luck runs dry. **%d** gold, gone.",
}

func (c *GambleCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	r, err := sc.Guard(ctx, guard.HasCharacter())
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)

	stake, err := command.ParseAmount(sc.Options().String("amount"), p.Money)
	if err != nil {
		return err
	}
	if stake > p.Money {
		return game.InsufficientFunds(stake, p.Money)
	}

	var verdict string
	var delta int64
	switch sc.Options().String("game") {
	case "dice":
		yours, house := 2+rand.Intn(6)+rand.Intn(6), 2+rand.Intn(6)+rand.Intn(6)
		verdict = fmt.Sprintf("🎲 You roll **%d**. The house rolls **%d**. ", yours, house)
		switch {
		case yours > house:
			delta = stake
		case yours < house:
			delta = -stake
		default:
			return discord.Respond(sc.Session, sc.Event,
				verdict+"A push. Your stake slides back across the table.")
		}
	default:
		verdict = "🪙 The coin spins... "
		delta = stake
		if rand.Intn(2) == 0 {
			delta = -stake
		}
	}

	if err := sc.Deps.Profiles.AddMoney(ctx, sc.UserID(), delta); err != nil {
		return err
	}

	lines := gambleWinLines
	if delta < 0 {
		lines = gambleLossLines
	}
	return discord.Respond(sc.Session, sc.Event, verdict+fmt.Sprintf(lines[rand.Intn(len(lines))], stake))
}

func init() {
	command.Register(middleware.Standard(&GambleCommand{}))
}
