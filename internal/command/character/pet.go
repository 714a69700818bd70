package character

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/command"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/game"
	"ashenrealm/internal/guard"
	"ashenrealm/internal/middleware"
	"ashenrealm/internal/pet"
	"ashenrealm/pkg/cmd"
)

type PetCommand struct{}

func (c *PetCommand) Name() string        { return "pet" }
func (c *PetCommand) Description() string { return "Look after your companion" }

func (c *PetCommand) SlashDefinition() *discordgo.ApplicationCommand {
	sub := func(name, desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type: discordgo.ApplicationCommandOptionSubCommand, Name: name, Description: desc,
		}
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			sub("show", "Check on your pet"),
			sub("feed", "Feed your pet"),
			sub("water", "Give your pet a drink"),
			sub("play", "Play with your pet"),
			sub("cuddle", "Cuddle your pet"),
		},
	}
}

var petCareLines = map[string][]string{
	"feed":   {"%s devours the scraps and looks around for more.", "%s eats with the table manners of a small catastrophe."},
	"water":  {"%s laps up the water and sneezes on you. Charming.", "%s drinks deeply and hiccups a tiny spark."},
	"play":   {"%s chases its own tail with total commitment.", "You throw a stick. %s brings back a femur. Best not to ask."},
	"cuddle": {"%s melts into your arms. All is well.", "%s purrs like a distant thunderstorm."},
}

func (c *PetCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	r, err := sc.Guard(ctx, guard.HasCharacter())
	if err != nil {
		return err
	}

	// Pet(ctx) already applied decay for the hours since last care.
	p, err := r.Pet(ctx)
	if err != nil {
		return err
	}

	opts := sc.Options()
	for _, action := range []string{"feed", "water", "play", "cuddle"} {
		if _, ok := opts.Sub(action); !ok {
			continue
		}
		switch action {
		case "feed":
			pet.Feed(p)
		case "water":
			pet.Water(p)
		case "play":
			pet.Play(p)
		case "cuddle":
			pet.Cuddle(p)
		}
		if err := sc.Deps.Profiles.SavePet(ctx, p); err != nil {
			return err
		}
		lines := petCareLines[action]
		return discord.Respond(sc.Session, sc.Event, fmt.Sprintf(lines[rand.Intn(len(lines))], "**"+p.Name+"**"))
	}

	return discord.RespondEmbed(sc.Session, sc.Event, petEmbed(p))
}

func petEmbed(p *game.Pet) *discordgo.MessageEmbed {
	bar := func(v int) string {
		filled := v / 10
		out := ""
		for i := 0; i < 10; i++ {
			if i < filled {
				out += "█"
			} else {
				out += "░"
			}
		}
		return fmt.Sprintf("%s %d/%d", out, v, pet.MaxStat)
	}
	return &discordgo.MessageEmbed{
		Title: p.Name,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Food", Value: bar(p.Food)},
			{Name: "Drink", Value: bar(p.Drink)},
			{Name: "Joy", Value: bar(p.Joy)},
			{Name: "Love", Value: bar(p.Love)},
		},
	}
}

func init() {
	command.Register(middleware.Standard(&PetCommand{}))
}
