package command

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/game"
)

// Opts indexes interaction options by name.
type Opts map[string]*discordgo.ApplicationCommandInteractionDataOption

// Options returns the top-level options of the invoking interaction.
func (c *SlashContext) Options() Opts {
	return OptionsOf(c.Event.ApplicationCommandData().Options)
}

// OptionsOf indexes an option list, for top-level and subcommand options alike.
func OptionsOf(list []*discordgo.ApplicationCommandInteractionDataOption) Opts {
	o := make(Opts, len(list))
	for _, opt := range list {
		o[opt.Name] = opt
	}
	return o
}

// Sub returns the named subcommand's options, if that subcommand was invoked.
func (o Opts) Sub(name string) (Opts, bool) {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionSubCommand {
		return nil, false
	}
	return OptionsOf(opt.Options), true
}

// String returns a string option, or "" when absent.
func (o Opts) String(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}

// Int returns an integer option, or 0 when absent.
func (o Opts) Int(name string) int64 {
	if opt, ok := o[name]; ok {
		return opt.IntValue()
	}
	return 0
}

// User returns a user option's ID, or "" when absent.
func (o Opts) User(name string) string {
	if opt, ok := o[name]; ok {
		return opt.UserValue(nil).ID
	}
	return ""
}

// ParseAmount turns a user-supplied amount into gold. Accepts plain numbers
// plus "all" and "half" relative to balance. The result is always positive;
// whether the caller can afford it is the guard layer's business.
func ParseAmount(raw string, balance int64) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "all":
		if balance <= 0 {
			return 0, game.Userf(game.FailBadArgument, "All of nothing is still nothing.")
		}
		return balance, nil
	case "half":
		if balance/2 <= 0 {
			return 0, game.Userf(game.FailBadArgument, "Half of your fortune rounds down to nothing.")
		}
		return balance / 2, nil
	}

	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, game.Userf(game.FailBadArgument, "That's not an amount I can count: %q.", raw)
	}
	if n <= 0 {
		return 0, game.Userf(game.FailBadArgument, "The amount must be positive.")
	}
	return n, nil
}
