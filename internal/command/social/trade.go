package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/command"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/game"
	"ashenrealm/internal/guard"
	"ashenrealm/internal/middleware"
	"ashenrealm/internal/trade"
	"ashenrealm/pkg/cmd"
)

// tradeSession is the registry payload shared by both parties. finish releases
// both session slots by waking their watchdog goroutines.
type tradeSession struct {
	tr   *trade.Trade
	done chan struct{}
	once sync.Once
}

func (s *tradeSession) finish() { s.once.Do(func() { close(s.done) }) }

type TradeCommand struct{}

func (c *TradeCommand) Name() string        { return "trade" }
func (c *TradeCommand) Description() string { return "Trade gold and items with another player" }

func (c *TradeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "start",
				Description: "Open a trade with someone",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Your trading partner", Required: true},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "gold",
				Description: "Set the gold you're offering",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "amount", Description: "Gold to offer", Required: true},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "item",
				Description: "Add an item to your offer",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "item", Description: "Item number (see /inventory)", Required: true},
				},
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "lock",
				Description: "Accept the table as it stands",
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "show",
				Description: "Show the table",
			},
			{
				Type: discordgo.ApplicationCommandOptionSubCommand, Name: "cancel",
				Description: "Walk away from the trade",
			},
		},
	}
}

func (c *TradeCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}
	opts := sc.Options()

	if sub, ok := opts.Sub("start"); ok {
		return c.start(ctx, sc, sub.User("user"))
	}
	if sub, ok := opts.Sub("gold"); ok {
		return c.gold(ctx, sc, sub.Int("amount"))
	}
	if sub, ok := opts.Sub("item"); ok {
		return c.item(ctx, sc, sub.Int("item"))
	}
	if _, ok := opts.Sub("lock"); ok {
		return c.lock(ctx, sc)
	}
	if _, ok := opts.Sub("cancel"); ok {
		return c.cancel(ctx, sc)
	}
	return c.show(ctx, sc)
}

func (c *TradeCommand) start(ctx context.Context, sc *command.SlashContext, partner string) error {
	if _, err := sc.Guard(ctx,
		guard.HasCharacter(),
		guard.NotSelf(partner),
		guard.TargetHasCharacter(partner),
	); err != nil {
		return err
	}

	ts := &tradeSession{tr: trade.New(sc.UserID(), partner), done: make(chan struct{})}
	watchdog := func(ctx context.Context) error {
		select {
		case <-ts.done:
		case <-ctx.Done():
			ts.tr.Abort()
		case <-time.After(sc.Deps.Cfg.TradeTimeout):
			ts.tr.Abort()
		}
		return nil
	}

	// Claim both slots before asking: neither party may sit at two tables.
	if err := sc.Deps.Sessions.Start("trade", sc.UserID(), ts, watchdog); err != nil {
		return err
	}
	if err := sc.Deps.Sessions.Start("trade", partner, ts, watchdog); err != nil {
		ts.finish()
		if ue, ok := game.AsUserError(err); ok && ue.Kind == game.FailSessionActive {
			return game.Userf(game.FailSessionActive, "<@%s> is already at another table.", partner)
		}
		return err
	}

	if err := discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> lays out a trading blanket for <@%s>...", sc.UserID(), partner)); err != nil {
		ts.finish()
		return err
	}

	accepted, err := sc.Deps.Prompts.Confirm(ctx, sc.ChannelID(),
		fmt.Sprintf("<@%s>, trade with <@%s>?", partner, sc.UserID()),
		partner, sc.Deps.Cfg.PromptTimeout)
	if err != nil || !accepted {
		ts.tr.Abort()
		ts.finish()
		if err != nil {
			return err
		}
		return discord.Followup(sc.Session, sc.Event,
			fmt.Sprintf("<@%s> isn't interested. The blanket is folded up.", partner))
	}

	return discord.Followup(sc.Session, sc.Event, strings.Join([]string{
		"The table is open. Both of you can now:",
		"`/trade gold` and `/trade item` to set your offer,",
		"`/trade lock` when the table looks right,",
		"`/trade cancel` to walk away.",
		"The trade settles when both sides lock.",
	}, "\n"))
}

// sessionOf finds the caller's live trade.
func (c *TradeCommand) sessionOf(sc *command.SlashContext) (*tradeSession, error) {
	s, ok := sc.Deps.Sessions.Get("trade", sc.UserID())
	if !ok {
		return nil, game.Userf(game.FailNotFound, "You're not at a trading table. `/trade start` opens one.")
	}
	ts, ok := s.Value.(*tradeSession)
	if !ok {
		return nil, fmt.Errorf("trade session holds unexpected value %T", s.Value)
	}
	return ts, nil
}

func (c *TradeCommand) gold(ctx context.Context, sc *command.SlashContext, amount int64) error {
	ts, err := c.sessionOf(sc)
	if err != nil {
		return err
	}

	r, err := sc.Guard(ctx, guard.HasCharacter())
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)
	if amount > p.Money {
		return game.InsufficientFunds(amount, p.Money)
	}

	if err := ts.tr.OfferGold(sc.UserID(), amount); err != nil {
		return err
	}
	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> puts **%d** gold on the table.", sc.UserID(), amount))
}

func (c *TradeCommand) item(ctx context.Context, sc *command.SlashContext, itemID int64) error {
	ts, err := c.sessionOf(sc)
	if err != nil {
		return err
	}

	// Courtesy checks at offer time; the binding ones run again at commit.
	it, err := sc.Deps.Items.GetItem(ctx, itemID)
	if errors.Is(err, game.ErrItemNotFound) {
		return game.Userf(game.FailNotFound, "No item `#%d` exists.", itemID)
	}
	if err != nil {
		return err
	}
	if it.OwnerID != sc.UserID() {
		return game.NotOwner(itemID)
	}
	if it.OnMarket {
		return game.Userf(game.FailBadArgument, "**%s** is on the market. Delist it first.", it.Name)
	}

	if err := ts.tr.OfferItem(sc.UserID(), itemID); err != nil {
		return err
	}
	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> places **%s** on the table.", sc.UserID(), it.Name))
}

func (c *TradeCommand) lock(ctx context.Context, sc *command.SlashContext) error {
	ts, err := c.sessionOf(sc)
	if err != nil {
		return err
	}

	ready, err := ts.tr.Lock(sc.UserID())
	if err != nil {
		return err
	}
	if !ready {
		return discord.Respond(sc.Session, sc.Event,
			fmt.Sprintf("<@%s> is satisfied. Waiting on the other side of the table.", sc.UserID()))
	}

	// Both sides locked: settle now, atomically, against current state.
	err = ts.tr.Commit(ctx, sc.Deps.Items)
	ts.finish()
	if err != nil {
		return err
	}

	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("🤝 Done deal between <@%s> and <@%s>. Everything offered has changed hands.",
			ts.tr.PartyA, ts.tr.PartyB))
}

func (c *TradeCommand) cancel(ctx context.Context, sc *command.SlashContext) error {
	ts, err := c.sessionOf(sc)
	if err != nil {
		return err
	}

	ts.tr.Abort()
	ts.finish()
	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("<@%s> sweeps their things off the table. Trade over.", sc.UserID()))
}

func (c *TradeCommand) show(ctx context.Context, sc *command.SlashContext) error {
	ts, err := c.sessionOf(sc)
	if err != nil {
		return err
	}

	var b strings.Builder
	for party, offer := range ts.tr.Offers() {
		fmt.Fprintf(&b, "<@%s> offers **%d** gold", party, offer.Gold)
		if len(offer.Items) > 0 {
			fmt.Fprintf(&b, " and %d item(s):", len(offer.Items))
			for _, id := range offer.Items {
				if it, err := sc.Deps.Items.GetItem(ctx, id); err == nil {
					fmt.Fprintf(&b, " **%s**", it.Name)
				} else {
					fmt.Fprintf(&b, " `#%d`", id)
				}
			}
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Status: %s", ts.tr.Status())

	return discord.RespondEmbed(sc.Session, sc.Event, &discordgo.MessageEmbed{
		Title:       "Trading table",
		Description: b.String(),
	})
}

func init() {
	command.Register(middleware.Standard(&TradeCommand{}))
}
