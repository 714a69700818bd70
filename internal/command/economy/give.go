package economy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"ashenrealm/internal/command"
	"ashenrealm/internal/discord"
	"ashenrealm/internal/game"
	"ashenrealm/internal/guard"
	"ashenrealm/internal/middleware"
	"ashenrealm/pkg/cmd"
)

type GiveCommand struct{}

func (c *GiveCommand) Name() string        { return "give" }
func (c *GiveCommand) Description() string { return "Give gold or an item to another player" }

func (c *GiveCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The lucky recipient",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "amount",
				Description: "Gold to give — a number, \"half\", or \"all\"",
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "item",
				Description: "Item number to give (see /inventory)",
			},
		},
	}
}

func (c *GiveCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	target := sc.Options().User("user")
	r, err := sc.Guard(ctx,
		guard.HasCharacter(),
		guard.NotSelf(target),
		guard.TargetHasCharacter(target),
	)
	if err != nil {
		return err
	}
	p, _ := r.Profile(ctx)

	amountRaw := sc.Options().String("amount")
	itemID := sc.Options().Int("item")
	if amountRaw == "" && itemID == 0 {
		return game.Userf(game.FailBadArgument, "Give what? Name an amount of gold, an item, or both.")
	}

	var amount int64
	if amountRaw != "" {
		amount, err = command.ParseAmount(amountRaw, p.Money)
		if err != nil {
			return err
		}
		if amount > p.Money {
			return game.InsufficientFunds(amount, p.Money)
		}
	}

	var gift []string
	if amount > 0 {
		gift = append(gift, fmt.Sprintf("**%d** gold", amount))
	}
	if itemID != 0 {
		// Courtesy check now; the binding one runs again inside the transaction.
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
		gift = append(gift, fmt.Sprintf("**%s**", it.Name))
	}

	if err := discord.RespondEphemeral(sc.Session, sc.Event, "Confirm below."); err != nil {
		return err
	}
	ok, err := sc.Deps.Prompts.Confirm(ctx, sc.ChannelID(),
		fmt.Sprintf("<@%s>, hand %s to <@%s>?", sc.UserID(), strings.Join(gift, " and "), target),
		sc.UserID(), sc.Deps.Cfg.PromptTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return discord.Followup(sc.Session, sc.Event, "The pouch stays shut.")
	}

	// Single transaction: everything moves or nothing does, and every check
	// runs again in case the world changed mid-confirmation.
	tx, err := sc.Deps.Items.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if amount > 0 {
		if err := tx.AddMoney(ctx, sc.UserID(), -amount); err != nil {
			return &game.ConflictError{Reason: "your gold ran out while you hesitated"}
		}
		if err := tx.AddMoney(ctx, target, amount); err != nil {
			return err
		}
	}
	if itemID != 0 {
		it, err := tx.ItemForUpdate(ctx, itemID)
		if err != nil {
			return &game.ConflictError{Reason: "the item vanished while you hesitated"}
		}
		if it.OwnerID != sc.UserID() {
			return &game.ConflictError{Reason: fmt.Sprintf("%s is no longer yours to give", it.Name)}
		}
		if it.OnMarket {
			return &game.ConflictError{Reason: fmt.Sprintf("%s went on the market mid-gift", it.Name)}
		}
		if err := tx.MoveItem(ctx, itemID, target); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	return discord.Followup(sc.Session, sc.Event,
		fmt.Sprintf("%s changes hands: <@%s> → <@%s>.", strings.Join(gift, " and "), sc.UserID(), target))
}

func init() {
	command.Register(middleware.Standard(&GiveCommand{}))
}
