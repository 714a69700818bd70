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

const marketPageSize = 15

// --- /shop ---

type ShopCommand struct{}

func (c *ShopCommand) Name() string        { return "shop" }
func (c *ShopCommand) Description() string { return "Browse the market" }

func (c *ShopCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *ShopCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	items, err := sc.Deps.Items.Market(ctx, marketPageSize)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return discord.Respond(sc.Session, sc.Event, "The market stalls are empty. Come back later.")
	}

	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "`#%d` **%s** — %d gold (dmg %d / armor %d), sold by <@%s>\n",
			it.ID, it.Name, it.Price, it.Damage, it.Armor, it.OwnerID)
	}
	return discord.RespondEmbed(sc.Session, sc.Event, &discordgo.MessageEmbed{
		Title:       "Market",
		Description: b.String(),
	})
}

// --- /inventory ---

type InventoryCommand struct{}

func (c *InventoryCommand) Name() string        { return "inventory" }
func (c *InventoryCommand) Description() string { return "List what you carry" }

func (c *InventoryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{Name: c.Name(), Description: c.Description()}
}

func (c *InventoryCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	if _, err := sc.Guard(ctx, guard.HasCharacter()); err != nil {
		return err
	}

	items, err := sc.Deps.Items.ItemsOf(ctx, sc.UserID())
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return discord.RespondEphemeral(sc.Session, sc.Event, "Your pack is empty. Pockets too.")
	}

	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "`#%d` **%s** (dmg %d / armor %d, worth ~%d)", it.ID, it.Name, it.Damage, it.Armor, it.Value)
		if it.OnMarket {
			fmt.Fprintf(&b, " — on the market for %d", it.Price)
		}
		b.WriteString("\n")
	}
	return discord.RespondEmbedEphemeral(sc.Session, sc.Event, &discordgo.MessageEmbed{
		Title:       "Your pack",
		Description: b.String(),
	})
}

// --- /sell ---

type SellCommand struct{}

func (c *SellCommand) Name() string        { return "sell" }
func (c *SellCommand) Description() string { return "Put one of your items on the market" }

func (c *SellCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "item",
				Description: "The item's number (see /inventory)",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "price",
				Description: "Asking price in gold",
				Required:    true,
				MinValue:    &minPrice,
			},
		},
	}
}

var minPrice = float64(1)

func (c *SellCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	if _, err := sc.Guard(ctx, guard.HasCharacter()); err != nil {
		return err
	}

	opts := sc.Options()
	itemID := opts.Int("item")
	price := opts.Int("price")

	err = sc.Deps.Items.ListOnMarket(ctx, itemID, sc.UserID(), price)
	if errors.Is(err, game.ErrItemNotFound) {
		return game.NotOwner(itemID)
	}
	if err != nil {
		return err
	}

	return discord.Respond(sc.Session, sc.Event,
		fmt.Sprintf("Item `#%d` is on the market for **%d** gold.", itemID, price))
}

// --- /buy ---

type BuyCommand struct{}

func (c *BuyCommand) Name() string        { return "buy" }
func (c *BuyCommand) Description() string { return "Buy an item off the market" }

func (c *BuyCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "item",
				Description: "The item's market number",
				Required:    true,
			},
		},
	}
}

func (c *BuyCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	sc, err := slash(inv)
	if err != nil {
		return err
	}

	if _, err := sc.Guard(ctx, guard.HasCharacter()); err != nil {
		return err
	}

	itemID := sc.Options().Int("item")
	it, err := sc.Deps.Items.GetItem(ctx, itemID)
	if errors.Is(err, game.ErrItemNotFound) {
		return game.Userf(game.FailNotFound, "No item `#%d` anywhere in the realm.", itemID)
	}
	if err != nil {
		return err
	}
	if !it.OnMarket {
		return game.Userf(game.FailBadArgument, "**%s** isn't for sale.", it.Name)
	}
	if it.OwnerID == sc.UserID() {
		return game.Userf(game.FailBadArgument, "Buying your own wares moves no gold and fools no one.")
	}

	if err := discord.RespondEphemeral(sc.Session, sc.Event, "Confirm below."); err != nil {
		return err
	}
	ok, err := sc.Deps.Prompts.Confirm(ctx, sc.ChannelID(),
		fmt.Sprintf("<@%s>, buy **%s** for **%d** gold?", sc.UserID(), it.Name, it.Price),
		sc.UserID(), sc.Deps.Cfg.PromptTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return discord.Followup(sc.Session, sc.Event, "You walk on. The merchant mutters.")
	}

	// Re-validate under locks: the listing, the price, and the buyer's gold
	// may all have changed while the confirmation sat unanswered.
	tx, err := sc.Deps.Items.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	locked, err := tx.ItemForUpdate(ctx, itemID)
	if err != nil {
		return &game.ConflictError{Reason: "the item vanished from the market"}
	}
	if !locked.OnMarket {
		return &game.ConflictError{Reason: fmt.Sprintf("**%s** was taken off the market", locked.Name)}
	}
	if err := tx.AddMoney(ctx, sc.UserID(), -locked.Price); err != nil {
		return &game.ConflictError{Reason: "your gold no longer covers the price"}
	}
	if err := tx.AddMoney(ctx, locked.OwnerID, locked.Price); err != nil {
		return err
	}
	if err := tx.MoveItem(ctx, itemID, sc.UserID()); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	return discord.Followup(sc.Session, sc.Event,
		fmt.Sprintf("**%s** is yours for **%d** gold. <@%s> counts the coins.",
			locked.Name, locked.Price, locked.OwnerID))
}

func init() {
	command.Register(middleware.Standard(&ShopCommand{}))
	command.Register(middleware.Standard(&InventoryCommand{}))
	command.Register(middleware.Standard(&SellCommand{}))
	command.Register(middleware.Standard(&BuyCommand{}))
}
