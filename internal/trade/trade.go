// Package trade implements the two-party escrow flow. A Trade collects offers
// from both sides, locks when both are ready, and commits atomically through
// an inventory ledger transaction. Nothing changes hands until Commit, and
// Commit trusts nothing: every offered coin and item is re-validated under row
// locks at the moment of transfer.
package trade

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"ashenrealm/internal/game"
	"ashenrealm/internal/inventory"
)

// Status is the trade lifecycle stage. Committed and Aborted are terminal.
type Status int

const (
	StatusOpen Status = iota
	StatusAwaitingConfirmation
	StatusValidating
	StatusCommitted
	StatusAborted
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusAwaitingConfirmation:
		return "awaiting confirmation"
	case StatusValidating:
		return "validating"
	case StatusCommitted:
		return "committed"
	case StatusAborted:
		return "aborted"
	}
	return "unknown"
}

// Offer is one side of the table.
type Offer struct {
	Gold  int64
	Items []int64 // item IDs
}

// Trade is the escrow state machine for two parties. Safe for concurrent use;
// both parties poke at it from their own interaction handlers.
type Trade struct {
	ID     string
	PartyA string
	PartyB string

	mu     sync.Mutex
	status Status
	offers map[string]*Offer
	locked map[string]bool
}

// New opens a trade between two players.
func New(partyA, partyB string) *Trade {
	return &Trade{
		ID:     uuid.NewString(),
		PartyA: partyA,
		PartyB: partyB,
		offers: map[string]*Offer{partyA: {}, partyB: {}},
		locked: map[string]bool{},
	}
}

// Status returns the current lifecycle stage.
func (t *Trade) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Offers returns a copy of both offers for rendering.
func (t *Trade) Offers() map[string]Offer {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Offer, len(t.offers))
	for id, o := range t.offers {
		cp := Offer{Gold: o.Gold, Items: append([]int64(nil), o.Items...)}
		out[id] = cp
	}
	return out
}

func (t *Trade) offerOf(userID string) (*Offer, error) {
	o, ok := t.offers[userID]
	if !ok {
		return nil, game.Userf(game.FailBadArgument, "You're not part of this trade.")
	}
	return o, nil
}

// mutable rejects offer changes outside the negotiable stages. Any change
// unlocks both parties: what you agreed to is not what's on the table anymore.
func (t *Trade) mutable() error {
	switch t.status {
	case StatusOpen, StatusAwaitingConfirmation:
		t.status = StatusOpen
		t.locked[t.PartyA] = false
		t.locked[t.PartyB] = false
		return nil
	default:
		return &game.ConflictError{Reason: fmt.Sprintf("trade is %s and can no longer change", t.status)}
	}
}

// OfferGold sets the gold side of userID's offer.
func (t *Trade) OfferGold(userID string, amount int64) error {
	if amount < 0 {
		return game.Userf(game.FailBadArgument, "You can't offer negative gold.")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.mutable(); err != nil {
		return err
	}
	o, err := t.offerOf(userID)
	if err != nil {
		return err
	}
	o.Gold = amount
	return nil
}

// OfferItem adds an item to userID's offer. Duplicates are rejected.
func (t *Trade) OfferItem(userID string, itemID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.mutable(); err != nil {
		return err
	}
	o, err := t.offerOf(userID)
	if err != nil {
		return err
	}
	for _, id := range o.Items {
		if id == itemID {
			return game.Userf(game.FailBadArgument, "That item is already on the table.")
		}
	}
	o.Items = append(o.Items, itemID)
	return nil
}

// Lock marks userID as satisfied with the table. ready=true is reported
// exactly once, on the transition to awaiting confirmation; a repeat lock
// while the trade already awaits settlement reports false so only one caller
// drives Commit.
func (t *Trade) Lock(userID string) (ready bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusOpen && t.status != StatusAwaitingConfirmation {
		return false, &game.ConflictError{Reason: fmt.Sprintf("trade is %s", t.status)}
	}
	if _, err := t.offerOf(userID); err != nil {
		return false, err
	}

	t.locked[userID] = true
	if t.status == StatusOpen && t.locked[t.PartyA] && t.locked[t.PartyB] {
		t.status = StatusAwaitingConfirmation
		return true, nil
	}
	return false, nil
}

// Abort ends the trade without transferring anything. Aborting a terminal
// trade is a no-op.
func (t *Trade) Abort() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == StatusCommitted || t.status == StatusAborted {
		return
	}
	t.status = StatusAborted
}

// Commit settles the trade in one ledger transaction. It may only run once,
// from awaiting confirmation. Both profiles are locked in sorted order, every
// offered item is re-validated for ownership and market status, and gold is
// moved with overdraw-refusing relative updates. Any discrepancy between the
// table and the database aborts the trade with a ConflictError; the trade is
// then terminal and must be renegotiated from scratch.
func (t *Trade) Commit(ctx context.Context, ledger inventory.Ledger) error {
	t.mu.Lock()
	if t.status != StatusAwaitingConfirmation {
		status := t.status
		t.mu.Unlock()
		return &game.ConflictError{Reason: fmt.Sprintf("trade is %s, not awaiting confirmation", status)}
	}
	t.status = StatusValidating
	t.mu.Unlock()

	err := t.settle(ctx, ledger)

	t.mu.Lock()
	if err != nil {
		t.status = StatusAborted
	} else {
		t.status = StatusCommitted
	}
	t.mu.Unlock()
	return err
}

func (t *Trade) settle(ctx context.Context, ledger inventory.Ledger) error {
	tx, err := ledger.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Lock both profiles in sorted order so two concurrent trades over the
	// same pair cannot deadlock.
	parties := []string{t.PartyA, t.PartyB}
	sort.Strings(parties)
	balances := make(map[string]int64, 2)
	for _, id := range parties {
		p, err := tx.ProfileForUpdate(ctx, id)
		if err != nil {
			return &game.ConflictError{Reason: fmt.Sprintf("<@%s> no longer has a character", id)}
		}
		balances[id] = p.Money
	}

	for giver, o := range t.offers {
		if o.Gold > balances[giver] {
			return &game.ConflictError{Reason: fmt.Sprintf("<@%s> no longer has the offered gold", giver)}
		}

		itemIDs := append([]int64(nil), o.Items...)
		sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })
		for _, itemID := range itemIDs {
			it, err := tx.ItemForUpdate(ctx, itemID)
			if err != nil {
				return &game.ConflictError{Reason: "an offered item no longer exists"}
			}
			if it.OwnerID != giver {
				return &game.ConflictError{Reason: fmt.Sprintf("%s no longer belongs to <@%s>", it.Name, giver)}
			}
			if it.OnMarket {
				return &game.ConflictError{Reason: fmt.Sprintf("%s was put on the market mid-trade", it.Name)}
			}
		}
	}

	for giver, o := range t.offers {
		taker := t.other(giver)
		if o.Gold > 0 {
			if err := tx.AddMoney(ctx, giver, -o.Gold); err != nil {
				return &game.ConflictError{Reason: fmt.Sprintf("<@%s> no longer has the offered gold", giver)}
			}
			if err := tx.AddMoney(ctx, taker, o.Gold); err != nil {
				return err
			}
		}
		for _, itemID := range o.Items {
			if err := tx.MoveItem(ctx, itemID, taker); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

func (t *Trade) other(userID string) string {
	if userID == t.PartyA {
		return t.PartyB
	}
	return t.PartyA
}
