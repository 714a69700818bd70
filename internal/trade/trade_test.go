package trade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashenrealm/internal/game"
	"ashenrealm/internal/inventory"
)

// fakeLedger applies a transaction's writes only on Commit, so an aborted
// settlement must leave it untouched.
type fakeLedger struct {
	profiles map[string]*game.Profile
	items    map[int64]*game.Item
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		profiles: map[string]*game.Profile{
			"alice": {UserID: "alice", Money: 1000},
			"bob":   {UserID: "bob", Money: 200},
		},
		items: map[int64]*game.Item{
			1: {ID: 1, OwnerID: "alice", Name: "Rusted Sword"},
			2: {ID: 2, OwnerID: "bob", Name: "Oak Shield"},
		},
	}
}

func (f *fakeLedger) Begin(context.Context) (inventory.LedgerTx, error) {
	tx := &fakeTx{
		ledger:   f,
		profiles: make(map[string]*game.Profile, len(f.profiles)),
		items:    make(map[int64]*game.Item, len(f.items)),
	}
	for id, p := range f.profiles {
		cp := *p
		tx.profiles[id] = &cp
	}
	for id, it := range f.items {
		cp := *it
		tx.items[id] = &cp
	}
	return tx, nil
}

type fakeTx struct {
	ledger    *fakeLedger
	profiles  map[string]*game.Profile
	items     map[int64]*game.Item
	lockOrder []string
	committed bool
}

func (t *fakeTx) ProfileForUpdate(_ context.Context, userID string) (*game.Profile, error) {
	t.lockOrder = append(t.lockOrder, userID)
	p, ok := t.profiles[userID]
	if !ok {
		return nil, game.ErrProfileNotFound
	}
	return p, nil
}

func (t *fakeTx) ItemForUpdate(_ context.Context, itemID int64) (*game.Item, error) {
	it, ok := t.items[itemID]
	if !ok {
		return nil, game.ErrItemNotFound
	}
	return it, nil
}

func (t *fakeTx) AddMoney(_ context.Context, userID string, delta int64) error {
	p, ok := t.profiles[userID]
	if !ok {
		return game.ErrProfileNotFound
	}
	if p.Money+delta < 0 {
		return game.ErrInsufficientBalance
	}
	p.Money += delta
	return nil
}

func (t *fakeTx) MoveItem(_ context.Context, itemID int64, newOwner string) error {
	it, ok := t.items[itemID]
	if !ok {
		return game.ErrItemNotFound
	}
	it.OwnerID = newOwner
	it.OnMarket = false
	it.Price = 0
	return nil
}

func (t *fakeTx) Delist(_ context.Context, itemID int64) error {
	if it, ok := t.items[itemID]; ok {
		it.OnMarket = false
		it.Price = 0
	}
	return nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	t.ledger.profiles = t.profiles
	t.ledger.items = t.items
	return nil
}

func (t *fakeTx) Rollback(context.Context) error { return nil }

func lockBoth(t *testing.T, tr *Trade) {
	t.Helper()
	ready, err := tr.Lock("alice")
	require.NoError(t, err)
	require.False(t, ready)
	ready, err = tr.Lock("bob")
	require.NoError(t, err)
	require.True(t, ready)
}

func TestCommitSettlesGoldAndItems(t *testing.T) {
	ledger := newFakeLedger()
	tr := New("alice", "bob")

	require.NoError(t, tr.OfferGold("alice", 300))
	require.NoError(t, tr.OfferItem("alice", 1))
	require.NoError(t, tr.OfferItem("bob", 2))
	lockBoth(t, tr)

	require.NoError(t, tr.Commit(context.Background(), ledger))

	assert.Equal(t, StatusCommitted, tr.Status())
	assert.Equal(t, int64(700), ledger.profiles["alice"].Money)
	assert.Equal(t, int64(500), ledger.profiles["bob"].Money)
	assert.Equal(t, "bob", ledger.items[1].OwnerID)
	assert.Equal(t, "alice", ledger.items[2].OwnerID)
}

func TestRepeatLockReportsReadyOnlyOnce(t *testing.T) {
	tr := New("alice", "bob")
	lockBoth(t, tr)

	// Alice re-locks while the trade already awaits settlement. Only bob's
	// lock drove the transition, so only bob should call Commit.
	ready, err := tr.Lock("alice")
	require.NoError(t, err)
	assert.False(t, ready)
	assert.Equal(t, StatusAwaitingConfirmation, tr.Status())
}

func TestCommitRequiresBothLocks(t *testing.T) {
	tr := New("alice", "bob")
	_, err := tr.Lock("alice")
	require.NoError(t, err)

	err = tr.Commit(context.Background(), newFakeLedger())

	var conflict *game.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestOfferChangeUnlocksBothParties(t *testing.T) {
	tr := New("alice", "bob")
	lockBoth(t, tr)
	require.Equal(t, StatusAwaitingConfirmation, tr.Status())

	require.NoError(t, tr.OfferGold("bob", 50))

	assert.Equal(t, StatusOpen, tr.Status())
	ready, err := tr.Lock("alice")
	require.NoError(t, err)
	assert.False(t, ready, "bob's lock was cleared by the change")
}

func TestCommitAbortsWhenGoldVanished(t *testing.T) {
	ledger := newFakeLedger()
	tr := New("alice", "bob")
	require.NoError(t, tr.OfferGold("bob", 150))
	lockBoth(t, tr)

	// Bob spends his gold elsewhere between locking and settling.
	ledger.profiles["bob"].Money = 100

	err := tr.Commit(context.Background(), ledger)

	var conflict *game.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, StatusAborted, tr.Status())
	assert.Equal(t, int64(1000), ledger.profiles["alice"].Money, "no partial writes")
	assert.Equal(t, int64(100), ledger.profiles["bob"].Money)
}

func TestCommitAbortsWhenItemChangedHands(t *testing.T) {
	ledger := newFakeLedger()
	tr := New("alice", "bob")
	require.NoError(t, tr.OfferItem("alice", 1))
	lockBoth(t, tr)

	ledger.items[1].OwnerID = "carol"

	err := tr.Commit(context.Background(), ledger)

	var conflict *game.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "carol", ledger.items[1].OwnerID)
}

func TestCommitAbortsWhenItemHitTheMarket(t *testing.T) {
	ledger := newFakeLedger()
	tr := New("alice", "bob")
	require.NoError(t, tr.OfferItem("bob", 2))
	lockBoth(t, tr)

	ledger.items[2].OnMarket = true

	err := tr.Commit(context.Background(), ledger)

	var conflict *game.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestProfilesLockedInSortedOrder(t *testing.T) {
	ledger := newFakeLedger()
	tr := New("bob", "alice") // initiator order reversed on purpose
	lockBoth2 := func() {
		_, err := tr.Lock("bob")
		require.NoError(t, err)
		_, err = tr.Lock("alice")
		require.NoError(t, err)
	}
	lockBoth2()

	var captured *fakeTx
	capturing := ledgerFunc(func(ctx context.Context) (inventory.LedgerTx, error) {
		tx, err := ledger.Begin(ctx)
		captured = tx.(*fakeTx)
		return tx, err
	})

	require.NoError(t, tr.Commit(context.Background(), capturing))
	assert.Equal(t, []string{"alice", "bob"}, captured.lockOrder)
}

type ledgerFunc func(ctx context.Context) (inventory.LedgerTx, error)

func (f ledgerFunc) Begin(ctx context.Context) (inventory.LedgerTx, error) { return f(ctx) }

func TestTerminalTradeRejectsEverything(t *testing.T) {
	tr := New("alice", "bob")
	tr.Abort()

	var conflict *game.ConflictError
	require.ErrorAs(t, tr.OfferGold("alice", 10), &conflict)
	_, err := tr.Lock("alice")
	require.ErrorAs(t, err, &conflict)
	require.ErrorAs(t, tr.Commit(context.Background(), newFakeLedger()), &conflict)

	// Abort twice is harmless.
	tr.Abort()
	assert.Equal(t, StatusAborted, tr.Status())
}

func TestCommitMayOnlyRunOnce(t *testing.T) {
	ledger := newFakeLedger()
	tr := New("alice", "bob")
	require.NoError(t, tr.OfferGold("alice", 10))
	lockBoth(t, tr)

	require.NoError(t, tr.Commit(context.Background(), ledger))

	err := tr.Commit(context.Background(), ledger)
	var conflict *game.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(990), ledger.profiles["alice"].Money, "second commit moved nothing")
}
