// Package inventory is the PostgreSQL repository for items and the row-locked
// transaction surface (Ledger) that transactional mutations run on: trades,
// transfers, and market purchases all re-validate and apply their deltas
// through a single LedgerTx.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"ashenrealm/internal/game"
)

// Ledger opens transactions over profiles and items. Satisfied by Repository;
// faked in tests.
type Ledger interface {
	Begin(ctx context.Context) (LedgerTx, error)
}

// LedgerTx is one transaction. Reads lock the row (SELECT ... FOR UPDATE);
// money changes are relative and refuse to overdraw. Either Commit applies
// everything or Rollback leaves no trace.
type LedgerTx interface {
	ProfileForUpdate(ctx context.Context, userID string) (*game.Profile, error)
	ItemForUpdate(ctx context.Context, itemID int64) (*game.Item, error)
	AddMoney(ctx context.Context, userID string, delta int64) error
	MoveItem(ctx context.Context, itemID int64, newOwner string) error
	Delist(ctx context.Context, itemID int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Repository provides item persistence and implements Ledger.
type Repository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// New creates a PostgreSQL-backed inventory repository.
func New(db *pgxpool.Pool, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger.Named("InventoryRepo")}
}

// CreateItem inserts a new item and returns it with its assigned id.
func (r *Repository) CreateItem(ctx context.Context, it *game.Item) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO items (owner_id, name, damage, armor, value) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		it.OwnerID, it.Name, it.Damage, it.Armor, it.Value).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// GetItem retrieves an item by id.
func (r *Repository) GetItem(ctx context.Context, itemID int64) (*game.Item, error) {
	var it game.Item
	err := pgxscan.Get(ctx, r.db, &it,
		`SELECT id, owner_id, name, damage, armor, value, on_market, price FROM items WHERE id = $1`, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}

// ItemsOf lists a profile's items.
func (r *Repository) ItemsOf(ctx context.Context, ownerID string) ([]game.Item, error) {
	var items []game.Item
	err := pgxscan.Select(ctx, r.db, &items,
		`SELECT id, owner_id, name, damage, armor, value, on_market, price FROM items WHERE owner_id = $1 ORDER BY id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ListOnMarket puts an item up for sale. Fails with ErrItemNotFound if the
// item isn't owned by ownerID, so callers need no separate ownership read.
func (r *Repository) ListOnMarket(ctx context.Context, itemID int64, ownerID string, price int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE items SET on_market = TRUE, price = $3 WHERE id = $1 AND owner_id = $2 AND NOT on_market`,
		itemID, ownerID, price)
	if err != nil {
		return fmt.Errorf("list on market: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrItemNotFound
	}
	return nil
}

// Market returns up to limit items currently for sale, cheapest first.
func (r *Repository) Market(ctx context.Context, limit int) ([]game.Item, error) {
	var items []game.Item
	err := pgxscan.Select(ctx, r.db, &items,
		`SELECT id, owner_id, name, damage, armor, value, on_market, price FROM items WHERE on_market ORDER BY price, id LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list market: %w", err)
	}
	return items, nil
}

// Begin opens a LedgerTx.
func (r *Repository) Begin(ctx context.Context) (LedgerTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	return &ledgerTx{tx: tx, logger: r.logger}, nil
}

type ledgerTx struct {
	tx     pgx.Tx
	logger *zap.Logger
}

func (l *ledgerTx) ProfileForUpdate(ctx context.Context, userID string) (*game.Profile, error) {
	var p game.Profile
	err := pgxscan.Get(ctx, l.tx, &p,
		`SELECT user_id, name, money, xp, class, god, guild_id, guild_rank, spouse, daily_streak, last_daily, created_at
		 FROM profiles WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrProfileNotFound
		}
		return nil, fmt.Errorf("lock profile: %w", err)
	}
	return &p, nil
}

func (l *ledgerTx) ItemForUpdate(ctx context.Context, itemID int64) (*game.Item, error) {
	var it game.Item
	err := pgxscan.Get(ctx, l.tx, &it,
		`SELECT id, owner_id, name, damage, armor, value, on_market, price FROM items WHERE id = $1 FOR UPDATE`, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrItemNotFound
		}
		return nil, fmt.Errorf("lock item: %w", err)
	}
	return &it, nil
}

func (l *ledgerTx) AddMoney(ctx context.Context, userID string, delta int64) error {
	tag, err := l.tx.Exec(ctx,
		`UPDATE profiles SET money = money + $2 WHERE user_id = $1 AND money + $2 >= 0`,
		userID, delta)
	if err != nil {
		return fmt.Errorf("add money: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrInsufficientBalance
	}
	return nil
}

func (l *ledgerTx) MoveItem(ctx context.Context, itemID int64, newOwner string) error {
	tag, err := l.tx.Exec(ctx,
		`UPDATE items SET owner_id = $2, on_market = FALSE, price = 0 WHERE id = $1`,
		itemID, newOwner)
	if err != nil {
		return fmt.Errorf("move item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrItemNotFound
	}
	return nil
}

func (l *ledgerTx) Delist(ctx context.Context, itemID int64) error {
	_, err := l.tx.Exec(ctx, `UPDATE items SET on_market = FALSE, price = 0 WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delist item: %w", err)
	}
	return nil
}

func (l *ledgerTx) Commit(ctx context.Context) error   { return l.tx.Commit(ctx) }
func (l *ledgerTx) Rollback(ctx context.Context) error { return l.tx.Rollback(ctx) }
