// Package profile is the PostgreSQL repository for player profiles and their
// satellite rows (guild membership, marriage links, pets).
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"ashenrealm/internal/game"
)

// Repository provides profile persistence. All money mutations are relative
// updates guarded by the store's non-negative balance check.
type Repository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// New creates a PostgreSQL-backed profile repository.
func New(db *pgxpool.Pool, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger.Named("ProfileRepo")}
}

// Get retrieves a profile by Discord user id.
func (r *Repository) Get(ctx context.Context, userID string) (*game.Profile, error) {
	var p game.Profile
	query := `SELECT user_id, name, money, xp, class, god, guild_id, guild_rank, spouse, daily_streak, last_daily, created_at
	          FROM profiles WHERE user_id = $1`
	if err := pgxscan.Get(ctx, r.db, &p, query, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrProfileNotFound
		}
		r.logger.Error("failed to get profile", zap.Error(err), zap.String("userID", userID))
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// Create inserts a new profile together with its starter pet.
func (r *Repository) Create(ctx context.Context, p *game.Profile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO profiles (user_id, name, money, xp, class) VALUES ($1, $2, $3, $4, $5)`,
		p.UserID, p.Name, p.Money, p.XP, p.Class)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return game.ErrProfileExists
		}
		r.logger.Error("failed to create profile", zap.Error(err), zap.String("userID", p.UserID))
		return fmt.Errorf("create profile: %w", err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO pets (user_id, name) VALUES ($1, $2)`, p.UserID, "Ember")
	if err != nil {
		return fmt.Errorf("create starter pet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Info("profile created", zap.String("userID", p.UserID), zap.String("name", p.Name))
	return nil
}

// Delete removes a profile. Items and the pet cascade away with it.
func (r *Repository) Delete(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrProfileNotFound
	}
	r.logger.Info("profile deleted", zap.String("userID", userID))
	return nil
}

// AddMoney applies a relative balance change. A negative delta that would
// overdraw the balance fails with ErrInsufficientBalance and changes nothing.
func (r *Repository) AddMoney(ctx context.Context, userID string, delta int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET money = money + $2 WHERE user_id = $1 AND money + $2 >= 0`,
		userID, delta)
	if err != nil {
		return fmt.Errorf("add money: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, userID); err != nil {
			return err
		}
		return game.ErrInsufficientBalance
	}
	return nil
}

// AddXP applies a relative experience change.
func (r *Repository) AddXP(ctx context.Context, userID string, delta int64) error {
	_, err := r.db.Exec(ctx, `UPDATE profiles SET xp = GREATEST(xp + $2, 0) WHERE user_id = $1`, userID, delta)
	if err != nil {
		return fmt.Errorf("add xp: %w", err)
	}
	return nil
}

// ClaimDaily grants the daily reward and advances the streak. The streak
// continues if the last claim was within 48 hours, otherwise it restarts.
// Double-claims within 24h are prevented by the cooldown store, not here.
func (r *Repository) ClaimDaily(ctx context.Context, userID string, now time.Time) (streak int, reward int64, err error) {
	p, err := r.Get(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	streak = 1
	if p.LastDaily != nil && now.Sub(*p.LastDaily) < 48*time.Hour {
		streak = p.DailyStreak + 1
	}
	reward = 50 * int64(streak)
	if reward > 1000 {
		reward = 1000
	}

	_, err = r.db.Exec(ctx,
		`UPDATE profiles SET money = money + $2, daily_streak = $3, last_daily = $4 WHERE user_id = $1`,
		userID, reward, streak, now)
	if err != nil {
		return 0, 0, fmt.Errorf("claim daily: %w", err)
	}
	return streak, reward, nil
}

// SetGod pledges the profile to a god.
func (r *Repository) SetGod(ctx context.Context, userID, god string) error {
	_, err := r.db.Exec(ctx, `UPDATE profiles SET god = $2 WHERE user_id = $1`, userID, god)
	if err != nil {
		return fmt.Errorf("set god: %w", err)
	}
	return nil
}

// ClearGod renounces the profile's god.
func (r *Repository) ClearGod(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `UPDATE profiles SET god = NULL WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear god: %w", err)
	}
	return nil
}

// Marry links two profiles. Both rows are locked and re-validated inside one
// transaction: arbitrary time passes between the proposal prompt and the
// acceptance, so either party may have married someone else meanwhile.
func (r *Repository) Marry(ctx context.Context, a, b string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	first, second := a, b
	if second < first {
		first, second = second, first
	}
	for _, id := range []string{first, second} {
		var spouse *string
		err := tx.QueryRow(ctx, `SELECT spouse FROM profiles WHERE user_id = $1 FOR UPDATE`, id).Scan(&spouse)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &game.ConflictError{Reason: "one of you no longer has a character"}
			}
			return fmt.Errorf("lock profile: %w", err)
		}
		if spouse != nil && *spouse != "" {
			return &game.ConflictError{Reason: "one of you got married in the meantime"}
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE profiles SET spouse = $2 WHERE user_id = $1`, a, b); err != nil {
		return fmt.Errorf("link spouse: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE profiles SET spouse = $2 WHERE user_id = $1`, b, a); err != nil {
		return fmt.Errorf("link spouse: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Info("marriage sealed", zap.String("a", a), zap.String("b", b))
	return nil
}

// Divorce severs the marriage link on both sides.
func (r *Repository) Divorce(ctx context.Context, userID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var spouse *string
	err = tx.QueryRow(ctx, `SELECT spouse FROM profiles WHERE user_id = $1 FOR UPDATE`, userID).Scan(&spouse)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return game.ErrProfileNotFound
		}
		return fmt.Errorf("lock profile: %w", err)
	}
	if spouse == nil || *spouse == "" {
		return game.NotMarried()
	}

	if _, err := tx.Exec(ctx, `UPDATE profiles SET spouse = NULL WHERE user_id = $1 OR user_id = $2`, userID, *spouse); err != nil {
		return fmt.Errorf("clear spouse: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Info("marriage dissolved", zap.String("userID", userID))
	return nil
}
