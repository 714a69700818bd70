package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"ashenrealm/internal/game"
)

// CreateGuild founds a guild, charges the founding fee, and installs the
// founder as leader, all in one transaction. A founder who can't cover the fee
// gets ErrInsufficientBalance; a taken name gets ErrGuildExists. Either way the
// fee stays in their pouch.
func (r *Repository) CreateGuild(ctx context.Context, name, leaderID string, fee int64) (*game.Guild, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE profiles SET money = money - $2 WHERE user_id = $1 AND money >= $2`,
		leaderID, fee)
	if err != nil {
		return nil, fmt.Errorf("charge founding fee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, game.ErrInsufficientBalance
	}

	var g game.Guild
	err = tx.QueryRow(ctx,
		`INSERT INTO guilds (name, leader_id) VALUES ($1, $2) RETURNING id, name, leader_id, bank, created_at`,
		name, leaderID).Scan(&g.ID, &g.Name, &g.LeaderID, &g.Bank, &g.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, game.ErrGuildExists
		}
		return nil, fmt.Errorf("create guild: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE profiles SET guild_id = $2, guild_rank = $3 WHERE user_id = $1`,
		leaderID, g.ID, game.RankLeader)
	if err != nil {
		return nil, fmt.Errorf("install leader: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	r.logger.Info("guild founded", zap.String("name", name), zap.String("leaderID", leaderID))
	return &g, nil
}

// GetGuild retrieves a guild by id.
func (r *Repository) GetGuild(ctx context.Context, id int64) (*game.Guild, error) {
	var g game.Guild
	err := pgxscan.Get(ctx, r.db, &g, `SELECT id, name, leader_id, bank, created_at FROM guilds WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrGuildNotFound
		}
		return nil, fmt.Errorf("get guild: %w", err)
	}
	return &g, nil
}

// JoinGuild adds a profile to a guild as a plain member. The membership check
// is part of the statement so two racing invites cannot double-join.
func (r *Repository) JoinGuild(ctx context.Context, userID string, guildID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET guild_id = $2, guild_rank = $3 WHERE user_id = $1 AND guild_id IS NULL`,
		userID, guildID, game.RankMember)
	if err != nil {
		return fmt.Errorf("join guild: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &game.ConflictError{Reason: "they joined another guild in the meantime"}
	}
	return nil
}

// LeaveGuild removes a profile from its guild.
func (r *Repository) LeaveGuild(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE profiles SET guild_id = NULL, guild_rank = $2 WHERE user_id = $1 AND guild_id IS NOT NULL`,
		userID, game.RankMember)
	if err != nil {
		return fmt.Errorf("leave guild: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.NotGuildMember()
	}
	return nil
}

// SetGuildRank changes a member's rank.
func (r *Repository) SetGuildRank(ctx context.Context, userID string, rank game.GuildRank) error {
	_, err := r.db.Exec(ctx, `UPDATE profiles SET guild_rank = $2 WHERE user_id = $1`, userID, rank)
	if err != nil {
		return fmt.Errorf("set guild rank: %w", err)
	}
	return nil
}
