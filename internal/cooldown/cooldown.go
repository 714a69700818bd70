// Package cooldown is the TTL rate limiter for (user, command) pairs, backed
// by Redis. It also holds the global event flags ("a raid is running") that
// act as cross-process mutexes.
//
// Cooldowns are acquired optimistically when a command enters; if the command
// later fails a precondition, the caller must Reset so the failed attempt
// doesn't cost the cooldown.
package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store manages cooldown keys and event flags.
type Store struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// New creates a Redis-backed cooldown store.
func New(rdb *redis.Client, logger *zap.Logger) *Store {
	return &Store{rdb: rdb, logger: logger.Named("Cooldown")}
}

func cooldownKey(userID, command string) string {
	return fmt.Sprintf("cooldown:%s:%s", userID, command)
}

func flagKey(name string) string {
	return fmt.Sprintf("flag:%s", name)
}

// Acquire atomically claims the cooldown window (SET NX EX). Exactly one of
// two concurrent attempts wins; the loser gets ok=false and the remaining
// duration.
func (s *Store) Acquire(ctx context.Context, userID, command string, d time.Duration) (ok bool, remaining time.Duration, err error) {
	key := cooldownKey(userID, command)
	ok, err = s.rdb.SetNX(ctx, key, time.Now().Unix(), d).Result()
	if err != nil {
		return false, 0, fmt.Errorf("acquire cooldown: %w", err)
	}
	if ok {
		return true, 0, nil
	}
	remaining, err = s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("cooldown ttl: %w", err)
	}
	if remaining < 0 {
		remaining = 0
	}
	return false, remaining, nil
}

// Remaining reports how long the cooldown still runs, or zero if expired.
func (s *Store) Remaining(ctx context.Context, userID, command string) (time.Duration, error) {
	ttl, err := s.rdb.TTL(ctx, cooldownKey(userID, command)).Result()
	if err != nil {
		return 0, fmt.Errorf("cooldown ttl: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Reset clears the cooldown so an immediate retry is permitted. Called when a
// command that set its cooldown optimistically fails a later precondition or
// the counterparty never responds.
func (s *Store) Reset(ctx context.Context, userID, command string) error {
	if err := s.rdb.Del(ctx, cooldownKey(userID, command)).Err(); err != nil {
		return fmt.Errorf("reset cooldown: %w", err)
	}
	s.logger.Debug("cooldown reset", zap.String("userID", userID), zap.String("command", command))
	return nil
}

// AcquireFlag claims a global event flag with the same atomic NX semantics.
// Used as a realm-wide mutex: at most one raid runs at a time, even across
// processes.
func (s *Store) AcquireFlag(ctx context.Context, name string, d time.Duration) (ok bool, remaining time.Duration, err error) {
	key := flagKey(name)
	ok, err = s.rdb.SetNX(ctx, key, time.Now().Unix(), d).Result()
	if err != nil {
		return false, 0, fmt.Errorf("acquire flag: %w", err)
	}
	if ok {
		s.logger.Info("flag acquired", zap.String("flag", name), zap.Duration("ttl", d))
		return true, 0, nil
	}
	remaining, err = s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("flag ttl: %w", err)
	}
	if remaining < 0 {
		remaining = 0
	}
	return false, remaining, nil
}

// ReleaseFlag clears a global event flag before its TTL lapses.
func (s *Store) ReleaseFlag(ctx context.Context, name string) error {
	if err := s.rdb.Del(ctx, flagKey(name)).Err(); err != nil {
		return fmt.Errorf("release flag: %w", err)
	}
	s.logger.Info("flag released", zap.String("flag", name))
	return nil
}
