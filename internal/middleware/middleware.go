// Package middleware wraps commands with the cross-cutting layers every game
// command shares: panic recovery, invocation logging, guild gating, developer
// gating, and the cooldown gate.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"ashenrealm/internal/command"
	"ashenrealm/internal/game"
	"ashenrealm/internal/prompt"
	"ashenrealm/pkg/cmd"
)

func slashCtx(inv *cmd.Invocation) (*command.SlashContext, bool) {
	sc, ok := inv.Data.(*command.SlashContext)
	return sc, ok
}

// WithRecovery converts a panicking command into an error instead of taking
// the gateway down with it.
func WithRecovery(c cmd.Command) cmd.Command {
	return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("command %s panicked: %v\n%s", c.Name(), r, debug.Stack())
			}
		}()
		return c.Run(ctx, inv)
	})
}

// WithCommandLogger logs every invocation with its outcome and duration.
func WithCommandLogger(c cmd.Command) cmd.Command {
	return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
		sc, ok := slashCtx(inv)
		if !ok {
			return c.Run(ctx, inv)
		}

		start := time.Now()
		err := c.Run(ctx, inv)

		logger := sc.Deps.Log.Named("Command")
		fields := []zap.Field{
			zap.String("command", c.Name()),
			zap.String("user", sc.UserID()),
			zap.String("guild", sc.GuildID()),
			zap.Duration("took", time.Since(start)),
		}
		switch {
		case err == nil:
			logger.Info("ok", fields...)
		default:
			if _, ok := game.AsUserError(err); ok {
				logger.Info("refused", append(fields, zap.String("reason", err.Error()))...)
			} else {
				logger.Error("failed", append(fields, zap.Error(err))...)
			}
		}
		return err
	})
}

// WithGuildOnly refuses invocations from DMs.
func WithGuildOnly(c cmd.Command) cmd.Command {
	return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
		if sc, ok := slashCtx(inv); ok && sc.GuildID() == "" {
			return game.Userf(game.FailBadArgument, "This only works inside a server.")
		}
		return c.Run(ctx, inv)
	})
}

// WithDevOnly refuses invocations from anyone but the configured developer.
// Applied to commands whose root implements DevGated.
func WithDevOnly(c cmd.Command) cmd.Command {
	return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
		sc, ok := slashCtx(inv)
		if !ok {
			return c.Run(ctx, inv)
		}
		gated, isGated := cmd.Root(c).(command.DevGated)
		if isGated && gated.RequireDev() && sc.UserID() != sc.Deps.Cfg.DeveloperID {
			return game.Userf(game.FailBadArgument, "That lever is not for your hands.")
		}
		return c.Run(ctx, inv)
	})
}

// WithCooldown gates a command behind its root Cooldowner duration. The
// cooldown is claimed optimistically before the body runs, so two rapid-fire
// invocations cannot both get through the gate; if the body then fails with a
// user error, a conflict, or a timeout, the claim is released so the refusal
// doesn't cost the user their turn.
func WithCooldown(c cmd.Command) cmd.Command {
	return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
		sc, ok := slashCtx(inv)
		if !ok {
			return c.Run(ctx, inv)
		}
		cooler, isCooled := cmd.Root(c).(command.Cooldowner)
		if !isCooled || cooler.Cooldown() <= 0 {
			return c.Run(ctx, inv)
		}

		ok, remaining, err := sc.Deps.Cooldowns.Acquire(ctx, sc.UserID(), c.Name(), cooler.Cooldown())
		if err != nil {
			return err
		}
		if !ok {
			return game.OnCooldown(remaining)
		}

		runErr := c.Run(ctx, inv)
		if refused(runErr) {
			if resetErr := sc.Deps.Cooldowns.Reset(ctx, sc.UserID(), c.Name()); resetErr != nil {
				sc.Deps.Log.Named("Command").Warn("cooldown reset failed",
					zap.String("command", c.Name()), zap.Error(resetErr))
			}
		}
		return runErr
	})
}

// refused reports whether err means "nothing happened": the command was
// turned away, abandoned, or nobody answered its prompt.
func refused(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := game.AsUserError(err); ok {
		return true
	}
	if _, ok := game.AsConflict(err); ok {
		return true
	}
	return errors.Is(err, prompt.ErrTimeout)
}

// Standard is the wrap order every game command gets: recovery outermost,
// then logging, then the gates.
func Standard(c cmd.Command) cmd.Command {
	return cmd.Apply(c, WithCooldown, WithDevOnly, WithGuildOnly, WithCommandLogger, WithRecovery)
}
