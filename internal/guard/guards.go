package guard

import (
	"context"
	"errors"

	"ashenrealm/internal/game"
)

// HasCharacter requires the actor to have a profile.
func HasCharacter() Check {
	return func(ctx context.Context, r *Request) error {
		_, err := r.Profile(ctx)
		return err
	}
}

// HasNoCharacter requires the actor to have no profile yet (used by /create).
func HasNoCharacter() Check {
	return func(ctx context.Context, r *Request) error {
		_, err := r.Profile(ctx)
		if err == nil {
			return game.HasCharacter()
		}
		if ue, ok := game.AsUserError(err); ok && ue.Kind == game.FailNoCharacter {
			return nil
		}
		return err
	}
}

// HasMoney requires a balance of at least amount.
func HasMoney(amount int64) Check {
	return func(ctx context.Context, r *Request) error {
		p, err := r.Profile(ctx)
		if err != nil {
			return err
		}
		if p.Money < amount {
			return game.InsufficientFunds(amount, p.Money)
		}
		return nil
	}
}

// HasGod requires the actor to follow a god.
func HasGod() Check {
	return func(ctx context.Context, r *Request) error {
		p, err := r.Profile(ctx)
		if err != nil {
			return err
		}
		if p.God == nil || *p.God == "" {
			return game.NoGod()
		}
		return nil
	}
}

// HasNoGod requires the actor to follow no god.
func HasNoGod() Check {
	return func(ctx context.Context, r *Request) error {
		p, err := r.Profile(ctx)
		if err != nil {
			return err
		}
		if p.God != nil && *p.God != "" {
			return game.HasGod(*p.God)
		}
		return nil
	}
}

// IsMarried requires an existing marriage.
func IsMarried() Check {
	return func(ctx context.Context, r *Request) error {
		p, err := r.Profile(ctx)
		if err != nil {
			return err
		}
		if !p.Married() {
			return game.NotMarried()
		}
		return nil
	}
}

// NotMarried requires no existing marriage.
func NotMarried() Check {
	return func(ctx context.Context, r *Request) error {
		p, err := r.Profile(ctx)
		if err != nil {
			return err
		}
		if p.Married() {
			return game.AlreadyMarried()
		}
		return nil
	}
}

// InGuild requires guild membership.
func InGuild() Check {
	return func(ctx context.Context, r *Request) error {
		p, err := r.Profile(ctx)
		if err != nil {
			return err
		}
		if p.GuildID == nil {
			return game.NotGuildMember()
		}
		return nil
	}
}

// NotInGuild requires the actor to be guildless.
func NotInGuild() Check {
	return func(ctx context.Context, r *Request) error {
		p, err := r.Profile(ctx)
		if err != nil {
			return err
		}
		if p.GuildID != nil {
			return game.InGuild()
		}
		return nil
	}
}

// GuildRankAtLeast requires guild membership at min rank or above.
func GuildRankAtLeast(min game.GuildRank) Check {
	return func(ctx context.Context, r *Request) error {
		p, err := r.Profile(ctx)
		if err != nil {
			return err
		}
		if p.GuildID == nil {
			return game.NotGuildMember()
		}
		if !p.GuildRank.AtLeast(min) {
			return game.WrongGuildRank(min)
		}
		return nil
	}
}

// IsClass requires a specific character class.
func IsClass(want game.Class) Check {
	return func(ctx context.Context, r *Request) error {
		p, err := r.Profile(ctx)
		if err != nil {
			return err
		}
		if p.Class != want {
			return game.WrongClass(want)
		}
		return nil
	}
}

// NotSelf rejects targeting yourself.
func NotSelf(targetID string) Check {
	return func(ctx context.Context, r *Request) error {
		if r.UserID == targetID {
			return game.Userf(game.FailBadArgument, "You can't target yourself with that.")
		}
		return nil
	}
}

// TargetHasCharacter requires another user to have a profile. The target's
// profile is loaded fresh, not memoized.
func TargetHasCharacter(targetID string) Check {
	return func(ctx context.Context, r *Request) error {
		_, err := r.Profiles.Get(ctx, targetID)
		if errors.Is(err, game.ErrProfileNotFound) {
			return game.Userf(game.FailNoCharacter, "<@%s> doesn't have a character.", targetID)
		}
		return err
	}
}
