// Package guard implements composable precondition checks evaluated before a
// command body runs. A chain evaluates left-to-right and short-circuits on the
// first failure, surfacing a typed game.UserError the presentation layer can
// render.
//
// Guards are pure: they read state through the Request, which memoizes the
// actor's profile so a whole chain costs at most one store read. The one
// historical exception — pet decay mutating state during a check — is handled
// by an explicit advance step on the Request instead (see Pet).
package guard

import (
	"context"
	"errors"
	"time"

	"ashenrealm/internal/game"
	"ashenrealm/internal/pet"
)

// ProfileSource loads profiles. Satisfied by *profile.Repository.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*game.Profile, error)
}

// PetSource loads and persists pets. Satisfied by *profile.Repository.
type PetSource interface {
	GetPet(ctx context.Context, userID string) (*game.Pet, error)
	SavePet(ctx context.Context, p *game.Pet) error
}

// Request scopes one command invocation: the actor, and memoized reads of the
// actor's profile and pet.
type Request struct {
	UserID  string
	GuildID string

	Profiles ProfileSource
	Pets     PetSource

	profile    *game.Profile
	profileErr error
	profileOK  bool

	pet    *game.Pet
	petErr error
	petOK  bool
}

// NewRequest builds a request for one invocation.
func NewRequest(userID, guildID string, profiles ProfileSource, pets PetSource) *Request {
	return &Request{UserID: userID, GuildID: guildID, Profiles: profiles, Pets: pets}
}

// Profile returns the actor's profile, loading it at most once per request.
// A missing profile surfaces as the NoCharacter failure.
func (r *Request) Profile(ctx context.Context) (*game.Profile, error) {
	if !r.profileOK {
		p, err := r.Profiles.Get(ctx, r.UserID)
		if errors.Is(err, game.ErrProfileNotFound) {
			err = game.NoCharacter()
		}
		r.profile, r.profileErr, r.profileOK = p, err, true
	}
	return r.profile, r.profileErr
}

// Pet returns the actor's pet with offline decay already applied. The
// advance-and-persist step runs exactly once per request, before any guard or
// handler reads derived pet state; the guards themselves stay pure.
func (r *Request) Pet(ctx context.Context) (*game.Pet, error) {
	if !r.petOK {
		p, err := r.Pets.GetPet(ctx, r.UserID)
		if err == nil && pet.Advance(p, time.Now()) {
			if saveErr := r.Pets.SavePet(ctx, p); saveErr != nil {
				err = saveErr
			}
		}
		r.pet, r.petErr, r.petOK = p, err, true
	}
	return r.pet, r.petErr
}

// Check is one precondition over a request. It returns nil to pass, a
// *game.UserError to fail with a user-facing reason, or another error for
// operational failures.
type Check func(ctx context.Context, r *Request) error

// Chain composes checks; all must pass, evaluated left-to-right, stopping at
// the first failure.
func Chain(checks ...Check) Check {
	return func(ctx context.Context, r *Request) error {
		for _, check := range checks {
			if err := check(ctx, r); err != nil {
				return err
			}
		}
		return nil
	}
}
