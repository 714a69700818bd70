package game

import (
	"errors"
	"fmt"
	"time"
)

// Repository sentinel errors. Handlers translate these into UserErrors where
// the user can act on them.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrItemNotFound    = errors.New("item not found")
	ErrGuildNotFound   = errors.New("guild not found")
	ErrGuildExists     = errors.New("guild name already taken")
	ErrPetNotFound     = errors.New("pet not found")
)

// ErrInsufficientBalance is returned by money mutations that would drive a
// balance negative.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ConflictError reports that state re-validation failed during a transactional
// mutation: something changed between the interactive wait and the commit.
// The mutation was fully rolled back; the flow must be restarted.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return "state conflict: " + e.Reason }

// AsConflict unwraps err into a ConflictError if it is one.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// FailKind classifies user-correctable failures so the presentation layer can
// render a tailored message per kind.
type FailKind string

const (
	FailNoCharacter       FailKind = "no_character"
	FailHasCharacter      FailKind = "has_character"
	FailInsufficientFunds FailKind = "insufficient_funds"
	FailWrongGuildRank    FailKind = "wrong_guild_rank"
	FailWrongClass        FailKind = "wrong_class"
	FailOnCooldown        FailKind = "on_cooldown"
	FailNoGod             FailKind = "no_god"
	FailHasGod            FailKind = "has_god"
	FailNotGuildMember    FailKind = "not_guild_member"
	FailInGuild           FailKind = "in_guild"
	FailNotMarried        FailKind = "not_married"
	FailAlreadyMarried    FailKind = "already_married"
	FailNotOwner          FailKind = "not_owner"
	FailBadArgument       FailKind = "bad_argument"
	FailSessionActive     FailKind = "session_active"
	FailNotFound          FailKind = "not_found"
)

// UserError is a precondition or argument failure the user can correct. It is
// rendered as a single chat reply and never reported as an operational error.
// A command that returns a UserError has had no side effects (and any
// optimistically set cooldown is reset).
type UserError struct {
	Kind    FailKind
	Message string
}

func (e *UserError) Error() string { return e.Message }

// Userf builds a UserError with a formatted message.
func Userf(kind FailKind, format string, args ...interface{}) *UserError {
	return &UserError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsUserError unwraps err into a UserError if it is one.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// Canned constructors for the common guard failures.

func NoCharacter() *UserError {
	return &UserError{Kind: FailNoCharacter, Message: "You don't have a character yet. Use `/create` to forge one."}
}

func HasCharacter() *UserError {
	return &UserError{Kind: FailHasCharacter, Message: "You already have a character. Use `/delete` first if you want a fresh start."}
}

func InsufficientFunds(need, have int64) *UserError {
	return Userf(FailInsufficientFunds, "You need **$%d** but only have **$%d**.", need, have)
}

func WrongGuildRank(min GuildRank) *UserError {
	return Userf(FailWrongGuildRank, "You need guild rank **%s** or above for that.", min)
}

func WrongClass(want Class) *UserError {
	return Userf(FailWrongClass, "Only the **%s** class can do that.", want)
}

func OnCooldown(remaining time.Duration) *UserError {
	return Userf(FailOnCooldown, "Easy there. Try again in **%s**.", remaining.Round(time.Second))
}

func NoGod() *UserError {
	return &UserError{Kind: FailNoGod, Message: "You follow no god. Use `/follow` to pledge yourself first."}
}

func HasGod(god string) *UserError {
	return Userf(FailHasGod, "You already follow **%s**. Use `/unfollow` to renounce them first.", god)
}

func NotGuildMember() *UserError {
	return &UserError{Kind: FailNotGuildMember, Message: "You are not in a guild."}
}

func InGuild() *UserError {
	return &UserError{Kind: FailInGuild, Message: "You are already in a guild. Leave it first."}
}

func NotMarried() *UserError {
	return &UserError{Kind: FailNotMarried, Message: "You are not married."}
}

func AlreadyMarried() *UserError {
	return &UserError{Kind: FailAlreadyMarried, Message: "You are already married. The realm frowns on bigamy."}
}

func NotOwner(itemID int64) *UserError {
	return Userf(FailNotOwner, "Item **#%d** doesn't belong to you.", itemID)
}

func SessionActive(what string) *UserError {
	return Userf(FailSessionActive, "A %s is already running here. Finish it first.", what)
}
