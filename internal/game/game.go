// Package game holds the core data model of the realm: player profiles,
// items, guilds, pets, and the user-facing failure taxonomy that guards and
// handlers surface.
package game

import (
	"math"
	"time"
)

// Class is a character class. Classes gate a few commands and color flavor text.
type Class string

const (
	ClassWarrior Class = "warrior"
	ClassMage    Class = "mage"
	ClassThief   Class = "thief"
	ClassRanger  Class = "ranger"
	ClassRaider  Class = "raider"
)

// Classes lists every playable class, in display order.
var Classes = []Class{ClassWarrior, ClassMage, ClassThief, ClassRanger, ClassRaider}

// ValidClass reports whether c names a playable class.
func ValidClass(c Class) bool {
	for _, k := range Classes {
		if k == c {
			return true
		}
	}
	return false
}

// GuildRank orders guild membership. Higher ranks may do everything lower
// ranks may.
type GuildRank string

const (
	RankMember  GuildRank = "member"
	RankOfficer GuildRank = "officer"
	RankLeader  GuildRank = "leader"
)

var rankOrder = map[GuildRank]int{RankMember: 0, RankOfficer: 1, RankLeader: 2}

// AtLeast reports whether r is equal to or above min.
func (r GuildRank) AtLeast(min GuildRank) bool {
	return rankOrder[r] >= rankOrder[min]
}

// Gods a character may follow. Following is exclusive; /pray requires one.
var Gods = []string{"Aelthas", "Morvannon", "Sziala", "The Unnamed"}

// ValidGod reports whether name is a known god.
func ValidGod(name string) bool {
	for _, g := range Gods {
		if g == name {
			return true
		}
	}
	return false
}

// Profile is one player's character. At most one row exists per Discord user;
// Money never goes negative in a committed mutation (enforced by the store).
type Profile struct {
	UserID      string     `db:"user_id"`
	Name        string     `db:"name"`
	Money       int64      `db:"money"`
	XP          int64      `db:"xp"`
	Class       Class      `db:"class"`
	God         *string    `db:"god"`
	GuildID     *int64     `db:"guild_id"`
	GuildRank   GuildRank  `db:"guild_rank"`
	Spouse      *string    `db:"spouse"`
	DailyStreak int        `db:"daily_streak"`
	LastDaily   *time.Time `db:"last_daily"`
	CreatedAt   time.Time  `db:"created_at"`
}

// Level derives the character level from accumulated XP.
func (p *Profile) Level() int {
	if p.XP <= 0 {
		return 1
	}
	return 1 + int(math.Sqrt(float64(p.XP)/100))
}

// Married reports whether the profile has a spouse link.
func (p *Profile) Married() bool { return p.Spouse != nil && *p.Spouse != "" }

// Item is a piece of equipment or loot owned by exactly one profile. While
// OnMarket is set the item is offered for sale at Price and cannot enter a trade.
type Item struct {
	ID       int64  `db:"id"`
	OwnerID  string `db:"owner_id"`
	Name     string `db:"name"`
	Damage   int64  `db:"damage"`
	Armor    int64  `db:"armor"`
	Value    int64  `db:"value"`
	OnMarket bool   `db:"on_market"`
	Price    int64  `db:"price"`
}

// Guild groups profiles under a leader. Membership and rank live on the profile.
type Guild struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	LeaderID  string    `db:"leader_id"`
	Bank      int64     `db:"bank"`
	CreatedAt time.Time `db:"created_at"`
}

// Pet is the character's companion. Stats decay with real time while the
// owner is away; decay is applied explicitly once per request, never inside
// a guard.
type Pet struct {
	UserID   string    `db:"user_id"`
	Name     string    `db:"name"`
	Food     int       `db:"food"`
	Drink    int       `db:"drink"`
	Joy      int       `db:"joy"`
	Love     int       `db:"love"`
	LastCare time.Time `db:"last_care"`
}
