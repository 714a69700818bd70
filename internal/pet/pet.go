// Package pet holds the companion care rules. Decay is a pure function of
// elapsed time, applied explicitly once per request by the guard layer —
// never as a side effect of a precondition check.
package pet

import (
	"time"

	"ashenrealm/internal/game"
)

// Per-hour decay rates while the owner is away.
const (
	foodDecayPerHour  = 2
	drinkDecayPerHour = 3
	joyDecayPerHour   = 1
)

// Love only starts to fade once the pet is hungry and thirsty.
const loveDecayPerHour = 1

// MaxStat caps every pet stat.
const MaxStat = 100

// Advance applies offline decay for whole elapsed hours in place and reports
// whether anything changed. LastCare is moved forward only by the hours
// consumed, so the sub-hour remainder keeps accruing; calling Advance twice
// within the same hour is a no-op the second time.
func Advance(p *game.Pet, now time.Time) bool {
	hours := int(now.Sub(p.LastCare).Hours())
	if hours <= 0 {
		return false
	}

	p.Food = clamp(p.Food - hours*foodDecayPerHour)
	p.Drink = clamp(p.Drink - hours*drinkDecayPerHour)
	p.Joy = clamp(p.Joy - hours*joyDecayPerHour)
	if p.Food == 0 && p.Drink == 0 {
		p.Love = clamp(p.Love - hours*loveDecayPerHour)
	}
	p.LastCare = p.LastCare.Add(time.Duration(hours) * time.Hour)
	return true
}

// Feed, Water, Play and Cuddle raise one stat each.

func Feed(p *game.Pet)   { p.Food = clamp(p.Food + 25) }
func Water(p *game.Pet)  { p.Drink = clamp(p.Drink + 25) }
func Play(p *game.Pet)   { p.Joy = clamp(p.Joy + 25) }
func Cuddle(p *game.Pet) { p.Love = clamp(p.Love + 25) }

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxStat {
		return MaxStat
	}
	return v
}
