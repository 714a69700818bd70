package pet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ashenrealm/internal/game"
)

func newPet(lastCare time.Time) *game.Pet {
	return &game.Pet{UserID: "u1", Name: "Ember", Food: 100, Drink: 100, Joy: 100, Love: 100, LastCare: lastCare}
}

func TestAdvanceDecaysWholeHours(t *testing.T) {
	now := time.Now()
	p := newPet(now.Add(-5 * time.Hour))

	changed := Advance(p, now)

	assert.True(t, changed)
	assert.Equal(t, 90, p.Food)
	assert.Equal(t, 85, p.Drink)
	assert.Equal(t, 95, p.Joy)
	assert.Equal(t, 100, p.Love, "love holds while the pet is fed and watered")
}

func TestAdvanceWithinSameHourIsNoop(t *testing.T) {
	now := time.Now()
	p := newPet(now.Add(-90 * time.Minute))

	assert.True(t, Advance(p, now))
	food, drink := p.Food, p.Drink

	// The half-hour remainder is preserved; a second advance in the same
	// hour must change nothing.
	assert.False(t, Advance(p, now))
	assert.Equal(t, food, p.Food)
	assert.Equal(t, drink, p.Drink)
}

func TestAdvanceNeverGoesNegative(t *testing.T) {
	now := time.Now()
	p := newPet(now.Add(-1000 * time.Hour))

	Advance(p, now)

	assert.Equal(t, 0, p.Food)
	assert.Equal(t, 0, p.Drink)
	assert.GreaterOrEqual(t, p.Love, 0)
}

func TestLoveDecaysOnlyWhenStarving(t *testing.T) {
	now := time.Now()
	p := newPet(now.Add(-60 * time.Hour))
	p.Food = 0
	p.Drink = 0

	Advance(p, now)

	assert.Equal(t, 40, p.Love)
}

func TestCareActionsClampAtMax(t *testing.T) {
	p := newPet(time.Now())
	p.Food = 90

	Feed(p)
	assert.Equal(t, MaxStat, p.Food)

	p.Joy = 10
	Play(p)
	assert.Equal(t, 35, p.Joy)
}
