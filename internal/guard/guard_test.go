package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashenrealm/internal/game"
)

type fakeProfiles struct {
	profiles map[string]*game.Profile
	gets     int
}

func (f *fakeProfiles) Get(_ context.Context, userID string) (*game.Profile, error) {
	f.gets++
	p, ok := f.profiles[userID]
	if !ok {
		return nil, game.ErrProfileNotFound
	}
	return p, nil
}

type fakePets struct {
	pet   *game.Pet
	saves int
}

func (f *fakePets) GetPet(_ context.Context, _ string) (*game.Pet, error) {
	if f.pet == nil {
		return nil, game.ErrPetNotFound
	}
	return f.pet, nil
}

func (f *fakePets) SavePet(_ context.Context, _ *game.Pet) error {
	f.saves++
	return nil
}

func strPtr(s string) *string { return &s }
func intPtr(i int64) *int64   { return &i }

func request(p *game.Profile) (*Request, *fakeProfiles) {
	profiles := &fakeProfiles{profiles: map[string]*game.Profile{}}
	if p != nil {
		profiles.profiles[p.UserID] = p
	}
	userID := "u1"
	if p != nil {
		userID = p.UserID
	}
	return NewRequest(userID, "g1", profiles, &fakePets{}), profiles
}

func TestChainShortCircuits(t *testing.T) {
	r, _ := request(&game.Profile{UserID: "u1", Money: 10})

	var order []string
	pass := func(name string) Check {
		return func(context.Context, *Request) error {
			order = append(order, name)
			return nil
		}
	}
	fail := func(name string) Check {
		return func(context.Context, *Request) error {
			order = append(order, name)
			return game.NoGod()
		}
	}

	err := Chain(pass("a"), fail("b"), pass("c"))(context.Background(), r)

	require.Error(t, err)
	assert.Equal(t, []string{"a", "b"}, order, "no check after the first failure may run")
}

func TestProfileIsMemoized(t *testing.T) {
	r, profiles := request(&game.Profile{UserID: "u1", Money: 500})

	err := Chain(HasCharacter(), HasMoney(100), HasNoGod(), NotMarried())(context.Background(), r)

	require.NoError(t, err)
	assert.Equal(t, 1, profiles.gets, "a whole chain costs one profile read")
}

func TestHasCharacterFailsWithoutProfile(t *testing.T) {
	r, _ := request(nil)

	err := HasCharacter()(context.Background(), r)

	ue, ok := game.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, game.FailNoCharacter, ue.Kind)
}

func TestHasNoCharacter(t *testing.T) {
	r, _ := request(nil)
	require.NoError(t, HasNoCharacter()(context.Background(), r))

	r, _ = request(&game.Profile{UserID: "u1"})
	err := HasNoCharacter()(context.Background(), r)
	ue, ok := game.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, game.FailHasCharacter, ue.Kind)
}

func TestHasMoney(t *testing.T) {
	r, _ := request(&game.Profile{UserID: "u1", Money: 500})

	require.NoError(t, HasMoney(500)(context.Background(), r))

	err := HasMoney(1000)(context.Background(), r)
	ue, ok := game.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, game.FailInsufficientFunds, ue.Kind)
}

func TestGodGuards(t *testing.T) {
	withGod, _ := request(&game.Profile{UserID: "u1", God: strPtr("Aelthas")})
	godless, _ := request(&game.Profile{UserID: "u2"})

	require.NoError(t, HasGod()(context.Background(), withGod))
	require.NoError(t, HasNoGod()(context.Background(), godless))

	err := HasGod()(context.Background(), godless)
	ue, _ := game.AsUserError(err)
	assert.Equal(t, game.FailNoGod, ue.Kind)

	err = HasNoGod()(context.Background(), withGod)
	ue, _ = game.AsUserError(err)
	assert.Equal(t, game.FailHasGod, ue.Kind)
}

func TestGuildRankAtLeast(t *testing.T) {
	tests := []struct {
		name    string
		profile *game.Profile
		min     game.GuildRank
		want    game.FailKind // empty = pass
	}{
		{"guildless", &game.Profile{UserID: "u1"}, game.RankMember, game.FailNotGuildMember},
		{"member below officer", &game.Profile{UserID: "u1", GuildID: intPtr(1), GuildRank: game.RankMember}, game.RankOfficer, game.FailWrongGuildRank},
		{"officer at officer", &game.Profile{UserID: "u1", GuildID: intPtr(1), GuildRank: game.RankOfficer}, game.RankOfficer, ""},
		{"leader above officer", &game.Profile{UserID: "u1", GuildID: intPtr(1), GuildRank: game.RankLeader}, game.RankOfficer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := request(tt.profile)
			err := GuildRankAtLeast(tt.min)(context.Background(), r)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			ue, ok := game.AsUserError(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, ue.Kind)
		})
	}
}

func TestIsClass(t *testing.T) {
	r, _ := request(&game.Profile{UserID: "u1", Class: game.ClassThief})

	require.NoError(t, IsClass(game.ClassThief)(context.Background(), r))

	err := IsClass(game.ClassMage)(context.Background(), r)
	ue, _ := game.AsUserError(err)
	assert.Equal(t, game.FailWrongClass, ue.Kind)
}

func TestNotSelf(t *testing.T) {
	r, _ := request(&game.Profile{UserID: "u1"})

	require.NoError(t, NotSelf("u2")(context.Background(), r))
	require.Error(t, NotSelf("u1")(context.Background(), r))
}

func TestTargetHasCharacter(t *testing.T) {
	r, profiles := request(&game.Profile{UserID: "u1"})
	profiles.profiles["u2"] = &game.Profile{UserID: "u2"}

	require.NoError(t, TargetHasCharacter("u2")(context.Background(), r))

	err := TargetHasCharacter("u3")(context.Background(), r)
	ue, ok := game.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, game.FailNoCharacter, ue.Kind)
}

func TestPetAdvanceRunsOncePerRequest(t *testing.T) {
	pets := &fakePets{pet: &game.Pet{UserID: "u1", Food: 100, Drink: 100, Joy: 100, Love: 100, LastCare: time.Now().Add(-3 * time.Hour)}}
	r := NewRequest("u1", "g1", &fakeProfiles{profiles: map[string]*game.Profile{}}, pets)

	p1, err := r.Pet(context.Background())
	require.NoError(t, err)
	assert.Less(t, p1.Food, 100)
	assert.Equal(t, 1, pets.saves)

	p2, err := r.Pet(context.Background())
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, 1, pets.saves, "decay persists exactly once per request")
}
