package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ashenrealm/internal/command"
	"ashenrealm/internal/config"
	"ashenrealm/internal/cooldown"
	"ashenrealm/internal/game"
	"ashenrealm/internal/prompt"
	"ashenrealm/pkg/cmd"
)

type stub struct {
	name string
	run  func(ctx context.Context, inv *cmd.Invocation) error
}

func (s *stub) Name() string        { return s.name }
func (s *stub) Description() string { return "stub" }
func (s *stub) Run(ctx context.Context, inv *cmd.Invocation) error {
	if s.run == nil {
		return nil
	}
	return s.run(ctx, inv)
}

type cooledStub struct {
	stub
	cd time.Duration
}

func (s *cooledStub) Cooldown() time.Duration { return s.cd }

type devStub struct{ stub }

func (s *devStub) RequireDev() bool { return true }

func slashInvocation(t *testing.T, userID, guildID string) *cmd.Invocation {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	sc := &command.SlashContext{
		Event: &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			GuildID: guildID,
			Member:  &discordgo.Member{User: &discordgo.User{ID: userID}},
		}},
		Deps: &command.Deps{
			Cooldowns: cooldown.New(rdb, zap.NewNop()),
			Cfg:       &config.Config{DeveloperID: "dev"},
			Log:       zap.NewNop(),
		},
	}
	return &cmd.Invocation{Data: sc}
}

func TestWithRecoveryConvertsPanic(t *testing.T) {
	c := WithRecovery(&stub{name: "boom", run: func(context.Context, *cmd.Invocation) error {
		panic("kaboom")
	}})

	err := c.Run(context.Background(), slashInvocation(t, "u1", "g1"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestWithGuildOnlyRejectsDMs(t *testing.T) {
	c := WithGuildOnly(&stub{name: "pray"})

	err := c.Run(context.Background(), slashInvocation(t, "u1", ""))
	_, ok := game.AsUserError(err)
	assert.True(t, ok)

	require.NoError(t, c.Run(context.Background(), slashInvocation(t, "u1", "g1")))
}

func TestWithDevOnly(t *testing.T) {
	c := WithDevOnly(&devStub{stub{name: "admin"}})

	err := c.Run(context.Background(), slashInvocation(t, "mortal", "g1"))
	_, ok := game.AsUserError(err)
	assert.True(t, ok)

	require.NoError(t, c.Run(context.Background(), slashInvocation(t, "dev", "g1")))
}

func TestWithDevOnlySeesThroughWrappers(t *testing.T) {
	// DevGated lives on the root; the check must survive extra wrapping.
	c := cmd.Apply(&devStub{stub{name: "admin"}}, WithDevOnly, WithRecovery)

	err := c.Run(context.Background(), slashInvocation(t, "mortal", "g1"))
	_, ok := game.AsUserError(err)
	assert.True(t, ok)
}

func TestWithCooldownBlocksSecondInvocation(t *testing.T) {
	c := WithCooldown(&cooledStub{stub{name: "daily"}, time.Hour})
	inv := slashInvocation(t, "u1", "g1")

	require.NoError(t, c.Run(context.Background(), inv))

	err := c.Run(context.Background(), inv)
	ue, ok := game.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, game.FailOnCooldown, ue.Kind)
}

func TestWithCooldownReleasesClaimOnRefusal(t *testing.T) {
	calls := 0
	c := WithCooldown(&cooledStub{stub{name: "gamble", run: func(context.Context, *cmd.Invocation) error {
		calls++
		if calls == 1 {
			return game.InsufficientFunds(100, 5)
		}
		return nil
	}}, time.Hour})
	inv := slashInvocation(t, "u1", "g1")

	err := c.Run(context.Background(), inv)
	_, ok := game.AsUserError(err)
	require.True(t, ok)

	// The refusal released the claim; the retry runs immediately.
	require.NoError(t, c.Run(context.Background(), inv))
	assert.Equal(t, 2, calls)
}

func TestWithCooldownReleasesClaimOnPromptTimeout(t *testing.T) {
	calls := 0
	c := WithCooldown(&cooledStub{stub{name: "marry", run: func(context.Context, *cmd.Invocation) error {
		calls++
		if calls == 1 {
			return fmt.Errorf("await answer: %w", prompt.ErrTimeout)
		}
		return nil
	}}, time.Hour})
	inv := slashInvocation(t, "u1", "g1")

	require.ErrorIs(t, c.Run(context.Background(), inv), prompt.ErrTimeout)

	// The counterparty's silence must not cost the initiator the cooldown.
	require.NoError(t, c.Run(context.Background(), inv))
	assert.Equal(t, 2, calls)
}

func TestWithCooldownKeepsClaimOnInternalError(t *testing.T) {
	c := WithCooldown(&cooledStub{stub{name: "raid", run: func(context.Context, *cmd.Invocation) error {
		return errors.New("db on fire")
	}}, time.Hour})
	inv := slashInvocation(t, "u1", "g1")

	require.Error(t, c.Run(context.Background(), inv))

	err := c.Run(context.Background(), inv)
	ue, ok := game.AsUserError(err)
	require.True(t, ok, "internal failures do not refund the cooldown")
	assert.Equal(t, game.FailOnCooldown, ue.Kind)
}

func TestWithCooldownIgnoresUncooledCommands(t *testing.T) {
	c := WithCooldown(&stub{name: "profile"})
	inv := slashInvocation(t, "u1", "g1")

	require.NoError(t, c.Run(context.Background(), inv))
	require.NoError(t, c.Run(context.Background(), inv))
}
