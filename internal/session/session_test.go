package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ashenrealm/internal/game"
)

func blockUntilCancelled(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func TestStartRejectsDuplicateSlot(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	require.NoError(t, r.Start("trade", "u1", nil, blockUntilCancelled))

	err := r.Start("trade", "u1", nil, blockUntilCancelled)
	ue, ok := game.AsUserError(err)
	require.True(t, ok)
	assert.Equal(t, game.FailSessionActive, ue.Kind)

	// Same user, different kind is a different slot.
	require.NoError(t, r.Start("raid", "u1", nil, blockUntilCancelled))
}

func TestSlotReleasedWhenRunReturns(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	done := make(chan struct{})
	require.NoError(t, r.Start("trade", "u1", nil, func(context.Context) error {
		close(done)
		return nil
	}))
	<-done

	require.Eventually(t, func() bool {
		return r.Start("trade", "u1", nil, blockUntilCancelled) == nil
	}, time.Second, time.Millisecond)
}

func TestStopCancelsRun(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	cancelled := make(chan struct{})
	require.NoError(t, r.Start("raid", "g1", nil, func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}))

	require.True(t, r.Stop("raid", "g1"))
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("run never observed cancellation")
	}

	assert.False(t, r.Stop("raid", "g1"), "second stop finds nothing")
}

func TestGetAndList(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	require.NoError(t, r.Start("trade", "u1", "state", blockUntilCancelled))

	s, ok := r.Get("trade", "u1")
	require.True(t, ok)
	assert.Equal(t, "state", s.Value)

	_, ok = r.Get("trade", "u2")
	assert.False(t, ok)

	assert.Len(t, r.List(), 1)
}
