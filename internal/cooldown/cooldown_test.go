package cooldown

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, zap.NewNop()), mr
}

func TestAcquireBlocksSecondAttempt(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ok, _, err := s.Acquire(ctx, "user1", "daily", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, remaining, err := s.Acquire(ctx, "user1", "daily", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, remaining, time.Duration(0))
}

func TestAcquireIsPerUserAndCommand(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ok, _, err := s.Acquire(ctx, "user1", "daily", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	// Different user, same command.
	ok, _, err = s.Acquire(ctx, "user2", "daily", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	// Same user, different command.
	ok, _, err = s.Acquire(ctx, "user1", "gamble", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetPermitsImmediateRetry(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ok, _, err := s.Acquire(ctx, "user1", "daily", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Reset(ctx, "user1", "daily"))

	ok, _, err = s.Acquire(ctx, "user1", "daily", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "reset must permit an immediate retry")
}

func TestRemainingAfterExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	ok, _, err := s.Acquire(ctx, "user1", "daily", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Hour)

	remaining, err := s.Remaining(ctx, "user1", "daily")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), remaining)

	ok, _, err = s.Acquire(ctx, "user1", "daily", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConcurrentAcquireExactlyOneWins(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	wins := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := s.Acquire(ctx, "user1", "raid", time.Hour)
			require.NoError(t, err)
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one concurrent attempt may enter the window")
}

func TestFlagMutex(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ok, _, err := s.AcquireFlag(ctx, "raid", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, remaining, err := s.AcquireFlag(ctx, "raid", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Greater(t, remaining, time.Duration(0))

	require.NoError(t, s.ReleaseFlag(ctx, "raid"))

	ok, _, err = s.AcquireFlag(ctx, "raid", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}
