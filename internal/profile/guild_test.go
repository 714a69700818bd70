package profile

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ashenrealm/internal/game"
	"ashenrealm/internal/store"
)

// Guild founding moves money and inserts rows in one transaction, so it can
// only be exercised against a real database. Set POSTGRES_TEST_DSN to run.
func testRepo(t *testing.T) (*Repository, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	require.NoError(t, store.Migrate(dsn, zap.NewNop()))

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return New(pool, zap.NewNop()), pool
}

func seedProfile(t *testing.T, repo *Repository, pool *pgxpool.Pool, money int64) string {
	t.Helper()
	ctx := context.Background()
	userID := uuid.NewString()
	require.NoError(t, repo.Create(ctx, &game.Profile{
		UserID: userID, Name: "Tester", Money: money, Class: game.ClassWarrior,
	}))
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	})
	return userID
}

func TestCreateGuildChargesFeeInOneTransaction(t *testing.T) {
	repo, pool := testRepo(t)
	ctx := context.Background()

	founder := seedProfile(t, repo, pool, 600)
	name := "Pact of " + uuid.NewString()[:8]
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM guilds WHERE name = $1`, name)
	})

	g, err := repo.CreateGuild(ctx, name, founder, 500)
	require.NoError(t, err)

	p, err := repo.Get(ctx, founder)
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.Money, "fee charged exactly once")
	require.NotNil(t, p.GuildID)
	assert.Equal(t, g.ID, *p.GuildID)
	assert.Equal(t, game.RankLeader, p.GuildRank)

	// A rival founding under the same name loses nothing: the unique-name
	// violation rolls the fee back along with the charter.
	rival := seedProfile(t, repo, pool, 600)
	_, err = repo.CreateGuild(ctx, name, rival, 500)
	require.ErrorIs(t, err, game.ErrGuildExists)

	rp, err := repo.Get(ctx, rival)
	require.NoError(t, err)
	assert.Equal(t, int64(600), rp.Money, "failed founding keeps the fee in the pouch")
	assert.Nil(t, rp.GuildID)
}

func TestCreateGuildRefusesOverdraw(t *testing.T) {
	repo, pool := testRepo(t)
	ctx := context.Background()

	pauper := seedProfile(t, repo, pool, 100)
	_, err := repo.CreateGuild(ctx, "Beggars of "+uuid.NewString()[:8], pauper, 500)
	require.ErrorIs(t, err, game.ErrInsufficientBalance)

	p, err := repo.Get(ctx, pauper)
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.Money)
}
