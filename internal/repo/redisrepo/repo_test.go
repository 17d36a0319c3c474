package redisrepo

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/geocoder89/dogwalker/internal/domain/pet"
	"github.com/geocoder89/dogwalker/internal/domain/user"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedis needs a live server; TEST_REDIS_ADDR=127.0.0.1:6379 enables it.
func setupRedis(t *testing.T) (*redis.Client, string) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())

	prefix := "dogwalker-test-" + uuid.NewString() + ":"

	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := rdb.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
		_ = rdb.Close()
	})

	return rdb, prefix
}

func TestUsersRepo_CreateFindAndDuplicate(t *testing.T) {
	rdb, prefix := setupRedis(t)
	ctx := context.Background()
	r := NewUsersRepo(rdb, prefix)

	require.NoError(t, r.Create(ctx, user.New("alice@example.com", "hash-1", false)))
	require.ErrorIs(t, r.Create(ctx, user.New("alice@example.com", "hash-2", true)), user.ErrEmailTaken)

	got, err := r.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", got.PasswordHash)
	assert.False(t, got.IsWalker)

	ok, err := r.Exists(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.FindByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_ConcurrentCreateHasOneWinner(t *testing.T) {
	rdb, prefix := setupRedis(t)
	ctx := context.Background()
	r := NewUsersRepo(rdb, prefix)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Create(ctx, user.New("race@example.com", "h", false)) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}

func TestUsersRepo_SetWalkerFlag(t *testing.T) {
	rdb, prefix := setupRedis(t)
	ctx := context.Background()
	r := NewUsersRepo(rdb, prefix)

	require.ErrorIs(t, r.SetWalkerFlag(ctx, "ghost@example.com", true), user.ErrNotFound)

	require.NoError(t, r.Create(ctx, user.New("alice@example.com", "h", false)))
	require.NoError(t, r.SetWalkerFlag(ctx, "alice@example.com", true))

	got, err := r.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, got.IsWalker)
	assert.Equal(t, "h", got.PasswordHash)
}

func TestPetsRepo_ListByOwner(t *testing.T) {
	rdb, prefix := setupRedis(t)
	ctx := context.Background()
	r := NewPetsRepo(rdb, prefix)

	require.NoError(t, r.Create(ctx, pet.New("alice@example.com", "Rex", "Labrador", "3")))
	require.NoError(t, r.Create(ctx, pet.New("bob@example.com", "Fido", "Pug", "2")))

	pets, err := r.ListByOwner(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, []pet.Summary{{Name: "Rex", Age: "3", Breed: "Labrador"}}, pet.Summaries(pets))

	none, err := r.ListByOwner(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.Empty(t, none)
}
