package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, DefaultTTL), mr
}

func TestRedisStore_ExistsAfterMark(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	const fp = "aabbccddeeff"

	seen, err := store.Exists(ctx, fp)
	require.NoError(t, err)
	require.False(t, seen)

	require.NoError(t, store.Mark(ctx, fp))

	seen, err = store.Exists(ctx, fp)
	require.NoError(t, err)
	require.True(t, seen)
}

func TestRedisStore_EntryExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	const fp = "0011223344"

	require.NoError(t, store.Mark(ctx, fp))

	mr.FastForward(DefaultTTL + time.Minute)

	seen, err := store.Exists(ctx, fp)
	require.NoError(t, err)
	require.False(t, seen)
}

func TestRedisStore_FingerprintsAreIndependent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Mark(ctx, "first"))

	seen, err := store.Exists(ctx, "second")
	require.NoError(t, err)
	require.False(t, seen)
}
