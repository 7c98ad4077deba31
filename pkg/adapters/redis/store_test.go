package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/homeview/pkg/adapters/redis"
	"github.com/aretw0/homeview/pkg/domain"
	"github.com/aretw0/homeview/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSnapshotStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_New(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := redis.New("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), "default", domain.ActionState{Name: "Ada"}))
	assert.True(t, mr.Exists(redis.DefaultPrefix+"default"))

	_, err = redis.New("://not a url")
	assert.Error(t, err)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "short-lived", domain.ActionState{Action: domain.ActionOpenMenu}))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "short-lived")

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "short-lived")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	// The index is pruned against wall-clock time.
	time.Sleep(1200 * time.Millisecond)

	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "kiosk", domain.ActionState{Name: "Grace"}))

	assert.True(t, mr.Exists("custom:app:kiosk"))
	assert.True(t, mr.Exists("custom:app:index"))

	raw, err := mr.Get("custom:app:kiosk")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Grace"}`, raw)
}
