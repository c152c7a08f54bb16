package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/pangea/pkg/adapters/redis"
	"github.com/aretw0/pangea/pkg/domain"
	"github.com/aretw0/pangea/pkg/ports"
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

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Snapshot{UIID: "ui-ttl", Version: 1, JSON: `{"props":{},"children":[]}`}))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "ui-ttl")

	// miniredis expires keys on FastForward; the index is pruned against the wall clock.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "ui-ttl")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.Snapshot{UIID: "my-modal", Version: 2}))

	assert.True(t, mr.Exists("custom:app:modal:my-modal"), "snapshot key should carry the custom prefix")
	assert.True(t, mr.Exists("custom:app:modal-index"), "index should carry the custom prefix")

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"my-modal"}, ids)
}

func TestRedisStore_StoresWireTree(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)

	snap := &domain.Snapshot{UIID: "ui-1", Version: 3, JSON: `{"props":{"title":"my title"},"children":[]}`}
	require.NoError(t, store.Save(context.Background(), snap))

	raw, err := mr.Get(redis.DefaultPrefix + "modal:ui-1")
	require.NoError(t, err)
	assert.Contains(t, raw, `"ui_id":"ui-1"`)
	assert.Contains(t, raw, `"version":3`)
}

func TestRedisStore_ServerDown(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, store.Save(ctx, &domain.Snapshot{UIID: "ui-1"}))

	_, err := store.Load(ctx, "ui-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
