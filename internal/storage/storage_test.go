package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseforge-portal/internal/storage"
)

func exerciseStore(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "user")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetAll(ctx, map[string]string{"user": `{"id":1}`, "token": "jwt"}))

	value, ok, err := store.Get(ctx, "user")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"id":1}`, value)

	require.NoError(t, store.Delete(ctx, "user", "token"))
	_, ok, err = store.Get(ctx, "token")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, storage.NewMemory())
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")

	store, err := storage.OpenBolt(path)
	require.NoError(t, err)
	exerciseStore(t, store)

	require.NoError(t, store.SetAll(context.Background(), map[string]string{"token": "persisted"}))
	require.NoError(t, store.Close())

	reopened, err := storage.OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get(context.Background(), "token")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "persisted", value)
}

func TestRedisStoreUsesNamespace(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := storage.Open(context.Background(), storage.Config{
		Driver:    storage.DriverRedis,
		RedisURL:  "redis://" + mr.Addr(),
		Namespace: "portal-test",
	})
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)

	require.NoError(t, store.SetAll(context.Background(), map[string]string{"token": "jwt"}))
	value, err := mr.Get("portal-test:token")
	require.NoError(t, err)
	require.Equal(t, "jwt", value)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := storage.Open(context.Background(), storage.Config{Driver: "localstorage"})
	require.Error(t, err)
}

func TestOpenRedisRequiresURL(t *testing.T) {
	_, err := storage.Open(context.Background(), storage.Config{Driver: storage.DriverRedis})
	require.Error(t, err)
}
