package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestMongo(t *testing.T) (*MongoBackend, func()) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongo(ctx, uri, "testdb")
	require.NoError(t, err)

	backend := NewMongoBackend(db)
	require.NoError(t, backend.CreateIndexes(ctx))

	cleanup := func() {
		_ = db.Client().Disconnect(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return backend, cleanup
}

func TestMongoLoad_NotFound(t *testing.T) {
	backend, cleanup := setupTestMongo(t)
	defer cleanup()

	data, err := backend.Load(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, data)
}

func TestMongoSave_UpsertsDocument(t *testing.T) {
	backend, cleanup := setupTestMongo(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, backend.Save(ctx, "wishlist:u1", []byte(`[{"id":"1"}]`)))
	require.NoError(t, backend.Save(ctx, "wishlist:u1", []byte(`[{"id":"2"}]`)))

	data, err := backend.Load(ctx, "wishlist:u1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"2"}]`, string(data))
}

func TestMongoDelete(t *testing.T) {
	backend, cleanup := setupTestMongo(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, backend.Save(ctx, "wishlist:u1", []byte(`[]`)))
	require.NoError(t, backend.Delete(ctx, "wishlist:u1"))
	require.NoError(t, backend.Delete(ctx, "wishlist:u1"))

	_, err := backend.Load(ctx, "wishlist:u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersistentList_MongoRoundTrip(t *testing.T) {
	backend, cleanup := setupTestMongo(t)
	defer cleanup()
	ctx := context.Background()

	list := NewPersistentList[entry](backend, "wishlist:u1")
	require.NoError(t, list.Upsert(ctx, entry{ID: "1", Name: "Chair"}))
	require.NoError(t, list.Upsert(ctx, entry{ID: "2", Name: "Desk"}))

	reloaded := NewPersistentList[entry](backend, "wishlist:u1")
	assert.Equal(t, []entry{{ID: "1", Name: "Chair"}, {ID: "2", Name: "Desk"}}, reloaded.List(ctx))
}

func TestMongoContextCancellation(t *testing.T) {
	backend, cleanup := setupTestMongo(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // Ensure context is cancelled

	_, err := backend.Load(ctx, "wishlist:u1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}
