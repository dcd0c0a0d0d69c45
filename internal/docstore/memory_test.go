package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "things", "a", Document{"name": "first"})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "things", "a")
	require.NoError(t, err)
	assert.Equal(t, "first", doc["name"])
	assert.Equal(t, "a", doc["id"])

	// Update merges the supplied fields over the stored payload.
	_, err = store.Update(ctx, "things", "a", Document{"extra": true})
	require.NoError(t, err)
	doc, err = store.Get(ctx, "things", "a")
	require.NoError(t, err)
	assert.Equal(t, "first", doc["name"])
	assert.Equal(t, true, doc["extra"])

	require.NoError(t, store.Delete(ctx, "things", "a"))
	_, err = store.Get(ctx, "things", "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "things", "a"), ErrNotFound)
}

func TestMemoryStoreCreateConflict(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "things", "a", Document{})
	require.NoError(t, err)
	_, err = store.Create(ctx, "things", "a", Document{})
	assert.Error(t, err)
}

func TestMemoryStoreListFiltersAndOrders(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "items", "x", Document{"group": "g1", "rank": 2})
	require.NoError(t, err)
	_, err = store.Create(ctx, "items", "y", Document{"group": "g1", "rank": 1})
	require.NoError(t, err)
	_, err = store.Create(ctx, "items", "z", Document{"group": "g2", "rank": 3})
	require.NoError(t, err)

	docs, err := store.List(ctx, "items", []Filter{{Field: "group", Value: "g1"}}, Order{Field: "rank"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "y", docs[0]["id"])
	assert.Equal(t, "x", docs[1]["id"])

	docs, err = store.List(ctx, "items", nil, Order{Field: "rank", Desc: true})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "z", docs[0]["id"])
}

func TestMemoryStoreListSecondaryOrderBreaksTies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Create(ctx, "items", "b", Document{"rank": 1, "name": "beta"})
	require.NoError(t, err)
	_, err = store.Create(ctx, "items", "c", Document{"rank": 1, "name": "gamma"})
	require.NoError(t, err)
	_, err = store.Create(ctx, "items", "a", Document{"rank": 2, "name": "alpha"})
	require.NoError(t, err)

	docs, err := store.List(ctx, "items", nil,
		Order{Field: "rank", Desc: true},
		Order{Field: "name", Desc: true},
	)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0]["id"])
	assert.Equal(t, "c", docs[1]["id"])
	assert.Equal(t, "b", docs[2]["id"])
}

func TestMemoryStoreCopiesDocuments(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	in := Document{"name": "original"}
	_, err := store.Create(ctx, "things", "a", in)
	require.NoError(t, err)

	in["name"] = "mutated"
	doc, err := store.Get(ctx, "things", "a")
	require.NoError(t, err)
	assert.Equal(t, "original", doc["name"])

	doc["name"] = "mutated again"
	doc, err = store.Get(ctx, "things", "a")
	require.NoError(t, err)
	assert.Equal(t, "original", doc["name"])
}
