package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAzaizeh/ChainFlow/internal/docstore"
	"github.com/WAzaizeh/ChainFlow/internal/repository"
)

func newInventoryService(t *testing.T) InventoryService {
	t.Helper()
	repo := repository.NewInventoryRepository(zerolog.Nop(), docstore.NewMemoryStore())
	return NewInventoryService(zerolog.Nop(), repo)
}

func TestAdjustQuantityUpdatesItemAndLogsChange(t *testing.T) {
	svc := newInventoryService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, "Olive Oil", 10, "l")
	require.NoError(t, err)

	adjusted, err := svc.AdjustQuantity(ctx, item.ID, 2.5, "l", "u1")
	require.NoError(t, err)
	assert.Equal(t, 12.5, adjusted.Quantity)

	adjusted, err = svc.AdjustQuantity(ctx, item.ID, -3, "l", "u2")
	require.NoError(t, err)
	assert.Equal(t, 9.5, adjusted.Quantity)

	loaded, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 9.5, loaded.Quantity)

	changes, err := svc.ListChanges(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, -3.0, changes[0].QuantityChange, "newest first")
	assert.Equal(t, "u2", changes[0].UserID)
	assert.Equal(t, 2.5, changes[1].QuantityChange)
	assert.Equal(t, "l", changes[1].Unit)
}

func TestAdjustQuantityMissingItem(t *testing.T) {
	svc := newInventoryService(t)

	_, err := svc.AdjustQuantity(context.Background(), "missing", 1, "", "u1")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestAdjustQuantityLeavesOtherItemsAlone(t *testing.T) {
	svc := newInventoryService(t)
	ctx := context.Background()

	flour, err := svc.CreateItem(ctx, "Flour", 20, "kg")
	require.NoError(t, err)
	sugar, err := svc.CreateItem(ctx, "Sugar", 5, "kg")
	require.NoError(t, err)

	_, err = svc.AdjustQuantity(ctx, flour.ID, -4, "kg", "u1")
	require.NoError(t, err)

	untouched, err := svc.GetItem(ctx, sugar.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, untouched.Quantity)

	changes, err := svc.ListChanges(ctx, sugar.ID)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestSearchItemsMatchesSubstring(t *testing.T) {
	svc := newInventoryService(t)
	ctx := context.Background()

	for _, name := range []string{"Whole Milk", "Oat Milk", "Olive Oil"} {
		_, err := svc.CreateItem(ctx, name, 1, "")
		require.NoError(t, err)
	}

	items, err := svc.SearchItems(ctx, "milk")
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, err = svc.SearchItems(ctx, "OIL")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Olive Oil", items[0].Name)

	items, err = svc.SearchItems(ctx, "butter")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListItemsSortedByName(t *testing.T) {
	svc := newInventoryService(t)
	ctx := context.Background()

	for _, name := range []string{"Sugar", "Flour", "Yeast"} {
		_, err := svc.CreateItem(ctx, name, 1, "kg")
		require.NoError(t, err)
	}

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"Flour", "Sugar", "Yeast"}, names)
}
