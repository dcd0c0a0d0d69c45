package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/WAzaizeh/ChainFlow/internal/docstore"
	"github.com/WAzaizeh/ChainFlow/internal/models"
)

const (
	inventoryCollection        = "inventory"
	inventoryChangesCollection = "inventory_changes"
)

// Name search returns at most this many items.
const searchLimit = 10

// InventoryRepository loads and saves stock items and their adjustment
// log through the document store.
type InventoryRepository struct {
	logger zerolog.Logger
	store  docstore.Store
}

func NewInventoryRepository(logger zerolog.Logger, store docstore.Store) *InventoryRepository {
	return &InventoryRepository{
		logger: logger,
		store:  store,
	}
}

// GetItem returns docstore.ErrNotFound if the item does not exist.
func (r *InventoryRepository) GetItem(ctx context.Context, itemID string) (*models.InventoryItem, error) {
	doc, err := r.store.Get(ctx, inventoryCollection, itemID)
	if err != nil {
		return nil, err
	}

	item, err := inventoryItemFromDoc(doc)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("item_id", itemID).
			Msg("malformed inventory document")
		return nil, err
	}
	return item, nil
}

// ListItems returns every stock item ordered by name.
func (r *InventoryRepository) ListItems(ctx context.Context) ([]*models.InventoryItem, error) {
	docs, err := r.store.List(ctx, inventoryCollection, nil, docstore.Order{Field: "name"})
	if err != nil {
		return nil, err
	}

	items := make([]*models.InventoryItem, 0, len(docs))
	for _, doc := range docs {
		item, err := inventoryItemFromDoc(doc)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("malformed inventory document")
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// SearchItems matches item names case-insensitively on a substring.
// The document store only filters on equality, so matching happens
// here over the full listing; inventories are small enough for that.
func (r *InventoryRepository) SearchItems(ctx context.Context, query string) ([]*models.InventoryItem, error) {
	items, err := r.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	matched := make([]*models.InventoryItem, 0, searchLimit)
	for _, item := range items {
		if !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		matched = append(matched, item)
		if len(matched) == searchLimit {
			break
		}
	}
	return matched, nil
}

func (r *InventoryRepository) CreateItem(ctx context.Context, name string, quantity float64, unit string, now time.Time) (*models.InventoryItem, error) {
	item := &models.InventoryItem{
		ID:          uuid.NewString(),
		Name:        name,
		Quantity:    quantity,
		Unit:        unit,
		LastUpdated: now,
	}

	_, err := r.store.Create(ctx, inventoryCollection, item.ID, docstore.Document{
		"name":         item.Name,
		"quantity":     item.Quantity,
		"unit":         item.Unit,
		"last_updated": item.LastUpdated.UTC().Format(timeLayout),
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// SaveItem persists the item's quantity. Last write wins, same as
// task saves.
func (r *InventoryRepository) SaveItem(ctx context.Context, item *models.InventoryItem) error {
	_, err := r.store.Update(ctx, inventoryCollection, item.ID, docstore.Document{
		"quantity":     item.Quantity,
		"last_updated": item.LastUpdated.UTC().Format(timeLayout),
	})
	return err
}

// AddChange appends one adjustment record. Synchronous, like history:
// the adjustment is durable before the caller reports success.
func (r *InventoryRepository) AddChange(ctx context.Context, change *models.InventoryChange) error {
	doc := docstore.Document{
		"item_id":         change.ItemID,
		"quantity_change": change.QuantityChange,
		"timestamp":       change.Timestamp.UTC().Format(timeLayout),
		"user_id":         change.UserID,
	}
	if change.Unit != "" {
		doc["unit_change"] = change.Unit
	}

	_, err := r.store.Create(ctx, inventoryChangesCollection, change.ID, doc)
	return err
}

// ListChanges returns the item's adjustment log, newest first, with
// the same id tiebreak as task history.
func (r *InventoryRepository) ListChanges(ctx context.Context, itemID string) ([]*models.InventoryChange, error) {
	docs, err := r.store.List(
		ctx,
		inventoryChangesCollection,
		[]docstore.Filter{{Field: "item_id", Value: itemID}},
		docstore.Order{Field: "timestamp", Desc: true},
		docstore.Order{Field: "id", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	changes := make([]*models.InventoryChange, 0, len(docs))
	for _, doc := range docs {
		change, err := inventoryChangeFromDoc(doc)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("item_id", itemID).
				Msg("malformed inventory change document")
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func inventoryItemFromDoc(doc docstore.Document) (*models.InventoryItem, error) {
	item := &models.InventoryItem{Unit: stringField(doc, "unit")}

	var err error
	item.ID, err = requiredString(doc, "id")
	if err != nil {
		return nil, err
	}
	item.Name, err = requiredString(doc, "name")
	if err != nil {
		return nil, err
	}
	item.Quantity, err = requiredFloat(doc, "quantity")
	if err != nil {
		return nil, err
	}
	item.LastUpdated, err = timeField(doc, "last_updated")
	if err != nil {
		return nil, err
	}
	return item, nil
}

func inventoryChangeFromDoc(doc docstore.Document) (*models.InventoryChange, error) {
	change := &models.InventoryChange{Unit: stringField(doc, "unit_change")}

	var err error
	change.ID, err = requiredString(doc, "id")
	if err != nil {
		return nil, err
	}
	change.ItemID, err = requiredString(doc, "item_id")
	if err != nil {
		return nil, err
	}
	change.QuantityChange, err = requiredFloat(doc, "quantity_change")
	if err != nil {
		return nil, err
	}
	change.UserID = stringField(doc, "user_id")
	change.Timestamp, err = timeField(doc, "timestamp")
	if err != nil {
		return nil, err
	}
	return change, nil
}

func requiredFloat(doc docstore.Document, field string) (float64, error) {
	switch v := doc[field].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("missing required field %q", field)
	}
}
