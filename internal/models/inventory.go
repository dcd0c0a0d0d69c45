package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem is one counted stock item. Quantity is kept in the
// item's own unit; converting between units is not this layer's job.
type InventoryItem struct {
	ID          string
	Name        string
	Quantity    float64
	Unit        string
	LastUpdated time.Time
}

// Apply adds a signed quantity change and stamps the item.
func (i *InventoryItem) Apply(delta float64, now time.Time) {
	i.Quantity += delta
	i.LastUpdated = now
}

// InventoryChange is one append-only count adjustment record. Like
// task history, changes are never mutated after the fact.
type InventoryChange struct {
	ID             string
	ItemID         string
	QuantityChange float64
	Unit           string
	Timestamp      time.Time
	UserID         string
}

func NewInventoryChange(itemID string, delta float64, unit, userID string, at time.Time) *InventoryChange {
	return &InventoryChange{
		ID:             uuid.NewString(),
		ItemID:         itemID,
		QuantityChange: delta,
		Unit:           unit,
		Timestamp:      at,
		UserID:         userID,
	}
}
