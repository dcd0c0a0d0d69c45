package models

import "time"

const (
	OrderStatusDraft      = "draft"
	OrderStatusSubmitted  = "submitted"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

const (
	OrderTypeRegular = "regular"
	OrderTypeUrgent  = "urgent"
	OrderTypeSpecial = "special"
)

func ValidOrderType(orderType string) bool {
	switch orderType {
	case OrderTypeRegular, OrderTypeUrgent, OrderTypeSpecial:
		return true
	default:
		return false
	}
}

// Order is a purchase order owned by the user who opened it. It starts
// as a draft; items can only be added and the order deleted while it
// stays one. Submitting freezes the line items.
type Order struct {
	ID        string
	Status    string
	Type      string
	Items     []*OrderItem
	CreatedBy string
	CreatedAt time.Time
	// SubmittedAt stays zero until the draft is submitted.
	SubmittedAt time.Time
}

func (o *Order) IsDraft() bool {
	return o.Status == OrderStatusDraft
}

// OrderItem is one line of an order. ProductName is a snapshot of the
// inventory item's name at the time the line was added, so later
// renames do not rewrite submitted orders.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Quantity    int
	Notes       string
	CreatedAt   time.Time
}
