package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/WAzaizeh/ChainFlow/internal/docstore"
	"github.com/WAzaizeh/ChainFlow/internal/models"
)

const (
	ordersCollection     = "orders"
	orderItemsCollection = "order_items"
)

// OrderRepository loads and saves purchase orders and their line items
// through the document store.
type OrderRepository struct {
	logger zerolog.Logger
	store  docstore.Store
}

func NewOrderRepository(logger zerolog.Logger, store docstore.Store) *OrderRepository {
	return &OrderRepository{
		logger: logger,
		store:  store,
	}
}

// CreateOrder opens a new regular draft order for the user.
func (r *OrderRepository) CreateOrder(ctx context.Context, userID string, now time.Time) (*models.Order, error) {
	order := &models.Order{
		ID:        uuid.NewString(),
		Status:    models.OrderStatusDraft,
		Type:      models.OrderTypeRegular,
		CreatedBy: userID,
		CreatedAt: now,
	}

	_, err := r.store.Create(ctx, ordersCollection, order.ID, docstore.Document{
		"status":     order.Status,
		"type":       order.Type,
		"created_by": order.CreatedBy,
		"created_at": order.CreatedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder fetches an order and its line items in the order they were
// added. Returns docstore.ErrNotFound if the order does not exist.
func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	doc, err := r.store.Get(ctx, ordersCollection, orderID)
	if err != nil {
		return nil, err
	}

	order, err := orderFromDoc(doc)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", orderID).
			Msg("malformed order document")
		return nil, err
	}

	order.Items, err = r.getOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders fetches the user's orders, newest first, with line items.
func (r *OrderRepository) ListOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	docs, err := r.store.List(
		ctx,
		ordersCollection,
		[]docstore.Filter{{Field: "created_by", Value: userID}},
		docstore.Order{Field: "created_at", Desc: true},
		docstore.Order{Field: "id", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	orders := make([]*models.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := orderFromDoc(doc)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("malformed order document")
			return nil, err
		}

		order.Items, err = r.getOrderItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// GetDraftOrder returns the user's open draft, or docstore.ErrNotFound
// when there is none. A user holds at most one draft at a time; if
// concurrent writes ever violate that, the newest wins here.
func (r *OrderRepository) GetDraftOrder(ctx context.Context, userID string) (*models.Order, error) {
	docs, err := r.store.List(
		ctx,
		ordersCollection,
		[]docstore.Filter{
			{Field: "created_by", Value: userID},
			{Field: "status", Value: models.OrderStatusDraft},
		},
		docstore.Order{Field: "created_at", Desc: true},
		docstore.Order{Field: "id", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, docstore.ErrNotFound
	}

	order, err := orderFromDoc(docs[0])
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("malformed order document")
		return nil, err
	}

	order.Items, err = r.getOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// AddOrderItem appends one line item to the order.
func (r *OrderRepository) AddOrderItem(ctx context.Context, order *models.Order, productID, productName string, quantity int, notes string, now time.Time) (*models.OrderItem, error) {
	item := &models.OrderItem{
		ID:          uuid.NewString(),
		OrderID:     order.ID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		Notes:       notes,
		CreatedAt:   now,
	}

	_, err := r.store.Create(ctx, orderItemsCollection, item.ID, docstore.Document{
		"order_id":     item.OrderID,
		"product_id":   item.ProductID,
		"product_name": item.ProductName,
		"quantity":     item.Quantity,
		"notes":        item.Notes,
		"created_at":   item.CreatedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return nil, err
	}

	order.Items = append(order.Items, item)
	return item, nil
}

// SaveOrder persists the order's status, type and submission time.
// Line items are append-only and saved on creation.
func (r *OrderRepository) SaveOrder(ctx context.Context, order *models.Order) error {
	doc := docstore.Document{
		"status": order.Status,
		"type":   order.Type,
	}
	if !order.SubmittedAt.IsZero() {
		doc["submitted_at"] = order.SubmittedAt.UTC().Format(timeLayout)
	}

	_, err := r.store.Update(ctx, ordersCollection, order.ID, doc)
	return err
}

// DeleteOrder removes the order and its line items. Items go first so
// a failure partway never leaves orphaned lines behind a live order.
func (r *OrderRepository) DeleteOrder(ctx context.Context, orderID string) error {
	docs, err := r.store.List(
		ctx,
		orderItemsCollection,
		[]docstore.Filter{{Field: "order_id", Value: orderID}},
	)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		id, err := requiredString(doc, "id")
		if err != nil {
			return err
		}
		err = r.store.Delete(ctx, orderItemsCollection, id)
		if err != nil {
			return err
		}
	}

	return r.store.Delete(ctx, ordersCollection, orderID)
}

func (r *OrderRepository) getOrderItems(ctx context.Context, orderID string) ([]*models.OrderItem, error) {
	docs, err := r.store.List(
		ctx,
		orderItemsCollection,
		[]docstore.Filter{{Field: "order_id", Value: orderID}},
		docstore.Order{Field: "created_at"},
		docstore.Order{Field: "id"},
	)
	if err != nil {
		return nil, err
	}

	items := make([]*models.OrderItem, 0, len(docs))
	for _, doc := range docs {
		item, err := orderItemFromDoc(doc)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", orderID).
				Msg("malformed order item document")
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func orderFromDoc(doc docstore.Document) (*models.Order, error) {
	order := &models.Order{}

	var err error
	order.ID, err = requiredString(doc, "id")
	if err != nil {
		return nil, err
	}
	order.Status, err = requiredString(doc, "status")
	if err != nil {
		return nil, err
	}
	order.Type, err = requiredString(doc, "type")
	if err != nil {
		return nil, err
	}
	order.CreatedBy, err = requiredString(doc, "created_by")
	if err != nil {
		return nil, err
	}
	order.CreatedAt, err = timeField(doc, "created_at")
	if err != nil {
		return nil, err
	}
	if raw := stringField(doc, "submitted_at"); raw != "" {
		order.SubmittedAt, err = timeField(doc, "submitted_at")
		if err != nil {
			return nil, err
		}
	}
	return order, nil
}

func orderItemFromDoc(doc docstore.Document) (*models.OrderItem, error) {
	item := &models.OrderItem{Notes: stringField(doc, "notes")}

	var err error
	item.ID, err = requiredString(doc, "id")
	if err != nil {
		return nil, err
	}
	item.OrderID, err = requiredString(doc, "order_id")
	if err != nil {
		return nil, err
	}
	item.ProductID, err = requiredString(doc, "product_id")
	if err != nil {
		return nil, err
	}
	item.ProductName, err = requiredString(doc, "product_name")
	if err != nil {
		return nil, err
	}
	item.Quantity, err = requiredInt(doc, "quantity")
	if err != nil {
		return nil, err
	}
	item.CreatedAt, err = timeField(doc, "created_at")
	if err != nil {
		return nil, err
	}
	return item, nil
}
