package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/WAzaizeh/ChainFlow/internal/docstore"
	"github.com/WAzaizeh/ChainFlow/internal/models"
	"github.com/WAzaizeh/ChainFlow/internal/repository"
)

type orderServiceImpl struct {
	logger    zerolog.Logger
	repo      *repository.OrderRepository
	inventory *repository.InventoryRepository
}

func NewOrderService(
	logger zerolog.Logger,
	repo *repository.OrderRepository,
	inventory *repository.InventoryRepository,
) OrderService {
	return &orderServiceImpl{
		logger:    logger,
		repo:      repo,
		inventory: inventory,
	}
}

func (s *orderServiceImpl) StartOrder(ctx context.Context, userID string) (*models.Order, error) {
	_, err := s.repo.GetDraftOrder(ctx, userID)
	if err == nil {
		return nil, ErrDraftOrderExists
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to look up draft order")
		return nil, err
	}

	order, err := s.repo.CreateOrder(ctx, userID, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to create order")
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", userID).
		Msg("started draft order")
	return order, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrOrderNotFound
		}

		s.logger.Error().
			Err(err).
			Str("order_id", orderID).
			Msg("failed to load order")
		return nil, err
	}
	return order, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	orders, err := s.repo.ListOrders(ctx, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to list orders")
		return nil, err
	}
	return orders, nil
}

func (s *orderServiceImpl) AddOrderItem(ctx context.Context, orderID, productID string, quantity int, notes string) (*models.OrderItem, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsDraft() {
		return nil, ErrOrderNotDraft
	}

	product, err := s.inventory.GetItem(ctx, productID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrItemNotFound
		}

		s.logger.Error().
			Err(err).
			Str("product_id", productID).
			Msg("failed to load product")
		return nil, err
	}

	item, err := s.repo.AddOrderItem(ctx, order, product.ID, product.Name, quantity, notes, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", orderID).
			Str("product_id", productID).
			Msg("failed to add order item")
		return nil, err
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("order_item_id", item.ID).
		Msg("added order item")
	return item, nil
}

func (s *orderServiceImpl) SubmitOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsDraft() {
		return nil, ErrOrderNotDraft
	}

	order.Status = models.OrderStatusSubmitted
	order.SubmittedAt = time.Now()

	err = s.repo.SaveOrder(ctx, order)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", orderID).
			Msg("failed to submit order")
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Int("items", len(order.Items)).
		Msg("submitted order")
	return order, nil
}

func (s *orderServiceImpl) UpdateOrderType(ctx context.Context, orderID, orderType string) (*models.Order, error) {
	if !models.ValidOrderType(orderType) {
		return nil, ErrInvalidOrderType
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.Type = orderType
	err = s.repo.SaveOrder(ctx, order)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", orderID).
			Msg("failed to update order type")
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("type", order.Type).
		Msg("updated order type")
	return order, nil
}

func (s *orderServiceImpl) DeleteOrder(ctx context.Context, orderID string) error {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.IsDraft() {
		return ErrOrderNotDraft
	}

	err = s.repo.DeleteOrder(ctx, orderID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", orderID).
			Msg("failed to delete order")
		return err
	}

	s.logger.Info().
		Str("order_id", orderID).
		Msg("deleted draft order")
	return nil
}
