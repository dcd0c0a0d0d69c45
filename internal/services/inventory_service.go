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

type inventoryServiceImpl struct {
	logger zerolog.Logger
	repo   *repository.InventoryRepository
}

func NewInventoryService(logger zerolog.Logger, repo *repository.InventoryRepository) InventoryService {
	return &inventoryServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *inventoryServiceImpl) GetItem(ctx context.Context, itemID string) (*models.InventoryItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrItemNotFound
		}

		s.logger.Error().
			Err(err).
			Str("item_id", itemID).
			Msg("failed to load inventory item")
		return nil, err
	}
	return item, nil
}

func (s *inventoryServiceImpl) ListItems(ctx context.Context) ([]*models.InventoryItem, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list inventory")
		return nil, err
	}
	return items, nil
}

func (s *inventoryServiceImpl) SearchItems(ctx context.Context, query string) ([]*models.InventoryItem, error) {
	items, err := s.repo.SearchItems(ctx, query)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("query", query).
			Msg("failed to search inventory")
		return nil, err
	}
	return items, nil
}

func (s *inventoryServiceImpl) CreateItem(ctx context.Context, name string, quantity float64, unit string) (*models.InventoryItem, error) {
	item, err := s.repo.CreateItem(ctx, name, quantity, unit, time.Now())
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("name", name).
			Msg("failed to create inventory item")
		return nil, err
	}

	s.logger.Info().
		Str("item_id", item.ID).
		Str("name", item.Name).
		Msg("created inventory item")
	return item, nil
}

func (s *inventoryServiceImpl) AdjustQuantity(ctx context.Context, itemID string, delta float64, unit, userID string) (*models.InventoryItem, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	item.Apply(delta, now)

	err = s.repo.SaveItem(ctx, item)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("item_id", itemID).
			Msg("failed to save inventory item")
		return nil, err
	}

	change := models.NewInventoryChange(item.ID, delta, unit, userID, now)
	err = s.repo.AddChange(ctx, change)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("item_id", itemID).
			Msg("failed to append inventory change")
		return nil, err
	}

	s.logger.Info().
		Str("item_id", item.ID).
		Float64("delta", delta).
		Float64("quantity", item.Quantity).
		Msg("adjusted inventory quantity")
	return item, nil
}

func (s *inventoryServiceImpl) ListChanges(ctx context.Context, itemID string) ([]*models.InventoryChange, error) {
	changes, err := s.repo.ListChanges(ctx, itemID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("item_id", itemID).
			Msg("failed to list inventory changes")
		return nil, err
	}
	return changes, nil
}
