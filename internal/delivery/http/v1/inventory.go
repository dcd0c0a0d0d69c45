package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/WAzaizeh/ChainFlow/internal/models"
	"github.com/WAzaizeh/ChainFlow/internal/services"
)

type inventoryItemResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Quantity    float64   `json:"quantity"`
	Unit        string    `json:"unit,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

func newInventoryItemResponse(item *models.InventoryItem) inventoryItemResponse {
	return inventoryItemResponse{
		ID:          item.ID,
		Name:        item.Name,
		Quantity:    item.Quantity,
		Unit:        item.Unit,
		LastUpdated: item.LastUpdated,
	}
}

func (h *handlerImpl) HandleListInventory(c *gin.Context) {
	items, err := h.inventory.ListItems(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list inventory")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]inventoryItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, newInventoryItemResponse(item))
	}
	c.JSON(http.StatusOK, response)
}

// HandleSearchInventory answers name lookups from the order and count
// forms. Queries shorter than two characters match nothing.
func (h *handlerImpl) HandleSearchInventory(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 2 {
		c.JSON(http.StatusOK, []inventoryItemResponse{})
		return
	}

	items, err := h.inventory.SearchItems(c, query)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("query", query).
			Msg("failed to search inventory")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]inventoryItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, newInventoryItemResponse(item))
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetInventoryItem(c *gin.Context) {
	item, err := h.inventory.GetItem(c, c.Param("id"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("item_id", c.Param("id")).
			Msg("failed to load inventory item")
		if errors.Is(err, services.ErrItemNotFound) {
			abort(c, newNotFoundError(services.ErrItemNotFound.Error()))
			return
		}
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, newInventoryItemResponse(item))
}

type createInventoryItemRequest struct {
	Name     string  `json:"name" form:"name" binding:"required,max=255"`
	Quantity float64 `json:"quantity" form:"quantity"`
	Unit     string  `json:"unit" form:"unit" binding:"max=64"`
}

func (h *handlerImpl) HandleCreateInventoryItem(c *gin.Context) {
	var req createInventoryItemRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	item, err := h.inventory.CreateItem(c, strings.TrimSpace(req.Name), req.Quantity, strings.TrimSpace(req.Unit))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create inventory item")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusCreated, newInventoryItemResponse(item))
}

type adjustInventoryRequest struct {
	Quantity float64 `json:"quantity" form:"quantity"`
	Unit     string  `json:"unit" form:"unit" binding:"max=64"`
}

// HandleAdjustInventory applies a signed count change. A zero delta is
// rejected so the adjustment log never records non-changes.
func (h *handlerImpl) HandleAdjustInventory(c *gin.Context) {
	userID, ok := h.contextUserID(c)
	if !ok {
		return
	}

	var req adjustInventoryRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	if req.Quantity == 0 {
		abort(c, newBadRequestError("no quantity change specified"))
		return
	}

	item, err := h.inventory.AdjustQuantity(c, c.Param("id"), req.Quantity, strings.TrimSpace(req.Unit), userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("item_id", c.Param("id")).
			Msg("failed to adjust inventory")
		if errors.Is(err, services.ErrItemNotFound) {
			abort(c, newNotFoundError(services.ErrItemNotFound.Error()))
			return
		}
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, newInventoryItemResponse(item))
}

type inventoryChangeResponse struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"item_id"`
	QuantityChange float64   `json:"quantity_change"`
	Unit           string    `json:"unit,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	UserID         string    `json:"user_id"`
}

func (h *handlerImpl) HandleInventoryChanges(c *gin.Context) {
	changes, err := h.inventory.ListChanges(c, c.Param("id"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("item_id", c.Param("id")).
			Msg("failed to list inventory changes")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]inventoryChangeResponse, 0, len(changes))
	for _, change := range changes {
		response = append(response, inventoryChangeResponse{
			ID:             change.ID,
			ItemID:         change.ItemID,
			QuantityChange: change.QuantityChange,
			Unit:           change.Unit,
			Timestamp:      change.Timestamp,
			UserID:         change.UserID,
		})
	}
	c.JSON(http.StatusOK, response)
}
