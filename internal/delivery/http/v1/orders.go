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

type orderItemResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	Type        string              `json:"type"`
	Items       []orderItemResponse `json:"items"`
	CreatedBy   string              `json:"created_by"`
	CreatedAt   time.Time           `json:"created_at"`
	SubmittedAt *time.Time          `json:"submitted_at,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:        order.ID,
		Status:    order.Status,
		Type:      order.Type,
		Items:     make([]orderItemResponse, 0, len(order.Items)),
		CreatedBy: order.CreatedBy,
		CreatedAt: order.CreatedAt,
	}
	if !order.SubmittedAt.IsZero() {
		submittedAt := order.SubmittedAt
		resp.SubmittedAt = &submittedAt
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Notes:       item.Notes,
			CreatedAt:   item.CreatedAt,
		})
	}
	return resp
}

// HandleStartOrder opens a draft for the requesting user; a second
// draft is refused until the first is submitted or deleted.
func (h *handlerImpl) HandleStartOrder(c *gin.Context) {
	userID, ok := h.contextUserID(c)
	if !ok {
		return
	}

	order, err := h.orders.StartOrder(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to start order")
		if errors.Is(err, services.ErrDraftOrderExists) {
			abort(c, newConflictError(services.ErrDraftOrderExists.Error()))
			return
		}
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusCreated, newOrderResponse(order))
}

func (h *handlerImpl) HandleListOrders(c *gin.Context) {
	userID, ok := h.contextUserID(c)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to list orders")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		response = append(response, newOrderResponse(order))
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c, c.Param("id"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("order_id", c.Param("id")).
			Msg("failed to load order")
		if errors.Is(err, services.ErrOrderNotFound) {
			abort(c, newNotFoundError(services.ErrOrderNotFound.Error()))
			return
		}
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, newOrderResponse(order))
}

type addOrderItemRequest struct {
	ProductID string `json:"product_id" form:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" form:"quantity" binding:"required,gt=0"`
	Notes     string `json:"notes" form:"notes" binding:"max=1024"`
}

func (h *handlerImpl) HandleAddOrderItem(c *gin.Context) {
	var req addOrderItemRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	item, err := h.orders.AddOrderItem(c, c.Param("id"), req.ProductID, req.Quantity, strings.TrimSpace(req.Notes))
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("order_id", c.Param("id")).
			Str("product_id", req.ProductID).
			Msg("failed to add order item")
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			abort(c, newNotFoundError(services.ErrOrderNotFound.Error()))
		case errors.Is(err, services.ErrItemNotFound):
			abort(c, newNotFoundError(services.ErrItemNotFound.Error()))
		case errors.Is(err, services.ErrOrderNotDraft):
			abort(c, newConflictError(services.ErrOrderNotDraft.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusCreated, orderItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		Notes:       item.Notes,
		CreatedAt:   item.CreatedAt,
	})
}

func (h *handlerImpl) HandleSubmitOrder(c *gin.Context) {
	order, err := h.orders.SubmitOrder(c, c.Param("id"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("order_id", c.Param("id")).
			Msg("failed to submit order")
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			abort(c, newNotFoundError(services.ErrOrderNotFound.Error()))
		case errors.Is(err, services.ErrOrderNotDraft):
			abort(c, newConflictError(services.ErrOrderNotDraft.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newOrderResponse(order))
}

type updateOrderTypeRequest struct {
	Type string `json:"type" form:"type" binding:"required"`
}

func (h *handlerImpl) HandleUpdateOrderType(c *gin.Context) {
	var req updateOrderTypeRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	order, err := h.orders.UpdateOrderType(c, c.Param("id"), req.Type)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("order_id", c.Param("id")).
			Str("type", req.Type).
			Msg("failed to update order type")
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			abort(c, newNotFoundError(services.ErrOrderNotFound.Error()))
		case errors.Is(err, services.ErrInvalidOrderType):
			abort(c, newBadRequestError(services.ErrInvalidOrderType.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.JSON(http.StatusOK, newOrderResponse(order))
}

func (h *handlerImpl) HandleDeleteOrder(c *gin.Context) {
	err := h.orders.DeleteOrder(c, c.Param("id"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("order_id", c.Param("id")).
			Msg("failed to delete order")
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			abort(c, newNotFoundError(services.ErrOrderNotFound.Error()))
		case errors.Is(err, services.ErrOrderNotDraft):
			abort(c, newConflictError(services.ErrOrderNotDraft.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	c.Status(http.StatusNoContent)
}
