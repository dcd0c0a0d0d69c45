package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/WAzaizeh/ChainFlow/internal/broadcast"
	"github.com/WAzaizeh/ChainFlow/internal/render"
	"github.com/WAzaizeh/ChainFlow/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleAdminMiddleware(c *gin.Context)

	HandleListTasks(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleAddSubtask(c *gin.Context)
	HandleToggleTask(c *gin.Context)
	HandleToggleSubtask(c *gin.Context)
	HandleUpdateNote(c *gin.Context)
	HandleTaskHistory(c *gin.Context)
	HandleTaskStream(c *gin.Context)

	HandleListInventory(c *gin.Context)
	HandleSearchInventory(c *gin.Context)
	HandleGetInventoryItem(c *gin.Context)
	HandleCreateInventoryItem(c *gin.Context)
	HandleAdjustInventory(c *gin.Context)
	HandleInventoryChanges(c *gin.Context)

	HandleStartOrder(c *gin.Context)
	HandleListOrders(c *gin.Context)
	HandleGetOrder(c *gin.Context)
	HandleAddOrderItem(c *gin.Context)
	HandleSubmitOrder(c *gin.Context)
	HandleUpdateOrderType(c *gin.Context)
	HandleDeleteOrder(c *gin.Context)

	HandleArchiveTasks(c *gin.Context)
	HandleResetTasks(c *gin.Context)
}

type handlerImpl struct {
	logger      zerolog.Logger
	auth        services.AuthService
	tasks       services.TaskService
	inventory   services.InventoryService
	orders      services.OrderService
	archive     services.ArchiveService
	broadcaster *broadcast.Broadcaster
	fragments   *render.Fragments
	adminSecret string
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	taskService services.TaskService,
	inventoryService services.InventoryService,
	orderService services.OrderService,
	archiveService services.ArchiveService,
	broadcaster *broadcast.Broadcaster,
	fragments *render.Fragments,
	adminSecret string,
) Handler {
	return &handlerImpl{
		logger:      logger,
		auth:        authService,
		tasks:       taskService,
		inventory:   inventoryService,
		orders:      orderService,
		archive:     archiveService,
		broadcaster: broadcaster,
		fragments:   fragments,
		adminSecret: adminSecret,
	}
}
