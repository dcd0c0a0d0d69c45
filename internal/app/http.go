package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/WAzaizeh/ChainFlow/internal/config"
	v1 "github.com/WAzaizeh/ChainFlow/internal/delivery/http/v1"
	"github.com/WAzaizeh/ChainFlow/internal/docstore"
	"github.com/WAzaizeh/ChainFlow/internal/repository"
	"github.com/WAzaizeh/ChainFlow/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()

	store := docstore.NewPostgresStore(globalLogger, globalPostgresPool)
	taskRepo := repository.NewTaskRepository(globalLogger, store)
	inventoryRepo := repository.NewInventoryRepository(globalLogger, store)
	orderRepo := repository.NewOrderRepository(globalLogger, store)

	authService := services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		cfg.JWT.Issuer,
		cfg.JWT.SigningKey,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)
	taskService := services.NewTaskService(
		globalLogger,
		taskRepo,
		globalBroadcaster,
		cfg.Audit.Cascade,
	)
	inventoryService := services.NewInventoryService(globalLogger, inventoryRepo)
	orderService := services.NewOrderService(globalLogger, orderRepo, inventoryRepo)
	archiveService := services.NewArchiveService(globalLogger, taskRepo)

	v1Handler := v1.New(
		globalLogger,
		authService,
		taskService,
		inventoryService,
		orderService,
		archiveService,
		globalBroadcaster,
		globalFragments,
		cfg.Admin.WebhookSecret,
	)
	router = router.Group("/api/v1")

	authRouter := router.Group("/auth")
	authRouter.POST("/login", v1Handler.HandleLogin)
	authRouter.POST("/register", v1Handler.HandleRegister)
	authRouter.POST("/refresh", v1Handler.HandleRefresh)
	authRouter.POST("/logout", v1Handler.HandleAuthMiddleware, v1Handler.HandleLogout)

	taskRouter := router.Group("/tasks", v1Handler.HandleAuthMiddleware)
	taskRouter.GET("", v1Handler.HandleListTasks)
	taskRouter.POST("", v1Handler.HandleCreateTask)
	taskRouter.GET("/stream", v1Handler.HandleTaskStream)
	taskRouter.POST("/:id/toggle", v1Handler.HandleToggleTask)
	taskRouter.POST("/:id/subtasks", v1Handler.HandleAddSubtask)
	taskRouter.POST("/:id/subtasks/:subtaskID/toggle", v1Handler.HandleToggleSubtask)
	taskRouter.POST("/:id/note", v1Handler.HandleUpdateNote)
	taskRouter.GET("/:id/history", v1Handler.HandleTaskHistory)

	inventoryRouter := router.Group("/inventory", v1Handler.HandleAuthMiddleware)
	inventoryRouter.GET("", v1Handler.HandleListInventory)
	inventoryRouter.POST("", v1Handler.HandleCreateInventoryItem)
	inventoryRouter.GET("/search", v1Handler.HandleSearchInventory)
	inventoryRouter.GET("/:id", v1Handler.HandleGetInventoryItem)
	inventoryRouter.POST("/:id/adjust", v1Handler.HandleAdjustInventory)
	inventoryRouter.GET("/:id/changes", v1Handler.HandleInventoryChanges)

	orderRouter := router.Group("/orders", v1Handler.HandleAuthMiddleware)
	orderRouter.GET("", v1Handler.HandleListOrders)
	orderRouter.POST("", v1Handler.HandleStartOrder)
	orderRouter.GET("/:id", v1Handler.HandleGetOrder)
	orderRouter.POST("/:id/items", v1Handler.HandleAddOrderItem)
	orderRouter.POST("/:id/submit", v1Handler.HandleSubmitOrder)
	orderRouter.POST("/:id/type", v1Handler.HandleUpdateOrderType)
	orderRouter.DELETE("/:id", v1Handler.HandleDeleteOrder)

	adminRouter := router.Group("/admin", v1Handler.HandleAdminMiddleware)
	adminRouter.POST("/tasks/archive", v1Handler.HandleArchiveTasks)
	adminRouter.POST("/tasks/reset", v1Handler.HandleResetTasks)
}
