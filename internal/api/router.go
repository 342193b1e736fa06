package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/api/handlers"
	"github.com/kelvintan1101/erp/internal/config"
	"github.com/kelvintan1101/erp/internal/lazada"
	"github.com/kelvintan1101/erp/internal/repository"
	"github.com/kelvintan1101/erp/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, repos *repository.Repositories, syncSvc *service.SyncService, tokens *lazada.TokenManager, client *lazada.Client, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	// Root: friendly response so GET / returns 200 instead of 404
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Lazada ERP API",
			"endpoints": []string{
				"GET /health",
				"GET /api/inventory",
				"GET /api/lazada/auth",
				"GET /api/lazada/auth/status",
				"GET /api/lazada/products",
				"POST /api/lazada/inventory/sync",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Inventory CRUD
	inventory := router.Group("/api/inventory")
	{
		inventory.GET("", handlers.HandleListInventory(repos, logger))
		inventory.GET("/:id", handlers.HandleGetInventoryItem(repos, logger))
		inventory.POST("", handlers.HandleCreateInventoryItem(repos, logger))
		inventory.PUT("/:id", handlers.HandleUpdateInventoryItem(repos, logger))
		inventory.DELETE("/:id", handlers.HandleDeleteInventoryItem(repos, logger))
		inventory.PATCH("/:id/quantity", handlers.HandleUpdateInventoryQuantity(repos, logger))
	}

	// Lazada marketplace integration
	laz := router.Group("/api/lazada")
	{
		laz.GET("/auth", handlers.HandleInitiateAuth(tokens, logger))
		laz.GET("/auth/status", handlers.HandleAuthStatus(tokens, logger))
		laz.GET("/callback", handlers.HandleAuthCallback(tokens, logger))
		laz.GET("/products", handlers.HandleGetProducts(client, logger))
		laz.POST("/inventory/update", handlers.HandleUpdateStock(client, syncSvc, repos, logger))
		laz.POST("/product/create", handlers.HandleCreateProduct(syncSvc, repos, logger))
		laz.POST("/inventory/sync", handlers.HandleSyncInventory(syncSvc, logger))
	}

	// Lazada sends the OAuth redirect to the callback URL registered on the
	// app, which may omit the /api prefix
	router.GET("/lazada/callback", handlers.HandleAuthCallback(tokens, logger))

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
