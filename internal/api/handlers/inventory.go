package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/domain"
	"github.com/kelvintan1101/erp/internal/repository"
	apperrors "github.com/kelvintan1101/erp/pkg/errors"
)

type itemResponse struct {
	ID           string     `json:"id"`
	SKU          string     `json:"sku"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Price        float64    `json:"price"`
	Quantity     int        `json:"quantity"`
	Category     string     `json:"category"`
	Images       []string   `json:"images"`
	LazadaItemID *string    `json:"lazada_item_id"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	SyncStatus   string     `json:"sync_status"`
	SyncErrors   []string   `json:"sync_errors"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toItemResponse(item *domain.InventoryItem) itemResponse {
	images := item.Images
	if images == nil {
		images = []string{}
	}
	syncErrors := item.SyncErrors
	if syncErrors == nil {
		syncErrors = []string{}
	}
	return itemResponse{
		ID:           item.ID.String(),
		SKU:          item.SKU,
		Name:         item.Name,
		Description:  item.Description,
		Price:        item.Price,
		Quantity:     item.Quantity,
		Category:     item.Category,
		Images:       images,
		LazadaItemID: item.LazadaItemID,
		LastSyncedAt: item.LastSyncedAt,
		SyncStatus:   string(item.SyncStatus),
		SyncErrors:   syncErrors,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func toItemResponses(items []*domain.InventoryItem) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	return out
}

type itemRequest struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

func (r *itemRequest) validate() []string {
	var problems []string
	if r.SKU == "" {
		problems = append(problems, "sku is required")
	}
	if r.Name == "" {
		problems = append(problems, "name is required")
	}
	if r.Price == nil {
		problems = append(problems, "price is required")
	} else if *r.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if r.Quantity == nil {
		problems = append(problems, "quantity is required")
	} else if *r.Quantity < 0 {
		problems = append(problems, "quantity must not be negative")
	}
	return problems
}

// HandleListInventory handles GET /api/inventory
func HandleListInventory(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := repos.Inventory.List(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list inventory", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch inventory items"})
			return
		}
		c.JSON(http.StatusOK, toItemResponses(items))
	}
}

// HandleGetInventoryItem handles GET /api/inventory/:id
func HandleGetInventoryItem(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
			return
		}

		item, err := repos.Inventory.GetByID(c.Request.Context(), id)
		if err != nil {
			respondRepoError(c, logger, err, "failed to fetch inventory item")
			return
		}
		c.JSON(http.StatusOK, toItemResponse(item))
	}
}

// HandleCreateInventoryItem handles POST /api/inventory
func HandleCreateInventoryItem(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req itemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if problems := req.validate(); len(problems) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": problems})
			return
		}

		item := &domain.InventoryItem{
			SKU:         req.SKU,
			Name:        req.Name,
			Description: req.Description,
			Price:       *req.Price,
			Quantity:    *req.Quantity,
			Category:    req.Category,
			Images:      req.Images,
			SyncStatus:  domain.SyncStatusNotSynced,
		}

		if err := repos.Inventory.Create(c.Request.Context(), item); err != nil {
			logger.Error("Failed to create inventory item", zap.Error(err), zap.String("sku", req.SKU))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create inventory item"})
			return
		}
		c.JSON(http.StatusCreated, toItemResponse(item))
	}
}

// HandleUpdateInventoryItem handles PUT /api/inventory/:id.
// SKU is immutable and sync-state fields are owned by the sync subsystem;
// neither is writable here.
func HandleUpdateInventoryItem(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
			return
		}

		var req itemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		item, err := repos.Inventory.GetByID(c.Request.Context(), id)
		if err != nil {
			respondRepoError(c, logger, err, "failed to fetch inventory item")
			return
		}

		if req.SKU != "" && req.SKU != item.SKU {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sku is immutable"})
			return
		}
		if req.Name != "" {
			item.Name = req.Name
		}
		item.Description = req.Description
		if req.Price != nil {
			if *req.Price < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
				return
			}
			item.Price = *req.Price
		}
		if req.Quantity != nil {
			if *req.Quantity < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must not be negative"})
				return
			}
			item.Quantity = *req.Quantity
		}
		item.Category = req.Category
		if req.Images != nil {
			item.Images = req.Images
		}

		if err := repos.Inventory.Update(c.Request.Context(), item); err != nil {
			respondRepoError(c, logger, err, "failed to update inventory item")
			return
		}
		c.JSON(http.StatusOK, toItemResponse(item))
	}
}

// HandleDeleteInventoryItem handles DELETE /api/inventory/:id
func HandleDeleteInventoryItem(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
			return
		}

		if err := repos.Inventory.Delete(c.Request.Context(), id); err != nil {
			respondRepoError(c, logger, err, "failed to delete inventory item")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "inventory item deleted"})
	}
}

// HandleUpdateInventoryQuantity handles PATCH /api/inventory/:id/quantity
func HandleUpdateInventoryQuantity(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
			return
		}

		var req struct {
			Quantity *int `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
			return
		}
		if *req.Quantity < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must not be negative"})
			return
		}

		item, err := repos.Inventory.UpdateQuantity(c.Request.Context(), id, *req.Quantity)
		if err != nil {
			respondRepoError(c, logger, err, "failed to update inventory quantity")
			return
		}
		c.JSON(http.StatusOK, toItemResponse(item))
	}
}

func respondRepoError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	if notFound, ok := err.(*apperrors.ErrNotFound); ok {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
		return
	}
	logger.Error(fallback, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
