package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/domain"
	"github.com/kelvintan1101/erp/internal/lazada"
	"github.com/kelvintan1101/erp/internal/repository"
	"github.com/kelvintan1101/erp/internal/service"
	apperrors "github.com/kelvintan1101/erp/pkg/errors"
)

// HandleInitiateAuth handles GET /api/lazada/auth: redirects the user to
// the Lazada authorization page with a fresh anti-forgery state token.
func HandleInitiateAuth(tokens *lazada.TokenManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := newStateToken()
		if err != nil {
			logger.Error("Failed to generate state token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate authorization"})
			return
		}
		c.Redirect(http.StatusFound, tokens.AuthorizationURL(state))
	}
}

// HandleAuthCallback handles GET /api/lazada/callback (also mounted at
// /lazada/callback). Completes the authorization-code exchange and shows a
// human-readable confirmation page.
func HandleAuthCallback(tokens *lazada.TokenManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code not received"})
			return
		}

		if err := tokens.ExchangeAuthorizationCode(c.Request.Context(), code); err != nil {
			logger.Error("Lazada token exchange failed", zap.Error(err))
			c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(authFailurePage))
			return
		}

		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(authSuccessPage))
	}
}

// HandleAuthStatus handles GET /api/lazada/auth/status
func HandleAuthStatus(tokens *lazada.TokenManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorized, err := tokens.Authorized(c.Request.Context())
		if err != nil {
			logger.Error("Failed to check authorization status", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check authorization status"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"isAuthorized": authorized})
	}
}

// HandleGetProducts handles GET /api/lazada/products
func HandleGetProducts(client *lazada.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := client.GetProducts(c.Request.Context(), c.Query("filter"))
		if err != nil {
			respondLazadaError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// HandleUpdateStock handles POST /api/lazada/inventory/update: pushes a
// quantity to a Lazada listing and mirrors the accepted value onto the
// linked local item.
func HandleUpdateStock(client *lazada.Client, syncSvc *service.SyncService, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ItemID   string `json:"item_id"`
			Quantity *int   `json:"quantity"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.ItemID == "" || req.Quantity == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "item_id and quantity are required"})
			return
		}

		item, err := repos.Inventory.GetByLazadaItemID(c.Request.Context(), req.ItemID)
		if err == nil {
			item.Quantity = *req.Quantity
			result, syncErr := syncSvc.SyncOne(c.Request.Context(), item)
			if syncErr != nil {
				respondLazadaError(c, logger, syncErr)
				return
			}
			c.JSON(http.StatusOK, result)
			return
		}
		if _, ok := err.(*apperrors.ErrNotFound); !ok {
			logger.Error("Failed to look up item by Lazada item id", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up inventory item"})
			return
		}

		// No local record for this listing; push the stock update anyway.
		result, err := client.UpdateStock(c.Request.Context(), req.ItemID, *req.Quantity)
		if err != nil {
			respondLazadaError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// HandleCreateProduct handles POST /api/lazada/product/create: creates the
// product on Lazada and records it locally as a synced item. An existing
// local item with the same SKU is linked instead of duplicated.
func HandleCreateProduct(syncSvc *service.SyncService, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
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

		ctx := c.Request.Context()
		item, err := repos.Inventory.GetBySKU(ctx, req.SKU)
		if err != nil {
			if _, ok := err.(*apperrors.ErrNotFound); !ok {
				logger.Error("Failed to look up item by SKU", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up inventory item"})
				return
			}
			item = &domain.InventoryItem{
				SKU:         req.SKU,
				Name:        req.Name,
				Description: req.Description,
				Price:       *req.Price,
				Quantity:    *req.Quantity,
				Category:    req.Category,
				Images:      req.Images,
				SyncStatus:  domain.SyncStatusPending,
			}
			if err := repos.Inventory.Create(ctx, item); err != nil {
				logger.Error("Failed to create inventory item", zap.Error(err), zap.String("sku", req.SKU))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create inventory item"})
				return
			}
		}

		result, err := syncSvc.SyncOne(ctx, item)
		if err != nil {
			respondLazadaError(c, logger, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"result": result,
			"item":   toItemResponse(item),
		})
	}
}

// HandleSyncInventory handles POST /api/lazada/inventory/sync: runs a full
// reconciliation and returns the per-item report.
func HandleSyncInventory(syncSvc *service.SyncService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := syncSvc.SyncAllExclusive(c.Request.Context())
		if err != nil {
			respondLazadaError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// respondLazadaError maps the sync subsystem's error taxonomy onto HTTP.
// An unauthorized state points the caller at the authorization flow instead
// of letting it retry calls that are certain to fail.
func respondLazadaError(c *gin.Context, logger *zap.Logger, err error) {
	switch e := err.(type) {
	case *apperrors.ErrAuthRequired:
		c.JSON(http.StatusUnauthorized, gin.H{"error": e.Error(), "authorize": "/api/lazada/auth"})
	case *apperrors.ErrRefreshFailed:
		c.JSON(http.StatusUnauthorized, gin.H{"error": e.Error(), "authorize": "/api/lazada/auth"})
	case *apperrors.ErrAuthExchangeFailed:
		c.JSON(http.StatusUnauthorized, gin.H{"error": e.Error(), "authorize": "/api/lazada/auth"})
	case *apperrors.ErrValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Message, "details": e.Fields})
	case *apperrors.ErrTransport:
		logger.Warn("Lazada transport error", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": e.Error()})
	case *apperrors.ErrBusiness:
		c.JSON(http.StatusBadGateway, gin.H{"error": e.Error(), "code": e.Code})
	default:
		logger.Error("Lazada operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func newStateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

const authSuccessPage = `<!DOCTYPE html>
<html>
<head><title>Lazada Authorization Complete</title></head>
<body style="font-family: Arial, sans-serif; text-align: center; padding: 40px;">
  <h1>Authorization Successful</h1>
  <p>Your Lazada account has been connected and the tokens have been saved.</p>
  <p>You can close this window and return to the application.</p>
</body>
</html>`

const authFailurePage = `<!DOCTYPE html>
<html>
<head><title>Authentication Error</title></head>
<body style="font-family: Arial, sans-serif; text-align: center; padding: 40px;">
  <h1>Authentication Error</h1>
  <p>There was a problem authenticating with Lazada. Please try again.</p>
  <p><a href="/">Return to Home</a></p>
</body>
</html>`
