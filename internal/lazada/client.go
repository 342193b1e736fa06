package lazada

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/config"
	"github.com/kelvintan1101/erp/internal/domain"
	apperrors "github.com/kelvintan1101/erp/pkg/errors"
)

// API method names from the Lazada Open Platform
const (
	methodProductCreate = "lazada.product.create"
	methodStockUpdate   = "lazada.product.stock.update"
	methodProductsGet   = "lazada.products.get"
)

// TokenSource hands out a valid access token per outgoing request.
// Implemented by TokenManager.
type TokenSource interface {
	ValidToken(ctx context.Context) (string, error)
}

// Client issues signed Lazada API calls
type Client struct {
	cfg        config.LazadaConfig
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Lazada API client
func NewClient(cfg config.LazadaConfig, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// RemoteResult is the decoded marketplace response. The marketplace signals
// success with the literal code "0"; anything else, including an absent
// code, is a business failure rather than a transport error.
type RemoteResult struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// Succeeded reports whether the marketplace accepted the operation.
func (r *RemoteResult) Succeeded() bool {
	return r.Code == "0"
}

// BusinessError converts a failed result into a typed error carrying the
// marketplace's own code and message.
func (r *RemoteResult) BusinessError(op string) *apperrors.ErrBusiness {
	message := r.Message
	if message == "" {
		message = "marketplace reported failure without a message"
	}
	return &apperrors.ErrBusiness{Op: op, Code: r.Code, Message: message}
}

// ItemID extracts the marketplace item id from a product-create response.
// The marketplace serializes it as a number or a string depending on the
// endpoint version.
func (r *RemoteResult) ItemID() string {
	if len(r.Data) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(r.Data))
	dec.UseNumber()
	var data map[string]interface{}
	if err := dec.Decode(&data); err != nil {
		return ""
	}
	switch v := data["item_id"].(type) {
	case json.Number:
		return v.String()
	case string:
		return v
	}
	return ""
}

// CreateProduct creates a Lazada listing for the item. Required fields are
// validated before any remote call is attempted.
func (c *Client) CreateProduct(ctx context.Context, item *domain.InventoryItem) (*RemoteResult, error) {
	if err := validateForCreate(item); err != nil {
		return nil, err
	}

	payload, err := BuildProductPayload(item)
	if err != nil {
		return nil, err
	}

	return c.call(ctx, "product create", methodProductCreate, map[string]string{
		"payload": payload,
	})
}

// UpdateStock pushes a quantity to an existing Lazada listing
func (c *Client) UpdateStock(ctx context.Context, lazadaItemID string, quantity int) (*RemoteResult, error) {
	return c.call(ctx, "stock update", methodStockUpdate, map[string]string{
		"item_id":  lazadaItemID,
		"quantity": strconv.Itoa(quantity),
	})
}

// GetProducts lists products on the Lazada side. An empty filter means all.
func (c *Client) GetProducts(ctx context.Context, filter string) (*RemoteResult, error) {
	if filter == "" {
		filter = "all"
	}
	return c.call(ctx, "products get", methodProductsGet, map[string]string{
		"filter": filter,
	})
}

// call obtains a token, signs the full parameter set with the configured
// method, and issues the request. Token fetch failures propagate unchanged;
// transport failures preserve the raw response body.
func (c *Client) call(ctx context.Context, op, method string, apiParams map[string]string) (*RemoteResult, error) {
	token, err := c.tokens.ValidToken(ctx)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"app_key":      c.cfg.AppKey,
		"timestamp":    strconv.FormatInt(time.Now().UnixMilli(), 10),
		"sign_method":  c.cfg.SignMethod,
		"method":       method,
		"access_token": token,
	}
	for k, v := range apiParams {
		params[k] = v
	}
	params["sign"] = c.sign(method, params)

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &apperrors.ErrTransport{Op: op, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Lazada request failed", zap.String("op", op), zap.Error(err))
		return nil, &apperrors.ErrTransport{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.ErrTransport{Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.ErrTransport{Op: op, Status: resp.StatusCode, Body: string(body)}
	}

	var result RemoteResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &apperrors.ErrTransport{Op: op, Body: string(body), Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if !result.Succeeded() {
		c.logger.Warn("Lazada rejected operation",
			zap.String("op", op),
			zap.String("code", result.Code),
			zap.String("message", result.Message),
		)
	}

	return &result, nil
}

func (c *Client) sign(method string, params map[string]string) string {
	if c.cfg.SignMethod == SignMethodMD5 {
		return SignMD5(params, c.cfg.AppSecret)
	}
	return SignHMACSHA256(apiPathForMethod(method), params, c.cfg.AppSecret)
}

// apiPathForMethod maps an API method name to its REST path for the
// HMAC base string, e.g. lazada.product.stock.update -> /product/stock/update.
func apiPathForMethod(method string) string {
	trimmed := strings.TrimPrefix(method, "lazada.")
	return "/" + strings.ReplaceAll(trimmed, ".", "/")
}

func validateForCreate(item *domain.InventoryItem) error {
	var missing []string
	if strings.TrimSpace(item.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(item.SKU) == "" {
		missing = append(missing, "sku")
	}
	if item.Price <= 0 {
		missing = append(missing, "price")
	}
	if item.Quantity <= 0 {
		missing = append(missing, "quantity")
	}
	if len(missing) > 0 {
		return &apperrors.ErrValidation{
			Message: "name, price, quantity and sku are required for product creation",
			Fields:  missing,
		}
	}
	return nil
}
