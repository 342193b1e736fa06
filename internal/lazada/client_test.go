package lazada

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kelvintan1101/erp/internal/config"
	"github.com/kelvintan1101/erp/internal/domain"
	apperrors "github.com/kelvintan1101/erp/pkg/errors"
)

type staticTokenSource struct {
	token string
	err   error
	calls int
}

func (s *staticTokenSource) ValidToken(ctx context.Context) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.token, nil
}

func newTestClient(apiBaseURL, signMethod string, tokens TokenSource) *Client {
	cfg := config.LazadaConfig{
		AppKey:     "100132",
		AppSecret:  "demo-secret",
		APIBaseURL: apiBaseURL,
		SignMethod: signMethod,
	}
	return NewClient(cfg, tokens, zap.NewNop())
}

func testItem() *domain.InventoryItem {
	return &domain.InventoryItem{
		SKU:         "SKU-001",
		Name:        "Wireless Mouse",
		Description: "2.4GHz wireless mouse",
		Price:       19.9,
		Quantity:    25,
		Category:    "10100",
		Images:      []string{"https://img.example.com/1.jpg"},
	}
}

func TestUpdateStockSendsSignedParams(t *testing.T) {
	var query map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"code": "0", "request_id": "abc123"})
	}))
	defer server.Close()

	tokens := &staticTokenSource{token: "access-token"}
	client := newTestClient(server.URL, SignMethodSHA256, tokens)

	result, err := client.UpdateStock(context.Background(), "200300", 7)
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Equal(t, 1, tokens.calls)

	assert.Equal(t, "100132", query["app_key"])
	assert.Equal(t, "access-token", query["access_token"])
	assert.Equal(t, "lazada.product.stock.update", query["method"])
	assert.Equal(t, "sha256", query["sign_method"])
	assert.Equal(t, "200300", query["item_id"])
	assert.Equal(t, "7", query["quantity"])
	assert.Len(t, query["timestamp"], 13)

	// Signature covers every parameter except the signature itself
	params := map[string]string{}
	for k, v := range query {
		if k != "sign" {
			params[k] = v
		}
	}
	assert.Equal(t, SignHMACSHA256("/product/stock/update", params, "demo-secret"), query["sign"])
}

func TestUpdateStockMD5Variant(t *testing.T) {
	var query map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"code": "0"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, SignMethodMD5, &staticTokenSource{token: "tok"})

	_, err := client.UpdateStock(context.Background(), "200300", 7)
	require.NoError(t, err)

	assert.Equal(t, "md5", query["sign_method"])
	params := map[string]string{}
	for k, v := range query {
		if k != "sign" {
			params[k] = v
		}
	}
	assert.Equal(t, SignMD5(params, "demo-secret"), query["sign"])
}

func TestBusinessFailureIsNotTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    "1",
			"message": "E001: quantity exceeds limit",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, SignMethodSHA256, &staticTokenSource{token: "tok"})

	result, err := client.UpdateStock(context.Background(), "200300", 999999)
	require.NoError(t, err)
	assert.False(t, result.Succeeded())

	bizErr := result.BusinessError("stock update")
	assert.Equal(t, "1", bizErr.Code)
	assert.Contains(t, bizErr.Message, "quantity exceeds limit")
}

func TestAbsentCodeIsBusinessFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]string{}})
	}))
	defer server.Close()

	client := newTestClient(server.URL, SignMethodSHA256, &staticTokenSource{token: "tok"})

	result, err := client.GetProducts(context.Background(), "all")
	require.NoError(t, err)
	assert.False(t, result.Succeeded())
}

func TestHTTPErrorIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, SignMethodSHA256, &staticTokenSource{token: "tok"})

	_, err := client.UpdateStock(context.Background(), "200300", 7)
	var transport *apperrors.ErrTransport
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, http.StatusInternalServerError, transport.Status)
	assert.Contains(t, transport.Body, "internal error")
}

func TestUnreachableHostIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL, SignMethodSHA256, &staticTokenSource{token: "tok"})

	_, err := client.UpdateStock(context.Background(), "200300", 7)
	var transport *apperrors.ErrTransport
	require.ErrorAs(t, err, &transport)
	assert.Error(t, transport.Err)
}

func TestTokenFailurePropagatesUnchanged(t *testing.T) {
	tokenErr := &apperrors.ErrAuthRequired{}
	client := newTestClient("http://unused.invalid", SignMethodSHA256, &staticTokenSource{err: tokenErr})

	_, err := client.UpdateStock(context.Background(), "200300", 7)
	assert.Equal(t, tokenErr, err)
}

func TestCreateProductValidatesBeforeCalling(t *testing.T) {
	tokens := &staticTokenSource{token: "tok"}
	client := newTestClient("http://unused.invalid", SignMethodSHA256, tokens)

	item := testItem()
	item.Name = ""
	item.Price = 0

	_, err := client.CreateProduct(context.Background(), item)
	var validation *apperrors.ErrValidation
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "name")
	assert.Contains(t, validation.Fields, "price")
	// Short-circuits before fetching a token or touching the network
	assert.Equal(t, 0, tokens.calls)
}

func TestCreateProductSendsXMLPayload(t *testing.T) {
	var payload string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload = r.URL.Query().Get("payload")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": "0",
			"data": map[string]interface{}{"item_id": 4567},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, SignMethodSHA256, &staticTokenSource{token: "tok"})

	result, err := client.CreateProduct(context.Background(), testItem())
	require.NoError(t, err)
	require.True(t, result.Succeeded())
	assert.Equal(t, "4567", result.ItemID())

	assert.Contains(t, payload, "<SellerSku>SKU-001</SellerSku>")
	assert.Contains(t, payload, "<name>Wireless Mouse</name>")
	assert.Contains(t, payload, "<quantity>25</quantity>")
}

func TestItemIDParsing(t *testing.T) {
	numeric := &RemoteResult{Data: json.RawMessage(`{"item_id": 123}`)}
	assert.Equal(t, "123", numeric.ItemID())

	str := &RemoteResult{Data: json.RawMessage(`{"item_id": "456"}`)}
	assert.Equal(t, "456", str.ItemID())

	empty := &RemoteResult{}
	assert.Equal(t, "", empty.ItemID())
}

func TestGetProductsDefaultFilter(t *testing.T) {
	var filter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filter = r.URL.Query().Get("filter")
		json.NewEncoder(w).Encode(map[string]interface{}{"code": "0"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, SignMethodSHA256, &staticTokenSource{token: "tok"})

	_, err := client.GetProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "all", filter)
}

func TestAPIPathForMethod(t *testing.T) {
	assert.Equal(t, "/product/stock/update", apiPathForMethod("lazada.product.stock.update"))
	assert.Equal(t, "/products/get", apiPathForMethod("lazada.products.get"))
	assert.Equal(t, "/product/create", apiPathForMethod("lazada.product.create"))
}
