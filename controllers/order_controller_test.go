package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createChair(t *testing.T, api *testAPI, stock int) uint {
	t.Helper()
	return api.create(t, "/api/v1/products", "product_id", map[string]interface{}{
		"product_name":      "Chair",
		"selling_price":     120,
		"cost_price":        60,
		"quantity_in_stock": stock,
	})
}

func TestCreateOrder(t *testing.T) {
	api := setupAPI(t)
	customerID := api.create(t, "/api/v1/customers", "customer_id", map[string]interface{}{
		"customer_name":    "Harper",
		"shipping_address": "3 Elm Street",
	})
	chair := createChair(t, api, 8)

	w, response := api.do(t, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"customer_id": customerID,
		"order_date":  "2026-10-10",
		"items": []map[string]interface{}{
			{"product_id": chair, "quantity": 2},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	order := data(response)["order"].(map[string]interface{})
	assert.Equal(t, float64(240), order["total_amount"])
	assert.Equal(t, "Pending", order["order_status"])
	assert.Equal(t, "Unpaid", order["payment_status"])
	assert.Equal(t, "3 Elm Street", order["shipping_address"])
	assert.Equal(t, "Harper", order["customer_name"])
	assert.Equal(t, "ORD-000001", order["reference_id"])

	items := data(response)["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, float64(120), item["unit_price_at_sale"])
	assert.Equal(t, "Chair", item["product_name"])

	w, response = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", chair), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(6), data(response)["quantity_in_stock"])
}

func TestCreateOrderFailures(t *testing.T) {
	api := setupAPI(t)
	chair := createChair(t, api, 1)

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "reject policy refuses oversell",
			body: map[string]interface{}{
				"reject_insufficient_stock": true,
				"items":                     []map[string]interface{}{{"product_id": chair, "quantity": 5}},
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "INSUFFICIENT_STOCK",
		},
		{
			name:           "missing product",
			body:           map[string]interface{}{"items": []map[string]interface{}{{"product_id": 999, "quantity": 1}}},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONSTRAINT_VIOLATION",
		},
		{
			name:           "zero quantity",
			body:           map[string]interface{}{"items": []map[string]interface{}{{"product_id": chair, "quantity": 0}}},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "unknown status",
			body:           map[string]interface{}{"order_status": "Lost"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "bad date",
			body:           map[string]interface{}{"order_date": "10/10/2026"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := api.do(t, http.MethodPost, "/api/v1/orders", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCode, errorCode(response))
		})
	}

	w, response := api.do(t, http.MethodGet, "/api/v1/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), response["count"], "failed orders leave nothing behind")

	w, response = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", chair), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), data(response)["quantity_in_stock"])
}

func createOrder(t *testing.T, api *testAPI, body map[string]interface{}) uint {
	t.Helper()
	w, response := api.do(t, http.MethodPost, "/api/v1/orders", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(data(response)["order"].(map[string]interface{})["order_id"].(float64))
}

func TestOrderItemEndpoints(t *testing.T) {
	api := setupAPI(t)
	chair := createChair(t, api, 10)
	orderID := createOrder(t, api, map[string]interface{}{})
	itemsPath := fmt.Sprintf("/api/v1/orders/%d/items", orderID)

	w, response := api.do(t, http.MethodPost, itemsPath, map[string]interface{}{
		"product_id": chair,
		"quantity":   3,
		"unit_price": 100,
		"discount":   20,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := data(response)["order"].(map[string]interface{})
	assert.Equal(t, float64(280), order["total_amount"])

	w, response = api.do(t, http.MethodGet, itemsPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), response["count"])
	itemID := uint(response["data"].([]interface{})[0].(map[string]interface{})["order_item_id"].(float64))

	w, response = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/recompute", orderID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(280), data(response)["total_amount"])

	w, _ = api.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/order-items/%d", itemID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, response = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), data(response)["order"].(map[string]interface{})["total_amount"])
	assert.Empty(t, data(response)["items"])

	w, response = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", chair), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(10), data(response)["quantity_in_stock"], "removing the item returns its stock")

	w, _ = api.do(t, http.MethodGet, "/api/v1/orders/999/items", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = api.do(t, http.MethodPost, "/api/v1/orders/999/items", map[string]interface{}{"product_id": chair, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAndDeleteOrder(t *testing.T) {
	api := setupAPI(t)
	chair := createChair(t, api, 5)
	orderID := createOrder(t, api, map[string]interface{}{
		"items": []map[string]interface{}{{"product_id": chair, "quantity": 2}},
	})
	path := fmt.Sprintf("/api/v1/orders/%d", orderID)

	w, response := api.do(t, http.MethodPut, path, map[string]interface{}{
		"order_status":   "Shipped",
		"payment_status": "Paid",
		"total_amount":   1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Shipped", data(response)["order_status"])
	assert.Equal(t, float64(240), data(response)["total_amount"], "the total is derived from items")

	w, _ = api.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, response = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", chair), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(5), data(response)["quantity_in_stock"])

	w, response = api.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", chair), nil)
	assert.Equal(t, http.StatusOK, w.Code, "with the order gone the product can be deleted")
}

func TestListOrdersLimit(t *testing.T) {
	api := setupAPI(t)
	for i := 0; i < 3; i++ {
		createOrder(t, api, map[string]interface{}{"notes": fmt.Sprintf("order %d", i)})
	}

	w, response := api.do(t, http.MethodGet, "/api/v1/orders?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), response["count"])

	w, response = api.do(t, http.MethodGet, "/api/v1/orders?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_LIMIT", errorCode(response))
}
