package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialEndpoints(t *testing.T) {
	api := setupAPI(t)
	oak := api.create(t, "/api/v1/materials", "material_id", map[string]interface{}{
		"material_name":     "Oak board",
		"category":          "Wood",
		"unit_of_measure":   "board ft",
		"cost_per_unit":     8.5,
		"quantity_in_stock": 40,
	})
	api.create(t, "/api/v1/materials", "material_id", map[string]interface{}{
		"material_name": "Brass hinge",
		"category":      "Hardware",
	})

	w, response := api.do(t, http.MethodGet, "/api/v1/materials/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"Hardware", "Wood"}, response["data"])

	w, response = api.do(t, http.MethodGet, "/api/v1/materials?category=Wood", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), response["count"])

	w, response = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/materials/%d/stock", oak), map[string]interface{}{"delta": -12.5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 27.5, data(response)["quantity_in_stock"])

	w, response = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/materials/%d/stock", oak), map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "delta is required")
	assert.Equal(t, "VALIDATION_ERROR", errorCode(response))

	w, _ = api.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/materials/%d", oak), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProductEndpoints(t *testing.T) {
	api := setupAPI(t)
	chair := api.create(t, "/api/v1/products", "product_id", map[string]interface{}{
		"product_name":      "Chair",
		"sku":               "CH-01",
		"selling_price":     120,
		"quantity_in_stock": 8,
		"reorder_level":     2,
	})
	api.create(t, "/api/v1/products", "product_id", map[string]interface{}{
		"product_name":      "Lamp",
		"selling_price":     50,
		"quantity_in_stock": 1,
		"reorder_level":     2,
	})

	w, response := api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", chair), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CH-01", data(response)["reference_id"], "the SKU doubles as the reference")

	w, response = api.do(t, http.MethodGet, "/api/v1/products?low_stock=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), response["count"])

	w, response = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/products/%d/stock", chair), map[string]interface{}{"delta": -3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(5), data(response)["quantity_in_stock"])

	w, response = api.do(t, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"product_name":  "Stool",
		"selling_price": -1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(response))
}

func TestProductImageUpload(t *testing.T) {
	api := setupAPI(t)
	id := api.create(t, "/api/v1/products", "product_id", map[string]interface{}{"product_name": "Stool"})
	path := fmt.Sprintf("/api/v1/products/%d/image", id)

	w, _ := api.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "no image yet")

	w, response := api.upload(t, path, "stool.png", []byte("png bytes"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "mock://product_1.png", data(response)["image_path"])
	assert.Equal(t, path, data(response)["image_url"])

	w, _ = api.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "png bytes", w.Body.String())

	w, response = api.upload(t, path, "stool.gif", []byte("gif"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE_FORMAT", errorCode(response))

	w, response = api.upload(t, "/api/v1/products/999/image", "ghost.png", []byte("png"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(response))

	w, _ = api.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, api.images.FileExists("mock://product_1.png"))
}

func TestUploadWithoutFile(t *testing.T) {
	api := setupAPI(t)
	id := api.create(t, "/api/v1/products", "product_id", map[string]interface{}{"product_name": "Stool"})

	w, response := api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/products/%d/image", id), map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", errorCode(response))
}
