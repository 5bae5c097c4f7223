package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", repository.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("load order: %w", repository.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"duplicate reference", &repository.DuplicateReferenceError{Entity: "customer", Reference: "CUST-000001"}, http.StatusConflict, "DUPLICATE_REFERENCE"},
		{"dependents", &repository.DependentRecordsError{Entity: "customer", ID: 1, Dependents: "invoices", Count: 2}, http.StatusConflict, "HAS_DEPENDENT_RECORDS"},
		{"insufficient stock", &repository.InsufficientStockError{ProductID: 1, Requested: 5, Available: 2}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{
			"constraint wins over the validation error it wraps",
			&repository.ConstraintViolationError{Entity: "order", Err: &repository.ValidationError{Field: "CustomerID", Message: "refers to a missing record"}},
			http.StatusConflict, "CONSTRAINT_VIOLATION",
		},
		{"validation", &repository.ValidationError{Field: "CustomerName", Message: "is required"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"busy", repository.ErrDatabaseBusy, http.StatusServiceUnavailable, "DATABASE_BUSY"},
		{"anything else", errors.New("disk I/O error"), http.StatusInternalServerError, "DATABASE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/test", nil)

			respondError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, false, response["success"])
			assert.Equal(t, tt.wantCode, errorCode(response))
		})
	}
}

func TestParamID(t *testing.T) {
	tests := []struct {
		value  string
		wantID uint
		wantOK bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: tt.value}}

			id, ok := paramID(c, "id")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HealthCheck(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 2)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Workshop Manager API is running", response["message"])
}

func TestDatabaseStatus(t *testing.T) {
	api := setupAPI(t)

	w, response := api.do(t, http.MethodGet, "/api/v1/database/status", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sqlite", response["dialect"])
	tables, ok := response["tables"].([]interface{})
	require.True(t, ok)
	assert.Contains(t, tables, "orders")
	assert.Contains(t, tables, "supplier_services")
}

func TestRequestIDHeader(t *testing.T) {
	api := setupAPI(t)

	w, _ := api.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMalformedJSON(t *testing.T) {
	api := setupAPI(t)

	w, response := api.do(t, http.MethodPost, "/api/v1/customers", `{"customer_name":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(response))
	assert.NotEmpty(t, response["error"].(map[string]interface{})["details"])
}
