package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/models"
)

// ListSupplierServices handles GET /api/v1/supplier-services?search=&unlogged=true
func (h *Handler) ListSupplierServices(c *gin.Context) {
	if c.Query("unlogged") == "true" {
		out, err := h.Repos.SupplierServices.Unlogged(c.Request.Context())
		respondList(c, out, err)
		return
	}
	out, err := h.Repos.SupplierServices.List(c.Request.Context(), c.Query("search"))
	respondList(c, out, err)
}

// CreateSupplierService handles POST /api/v1/supplier-services. A positive
// cost is logged as an expense; expense_logged reports whether that worked.
func (h *Handler) CreateSupplierService(c *gin.Context) {
	var req models.SupplierService
	if !bindJSON(c, &req) {
		return
	}
	id, logged, err := h.Repos.SupplierServices.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	svc, err := h.Repos.SupplierServices.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"service":        svc,
			"expense_logged": logged,
		},
	})
}

// GetSupplierService handles GET /api/v1/supplier-services/:id
func (h *Handler) GetSupplierService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.SupplierServices.Get)
}

// UpdateSupplierService handles PUT /api/v1/supplier-services/:id. Changes
// to a logged service are reported as warnings, never applied to the expense.
func (h *Handler) UpdateSupplierService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.SupplierService
	if !bindJSON(c, &req) {
		return
	}
	warnings, err := h.Repos.SupplierServices.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	svc, err := h.Repos.SupplierServices.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, withWarnings(gin.H{"service": svc}, warnings))
}

// LogServiceExpense handles POST /api/v1/supplier-services/:id/log-expense
func (h *Handler) LogServiceExpense(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	logged, err := h.Repos.SupplierServices.LogExpense(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	data := gin.H{"service_id": id, "expense_logged": logged}
	if logged {
		if exp, err := h.Repos.Expenses.BySupplierService(c.Request.Context(), id); err == nil {
			data["expense"] = exp
		}
	}
	respondOK(c, data)
}

// DeleteSupplierService handles DELETE /api/v1/supplier-services/:id along
// with its logged expense
func (h *Handler) DeleteSupplierService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	warnings, err := h.Repos.SupplierServices.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, withWarnings(gin.H{"service_id": id}, warnings))
}
