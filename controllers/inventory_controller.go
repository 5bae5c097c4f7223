package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/models"
)

// MaterialStockRequest adjusts a material's stock by Delta units
type MaterialStockRequest struct {
	Delta *float64 `json:"delta" binding:"required"`
}

// ProductStockRequest adjusts a product's stock by Delta pieces
type ProductStockRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

// ListMaterials handles GET /api/v1/materials?search=&category=
func (h *Handler) ListMaterials(c *gin.Context) {
	if category := c.Query("category"); category != "" {
		out, err := h.Repos.Materials.ByCategory(c.Request.Context(), category)
		respondList(c, out, err)
		return
	}
	out, err := h.Repos.Materials.List(c.Request.Context(), c.Query("search"))
	respondList(c, out, err)
}

// ListMaterialCategories handles GET /api/v1/materials/categories
func (h *Handler) ListMaterialCategories(c *gin.Context) {
	out, err := h.Repos.Materials.Categories(c.Request.Context())
	respondList(c, out, err)
}

// CreateMaterial handles POST /api/v1/materials
func (h *Handler) CreateMaterial(c *gin.Context) {
	var req models.Material
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.Repos.Materials.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusCreated, id, h.Repos.Materials.Get)
}

// GetMaterial handles GET /api/v1/materials/:id
func (h *Handler) GetMaterial(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Materials.Get)
}

// UpdateMaterial handles PUT /api/v1/materials/:id
func (h *Handler) UpdateMaterial(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.Material
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Repos.Materials.Update(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Materials.Get)
}

// AdjustMaterialStock handles POST /api/v1/materials/:id/stock
func (h *Handler) AdjustMaterialStock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req MaterialStockRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Repos.Materials.AdjustStock(c.Request.Context(), id, *req.Delta); err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Materials.Get)
}

// DeleteMaterial handles DELETE /api/v1/materials/:id
func (h *Handler) DeleteMaterial(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Repos.Materials.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"material_id": id})
}

// ListProducts handles GET /api/v1/products?search=&low_stock=true
func (h *Handler) ListProducts(c *gin.Context) {
	if c.Query("low_stock") == "true" {
		out, err := h.Repos.Products.LowStock(c.Request.Context())
		respondList(c, out, err)
		return
	}
	out, err := h.Repos.Products.List(c.Request.Context(), c.Query("search"))
	respondList(c, out, err)
}

// CreateProduct handles POST /api/v1/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var req models.Product
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.Repos.Products.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusCreated, id, h.Repos.Products.Get)
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Products.Get)
}

// UpdateProduct handles PUT /api/v1/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.Product
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Repos.Products.Update(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Products.Get)
}

// AdjustProductStock handles POST /api/v1/products/:id/stock
func (h *Handler) AdjustProductStock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ProductStockRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Repos.Products.AdjustStock(c.Request.Context(), id, *req.Delta); err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Products.Get)
}

// DeleteProduct handles DELETE /api/v1/products/:id. Products that were
// sold cannot be deleted.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Repos.Products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"product_id": id})
}
