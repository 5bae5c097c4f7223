package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/models"
	"github.com/kendall-kelly/workshop-manager/repository"
)

// CreateOrderRequest represents the request body for creating an order with
// its items
type CreateOrderRequest struct {
	models.Order
	Items []repository.NewOrderItem `json:"items"`
	// RejectInsufficientStock refuses items that exceed stock instead of
	// selling into negative stock
	RejectInsufficientStock bool `json:"reject_insufficient_stock"`
}

// AddOrderItemRequest appends one item to an existing order
type AddOrderItemRequest struct {
	repository.NewOrderItem
	RejectInsufficientStock bool `json:"reject_insufficient_stock"`
}

func stockPolicy(reject bool) repository.StockPolicy {
	if reject {
		return repository.StockReject
	}
	return repository.StockWarn
}

// ListOrders handles GET /api/v1/orders?search=&limit= - newest first
func (h *Handler) ListOrders(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondFail(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	out, err := h.Repos.Orders.List(c.Request.Context(), c.Query("search"), limit)
	respondList(c, out, err)
}

// CreateOrder handles POST /api/v1/orders. The order, its items, the stock
// movements and the total are written together or not at all.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order := req.Order
	id, err := h.Repos.Orders.Create(c.Request.Context(), &order, req.Items, stockPolicy(req.RejectInsufficientStock))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondOrder(c, http.StatusCreated, id)
}

// GetOrder handles GET /api/v1/orders/:id and includes the items
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	h.respondOrder(c, http.StatusOK, id)
}

func (h *Handler) respondOrder(c *gin.Context, status int, id uint) {
	order, err := h.Repos.Orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.Repos.Orders.Items(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []models.OrderItem{}
	}
	c.JSON(status, gin.H{
		"success": true,
		"data": gin.H{
			"order": order,
			"items": items,
		},
	})
}

// UpdateOrder handles PUT /api/v1/orders/:id. Items and the total are
// managed through the item routes.
func (h *Handler) UpdateOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.Order
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Repos.Orders.Update(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Orders.Get)
}

// DeleteOrder handles DELETE /api/v1/orders/:id and returns sold stock
func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Repos.Orders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"order_id": id})
}

// ListOrderItems handles GET /api/v1/orders/:id/items
func (h *Handler) ListOrderItems(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, err := h.Repos.Orders.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	out, err := h.Repos.Orders.Items(c.Request.Context(), id)
	respondList(c, out, err)
}

// AddOrderItem handles POST /api/v1/orders/:id/items
func (h *Handler) AddOrderItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req AddOrderItemRequest
	if !bindJSON(c, &req) {
		return
	}
	if _, err := h.Repos.Orders.AddItem(c.Request.Context(), id, req.NewOrderItem, stockPolicy(req.RejectInsufficientStock)); err != nil {
		respondError(c, err)
		return
	}
	h.respondOrder(c, http.StatusCreated, id)
}

// RemoveOrderItem handles DELETE /api/v1/order-items/:id
func (h *Handler) RemoveOrderItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Repos.Orders.RemoveItem(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"order_item_id": id})
}

// RecomputeOrderTotal handles POST /api/v1/orders/:id/recompute
func (h *Handler) RecomputeOrderTotal(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	total, err := h.Repos.Orders.RecomputeTotal(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"order_id": id, "total_amount": total})
}
