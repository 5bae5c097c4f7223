package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/models"
)

// ListCustomers handles GET /api/v1/customers?search=
func (h *Handler) ListCustomers(c *gin.Context) {
	out, err := h.Repos.Customers.List(c.Request.Context(), c.Query("search"))
	respondList(c, out, err)
}

// CreateCustomer handles POST /api/v1/customers
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req models.Customer
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.Repos.Customers.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusCreated, id, h.Repos.Customers.Get)
}

// GetCustomer handles GET /api/v1/customers/:id
func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Customers.Get)
}

// UpdateCustomer handles PUT /api/v1/customers/:id
func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.Customer
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Repos.Customers.Update(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Customers.Get)
}

// DeleteCustomer handles DELETE /api/v1/customers/:id
func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Repos.Customers.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"customer_id": id})
}

// ListCustomerOrders handles GET /api/v1/customers/:id/orders
func (h *Handler) ListCustomerOrders(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Repos.Orders.ByCustomer(c.Request.Context(), id)
	respondList(c, out, err)
}

// ListCustomerInvoices handles GET /api/v1/customers/:id/invoices
func (h *Handler) ListCustomerInvoices(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Repos.Invoices.ByCustomer(c.Request.Context(), id)
	respondList(c, out, err)
}

// ListCustomerProjects handles GET /api/v1/customers/:id/projects
func (h *Handler) ListCustomerProjects(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.Repos.Projects.ByCustomer(c.Request.Context(), id)
	respondList(c, out, err)
}

// ListSuppliers handles GET /api/v1/suppliers?search=
func (h *Handler) ListSuppliers(c *gin.Context) {
	out, err := h.Repos.Suppliers.List(c.Request.Context(), c.Query("search"))
	respondList(c, out, err)
}

// CreateSupplier handles POST /api/v1/suppliers
func (h *Handler) CreateSupplier(c *gin.Context) {
	var req models.Supplier
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.Repos.Suppliers.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusCreated, id, h.Repos.Suppliers.Get)
}

// GetSupplier handles GET /api/v1/suppliers/:id
func (h *Handler) GetSupplier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Suppliers.Get)
}

// UpdateSupplier handles PUT /api/v1/suppliers/:id
func (h *Handler) UpdateSupplier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.Supplier
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Repos.Suppliers.Update(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Suppliers.Get)
}

// DeleteSupplier handles DELETE /api/v1/suppliers/:id. Supplier services
// go with it; materials and products are unlinked.
func (h *Handler) DeleteSupplier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Repos.Suppliers.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"supplier_id": id})
}
