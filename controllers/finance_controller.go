package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/models"
)

// ListExpenses handles GET /api/v1/expenses?search=
func (h *Handler) ListExpenses(c *gin.Context) {
	out, err := h.Repos.Expenses.List(c.Request.Context(), c.Query("search"))
	respondList(c, out, err)
}

// ListExpenseCategories handles GET /api/v1/expenses/categories
func (h *Handler) ListExpenseCategories(c *gin.Context) {
	respondList(c, models.ExpenseCategories, nil)
}

// CreateExpense handles POST /api/v1/expenses
func (h *Handler) CreateExpense(c *gin.Context) {
	var req models.Expense
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.Repos.Expenses.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusCreated, id, h.Repos.Expenses.Get)
}

// GetExpense handles GET /api/v1/expenses/:id
func (h *Handler) GetExpense(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Expenses.Get)
}

// UpdateExpense handles PUT /api/v1/expenses/:id. The link to a supplier
// service cannot be changed here.
func (h *Handler) UpdateExpense(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.Expense
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Repos.Expenses.Update(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Expenses.Get)
}

// DeleteExpense handles DELETE /api/v1/expenses/:id
func (h *Handler) DeleteExpense(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Repos.Expenses.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"expense_id": id})
}

// ListInvoices handles GET /api/v1/invoices?search=
func (h *Handler) ListInvoices(c *gin.Context) {
	out, err := h.Repos.Invoices.List(c.Request.Context(), c.Query("search"))
	respondList(c, out, err)
}

// NextInvoiceReference handles GET /api/v1/invoices/next-reference
func (h *Handler) NextInvoiceReference(c *gin.Context) {
	ref, err := h.Repos.Invoices.NextReference(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"invoice_reference_id": ref})
}

// CreateInvoice handles POST /api/v1/invoices
func (h *Handler) CreateInvoice(c *gin.Context) {
	var req models.Invoice
	if !bindJSON(c, &req) {
		return
	}
	id, err := h.Repos.Invoices.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusCreated, id, h.Repos.Invoices.Get)
}

// GetInvoice handles GET /api/v1/invoices/:id
func (h *Handler) GetInvoice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Invoices.Get)
}

// UpdateInvoice handles PUT /api/v1/invoices/:id
func (h *Handler) UpdateInvoice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.Invoice
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Repos.Invoices.Update(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}
	respondRecord(c, http.StatusOK, id, h.Repos.Invoices.Get)
}

// DeleteInvoice handles DELETE /api/v1/invoices/:id
func (h *Handler) DeleteInvoice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Repos.Invoices.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"invoice_id": id})
}

// FinancialSummary handles GET /api/v1/reports/financial-summary
func (h *Handler) FinancialSummary(c *gin.Context) {
	out, err := h.Repos.Reports.FinancialSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, out)
}

// ProjectProfitability handles GET /api/v1/reports/project-profitability
func (h *Handler) ProjectProfitability(c *gin.Context) {
	out, err := h.Repos.Reports.ProjectProfitability(c.Request.Context())
	respondList(c, out, err)
}

// SalesByProduct handles GET /api/v1/reports/sales-by-product
func (h *Handler) SalesByProduct(c *gin.Context) {
	out, err := h.Repos.Reports.SalesByProduct(c.Request.Context())
	respondList(c, out, err)
}

// InventoryStatus handles GET /api/v1/reports/inventory
func (h *Handler) InventoryStatus(c *gin.Context) {
	out, err := h.Repos.Reports.InventoryStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, out)
}
