package controllers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/workshop-manager/config"
	"github.com/kendall-kelly/workshop-manager/middleware"
	"github.com/kendall-kelly/workshop-manager/utils"
)

// NewRouter builds the HTTP engine. Health routes are always open; the rest
// of /api/v1 requires an Auth0 token when Auth0 is configured.
func NewRouter(cfg *config.Config, h *Handler) *gin.Engine {
	router := gin.Default()
	router.MaxMultipartMemory = utils.MaxFileSize
	router.Use(middleware.RequestID())
	router.Use(cors.New(corsConfig(cfg)))

	v1 := router.Group("/api/v1")
	v1.GET("/health", HealthCheck)
	v1.GET("/database/status", h.DatabaseStatus)

	api := v1.Group("")
	if cfg.AuthEnabled() {
		api.Use(middleware.EnsureValidToken(cfg), middleware.RequireMethodScope())
	}
	RegisterRoutes(api, h)
	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
		c.AllowCredentials = true
	}
	return c
}

// RegisterRoutes mounts the workshop resources on rg
func RegisterRoutes(rg *gin.RouterGroup, h *Handler) {
	customers := rg.Group("/customers")
	{
		customers.GET("", h.ListCustomers)
		customers.POST("", h.CreateCustomer)
		customers.GET("/:id", h.GetCustomer)
		customers.PUT("/:id", h.UpdateCustomer)
		customers.DELETE("/:id", h.DeleteCustomer)
		customers.GET("/:id/orders", h.ListCustomerOrders)
		customers.GET("/:id/invoices", h.ListCustomerInvoices)
		customers.GET("/:id/projects", h.ListCustomerProjects)
	}

	suppliers := rg.Group("/suppliers")
	{
		suppliers.GET("", h.ListSuppliers)
		suppliers.POST("", h.CreateSupplier)
		suppliers.GET("/:id", h.GetSupplier)
		suppliers.PUT("/:id", h.UpdateSupplier)
		suppliers.DELETE("/:id", h.DeleteSupplier)
	}

	materials := rg.Group("/materials")
	{
		materials.GET("", h.ListMaterials)
		materials.GET("/categories", h.ListMaterialCategories)
		materials.POST("", h.CreateMaterial)
		materials.GET("/:id", h.GetMaterial)
		materials.PUT("/:id", h.UpdateMaterial)
		materials.DELETE("/:id", h.DeleteMaterial)
		materials.POST("/:id/stock", h.AdjustMaterialStock)
	}

	products := rg.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.POST("", h.CreateProduct)
		products.GET("/:id", h.GetProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
		products.POST("/:id/stock", h.AdjustProductStock)
		products.POST("/:id/image", h.UploadProductImage)
		products.GET("/:id/image", h.GetProductImage)
	}

	projects := rg.Group("/projects")
	{
		projects.GET("", h.ListProjects)
		projects.POST("", h.CreateProject)
		projects.GET("/:id", h.GetProject)
		projects.PUT("/:id", h.UpdateProject)
		projects.DELETE("/:id", h.DeleteProject)
		projects.GET("/:id/invoices", h.ListProjectInvoices)
		projects.GET("/:id/services", h.ListProjectServices)
		projects.GET("/:id/expenses", h.ListProjectExpenses)
		projects.GET("/:id/materials", h.ListProjectMaterials)
		projects.POST("/:id/materials", h.AllocateProjectMaterial)
	}
	rg.DELETE("/project-materials/:id", h.RemoveProjectMaterial)

	services := rg.Group("/supplier-services")
	{
		services.GET("", h.ListSupplierServices)
		services.POST("", h.CreateSupplierService)
		services.GET("/:id", h.GetSupplierService)
		services.PUT("/:id", h.UpdateSupplierService)
		services.DELETE("/:id", h.DeleteSupplierService)
		services.POST("/:id/receipt", h.UploadServiceReceipt)
		services.GET("/:id/receipt", h.GetServiceReceipt)
		services.POST("/:id/log-expense", h.LogServiceExpense)
	}

	orders := rg.Group("/orders")
	{
		orders.GET("", h.ListOrders)
		orders.POST("", h.CreateOrder)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id", h.UpdateOrder)
		orders.DELETE("/:id", h.DeleteOrder)
		orders.GET("/:id/items", h.ListOrderItems)
		orders.POST("/:id/items", h.AddOrderItem)
		orders.POST("/:id/recompute", h.RecomputeOrderTotal)
	}
	rg.DELETE("/order-items/:id", h.RemoveOrderItem)

	expenses := rg.Group("/expenses")
	{
		expenses.GET("", h.ListExpenses)
		expenses.GET("/categories", h.ListExpenseCategories)
		expenses.POST("", h.CreateExpense)
		expenses.GET("/:id", h.GetExpense)
		expenses.PUT("/:id", h.UpdateExpense)
		expenses.DELETE("/:id", h.DeleteExpense)
	}

	invoices := rg.Group("/invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.GET("/next-reference", h.NextInvoiceReference)
		invoices.POST("", h.CreateInvoice)
		invoices.GET("/:id", h.GetInvoice)
		invoices.PUT("/:id", h.UpdateInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
	}

	reports := rg.Group("/reports")
	{
		reports.GET("/financial-summary", h.FinancialSummary)
		reports.GET("/project-profitability", h.ProjectProfitability)
		reports.GET("/sales-by-product", h.SalesByProduct)
		reports.GET("/inventory", h.InventoryStatus)
	}
}
