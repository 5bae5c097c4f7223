package repository

import (
	"context"

	"github.com/kendall-kelly/workshop-manager/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportRepository computes read-only aggregates over the other tables
type ReportRepository struct {
	store
}

// FinancialSummary is the workshop's income statement
type FinancialSummary struct {
	Revenue             float64 `json:"revenue"`
	COGS                float64 `json:"cogs"`
	GrossProfit         float64 `json:"gross_profit"`
	OperationalExpenses float64 `json:"operational_expenses"`
	NetOperatingIncome  float64 `json:"net_operating_income"`
}

// ProjectProfit is the revenue and cost breakdown of one project
type ProjectProfit struct {
	ProjectID           uint    `gorm:"column:ProjectID" json:"project_id"`
	ProjectName         string  `gorm:"column:ProjectName" json:"project_name"`
	ReferenceID         string  `gorm:"column:ReferenceID" json:"reference_id"`
	Status              string  `gorm:"column:Status" json:"status"`
	Budget              float64 `gorm:"column:Budget" json:"budget"`
	Revenue             float64 `gorm:"column:Revenue" json:"revenue"`
	ExpenseCost         float64 `gorm:"column:ExpenseCost" json:"expense_cost"`
	UnloggedServiceCost float64 `gorm:"column:UnloggedServiceCost" json:"unlogged_service_cost"`
	MaterialCost        float64 `gorm:"column:MaterialCost" json:"material_cost"`
	TotalCost           float64 `gorm:"-" json:"total_cost"`
	Profit              float64 `gorm:"-" json:"profit"`
}

// ProductSales is the quantity and revenue sold of one product
type ProductSales struct {
	ProductID    uint    `gorm:"column:ProductID" json:"product_id"`
	ProductName  string  `gorm:"column:ProductName" json:"product_name"`
	SKU          string  `gorm:"column:SKU" json:"sku"`
	QuantitySold int     `gorm:"column:QuantitySold" json:"quantity_sold"`
	Revenue      float64 `gorm:"column:Revenue" json:"revenue"`
}

// InventorySummary values stock on hand and lists products to reorder
type InventorySummary struct {
	ProductCount       int64            `json:"product_count"`
	ProductStockValue  float64          `json:"product_stock_value"`
	MaterialCount      int64            `json:"material_count"`
	MaterialStockValue float64          `json:"material_stock_value"`
	LowStock           []models.Product `json:"low_stock"`
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func sum(tx *gorm.DB, expr string) (float64, error) {
	var total float64
	err := tx.Select("COALESCE(SUM(" + expr + "), 0)").Row().Scan(&total)
	return total, err
}

// FinancialSummary returns revenue from paid invoices against COGS and
// operational expenses
func (r *ReportRepository) FinancialSummary(ctx context.Context) (*FinancialSummary, error) {
	db := r.session(ctx)

	revenue, err := sum(db.Model(&models.Invoice{}).Where(quote("Status")+" = ?", models.InvoicePaid), quote("TotalAmount"))
	if err != nil {
		return nil, classify("report", err)
	}
	cogs, err := sum(db.Model(&models.Expense{}).Where(quote("Category")+" = ?", models.COGSCategory), quote("Amount"))
	if err != nil {
		return nil, classify("report", err)
	}
	opex, err := sum(db.Model(&models.Expense{}).
		Where("("+quote("Category")+" IS NULL OR "+quote("Category")+" <> ?)", models.COGSCategory), quote("Amount"))
	if err != nil {
		return nil, classify("report", err)
	}

	gross := money(revenue).Sub(money(cogs))
	net := gross.Sub(money(opex))
	return &FinancialSummary{
		Revenue:             money(revenue).Round(2).InexactFloat64(),
		COGS:                money(cogs).Round(2).InexactFloat64(),
		GrossProfit:         gross.Round(2).InexactFloat64(),
		OperationalExpenses: money(opex).Round(2).InexactFloat64(),
		NetOperatingIncome:  net.Round(2).InexactFloat64(),
	}, nil
}

// ProjectProfitability returns, per project, paid-invoice revenue against
// expenses, supplier services not yet logged as expenses and materials used
func (r *ReportRepository) ProjectProfitability(ctx context.Context) ([]ProjectProfit, error) {
	pid := col("p", "ProjectID")
	query := `SELECT ` + pid + ` AS "ProjectID", ` + col("p", "ProjectName") + ` AS "ProjectName",
		COALESCE(` + col("p", "ReferenceID") + `, '') AS "ReferenceID",
		COALESCE(` + col("p", "Status") + `, '') AS "Status",
		COALESCE(` + col("p", "Budget") + `, 0) AS "Budget",
		COALESCE((SELECT SUM(` + col("i", "TotalAmount") + `) FROM invoices AS i
			WHERE ` + col("i", "ProjectID") + ` = ` + pid + ` AND ` + col("i", "Status") + ` = ?), 0) AS "Revenue",
		COALESCE((SELECT SUM(` + col("e", "Amount") + `) FROM expenses AS e
			WHERE ` + col("e", "ProjectID") + ` = ` + pid + `), 0) AS "ExpenseCost",
		COALESCE((SELECT SUM(` + col("ss", "Cost") + `) FROM supplier_services AS ss
			WHERE ` + col("ss", "ProjectID") + ` = ` + pid + `
			AND (` + col("ss", "IsExpenseLogged") + ` IS NULL OR ` + col("ss", "IsExpenseLogged") + ` = ?)), 0) AS "UnloggedServiceCost",
		COALESCE((SELECT SUM(` + col("pm", "QuantityUsed") + ` * ` + col("pm", "CostPerUnitAtTimeOfUse") + `) FROM project_materials AS pm
			WHERE ` + col("pm", "ProjectID") + ` = ` + pid + `), 0) AS "MaterialCost"
		FROM projects AS p
		ORDER BY ` + pid + ` DESC`

	var out []ProjectProfit
	if err := r.session(ctx).Raw(query, models.InvoicePaid, false).Scan(&out).Error; err != nil {
		return nil, classify("report", err)
	}
	for i := range out {
		cost := money(out[i].ExpenseCost).Add(money(out[i].UnloggedServiceCost)).Add(money(out[i].MaterialCost))
		out[i].TotalCost = cost.Round(2).InexactFloat64()
		out[i].Profit = money(out[i].Revenue).Sub(cost).Round(2).InexactFloat64()
	}
	return out, nil
}

// SalesByProduct returns quantity and revenue sold per product, best first
func (r *ReportRepository) SalesByProduct(ctx context.Context) ([]ProductSales, error) {
	var out []ProductSales
	err := r.session(ctx).Table("order_items AS oi").
		Select(col("pr", "ProductID") + ` AS "ProductID", ` +
			col("pr", "ProductName") + ` AS "ProductName", ` +
			`COALESCE(` + col("pr", "SKU") + `, '') AS "SKU", ` +
			`SUM(` + col("oi", "QuantitySold") + `) AS "QuantitySold", ` +
			`SUM(` + col("oi", "LineTotal") + `) AS "Revenue"`).
		Joins("JOIN products AS pr ON " + col("pr", "ProductID") + " = " + col("oi", "ProductID")).
		Group(col("pr", "ProductID") + ", " + col("pr", "ProductName") + ", " + col("pr", "SKU")).
		Order(`"Revenue" DESC`).
		Scan(&out).Error
	if err != nil {
		return nil, classify("report", err)
	}
	return out, nil
}

// InventoryStatus values product and material stock at cost and lists the
// products at or below their reorder level
func (r *ReportRepository) InventoryStatus(ctx context.Context) (*InventorySummary, error) {
	db := r.session(ctx)
	out := &InventorySummary{}

	if err := db.Model(&models.Product{}).Count(&out.ProductCount).Error; err != nil {
		return nil, classify("report", err)
	}
	value, err := sum(db.Model(&models.Product{}), "COALESCE("+quote("QuantityInStock")+", 0) * COALESCE("+quote("CostPrice")+", 0)")
	if err != nil {
		return nil, classify("report", err)
	}
	out.ProductStockValue = money(value).Round(2).InexactFloat64()

	if err := db.Model(&models.Material{}).Count(&out.MaterialCount).Error; err != nil {
		return nil, classify("report", err)
	}
	value, err = sum(db.Model(&models.Material{}), "COALESCE("+quote("QuantityInStock")+", 0) * COALESCE("+quote("CostPerUnit")+", 0)")
	if err != nil {
		return nil, classify("report", err)
	}
	out.MaterialStockValue = money(value).Round(2).InexactFloat64()

	products := &ProductRepository{r.store}
	if out.LowStock, err = products.LowStock(ctx); err != nil {
		return nil, err
	}
	return out, nil
}
