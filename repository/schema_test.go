package repository

import (
	"errors"
	"strings"
	"testing"

	"github.com/kendall-kelly/workshop-manager/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func columnNames(t *testing.T, db *gorm.DB, model interface{}) []string {
	t.Helper()
	types, err := db.Migrator().ColumnTypes(model)
	require.NoError(t, err)
	names := make([]string, 0, len(types))
	for _, ct := range types {
		names = append(names, ct.Name())
	}
	return names
}

func indexNames(t *testing.T, db *gorm.DB, table string) []string {
	t.Helper()
	var names []string
	err := db.Raw("SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND sql IS NOT NULL ORDER BY name", table).
		Scan(&names).Error
	require.NoError(t, err)
	return names
}

func TestEnsureSchemaCreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, EnsureSchema(db))

	for _, table := range []string{
		"customers", "suppliers", "materials", "products", "projects", "project_materials",
		"supplier_services", "orders", "order_items", "expenses", "invoices",
	} {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
	}

	assert.True(t, db.Migrator().HasIndex(&models.Customer{}, "idx_customers_ReferenceID"))
	assert.True(t, db.Migrator().HasIndex(&models.Invoice{}, "idx_invoices_InvoiceReferenceID"))
	assert.True(t, db.Migrator().HasIndex(&models.Product{}, "idx_products_SKU"))

	// joined display fields are never stored
	assert.NotContains(t, columnNames(t, db, &models.Order{}), "CustomerName")
}

type foreignKey struct {
	Table    string `gorm:"column:table"`
	From     string `gorm:"column:from"`
	To       string `gorm:"column:to"`
	OnDelete string `gorm:"column:on_delete"`
}

func foreignKeys(t *testing.T, db *gorm.DB, table string) map[string]foreignKey {
	t.Helper()
	var rows []foreignKey
	require.NoError(t, db.Raw("PRAGMA foreign_key_list("+table+")").Scan(&rows).Error)
	out := make(map[string]foreignKey, len(rows))
	for _, fk := range rows {
		out[fk.From] = fk
	}
	return out
}

func TestEnsureSchemaCreatesForeignKeyPolicies(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, EnsureSchema(db))

	tests := []struct {
		table, column, parent, onDelete string
	}{
		{"materials", "SupplierID", "suppliers", "SET NULL"},
		{"products", "SupplierID", "suppliers", "SET NULL"},
		{"projects", "CustomerID", "customers", "RESTRICT"},
		{"project_materials", "ProjectID", "projects", "CASCADE"},
		{"project_materials", "MaterialID", "materials", "CASCADE"},
		{"supplier_services", "SupplierID", "suppliers", "CASCADE"},
		{"supplier_services", "ProjectID", "projects", "SET NULL"},
		{"orders", "CustomerID", "customers", "SET NULL"},
		{"orders", "ProjectID", "projects", "SET NULL"},
		{"order_items", "OrderID", "orders", "CASCADE"},
		{"order_items", "ProductID", "products", "RESTRICT"},
		{"expenses", "ProjectID", "projects", "SET NULL"},
		{"expenses", "SupplierServiceID", "supplier_services", "SET NULL"},
		{"invoices", "ProjectID", "projects", "RESTRICT"},
		{"invoices", "CustomerID", "customers", "RESTRICT"},
	}
	for _, tt := range tests {
		t.Run(tt.table+"."+tt.column, func(t *testing.T) {
			fk, ok := foreignKeys(t, db, tt.table)[tt.column]
			require.True(t, ok, "%s.%s has no foreign key", tt.table, tt.column)
			assert.Equal(t, tt.parent, fk.Table)
			assert.Equal(t, tt.column, fk.To)
			assert.Equal(t, tt.onDelete, fk.OnDelete)
		})
	}

	// parents never point back at their children
	assert.Empty(t, foreignKeys(t, db, "customers"))
	assert.Empty(t, foreignKeys(t, db, "suppliers"))
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, EnsureSchema(db))
	before := make(map[string][]string)
	beforeIdx := make(map[string][]string)
	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db}
		require.NoError(t, stmt.Parse(model))
		before[stmt.Table] = columnNames(t, db, model)
		beforeIdx[stmt.Table] = indexNames(t, db, stmt.Table)
	}

	require.NoError(t, EnsureSchema(db))
	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db}
		require.NoError(t, stmt.Parse(model))
		assert.Equal(t, before[stmt.Table], columnNames(t, db, model), "columns of %s changed", stmt.Table)
		assert.Equal(t, beforeIdx[stmt.Table], indexNames(t, db, stmt.Table), "indexes of %s changed", stmt.Table)
	}
}

func TestEnsureSchemaEvolvesLegacyTables(t *testing.T) {
	db := openTestDB(t)

	// an early revision without references, addresses or the service back-link
	require.NoError(t, db.Exec(`CREATE TABLE customers (
		"CustomerID" INTEGER PRIMARY KEY AUTOINCREMENT,
		"CustomerName" TEXT NOT NULL,
		"Email" TEXT
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO customers ("CustomerName", "Email") VALUES ('Old Customer', 'old@example.com')`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE expenses (
		"ExpenseID" INTEGER PRIMARY KEY AUTOINCREMENT,
		"ExpenseDate" TEXT NOT NULL,
		"Description" TEXT NOT NULL,
		"Amount" REAL NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO expenses ("ExpenseDate", "Description", "Amount") VALUES ('2024-03-01', 'Sandpaper', 12.5)`).Error)

	require.NoError(t, EnsureSchema(db))

	customerCols := columnNames(t, db, &models.Customer{})
	for _, c := range []string{"Phone", "BillingAddress", "ShippingAddress", "RegistrationDate", "Notes", "ReferenceID"} {
		assert.Contains(t, customerCols, c)
	}
	expenseCols := columnNames(t, db, &models.Expense{})
	for _, c := range []string{"Category", "Vendor", "ProjectID", "SupplierServiceID", "ReceiptReference", "ReferenceID"} {
		assert.Contains(t, expenseCols, c)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Customer{}, "idx_customers_ReferenceID"))

	// existing rows survive with NULL in the new columns
	var c models.Customer
	require.NoError(t, db.Where(quote("CustomerName")+" = ?", "Old Customer").Take(&c).Error)
	assert.Equal(t, "old@example.com", c.Email)
	assert.Nil(t, c.ReferenceID)

	var e models.Expense
	require.NoError(t, db.Take(&e).Error)
	assert.Equal(t, 12.5, e.Amount)
	assert.Equal(t, "2024-03-01", e.ExpenseDate.String())
	assert.Nil(t, e.SupplierServiceID)

	// added foreign key columns carry their references
	var ddl string
	require.NoError(t, db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = 'expenses'").Scan(&ddl).Error)
	assert.Contains(t, strings.ToUpper(ddl), "ON DELETE SET NULL")
	expenseFKs := foreignKeys(t, db, "expenses")
	assert.Equal(t, "projects", expenseFKs["ProjectID"].Table)
	assert.Equal(t, "SET NULL", expenseFKs["ProjectID"].OnDelete)
	assert.Equal(t, "supplier_services", expenseFKs["SupplierServiceID"].Table)

	// running again against the evolved file changes nothing
	require.NoError(t, EnsureSchema(db))
	assert.Equal(t, customerCols, columnNames(t, db, &models.Customer{}))
}

func TestEnsureSchemaSkipsUniqueIndexOnDuplicateData(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Exec(`CREATE TABLE suppliers (
		"SupplierID" INTEGER PRIMARY KEY AUTOINCREMENT,
		"SupplierName" TEXT NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO suppliers ("SupplierName") VALUES ('Timber Co'), ('Timber Co')`).Error)

	require.NoError(t, EnsureSchema(db), "duplicate data must not abort startup")

	assert.False(t, db.Migrator().HasIndex(&models.Supplier{}, "idx_suppliers_SupplierName"))
	assert.True(t, db.Migrator().HasIndex(&models.Supplier{}, "idx_suppliers_ReferenceID"))
	assert.Contains(t, columnNames(t, db, &models.Supplier{}), "ReferenceID")
}

func TestEnsureSchemaFailureIsSchemaError(t *testing.T) {
	db := openTestDB(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = EnsureSchema(db)
	require.Error(t, err)
	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr), "expected *SchemaError, got %T", err)
}

func TestUniqueIndexNames(t *testing.T) {
	db := openTestDB(t)

	names, err := UniqueIndexNames(db)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"idx_products_SKU", "idx_products_ReferenceID"}, names["products"])
	assert.Equal(t, []string{"idx_invoices_InvoiceReferenceID"}, names["invoices"])
}
