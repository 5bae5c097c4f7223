package repository

import (
	"context"
	"log"
	"strings"

	"github.com/kendall-kelly/workshop-manager/services"
	"gorm.io/gorm"
)

// Repositories bundles one repository per entity around a single database
// session. Every multi-statement operation runs in its own transaction.
type Repositories struct {
	db *gorm.DB

	Customers        *CustomerRepository
	Suppliers        *SupplierRepository
	Materials        *MaterialRepository
	Products         *ProductRepository
	Projects         *ProjectRepository
	ProjectMaterials *ProjectMaterialRepository
	SupplierServices *SupplierServiceRepository
	Orders           *OrderRepository
	Expenses         *ExpenseRepository
	Invoices         *InvoiceRepository
	Reports          *ReportRepository
}

// New wires the repositories to db. images and receipts receive uploaded
// files; a nil store disables file cleanup.
func New(db *gorm.DB, images, receipts services.FileStore) *Repositories {
	base := store{db: db, images: images, receipts: receipts}
	return &Repositories{
		db:               db,
		Customers:        &CustomerRepository{base},
		Suppliers:        &SupplierRepository{base},
		Materials:        &MaterialRepository{base},
		Products:         &ProductRepository{base},
		Projects:         &ProjectRepository{base},
		ProjectMaterials: &ProjectMaterialRepository{base},
		SupplierServices: &SupplierServiceRepository{base},
		Orders:           &OrderRepository{base},
		Expenses:         &ExpenseRepository{base},
		Invoices:         &InvoiceRepository{base},
		Reports:          &ReportRepository{base},
	}
}

// DB returns the underlying session
func (r *Repositories) DB() *gorm.DB {
	return r.db
}

type store struct {
	db       *gorm.DB
	images   services.FileStore
	receipts services.FileStore
}

func (s store) session(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s store) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// removeFile deletes a stored file after the owning row is gone. Failures
// are logged only.
func removeFile(ctx context.Context, files services.FileStore, path, owner string) {
	if files == nil || path == "" {
		return
	}
	if err := files.Remove(ctx, path); err != nil {
		log.Printf("WARNING: could not remove file %s for %s: %v", path, owner, err)
	}
}

// quote wraps an identifier in double quotes. Legacy column names are
// mixed case, which only PostgreSQL distinguishes, and SQLite accepts the
// same quoting.
func quote(name string) string {
	return `"` + name + `"`
}

// col returns alias."Column"
func col(alias, name string) string {
	return alias + "." + quote(name)
}

// search narrows q to rows where any column contains term, ignoring case
func search(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}
	like := "%" + strings.ToLower(term) + "%"
	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, c := range columns {
		conds[i] = "LOWER(" + c + ") LIKE ?"
		args[i] = like
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// countWhere counts rows of table matching column = value
func countWhere(tx *gorm.DB, table, column string, value interface{}) (int64, error) {
	var n int64
	err := tx.Table(table).Where(quote(column)+" = ?", value).Count(&n).Error
	return n, err
}

// exists reports whether table has a row with pk = id
func exists(tx *gorm.DB, table, pk string, id uint) (bool, error) {
	n, err := countWhere(tx, table, pk, id)
	return n > 0, err
}

// requireParent fails with a ConstraintViolationError naming the missing
// parent when id does not exist in table
func requireParent(tx *gorm.DB, entity, table, pk string, id *uint) error {
	if id == nil {
		return nil
	}
	ok, err := exists(tx, table, pk, *id)
	if err != nil {
		return classify(entity, err)
	}
	if !ok {
		return &ConstraintViolationError{Entity: entity, Err: &ValidationError{Field: pk, Message: "refers to a missing record"}}
	}
	return nil
}

// ensureUniqueValue fails with a ConstraintViolationError when another row
// already holds value in column
func ensureUniqueValue(tx *gorm.DB, entity, table, column, pk string, value string, id uint) error {
	var n int64
	err := tx.Table(table).Where(quote(column)+" = ? AND "+quote(pk)+" <> ?", value, id).Count(&n).Error
	if err != nil {
		return classify(entity, err)
	}
	if n > 0 {
		return &ConstraintViolationError{Entity: entity, Err: &ValidationError{Field: column, Message: "\"" + value + "\" already exists"}}
	}
	return nil
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// dependent names a RESTRICT child relationship probed before a delete
type dependent struct {
	table  string
	column string
	label  string
}

// refuseDependents fails with a DependentRecordsError for the first
// relationship that still has rows pointing at id
func refuseDependents(tx *gorm.DB, entity string, id uint, deps ...dependent) error {
	for _, d := range deps {
		n, err := countWhere(tx, d.table, d.column, id)
		if err != nil {
			return classify(entity, err)
		}
		if n > 0 {
			return &DependentRecordsError{Entity: entity, ID: id, Dependents: d.label, Count: n}
		}
	}
	return nil
}

// mustExist returns ErrNotFound when table has no row with pk = id
func mustExist(tx *gorm.DB, entity, table, pk string, id uint) error {
	ok, err := exists(tx, table, pk, id)
	if err != nil {
		return classify(entity, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
