package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kendall-kelly/workshop-manager/models"
	"gorm.io/gorm"
)

// Reference prefixes per entity
const (
	PrefixCustomer = "CUST"
	PrefixSupplier = "SUP"
	PrefixMaterial = "MAT"
	PrefixProduct  = "PROD"
	PrefixProject  = "PROJ"
	PrefixService  = "SERV"
	PrefixOrder    = "ORD"
	PrefixExpense  = "EXP"
)

// DefaultReference formats the generated reference for a surrogate id,
// e.g. CUST-000007.
func DefaultReference(prefix string, id uint) string {
	return fmt.Sprintf("%s-%06d", prefix, id)
}

// refTable describes where an entity keeps its reference id
type refTable struct {
	entity string
	table  string
	pk     string
	prefix string
}

var (
	customerRefs = refTable{"customer", "customers", "CustomerID", PrefixCustomer}
	supplierRefs = refTable{"supplier", "suppliers", "SupplierID", PrefixSupplier}
	materialRefs = refTable{"material", "materials", "MaterialID", PrefixMaterial}
	productRefs  = refTable{"product", "products", "ProductID", PrefixProduct}
	projectRefs  = refTable{"project", "projects", "ProjectID", PrefixProject}
	serviceRefs  = refTable{"supplier service", "supplier_services", "ServiceID", PrefixService}
	orderRefs    = refTable{"order", "orders", "OrderID", PrefixOrder}
	expenseRefs  = refTable{"expense", "expenses", "ExpenseID", PrefixExpense}
)

// checkReferenceFree fails with a DuplicateReferenceError when a row other
// than id already holds ref.
func checkReferenceFree(tx *gorm.DB, t refTable, ref string, id uint) error {
	var count int64
	err := tx.Table(t.table).
		Where(quote("ReferenceID")+" = ? AND "+quote(t.pk)+" <> ?", ref, id).
		Count(&count).Error
	if err != nil {
		return classify(t.entity, err)
	}
	if count > 0 {
		return &DuplicateReferenceError{Entity: t.entity, Reference: ref}
	}
	return nil
}

func writeReference(tx *gorm.DB, t refTable, id uint, ref string) error {
	err := tx.Table(t.table).
		Where(quote(t.pk)+" = ?", id).
		Update("ReferenceID", ref).Error
	return classify(t.entity, err)
}

// assignReference gives a freshly inserted row its reference: the explicit
// value if supplied, else fallback (a product's SKU), else the generated
// default.
func assignReference(tx *gorm.DB, t refTable, id uint, explicit, fallback string) (string, error) {
	ref := strings.TrimSpace(explicit)
	if ref == "" {
		ref = strings.TrimSpace(fallback)
	}
	if ref == "" {
		ref = DefaultReference(t.prefix, id)
	}
	if err := checkReferenceFree(tx, t, ref, id); err != nil {
		return "", err
	}
	if err := writeReference(tx, t, id, ref); err != nil {
		return "", err
	}
	return ref, nil
}

// resolveReference decides the reference of an updated row. A supplied
// value that differs from the current one is re-validated; a row without a
// reference gets one now; otherwise the current reference is kept.
func resolveReference(tx *gorm.DB, t refTable, id uint, current *string, supplied, fallback string) (*string, error) {
	cur := ""
	if current != nil {
		cur = *current
	}
	ref := strings.TrimSpace(supplied)

	switch {
	case ref != "" && ref != cur:
	case ref == "" && cur == "":
		ref = strings.TrimSpace(fallback)
		if ref == "" {
			ref = DefaultReference(t.prefix, id)
		}
	default:
		return current, nil
	}

	if err := checkReferenceFree(tx, t, ref, id); err != nil {
		return nil, err
	}
	return &ref, nil
}

// NextInvoiceReference proposes the next invoice reference for the month of
// now: INV-YYYYMM-NNNN, one past the highest existing sequence number.
func NextInvoiceReference(tx *gorm.DB, now time.Time) (string, error) {
	month := now.Format("200601")
	prefix := "INV-" + month + "-"

	// compared numerically so INV-YYYYMM-10000 ranks above -9999
	var refs []string
	err := tx.Model(&models.Invoice{}).
		Where(quote("InvoiceReferenceID")+" LIKE ?", prefix+"%").
		Pluck("InvoiceReferenceID", &refs).Error
	if err != nil {
		return "", classify("invoice", err)
	}

	next := 1
	for _, ref := range refs {
		n, err := strconv.Atoi(strings.TrimPrefix(ref, prefix))
		if err != nil {
			continue
		}
		if n >= next {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}
