package repository

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/kendall-kelly/workshop-manager/models"
	"github.com/kendall-kelly/workshop-manager/services"
	"gorm.io/gorm"
)

// SupplierServiceRepository stores supplier services and keeps their
// auto-logged expenses linked
type SupplierServiceRepository struct {
	store
}

func (r *SupplierServiceRepository) query(tx *gorm.DB) *gorm.DB {
	return tx.Table("supplier_services AS ss").
		Select("ss.*, " +
			col("s", "SupplierName") + " AS " + quote("SupplierName") + ", " +
			col("p", "ProjectName") + " AS " + quote("ProjectName")).
		Joins("LEFT JOIN suppliers AS s ON " + col("s", "SupplierID") + " = " + col("ss", "SupplierID")).
		Joins("LEFT JOIN projects AS p ON " + col("p", "ProjectID") + " = " + col("ss", "ProjectID"))
}

func validateService(in *models.SupplierService) error {
	if in.SupplierID == 0 {
		return invalid("SupplierID", "is required")
	}
	if err := required("ServiceName", in.ServiceName); err != nil {
		return err
	}
	if err := required("ServiceType", in.ServiceType); err != nil {
		return err
	}
	if in.ServiceDate.IsZero() {
		return invalid("ServiceDate", "is required")
	}
	if in.Cost < 0 {
		return invalid("Cost", "must not be negative")
	}
	return nil
}

// ServiceExpenseDescription composes the description of an auto-logged expense
func ServiceExpenseDescription(svc *models.SupplierService, supplierName string) string {
	desc := fmt.Sprintf("Service: %s (Ref: %s) by %s", svc.ServiceName, deref(svc.ReferenceID), supplierName)
	if svc.ServiceType != "" {
		desc += fmt.Sprintf(" (%s)", svc.ServiceType)
	}
	return desc
}

// ServiceReceiptReference composes the receipt reference of an auto-logged
// expense
func ServiceReceiptReference(svc *models.SupplierService) string {
	ref := "ServRef: " + deref(svc.ReferenceID)
	if svc.ReceiptPath != "" {
		ref += ", ReceiptFile: " + filepath.Base(svc.ReceiptPath)
	}
	return ref
}

// logServiceExpense synthesises the expense of svc inside a savepoint and
// flags the service as logged. On failure only the savepoint is rolled back
// and the enclosing transaction stays usable.
func logServiceExpense(tx *gorm.DB, svc *models.SupplierService) (uint, error) {
	var expenseID uint
	err := tx.Transaction(func(sp *gorm.DB) error {
		var supplier models.Supplier
		vendor := fmt.Sprintf("Supplier ID: %d", svc.SupplierID)
		err := sp.Where(quote("SupplierID")+" = ?", svc.SupplierID).Limit(1).Find(&supplier).Error
		if err != nil {
			return classify("expense", err)
		}
		if supplier.SupplierID != 0 {
			vendor = supplier.SupplierName
		}

		projectID := svc.ProjectID
		serviceID := svc.ServiceID
		exp := models.Expense{
			ExpenseDate:       svc.ServiceDate,
			Description:       ServiceExpenseDescription(svc, vendor),
			Category:          models.SupplierServicesCategory,
			Amount:            svc.Cost,
			Vendor:            vendor,
			ProjectID:         projectID,
			SupplierServiceID: &serviceID,
			ReceiptReference:  ServiceReceiptReference(svc),
		}
		if err := sp.Create(&exp).Error; err != nil {
			return classify("expense", err)
		}
		if _, err := assignReference(sp, expenseRefs, exp.ExpenseID, "", ""); err != nil {
			return err
		}
		err = sp.Model(&models.SupplierService{}).
			Where(quote("ServiceID")+" = ?", svc.ServiceID).
			Update("IsExpenseLogged", true).Error
		if err != nil {
			return classify("supplier service", err)
		}
		expenseID = exp.ExpenseID
		return nil
	})
	if err != nil {
		return 0, err
	}
	svc.IsExpenseLogged = true
	return expenseID, nil
}

// Create inserts a supplier service and assigns its reference. When the
// cost is positive an expense is logged for it. A failure to log the
// expense does not fail the create: the service is kept unlogged and
// expenseLogged reports false.
func (r *SupplierServiceRepository) Create(ctx context.Context, in *models.SupplierService) (id uint, expenseLogged bool, err error) {
	if err := validateService(in); err != nil {
		return 0, false, err
	}

	rec := *in
	rec.ServiceID = 0
	rec.ReferenceID = nil
	rec.IsExpenseLogged = false
	rec.Supplier = nil
	rec.Project = nil

	err = r.transaction(ctx, func(tx *gorm.DB) error {
		if err := requireParent(tx, "supplier service", "suppliers", "SupplierID", &rec.SupplierID); err != nil {
			return err
		}
		if err := requireParent(tx, "supplier service", "projects", "ProjectID", rec.ProjectID); err != nil {
			return err
		}
		if err := tx.Create(&rec).Error; err != nil {
			return classify("supplier service", err)
		}
		ref, err := assignReference(tx, serviceRefs, rec.ServiceID, deref(in.ReferenceID), "")
		if err != nil {
			return err
		}
		rec.ReferenceID = &ref

		if rec.Cost > 0 {
			if _, err := logServiceExpense(tx, &rec); err != nil {
				log.Printf("WARNING: supplier service %d (%s) saved but its expense could not be logged: %v", rec.ServiceID, ref, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	*in = rec
	return rec.ServiceID, rec.IsExpenseLogged, nil
}

// LogExpense retries expense logging for a service whose automatic logging
// failed. It reports false without error when there is nothing to log.
func (r *SupplierServiceRepository) LogExpense(ctx context.Context, id uint) (bool, error) {
	logged := false
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var svc models.SupplierService
		if err := tx.Where(quote("ServiceID")+" = ?", id).Take(&svc).Error; err != nil {
			return classify("supplier service", err)
		}
		if svc.IsExpenseLogged || svc.Cost <= 0 {
			return nil
		}
		if _, err := logServiceExpense(tx, &svc); err != nil {
			return err
		}
		logged = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if logged {
		log.Printf("Logged expense for supplier service %d", id)
	}
	return logged, nil
}

// Get returns the service with id and its supplier and project names
func (r *SupplierServiceRepository) Get(ctx context.Context, id uint) (*models.SupplierService, error) {
	var svc models.SupplierService
	if err := r.query(r.session(ctx)).Where(col("ss", "ServiceID")+" = ?", id).Take(&svc).Error; err != nil {
		return nil, classify("supplier service", err)
	}
	return &svc, nil
}

// List returns services, latest first, optionally filtered by name, type,
// supplier, project, description or reference
func (r *SupplierServiceRepository) List(ctx context.Context, term string) ([]models.SupplierService, error) {
	var out []models.SupplierService
	q := search(r.query(r.session(ctx)), term,
		col("ss", "ServiceName"), col("ss", "ServiceType"), col("s", "SupplierName"), col("p", "ProjectName"),
		col("ss", "Description"), col("ss", "ReferenceID"), col("p", "ReferenceID"))
	if err := q.Order(col("ss", "ServiceDate") + " DESC, " + col("ss", "ServiceID") + " DESC").Find(&out).Error; err != nil {
		return nil, classify("supplier service", err)
	}
	return out, nil
}

// ByProject returns the services bought for one project
func (r *SupplierServiceRepository) ByProject(ctx context.Context, projectID uint) ([]models.SupplierService, error) {
	var out []models.SupplierService
	err := r.query(r.session(ctx)).
		Where(col("ss", "ProjectID")+" = ?", projectID).
		Order(col("ss", "ServiceDate") + " DESC").
		Find(&out).Error
	if err != nil {
		return nil, classify("supplier service", err)
	}
	return out, nil
}

// Unlogged returns billable services whose expense has not been logged
func (r *SupplierServiceRepository) Unlogged(ctx context.Context) ([]models.SupplierService, error) {
	var out []models.SupplierService
	err := r.query(r.session(ctx)).
		Where(col("ss", "Cost")+" > 0 AND ("+col("ss", "IsExpenseLogged")+" IS NULL OR "+col("ss", "IsExpenseLogged")+" = ?)", false).
		Order(col("ss", "ServiceDate")).
		Find(&out).Error
	if err != nil {
		return nil, classify("supplier service", err)
	}
	return out, nil
}

// Update replaces the editable fields of a service. An expense that was
// already logged is never changed; if cost, date, supplier or project
// change after logging, a reconciliation warning is returned and logged.
func (r *SupplierServiceRepository) Update(ctx context.Context, id uint, in *models.SupplierService) ([]ReconciliationWarning, error) {
	if err := validateService(in); err != nil {
		return nil, err
	}

	var warnings []ReconciliationWarning
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var cur models.SupplierService
		if err := tx.Where(quote("ServiceID")+" = ?", id).Take(&cur).Error; err != nil {
			return classify("supplier service", err)
		}
		if err := requireParent(tx, "supplier service", "suppliers", "SupplierID", &in.SupplierID); err != nil {
			return err
		}
		if err := requireParent(tx, "supplier service", "projects", "ProjectID", in.ProjectID); err != nil {
			return err
		}
		ref, err := resolveReference(tx, serviceRefs, id, cur.ReferenceID, deref(in.ReferenceID), "")
		if err != nil {
			return err
		}

		upd := *in
		upd.ServiceID = id
		upd.ReferenceID = ref
		upd.Supplier = nil
		upd.Project = nil
		if upd.ReceiptPath == "" {
			upd.ReceiptPath = cur.ReceiptPath
		}
		// compared before the write; cur must keep the stored values
		needsReconciling := cur.IsExpenseLogged && financialChange(&cur, &upd)
		err = tx.Model(&models.SupplierService{}).
			Where(quote("ServiceID")+" = ?", id).
			Select("SupplierID", "ProjectID", "ServiceName", "ServiceType", "ServiceDate", "Cost",
				"ReceiptPath", "Description", "ReferenceID").
			Updates(&upd).Error
		if err != nil {
			return classify("supplier service", err)
		}

		if needsReconciling {
			warnings = append(warnings, ReconciliationWarning{
				ServiceID: id,
				Reference: deref(ref),
				Message:   "cost, date, supplier or project changed after the expense was logged; the linked expense was not updated and needs manual reconciliation",
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Printf("WARNING: reconciliation needed for %s", w)
	}
	return warnings, nil
}

func financialChange(before, after *models.SupplierService) bool {
	return before.Cost != after.Cost ||
		!before.ServiceDate.Equal(after.ServiceDate.Time) ||
		before.SupplierID != after.SupplierID ||
		!sameID(before.ProjectID, after.ProjectID)
}

func sameID(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// SetReceipt stores a receipt for the service under its deterministic name
// and records the path
func (r *SupplierServiceRepository) SetReceipt(ctx context.Context, id uint, filename string, content io.Reader) (string, error) {
	if r.receipts == nil {
		return "", fmt.Errorf("service receipts: no file store configured")
	}
	var cur models.SupplierService
	if err := r.session(ctx).Where(quote("ServiceID")+" = ?", id).Take(&cur).Error; err != nil {
		return "", classify("supplier service", err)
	}

	path, err := r.receipts.Save(ctx, services.ServiceReceiptName(id, filepath.Ext(filename)), content)
	if err != nil {
		return "", fmt.Errorf("failed to store receipt: %w", err)
	}
	err = r.session(ctx).Model(&models.SupplierService{}).
		Where(quote("ServiceID")+" = ?", id).
		Update("ReceiptPath", path).Error
	if err != nil {
		if path != cur.ReceiptPath {
			removeFile(ctx, r.receipts, path, "supplier service receipt")
		}
		return "", classify("supplier service", err)
	}
	if cur.ReceiptPath != "" && cur.ReceiptPath != path {
		removeFile(ctx, r.receipts, cur.ReceiptPath, "supplier service receipt")
	}
	return path, nil
}

// Delete removes a service. Its logged expense is deleted through the
// back-reference; when none can be found a reconciliation warning is
// returned. The receipt file is removed after commit.
func (r *SupplierServiceRepository) Delete(ctx context.Context, id uint) ([]ReconciliationWarning, error) {
	var (
		receipt  string
		warnings []ReconciliationWarning
	)
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var cur models.SupplierService
		if err := tx.Where(quote("ServiceID")+" = ?", id).Take(&cur).Error; err != nil {
			return classify("supplier service", err)
		}
		receipt = cur.ReceiptPath

		if cur.IsExpenseLogged {
			res := tx.Where(quote("SupplierServiceID")+" = ?", id).Delete(&models.Expense{})
			if res.Error != nil {
				return classify("supplier service", res.Error)
			}
			if res.RowsAffected == 0 {
				warnings = append(warnings, ReconciliationWarning{
					ServiceID: id,
					Reference: deref(cur.ReferenceID),
					Message:   "expense was logged but no linked expense was found; review expenses manually",
				})
			}
		}

		err := tx.Where(quote("ServiceID")+" = ?", id).Delete(&models.SupplierService{}).Error
		return classify("supplier service", err)
	})
	if err != nil {
		return nil, err
	}

	for _, w := range warnings {
		log.Printf("INFO: %s", w)
	}
	removeFile(ctx, r.receipts, receipt, fmt.Sprintf("supplier service %d", id))
	return warnings, nil
}
