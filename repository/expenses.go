package repository

import (
	"context"

	"github.com/kendall-kelly/workshop-manager/models"
	"gorm.io/gorm"
)

// ExpenseRepository stores workshop expenses, both entered by hand and
// logged from supplier services
type ExpenseRepository struct {
	store
}

func (r *ExpenseRepository) query(tx *gorm.DB) *gorm.DB {
	return tx.Table("expenses AS e").
		Select("e.*, " +
			col("p", "ProjectName") + " AS " + quote("ProjectName") + ", " +
			col("ss", "ReferenceID") + " AS " + quote("ServiceRefID")).
		Joins("LEFT JOIN projects AS p ON " + col("p", "ProjectID") + " = " + col("e", "ProjectID")).
		Joins("LEFT JOIN supplier_services AS ss ON " + col("ss", "ServiceID") + " = " + col("e", "SupplierServiceID"))
}

func validateExpense(in *models.Expense) error {
	if in.ExpenseDate.IsZero() {
		return invalid("ExpenseDate", "is required")
	}
	if err := required("Description", in.Description); err != nil {
		return err
	}
	if in.Amount < 0 {
		return invalid("Amount", "must not be negative")
	}
	return nil
}

// Create inserts an expense and assigns its reference, returning the new id
func (r *ExpenseRepository) Create(ctx context.Context, in *models.Expense) (uint, error) {
	if err := validateExpense(in); err != nil {
		return 0, err
	}

	rec := *in
	rec.ExpenseID = 0
	rec.ReferenceID = nil
	rec.Project = nil
	rec.SupplierService = nil

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := requireParent(tx, "expense", "projects", "ProjectID", rec.ProjectID); err != nil {
			return err
		}
		if err := requireParent(tx, "expense", "supplier_services", "ServiceID", rec.SupplierServiceID); err != nil {
			return err
		}
		if err := tx.Create(&rec).Error; err != nil {
			return classify("expense", err)
		}
		ref, err := assignReference(tx, expenseRefs, rec.ExpenseID, deref(in.ReferenceID), "")
		if err != nil {
			return err
		}
		rec.ReferenceID = &ref
		return nil
	})
	if err != nil {
		return 0, err
	}
	*in = rec
	return rec.ExpenseID, nil
}

// Get returns the expense with id, its project name and the reference of
// the service it was logged from
func (r *ExpenseRepository) Get(ctx context.Context, id uint) (*models.Expense, error) {
	var e models.Expense
	if err := r.query(r.session(ctx)).Where(col("e", "ExpenseID")+" = ?", id).Take(&e).Error; err != nil {
		return nil, classify("expense", err)
	}
	return &e, nil
}

// List returns expenses, latest first, optionally filtered by description,
// category, vendor, project, reference or receipt
func (r *ExpenseRepository) List(ctx context.Context, term string) ([]models.Expense, error) {
	var out []models.Expense
	q := search(r.query(r.session(ctx)), term,
		col("e", "Description"), col("e", "Category"), col("e", "Vendor"), col("p", "ProjectName"),
		col("e", "ReferenceID"), col("e", "ReceiptReference"), col("ss", "ReferenceID"))
	if err := q.Order(col("e", "ExpenseDate") + " DESC, " + col("e", "ExpenseID") + " DESC").Find(&out).Error; err != nil {
		return nil, classify("expense", err)
	}
	return out, nil
}

// ByProject returns the expenses charged to one project
func (r *ExpenseRepository) ByProject(ctx context.Context, projectID uint) ([]models.Expense, error) {
	var out []models.Expense
	err := r.query(r.session(ctx)).
		Where(col("e", "ProjectID")+" = ?", projectID).
		Order(col("e", "ExpenseDate") + " DESC").
		Find(&out).Error
	if err != nil {
		return nil, classify("expense", err)
	}
	return out, nil
}

// BySupplierService returns the expense logged for a supplier service
func (r *ExpenseRepository) BySupplierService(ctx context.Context, serviceID uint) (*models.Expense, error) {
	var e models.Expense
	err := r.query(r.session(ctx)).
		Where(col("e", "SupplierServiceID")+" = ?", serviceID).
		Take(&e).Error
	if err != nil {
		return nil, classify("expense", err)
	}
	return &e, nil
}

// Update replaces the editable fields of an expense. The link to the
// supplier service it was logged from is kept.
func (r *ExpenseRepository) Update(ctx context.Context, id uint, in *models.Expense) error {
	if err := validateExpense(in); err != nil {
		return err
	}

	return r.transaction(ctx, func(tx *gorm.DB) error {
		var cur models.Expense
		if err := tx.Where(quote("ExpenseID")+" = ?", id).Take(&cur).Error; err != nil {
			return classify("expense", err)
		}
		if err := requireParent(tx, "expense", "projects", "ProjectID", in.ProjectID); err != nil {
			return err
		}
		ref, err := resolveReference(tx, expenseRefs, id, cur.ReferenceID, deref(in.ReferenceID), "")
		if err != nil {
			return err
		}

		upd := *in
		upd.ExpenseID = id
		upd.ReferenceID = ref
		upd.Project = nil
		upd.SupplierService = nil
		err = tx.Model(&cur).
			Select("ExpenseDate", "Description", "Category", "Amount", "Vendor", "ProjectID", "ReceiptReference", "ReferenceID").
			Updates(&upd).Error
		return classify("expense", err)
	})
}

// Delete removes an expense. A supplier service it was logged from is not
// changed.
func (r *ExpenseRepository) Delete(ctx context.Context, id uint) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, "expense", "expenses", "ExpenseID", id); err != nil {
			return err
		}
		err := tx.Where(quote("ExpenseID")+" = ?", id).Delete(&models.Expense{}).Error
		return classify("expense", err)
	})
}
