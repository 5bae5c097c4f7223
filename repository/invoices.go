package repository

import (
	"context"
	"strings"
	"time"

	"github.com/kendall-kelly/workshop-manager/models"
	"gorm.io/gorm"
)

// InvoiceRepository stores customer invoices. Invoice references are chosen
// by the caller; NextReference proposes one.
type InvoiceRepository struct {
	store
}

func (r *InvoiceRepository) query(tx *gorm.DB) *gorm.DB {
	return tx.Table("invoices AS i").
		Select("i.*, " +
			col("p", "ProjectName") + " AS " + quote("ProjectName") + ", " +
			col("c", "CustomerName") + " AS " + quote("CustomerName")).
		Joins("LEFT JOIN projects AS p ON " + col("p", "ProjectID") + " = " + col("i", "ProjectID")).
		Joins("LEFT JOIN customers AS c ON " + col("c", "CustomerID") + " = " + col("i", "CustomerID"))
}

func normalizeInvoice(in *models.Invoice) error {
	in.InvoiceReferenceID = strings.TrimSpace(in.InvoiceReferenceID)
	if err := required("InvoiceReferenceID", in.InvoiceReferenceID); err != nil {
		return err
	}
	if in.ProjectID == 0 {
		return invalid("ProjectID", "is required")
	}
	if in.CustomerID == 0 {
		return invalid("CustomerID", "is required")
	}
	if in.IssueDate.IsZero() {
		return invalid("IssueDate", "is required")
	}
	if in.DueDate.IsZero() {
		return invalid("DueDate", "is required")
	}
	if in.DueDate.Before(in.IssueDate.Time) {
		return invalid("DueDate", "must not be before the issue date")
	}
	if in.TotalAmount < 0 {
		return invalid("TotalAmount", "must not be negative")
	}
	if in.Status == "" {
		in.Status = models.InvoiceDraft
	}
	if !in.Status.Valid() {
		return invalid("Status", "unknown invoice status %q", in.Status)
	}
	return nil
}

func checkInvoiceReference(tx *gorm.DB, ref string, id uint) error {
	var n int64
	err := tx.Model(&models.Invoice{}).
		Where(quote("InvoiceReferenceID")+" = ? AND "+quote("InvoiceID")+" <> ?", ref, id).
		Count(&n).Error
	if err != nil {
		return classify("invoice", err)
	}
	if n > 0 {
		return &DuplicateReferenceError{Entity: "invoice", Reference: ref}
	}
	return nil
}

func checkInvoiceParents(tx *gorm.DB, in *models.Invoice) error {
	if err := requireParent(tx, "invoice", "projects", "ProjectID", &in.ProjectID); err != nil {
		return err
	}
	return requireParent(tx, "invoice", "customers", "CustomerID", &in.CustomerID)
}

// Create inserts an invoice, returning the new id
func (r *InvoiceRepository) Create(ctx context.Context, in *models.Invoice) (uint, error) {
	rec := *in
	if err := normalizeInvoice(&rec); err != nil {
		return 0, err
	}
	rec.InvoiceID = 0
	rec.Project = nil
	rec.Customer = nil

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := checkInvoiceReference(tx, rec.InvoiceReferenceID, 0); err != nil {
			return err
		}
		if err := checkInvoiceParents(tx, &rec); err != nil {
			return err
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return &DuplicateReferenceError{Entity: "invoice", Reference: rec.InvoiceReferenceID}
			}
			return classify("invoice", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	*in = rec
	return rec.InvoiceID, nil
}

// NextReference proposes the next free invoice reference for the month of now
func (r *InvoiceRepository) NextReference(ctx context.Context, now time.Time) (string, error) {
	return NextInvoiceReference(r.session(ctx), now)
}

// Get returns the invoice with id and its project and customer names
func (r *InvoiceRepository) Get(ctx context.Context, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.query(r.session(ctx)).Where(col("i", "InvoiceID")+" = ?", id).Take(&inv).Error; err != nil {
		return nil, classify("invoice", err)
	}
	return &inv, nil
}

// List returns invoices, latest issued first, optionally filtered by
// reference, project, customer or status
func (r *InvoiceRepository) List(ctx context.Context, term string) ([]models.Invoice, error) {
	var out []models.Invoice
	q := search(r.query(r.session(ctx)), term,
		col("i", "InvoiceReferenceID"), col("p", "ProjectName"), col("c", "CustomerName"), col("i", "Status"))
	if err := q.Order(col("i", "IssueDate") + " DESC, " + col("i", "InvoiceID") + " DESC").Find(&out).Error; err != nil {
		return nil, classify("invoice", err)
	}
	return out, nil
}

// ByCustomer returns the invoices billed to one customer
func (r *InvoiceRepository) ByCustomer(ctx context.Context, customerID uint) ([]models.Invoice, error) {
	return r.filtered(ctx, "CustomerID", customerID)
}

// ByProject returns the invoices of one project
func (r *InvoiceRepository) ByProject(ctx context.Context, projectID uint) ([]models.Invoice, error) {
	return r.filtered(ctx, "ProjectID", projectID)
}

func (r *InvoiceRepository) filtered(ctx context.Context, column string, id uint) ([]models.Invoice, error) {
	var out []models.Invoice
	err := r.query(r.session(ctx)).
		Where(col("i", column)+" = ?", id).
		Order(col("i", "IssueDate") + " DESC").
		Find(&out).Error
	if err != nil {
		return nil, classify("invoice", err)
	}
	return out, nil
}

// Update replaces the editable fields of an invoice
func (r *InvoiceRepository) Update(ctx context.Context, id uint, in *models.Invoice) error {
	upd := *in
	if err := normalizeInvoice(&upd); err != nil {
		return err
	}

	return r.transaction(ctx, func(tx *gorm.DB) error {
		var cur models.Invoice
		if err := tx.Where(quote("InvoiceID")+" = ?", id).Take(&cur).Error; err != nil {
			return classify("invoice", err)
		}
		if err := checkInvoiceReference(tx, upd.InvoiceReferenceID, id); err != nil {
			return err
		}
		if err := checkInvoiceParents(tx, &upd); err != nil {
			return err
		}

		upd.InvoiceID = id
		upd.Project = nil
		upd.Customer = nil
		err := tx.Model(&cur).
			Select("InvoiceReferenceID", "ProjectID", "CustomerID", "IssueDate", "DueDate", "PaymentDate",
				"TotalAmount", "Status", "Notes").
			Updates(&upd).Error
		if isUniqueViolation(err) {
			return &DuplicateReferenceError{Entity: "invoice", Reference: upd.InvoiceReferenceID}
		}
		return classify("invoice", err)
	})
}

// Delete removes an invoice
func (r *InvoiceRepository) Delete(ctx context.Context, id uint) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, "invoice", "invoices", "InvoiceID", id); err != nil {
			return err
		}
		err := tx.Where(quote("InvoiceID")+" = ?", id).Delete(&models.Invoice{}).Error
		return classify("invoice", err)
	})
}
