package repository

import (
	"context"

	"github.com/kendall-kelly/workshop-manager/models"
	"gorm.io/gorm"
)

// CustomerRepository stores customers
type CustomerRepository struct {
	store
}

// Create inserts a customer and assigns its reference, returning the new id.
// A blank shipping address defaults to the billing address.
func (r *CustomerRepository) Create(ctx context.Context, in *models.Customer) (uint, error) {
	if err := required("CustomerName", in.CustomerName); err != nil {
		return 0, err
	}

	rec := *in
	rec.CustomerID = 0
	rec.ReferenceID = nil
	if rec.ShippingAddress == "" {
		rec.ShippingAddress = rec.BillingAddress
	}
	if rec.RegistrationDate.IsZero() {
		rec.RegistrationDate = models.Now()
	}

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return classify("customer", err)
		}
		ref, err := assignReference(tx, customerRefs, rec.CustomerID, deref(in.ReferenceID), "")
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
	return rec.CustomerID, nil
}

// Get returns the customer with id
func (r *CustomerRepository) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := r.session(ctx).Where(quote("CustomerID")+" = ?", id).Take(&c).Error; err != nil {
		return nil, classify("customer", err)
	}
	return &c, nil
}

// List returns customers, newest first, optionally filtered by name, email,
// reference or phone
func (r *CustomerRepository) List(ctx context.Context, term string) ([]models.Customer, error) {
	var out []models.Customer
	q := search(r.session(ctx).Model(&models.Customer{}), term,
		quote("CustomerName"), quote("Email"), quote("ReferenceID"), quote("Phone"))
	if err := q.Order(quote("CustomerID") + " DESC").Find(&out).Error; err != nil {
		return nil, classify("customer", err)
	}
	return out, nil
}

// Update replaces the editable fields of a customer
func (r *CustomerRepository) Update(ctx context.Context, id uint, in *models.Customer) error {
	if err := required("CustomerName", in.CustomerName); err != nil {
		return err
	}

	return r.transaction(ctx, func(tx *gorm.DB) error {
		var cur models.Customer
		if err := tx.Where(quote("CustomerID")+" = ?", id).Take(&cur).Error; err != nil {
			return classify("customer", err)
		}
		ref, err := resolveReference(tx, customerRefs, id, cur.ReferenceID, deref(in.ReferenceID), "")
		if err != nil {
			return err
		}

		upd := *in
		upd.CustomerID = id
		upd.ReferenceID = ref
		if upd.RegistrationDate.IsZero() {
			upd.RegistrationDate = cur.RegistrationDate
		}
		err = tx.Model(&cur).
			Select("CustomerName", "Email", "Phone", "BillingAddress", "ShippingAddress", "RegistrationDate", "Notes", "ReferenceID").
			Updates(&upd).Error
		return classify("customer", err)
	})
}

// Delete removes a customer. Customers with projects or invoices cannot be
// deleted; their orders are kept and unlinked.
func (r *CustomerRepository) Delete(ctx context.Context, id uint) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, "customer", "customers", "CustomerID", id); err != nil {
			return err
		}
		err := refuseDependents(tx, "customer", id,
			dependent{"projects", "CustomerID", "projects"},
			dependent{"invoices", "CustomerID", "invoices"},
		)
		if err != nil {
			return err
		}
		err = tx.Where(quote("CustomerID")+" = ?", id).Delete(&models.Customer{}).Error
		return classifyDelete("customer", id, "projects or invoices", err)
	})
}

// SupplierRepository stores suppliers
type SupplierRepository struct {
	store
}

// Create inserts a supplier and assigns its reference, returning the new id.
// Supplier names are unique.
func (r *SupplierRepository) Create(ctx context.Context, in *models.Supplier) (uint, error) {
	if err := required("SupplierName", in.SupplierName); err != nil {
		return 0, err
	}

	rec := *in
	rec.SupplierID = 0
	rec.ReferenceID = nil

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := ensureUniqueValue(tx, "supplier", "suppliers", "SupplierName", "SupplierID", rec.SupplierName, 0); err != nil {
			return err
		}
		if err := tx.Create(&rec).Error; err != nil {
			return classify("supplier", err)
		}
		ref, err := assignReference(tx, supplierRefs, rec.SupplierID, deref(in.ReferenceID), "")
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
	return rec.SupplierID, nil
}

// Get returns the supplier with id
func (r *SupplierRepository) Get(ctx context.Context, id uint) (*models.Supplier, error) {
	var s models.Supplier
	if err := r.session(ctx).Where(quote("SupplierID")+" = ?", id).Take(&s).Error; err != nil {
		return nil, classify("supplier", err)
	}
	return &s, nil
}

// List returns suppliers by name, optionally filtered by name, contact,
// email or reference
func (r *SupplierRepository) List(ctx context.Context, term string) ([]models.Supplier, error) {
	var out []models.Supplier
	q := search(r.session(ctx).Model(&models.Supplier{}), term,
		quote("SupplierName"), quote("ContactPerson"), quote("Email"), quote("ReferenceID"))
	if err := q.Order(quote("SupplierName")).Find(&out).Error; err != nil {
		return nil, classify("supplier", err)
	}
	return out, nil
}

// Update replaces the editable fields of a supplier
func (r *SupplierRepository) Update(ctx context.Context, id uint, in *models.Supplier) error {
	if err := required("SupplierName", in.SupplierName); err != nil {
		return err
	}

	return r.transaction(ctx, func(tx *gorm.DB) error {
		var cur models.Supplier
		if err := tx.Where(quote("SupplierID")+" = ?", id).Take(&cur).Error; err != nil {
			return classify("supplier", err)
		}
		if err := ensureUniqueValue(tx, "supplier", "suppliers", "SupplierName", "SupplierID", in.SupplierName, id); err != nil {
			return err
		}
		ref, err := resolveReference(tx, supplierRefs, id, cur.ReferenceID, deref(in.ReferenceID), "")
		if err != nil {
			return err
		}

		upd := *in
		upd.SupplierID = id
		upd.ReferenceID = ref
		err = tx.Model(&cur).
			Select("SupplierName", "ContactPerson", "Email", "Phone", "Address", "ReferenceID").
			Updates(&upd).Error
		return classify("supplier", err)
	})
}

// Delete removes a supplier together with its services. Materials and
// products it supplied are kept and unlinked. Receipts of the removed
// services are deleted after commit.
func (r *SupplierRepository) Delete(ctx context.Context, id uint) error {
	var receipts []string
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, "supplier", "suppliers", "SupplierID", id); err != nil {
			return err
		}
		err := tx.Model(&models.SupplierService{}).
			Where(quote("SupplierID")+" = ? AND "+quote("ReceiptPath")+" <> ''", id).
			Pluck("ReceiptPath", &receipts).Error
		if err != nil {
			return classify("supplier", err)
		}
		err = tx.Where(quote("SupplierID")+" = ?", id).Delete(&models.Supplier{}).Error
		return classifyDelete("supplier", id, "linked records", err)
	})
	if err != nil {
		return err
	}

	for _, path := range receipts {
		removeFile(ctx, r.receipts, path, "supplier service receipt")
	}
	return nil
}
