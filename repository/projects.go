package repository

import (
	"context"
	"errors"
	"log"

	"github.com/kendall-kelly/workshop-manager/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProjectRepository stores customer projects
type ProjectRepository struct {
	store
}

func (r *ProjectRepository) query(tx *gorm.DB) *gorm.DB {
	return tx.Table("projects AS p").
		Select("p.*, " + col("c", "CustomerName") + " AS " + quote("CustomerName")).
		Joins("LEFT JOIN customers AS c ON " + col("c", "CustomerID") + " = " + col("p", "CustomerID"))
}

func normalizeProject(in *models.Project) error {
	if err := required("ProjectName", in.ProjectName); err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = models.ProjectPlanning
	}
	if !in.Status.Valid() {
		return invalid("Status", "unknown project status %q", in.Status)
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate.Time) {
		return invalid("EndDate", "must not be before the start date")
	}
	if in.Budget < 0 {
		return invalid("Budget", "must not be negative")
	}
	return nil
}

// Create inserts a project and assigns its reference, returning the new id
func (r *ProjectRepository) Create(ctx context.Context, in *models.Project) (uint, error) {
	rec := *in
	if err := normalizeProject(&rec); err != nil {
		return 0, err
	}
	rec.ProjectID = 0
	rec.ReferenceID = nil
	rec.Customer = nil

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := requireParent(tx, "project", "customers", "CustomerID", rec.CustomerID); err != nil {
			return err
		}
		if err := tx.Create(&rec).Error; err != nil {
			return classify("project", err)
		}
		ref, err := assignReference(tx, projectRefs, rec.ProjectID, deref(in.ReferenceID), "")
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
	return rec.ProjectID, nil
}

// Get returns the project with id and its customer name
func (r *ProjectRepository) Get(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	if err := r.query(r.session(ctx)).Where(col("p", "ProjectID")+" = ?", id).Take(&p).Error; err != nil {
		return nil, classify("project", err)
	}
	return &p, nil
}

// List returns projects, newest first, optionally filtered by project name,
// customer name or reference, status or project reference
func (r *ProjectRepository) List(ctx context.Context, term string) ([]models.Project, error) {
	var out []models.Project
	q := search(r.query(r.session(ctx)), term,
		col("p", "ProjectName"), col("c", "CustomerName"), col("c", "ReferenceID"), col("p", "Status"), col("p", "ReferenceID"))
	if err := q.Order(col("p", "ProjectID") + " DESC").Find(&out).Error; err != nil {
		return nil, classify("project", err)
	}
	return out, nil
}

// ByCustomer returns the projects of one customer
func (r *ProjectRepository) ByCustomer(ctx context.Context, customerID uint) ([]models.Project, error) {
	var out []models.Project
	err := r.query(r.session(ctx)).
		Where(col("p", "CustomerID")+" = ?", customerID).
		Order(col("p", "ProjectID") + " DESC").
		Find(&out).Error
	if err != nil {
		return nil, classify("project", err)
	}
	return out, nil
}

// Update replaces the editable fields of a project
func (r *ProjectRepository) Update(ctx context.Context, id uint, in *models.Project) error {
	upd := *in
	if err := normalizeProject(&upd); err != nil {
		return err
	}

	return r.transaction(ctx, func(tx *gorm.DB) error {
		var cur models.Project
		if err := tx.Where(quote("ProjectID")+" = ?", id).Take(&cur).Error; err != nil {
			return classify("project", err)
		}
		if err := requireParent(tx, "project", "customers", "CustomerID", upd.CustomerID); err != nil {
			return err
		}
		ref, err := resolveReference(tx, projectRefs, id, cur.ReferenceID, deref(in.ReferenceID), "")
		if err != nil {
			return err
		}

		upd.ProjectID = id
		upd.ReferenceID = ref
		upd.Customer = nil
		err = tx.Model(&cur).
			Select("ProjectName", "CustomerID", "StartDate", "EndDate", "Status", "Budget", "Description", "ReferenceID").
			Updates(&upd).Error
		return classify("project", err)
	})
}

// Delete removes a project and its material allocations. Projects that
// have been invoiced cannot be deleted; orders, services and expenses are
// kept and unlinked. Allocated material is not returned to stock.
func (r *ProjectRepository) Delete(ctx context.Context, id uint) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, "project", "projects", "ProjectID", id); err != nil {
			return err
		}
		if err := refuseDependents(tx, "project", id, dependent{"invoices", "ProjectID", "invoices"}); err != nil {
			return err
		}
		if err := tx.Where(quote("ProjectID")+" = ?", id).Delete(&models.ProjectMaterial{}).Error; err != nil {
			return classify("project", err)
		}
		err := tx.Where(quote("ProjectID")+" = ?", id).Delete(&models.Project{}).Error
		return classifyDelete("project", id, "invoices", err)
	})
}

// ProjectMaterialRepository records material consumption by projects
type ProjectMaterialRepository struct {
	store
}

func (r *ProjectMaterialRepository) query(tx *gorm.DB) *gorm.DB {
	return tx.Table("project_materials AS pm").
		Select("pm.*, " +
			col("m", "MaterialName") + " AS " + quote("MaterialName") + ", " +
			col("m", "UnitOfMeasure") + " AS " + quote("UnitOfMeasure") + ", " +
			col("m", "ReferenceID") + " AS " + quote("MaterialRefID")).
		Joins("JOIN materials AS m ON " + col("m", "MaterialID") + " = " + col("pm", "MaterialID"))
}

// Allocate records qty of a material as used by a project. The material's
// current unit cost is frozen on the allocation and its stock is reduced in
// the same transaction. Allocating more than is in stock is allowed and
// logged.
func (r *ProjectMaterialRepository) Allocate(ctx context.Context, projectID, materialID uint, qty float64, notes string) (uint, error) {
	if qty <= 0 {
		return 0, invalid("QuantityUsed", "must be greater than zero")
	}

	var id uint
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := requireParent(tx, "project material", "projects", "ProjectID", &projectID); err != nil {
			return err
		}
		var material models.Material
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(quote("MaterialID")+" = ?", materialID).
			Take(&material).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ConstraintViolationError{Entity: "project material", Err: &ValidationError{Field: "MaterialID", Message: "refers to a missing record"}}
			}
			return classify("project material", err)
		}
		if material.QuantityInStock < qty {
			log.Printf("WARNING: allocating %.2f %s of material %d (%s) to project %d leaves stock at %.2f",
				qty, material.UnitOfMeasure, materialID, material.MaterialName, projectID, material.QuantityInStock-qty)
		}

		rec := models.ProjectMaterial{
			ProjectID:              projectID,
			MaterialID:             materialID,
			QuantityUsed:           qty,
			CostPerUnitAtTimeOfUse: material.CostPerUnit,
			Notes:                  notes,
		}
		if err := tx.Create(&rec).Error; err != nil {
			return classify("project material", err)
		}
		if err := adjustMaterialStock(tx, materialID, -qty); err != nil {
			return err
		}
		id = rec.ProjectMaterialID
		return nil
	})
	return id, err
}

// Get returns one allocation with its material details
func (r *ProjectMaterialRepository) Get(ctx context.Context, id uint) (*models.ProjectMaterial, error) {
	var pm models.ProjectMaterial
	if err := r.query(r.session(ctx)).Where(col("pm", "ProjectMaterialID")+" = ?", id).Take(&pm).Error; err != nil {
		return nil, classify("project material", err)
	}
	return &pm, nil
}

// ByProject returns the allocations of one project
func (r *ProjectMaterialRepository) ByProject(ctx context.Context, projectID uint) ([]models.ProjectMaterial, error) {
	var out []models.ProjectMaterial
	err := r.query(r.session(ctx)).
		Where(col("pm", "ProjectID")+" = ?", projectID).
		Order(col("m", "MaterialName")).
		Find(&out).Error
	if err != nil {
		return nil, classify("project material", err)
	}
	return out, nil
}

// Remove deletes an allocation and returns its quantity to material stock
func (r *ProjectMaterialRepository) Remove(ctx context.Context, id uint) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		var rec models.ProjectMaterial
		if err := tx.Where(quote("ProjectMaterialID")+" = ?", id).Take(&rec).Error; err != nil {
			return classify("project material", err)
		}
		if err := tx.Delete(&rec).Error; err != nil {
			return classify("project material", err)
		}
		return adjustMaterialStock(tx, rec.MaterialID, rec.QuantityUsed)
	})
}
