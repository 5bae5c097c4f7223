package repository

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"

	"github.com/kendall-kelly/workshop-manager/models"
	"github.com/kendall-kelly/workshop-manager/services"
	"gorm.io/gorm"
)

// MaterialRepository stores raw materials
type MaterialRepository struct {
	store
}

func (r *MaterialRepository) query(tx *gorm.DB) *gorm.DB {
	return tx.Table("materials AS m").
		Select("m.*, " + col("s", "SupplierName") + " AS " + quote("SupplierName")).
		Joins("LEFT JOIN suppliers AS s ON " + col("s", "SupplierID") + " = " + col("m", "SupplierID"))
}

func validateMaterial(in *models.Material) error {
	if err := required("MaterialName", in.MaterialName); err != nil {
		return err
	}
	if in.CostPerUnit < 0 {
		return invalid("CostPerUnit", "must not be negative")
	}
	return nil
}

// Create inserts a material and assigns its reference, returning the new id.
// Material names are unique.
func (r *MaterialRepository) Create(ctx context.Context, in *models.Material) (uint, error) {
	if err := validateMaterial(in); err != nil {
		return 0, err
	}

	rec := *in
	rec.MaterialID = 0
	rec.ReferenceID = nil
	rec.Supplier = nil
	rec.LastStockUpdate = models.Now()

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := ensureUniqueValue(tx, "material", "materials", "MaterialName", "MaterialID", rec.MaterialName, 0); err != nil {
			return err
		}
		if err := requireParent(tx, "material", "suppliers", "SupplierID", rec.SupplierID); err != nil {
			return err
		}
		if err := tx.Create(&rec).Error; err != nil {
			return classify("material", err)
		}
		ref, err := assignReference(tx, materialRefs, rec.MaterialID, deref(in.ReferenceID), "")
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
	return rec.MaterialID, nil
}

// Get returns the material with id and its supplier name
func (r *MaterialRepository) Get(ctx context.Context, id uint) (*models.Material, error) {
	var m models.Material
	if err := r.query(r.session(ctx)).Where(col("m", "MaterialID")+" = ?", id).Take(&m).Error; err != nil {
		return nil, classify("material", err)
	}
	return &m, nil
}

// List returns materials by name, optionally filtered by name, category,
// subtype, supplier name or reference
func (r *MaterialRepository) List(ctx context.Context, term string) ([]models.Material, error) {
	var out []models.Material
	q := search(r.query(r.session(ctx)), term,
		col("m", "MaterialName"), col("m", "Category"), col("m", "SubType"), col("s", "SupplierName"), col("m", "ReferenceID"))
	if err := q.Order(col("m", "MaterialName")).Find(&out).Error; err != nil {
		return nil, classify("material", err)
	}
	return out, nil
}

// ByCategory returns the materials of one category
func (r *MaterialRepository) ByCategory(ctx context.Context, category string) ([]models.Material, error) {
	var out []models.Material
	err := r.query(r.session(ctx)).
		Where(col("m", "Category")+" = ?", category).
		Order(col("m", "MaterialName")).
		Find(&out).Error
	if err != nil {
		return nil, classify("material", err)
	}
	return out, nil
}

// Categories returns the distinct non-empty material categories
func (r *MaterialRepository) Categories(ctx context.Context) ([]string, error) {
	var out []string
	err := r.session(ctx).Model(&models.Material{}).
		Distinct("Category").
		Where(quote("Category")+" IS NOT NULL AND "+quote("Category")+" <> ''").
		Order(quote("Category")).
		Pluck("Category", &out).Error
	if err != nil {
		return nil, classify("material", err)
	}
	return out, nil
}

// Update replaces the editable fields of a material
func (r *MaterialRepository) Update(ctx context.Context, id uint, in *models.Material) error {
	if err := validateMaterial(in); err != nil {
		return err
	}

	return r.transaction(ctx, func(tx *gorm.DB) error {
		var cur models.Material
		if err := tx.Where(quote("MaterialID")+" = ?", id).Take(&cur).Error; err != nil {
			return classify("material", err)
		}
		if err := ensureUniqueValue(tx, "material", "materials", "MaterialName", "MaterialID", in.MaterialName, id); err != nil {
			return err
		}
		if err := requireParent(tx, "material", "suppliers", "SupplierID", in.SupplierID); err != nil {
			return err
		}
		ref, err := resolveReference(tx, materialRefs, id, cur.ReferenceID, deref(in.ReferenceID), "")
		if err != nil {
			return err
		}

		upd := *in
		upd.MaterialID = id
		upd.ReferenceID = ref
		upd.Supplier = nil
		upd.LastStockUpdate = models.Now()
		err = tx.Model(&cur).
			Select("MaterialName", "Category", "SubType", "UnitOfMeasure", "CostPerUnit", "QuantityInStock",
				"SupplierID", "LastStockUpdate", "ReferenceID").
			Updates(&upd).Error
		return classify("material", err)
	})
}

// AdjustStock adds delta (which may be negative) to the material's stock
func (r *MaterialRepository) AdjustStock(ctx context.Context, id uint, delta float64) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		return adjustMaterialStock(tx, id, delta)
	})
}

func adjustMaterialStock(tx *gorm.DB, id uint, delta float64) error {
	res := tx.Model(&models.Material{}).
		Where(quote("MaterialID")+" = ?", id).
		Updates(map[string]interface{}{
			"QuantityInStock": gorm.Expr("COALESCE("+quote("QuantityInStock")+", 0) + ?", delta),
			"LastStockUpdate": models.Now(),
		})
	if res.Error != nil {
		return classify("material", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a material together with its project allocations
func (r *MaterialRepository) Delete(ctx context.Context, id uint) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, "material", "materials", "MaterialID", id); err != nil {
			return err
		}
		err := tx.Where(quote("MaterialID")+" = ?", id).Delete(&models.Material{}).Error
		return classifyDelete("material", id, "project allocations", err)
	})
}

// ProductRepository stores finished products
type ProductRepository struct {
	store
}

func (r *ProductRepository) query(tx *gorm.DB) *gorm.DB {
	return tx.Table("products AS p").
		Select("p.*, " + col("s", "SupplierName") + " AS " + quote("SupplierName")).
		Joins("LEFT JOIN suppliers AS s ON " + col("s", "SupplierID") + " = " + col("p", "SupplierID"))
}

func validateProduct(in *models.Product) error {
	if err := required("ProductName", in.ProductName); err != nil {
		return err
	}
	if in.SellingPrice < 0 || in.CostPrice < 0 {
		return invalid("SellingPrice", "prices must not be negative")
	}
	return nil
}

// Create inserts a product, returning the new id. The reference is the
// explicit one, else the SKU, else PROD-<id>.
func (r *ProductRepository) Create(ctx context.Context, in *models.Product) (uint, error) {
	if err := validateProduct(in); err != nil {
		return 0, err
	}

	rec := *in
	rec.ProductID = 0
	rec.ReferenceID = nil
	rec.Supplier = nil
	rec.SKU = optional(in.SKU)
	rec.LastStockUpdate = models.Now()

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if rec.SKU != nil {
			if err := ensureUniqueValue(tx, "product", "products", "SKU", "ProductID", *rec.SKU, 0); err != nil {
				return err
			}
		}
		if err := requireParent(tx, "product", "suppliers", "SupplierID", rec.SupplierID); err != nil {
			return err
		}
		if err := tx.Create(&rec).Error; err != nil {
			return classify("product", err)
		}
		ref, err := assignReference(tx, productRefs, rec.ProductID, deref(in.ReferenceID), deref(rec.SKU))
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
	return rec.ProductID, nil
}

// Get returns the product with id and its supplier name
func (r *ProductRepository) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.query(r.session(ctx)).Where(col("p", "ProductID")+" = ?", id).Take(&p).Error; err != nil {
		return nil, classify("product", err)
	}
	return &p, nil
}

// List returns products, newest first, optionally filtered by name, SKU,
// reference, category or supplier name
func (r *ProductRepository) List(ctx context.Context, term string) ([]models.Product, error) {
	var out []models.Product
	q := search(r.query(r.session(ctx)), term,
		col("p", "ProductName"), col("p", "SKU"), col("p", "ReferenceID"), col("p", "Category"), col("s", "SupplierName"))
	if err := q.Order(col("p", "ProductID") + " DESC").Find(&out).Error; err != nil {
		return nil, classify("product", err)
	}
	return out, nil
}

// LowStock returns products at or below their reorder level
func (r *ProductRepository) LowStock(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := r.query(r.session(ctx)).
		Where("COALESCE(" + col("p", "QuantityInStock") + ", 0) <= COALESCE(" + col("p", "ReorderLevel") + ", 0)").
		Order(col("p", "QuantityInStock")).
		Find(&out).Error
	if err != nil {
		return nil, classify("product", err)
	}
	return out, nil
}

// Update replaces the editable fields of a product. Without an explicit
// reference the SKU becomes the reference when set.
func (r *ProductRepository) Update(ctx context.Context, id uint, in *models.Product) error {
	if err := validateProduct(in); err != nil {
		return err
	}

	return r.transaction(ctx, func(tx *gorm.DB) error {
		var cur models.Product
		if err := tx.Where(quote("ProductID")+" = ?", id).Take(&cur).Error; err != nil {
			return classify("product", err)
		}
		sku := optional(in.SKU)
		if sku != nil {
			if err := ensureUniqueValue(tx, "product", "products", "SKU", "ProductID", *sku, id); err != nil {
				return err
			}
		}
		if err := requireParent(tx, "product", "suppliers", "SupplierID", in.SupplierID); err != nil {
			return err
		}
		supplied := deref(in.ReferenceID)
		if supplied == "" {
			supplied = deref(sku)
		}
		ref, err := resolveReference(tx, productRefs, id, cur.ReferenceID, supplied, "")
		if err != nil {
			return err
		}

		upd := *in
		upd.ProductID = id
		upd.SKU = sku
		upd.ReferenceID = ref
		upd.Supplier = nil
		upd.LastStockUpdate = models.Now()
		if upd.ImagePath == "" {
			upd.ImagePath = cur.ImagePath
		}
		err = tx.Model(&cur).
			Select("ProductName", "SKU", "Description", "Category", "MaterialType", "Dimensions", "CostPrice",
				"SellingPrice", "QuantityInStock", "ReorderLevel", "SupplierID", "ImagePath", "LastStockUpdate", "ReferenceID").
			Updates(&upd).Error
		return classify("product", err)
	})
}

// AdjustStock adds delta (which may be negative) to the product's stock
func (r *ProductRepository) AdjustStock(ctx context.Context, id uint, delta int) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		return adjustProductStock(tx, id, delta)
	})
}

func adjustProductStock(tx *gorm.DB, id uint, delta int) error {
	res := tx.Model(&models.Product{}).
		Where(quote("ProductID")+" = ?", id).
		Updates(map[string]interface{}{
			"QuantityInStock": gorm.Expr("COALESCE("+quote("QuantityInStock")+", 0) + ?", delta),
			"LastStockUpdate": models.Now(),
		})
	if res.Error != nil {
		return classify("product", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetImage stores a product image under its deterministic name and records
// the path. A previous image stored under another name is removed.
func (r *ProductRepository) SetImage(ctx context.Context, id uint, filename string, content io.Reader) (string, error) {
	if r.images == nil {
		return "", fmt.Errorf("product images: no file store configured")
	}
	p, err := r.Get(ctx, id)
	if err != nil {
		return "", err
	}

	key := strconv.FormatUint(uint64(id), 10)
	if sku := deref(p.SKU); sku != "" {
		key = sku
	}
	path, err := r.images.Save(ctx, services.ProductImageName(key, filepath.Ext(filename)), content)
	if err != nil {
		return "", fmt.Errorf("failed to store product image: %w", err)
	}

	err = r.session(ctx).Model(&models.Product{}).
		Where(quote("ProductID")+" = ?", id).
		Update("ImagePath", path).Error
	if err != nil {
		if path != p.ImagePath {
			removeFile(ctx, r.images, path, "product image")
		}
		return "", classify("product", err)
	}

	if p.ImagePath != "" && p.ImagePath != path {
		removeFile(ctx, r.images, p.ImagePath, "product image")
	}
	log.Printf("Stored image for product %d at %s", id, path)
	return path, nil
}

// Delete removes a product that is not referenced by any order item, then
// removes its image.
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	var image string
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var cur models.Product
		if err := tx.Where(quote("ProductID")+" = ?", id).Take(&cur).Error; err != nil {
			return classify("product", err)
		}
		image = cur.ImagePath
		if err := refuseDependents(tx, "product", id, dependent{"order_items", "ProductID", "order items"}); err != nil {
			return err
		}
		err := tx.Where(quote("ProductID")+" = ?", id).Delete(&models.Product{}).Error
		return classifyDelete("product", id, "order items", err)
	})
	if err != nil {
		return err
	}

	removeFile(ctx, r.images, image, fmt.Sprintf("product %d", id))
	return nil
}
