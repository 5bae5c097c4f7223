package repository

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/kendall-kelly/workshop-manager/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockPolicy decides what happens when an item asks for more than a
// product has in stock
type StockPolicy int

const (
	// StockWarn logs a warning and sells anyway; stock may go negative
	StockWarn StockPolicy = iota
	// StockReject refuses the item with an InsufficientStockError
	StockReject
)

// NewOrderItem is one line to append to an order. UnitPrice defaults to the
// product's current selling price.
type NewOrderItem struct {
	ProductID uint     `json:"product_id"`
	Quantity  int      `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`
	Discount  float64  `json:"discount"`
}

// LineTotal returns quantity × price − discount rounded to cents
func LineTotal(quantity int, price, discount float64) float64 {
	return decimal.NewFromInt(int64(quantity)).
		Mul(decimal.NewFromFloat(price)).
		Sub(decimal.NewFromFloat(discount)).
		Round(2).
		InexactFloat64()
}

// OrderRepository runs the order consistency protocol: items, product stock
// and the order total always change together
type OrderRepository struct {
	store
}

func (r *OrderRepository) query(tx *gorm.DB) *gorm.DB {
	return tx.Table("orders AS o").
		Select("o.*, " +
			col("c", "CustomerName") + " AS " + quote("CustomerName") + ", " +
			col("c", "ReferenceID") + " AS " + quote("CustomerRefID") + ", " +
			col("p", "ProjectName") + " AS " + quote("ProjectName") + ", " +
			col("p", "ReferenceID") + " AS " + quote("ProjectRefID")).
		Joins("LEFT JOIN customers AS c ON " + col("c", "CustomerID") + " = " + col("o", "CustomerID")).
		Joins("LEFT JOIN projects AS p ON " + col("p", "ProjectID") + " = " + col("o", "ProjectID"))
}

func (r *OrderRepository) itemQuery(tx *gorm.DB) *gorm.DB {
	return tx.Table("order_items AS oi").
		Select("oi.*, " +
			col("pr", "ProductName") + " AS " + quote("ProductName") + ", " +
			col("pr", "SKU") + " AS " + quote("ProductSKU") + ", " +
			col("pr", "ReferenceID") + " AS " + quote("ProductRefID")).
		Joins("LEFT JOIN products AS pr ON " + col("pr", "ProductID") + " = " + col("oi", "ProductID"))
}

func normalizeOrder(in *models.Order) error {
	if in.OrderStatus == "" {
		in.OrderStatus = models.OrderPending
	}
	if !in.OrderStatus.Valid() {
		return invalid("OrderStatus", "unknown order status %q", in.OrderStatus)
	}
	if in.PaymentStatus == "" {
		in.PaymentStatus = models.PaymentUnpaid
	}
	if !in.PaymentStatus.Valid() {
		return invalid("PaymentStatus", "unknown payment status %q", in.PaymentStatus)
	}
	return nil
}

func (r *OrderRepository) checkParents(tx *gorm.DB, o *models.Order) error {
	if err := requireParent(tx, "order", "customers", "CustomerID", o.CustomerID); err != nil {
		return err
	}
	return requireParent(tx, "order", "projects", "ProjectID", o.ProjectID)
}

// Create inserts an order with a zero total, assigns its reference, appends
// items and recomputes the total, all in one transaction. The order's
// TotalAmount input is ignored. A blank shipping address is copied from the
// customer.
func (r *OrderRepository) Create(ctx context.Context, in *models.Order, items []NewOrderItem, policy StockPolicy) (uint, error) {
	rec := *in
	if err := normalizeOrder(&rec); err != nil {
		return 0, err
	}
	rec.OrderID = 0
	rec.ReferenceID = nil
	rec.TotalAmount = 0
	rec.Customer = nil
	rec.Project = nil
	if rec.OrderDate.IsZero() {
		rec.OrderDate = models.Today()
	}

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := r.checkParents(tx, &rec); err != nil {
			return err
		}
		if strings.TrimSpace(rec.ShippingAddress) == "" && rec.CustomerID != nil {
			var customer models.Customer
			err := tx.Where(quote("CustomerID")+" = ?", *rec.CustomerID).Take(&customer).Error
			if err != nil {
				return classify("order", err)
			}
			rec.ShippingAddress = customer.ShippingAddress
		}
		if err := tx.Create(&rec).Error; err != nil {
			return classify("order", err)
		}
		ref, err := assignReference(tx, orderRefs, rec.OrderID, deref(in.ReferenceID), "")
		if err != nil {
			return err
		}
		rec.ReferenceID = &ref

		for i := range items {
			if _, err := appendItem(tx, rec.OrderID, items[i], policy); err != nil {
				return err
			}
		}
		total, err := recomputeTotal(tx, rec.OrderID)
		if err != nil {
			return err
		}
		rec.TotalAmount = total
		return nil
	})
	if err != nil {
		return 0, err
	}
	*in = rec
	return rec.OrderID, nil
}

// appendItem inserts one item with a frozen price and takes its quantity
// out of product stock
func appendItem(tx *gorm.DB, orderID uint, item NewOrderItem, policy StockPolicy) (uint, error) {
	if item.Quantity <= 0 {
		return 0, invalid("Quantity", "must be greater than zero")
	}
	if item.Discount < 0 {
		return 0, invalid("Discount", "must not be negative")
	}
	if item.UnitPrice != nil && *item.UnitPrice < 0 {
		return 0, invalid("UnitPrice", "must not be negative")
	}

	var product models.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(quote("ProductID")+" = ?", item.ProductID).
		Take(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, &ConstraintViolationError{Entity: "order item", Err: &ValidationError{Field: "ProductID", Message: "refers to a missing record"}}
		}
		return 0, classify("order item", err)
	}

	if item.Quantity > product.QuantityInStock {
		if policy == StockReject {
			return 0, &InsufficientStockError{ProductID: product.ProductID, Requested: item.Quantity, Available: product.QuantityInStock}
		}
		log.Printf("WARNING: order %d sells %d of product %d (%s) with only %d in stock",
			orderID, item.Quantity, product.ProductID, product.ProductName, product.QuantityInStock)
	}

	price := product.SellingPrice
	if item.UnitPrice != nil {
		price = *item.UnitPrice
	}
	rec := models.OrderItem{
		OrderID:         orderID,
		ProductID:       product.ProductID,
		QuantitySold:    item.Quantity,
		UnitPriceAtSale: price,
		Discount:        item.Discount,
		LineTotal:       LineTotal(item.Quantity, price, item.Discount),
	}
	if err := tx.Create(&rec).Error; err != nil {
		return 0, classify("order item", err)
	}
	if err := adjustProductStock(tx, product.ProductID, -item.Quantity); err != nil {
		return 0, err
	}
	return rec.OrderItemID, nil
}

// recomputeTotal writes the sum of the order's line totals back to the order
func recomputeTotal(tx *gorm.DB, orderID uint) (float64, error) {
	var lines []float64
	err := tx.Model(&models.OrderItem{}).
		Where(quote("OrderID")+" = ?", orderID).
		Pluck("LineTotal", &lines).Error
	if err != nil {
		return 0, classify("order", err)
	}
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l))
	}
	total := sum.Round(2).InexactFloat64()

	res := tx.Model(&models.Order{}).
		Where(quote("OrderID")+" = ?", orderID).
		Update("TotalAmount", total)
	if res.Error != nil {
		return 0, classify("order", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return total, nil
}

// AddItem appends an item to an existing order, decrements stock and
// recomputes the total in one transaction
func (r *OrderRepository) AddItem(ctx context.Context, orderID uint, item NewOrderItem, policy StockPolicy) (uint, error) {
	var id uint
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, "order", "orders", "OrderID", orderID); err != nil {
			return err
		}
		var err error
		if id, err = appendItem(tx, orderID, item, policy); err != nil {
			return err
		}
		_, err = recomputeTotal(tx, orderID)
		return err
	})
	return id, err
}

// RemoveItem deletes an item, returns its quantity to product stock and
// recomputes the order total
func (r *OrderRepository) RemoveItem(ctx context.Context, itemID uint) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		var item models.OrderItem
		if err := tx.Where(quote("OrderItemID")+" = ?", itemID).Take(&item).Error; err != nil {
			return classify("order item", err)
		}
		if err := tx.Delete(&item).Error; err != nil {
			return classify("order item", err)
		}
		if err := adjustProductStock(tx, item.ProductID, item.QuantitySold); err != nil && err != ErrNotFound {
			return err
		}
		_, err := recomputeTotal(tx, item.OrderID)
		return err
	})
}

// RecomputeTotal re-derives the order total from its items. It is safe to
// call at any time.
func (r *OrderRepository) RecomputeTotal(ctx context.Context, orderID uint) (float64, error) {
	var total float64
	err := r.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		total, err = recomputeTotal(tx, orderID)
		return err
	})
	return total, err
}

// Get returns the order with id and its customer and project names
func (r *OrderRepository) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.query(r.session(ctx)).Where(col("o", "OrderID")+" = ?", id).Take(&o).Error; err != nil {
		return nil, classify("order", err)
	}
	return &o, nil
}

// List returns orders, latest first, optionally filtered by reference,
// customer, project or status. A positive limit caps the result.
func (r *OrderRepository) List(ctx context.Context, term string, limit int) ([]models.Order, error) {
	var out []models.Order
	q := search(r.query(r.session(ctx)), term,
		col("o", "ReferenceID"), col("c", "CustomerName"), col("c", "ReferenceID"),
		col("p", "ProjectName"), col("o", "OrderStatus"), col("o", "PaymentStatus"))
	q = q.Order(col("o", "OrderDate") + " DESC, " + col("o", "OrderID") + " DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, classify("order", err)
	}
	return out, nil
}

// ByCustomer returns the orders placed by one customer
func (r *OrderRepository) ByCustomer(ctx context.Context, customerID uint) ([]models.Order, error) {
	var out []models.Order
	err := r.query(r.session(ctx)).
		Where(col("o", "CustomerID")+" = ?", customerID).
		Order(col("o", "OrderDate") + " DESC").
		Find(&out).Error
	if err != nil {
		return nil, classify("order", err)
	}
	return out, nil
}

// Items returns the lines of an order with product name, SKU and reference
func (r *OrderRepository) Items(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var out []models.OrderItem
	err := r.itemQuery(r.session(ctx)).
		Where(col("oi", "OrderID")+" = ?", orderID).
		Order(col("oi", "OrderItemID")).
		Find(&out).Error
	if err != nil {
		return nil, classify("order item", err)
	}
	return out, nil
}

// Update changes an order's basic information. Items and the total are
// never touched; blank statuses keep their current value.
func (r *OrderRepository) Update(ctx context.Context, id uint, in *models.Order) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		var cur models.Order
		if err := tx.Where(quote("OrderID")+" = ?", id).Take(&cur).Error; err != nil {
			return classify("order", err)
		}

		upd := *in
		if upd.OrderStatus == "" {
			upd.OrderStatus = cur.OrderStatus
		}
		if upd.PaymentStatus == "" {
			upd.PaymentStatus = cur.PaymentStatus
		}
		if upd.OrderDate.IsZero() {
			upd.OrderDate = cur.OrderDate
		}
		if err := normalizeOrder(&upd); err != nil {
			return err
		}
		if err := r.checkParents(tx, &upd); err != nil {
			return err
		}
		ref, err := resolveReference(tx, orderRefs, id, cur.ReferenceID, deref(in.ReferenceID), "")
		if err != nil {
			return err
		}

		upd.OrderID = id
		upd.ReferenceID = ref
		upd.Customer = nil
		upd.Project = nil
		err = tx.Model(&cur).
			Select("OrderDate", "CustomerID", "ProjectID", "OrderStatus", "PaymentStatus",
				"ShippingAddress", "Notes", "ReferenceID").
			Updates(&upd).Error
		return classify("order", err)
	})
}

// Delete removes an order and its items, returning every item's quantity
// to product stock
func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	return r.transaction(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, "order", "orders", "OrderID", id); err != nil {
			return err
		}
		var items []models.OrderItem
		if err := tx.Where(quote("OrderID")+" = ?", id).Find(&items).Error; err != nil {
			return classify("order", err)
		}
		for _, item := range items {
			if err := adjustProductStock(tx, item.ProductID, item.QuantitySold); err != nil && err != ErrNotFound {
				return err
			}
		}
		if err := tx.Where(quote("OrderID")+" = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return classify("order", err)
		}
		err := tx.Where(quote("OrderID")+" = ?", id).Delete(&models.Order{}).Error
		return classify("order", err)
	})
}
