package models

// Order is a sale of products to a customer. TotalAmount is derived from
// the order's items and only written by the order repository.
type Order struct {
	OrderID         uint          `gorm:"column:OrderID;primaryKey" json:"order_id"`
	OrderDate       Date          `gorm:"column:OrderDate;not null" json:"order_date"`
	CustomerID      *uint         `gorm:"column:CustomerID" json:"customer_id"`
	Customer        *Customer     `gorm:"foreignKey:CustomerID;references:CustomerID;belongsTo;constraint:OnDelete:SET NULL" json:"-"`
	ProjectID       *uint         `gorm:"column:ProjectID" json:"project_id"`
	Project         *Project      `gorm:"foreignKey:ProjectID;references:ProjectID;belongsTo;constraint:OnDelete:SET NULL" json:"-"`
	OrderStatus     OrderStatus   `gorm:"column:OrderStatus" json:"order_status"`
	TotalAmount     float64       `gorm:"column:TotalAmount" json:"total_amount"`
	PaymentStatus   PaymentStatus `gorm:"column:PaymentStatus" json:"payment_status"`
	ShippingAddress string        `gorm:"column:ShippingAddress" json:"shipping_address"`
	Notes           string        `gorm:"column:Notes" json:"notes"`
	ReferenceID     *string       `gorm:"column:ReferenceID;uniqueIndex:idx_orders_ReferenceID" json:"reference_id"`

	CustomerName  string `gorm:"column:CustomerName;->;-:migration" json:"customer_name,omitempty"`
	CustomerRefID string `gorm:"column:CustomerRefID;->;-:migration" json:"customer_ref_id,omitempty"`
	ProjectName   string `gorm:"column:ProjectName;->;-:migration" json:"project_name,omitempty"`
	ProjectRefID  string `gorm:"column:ProjectRefID;->;-:migration" json:"project_ref_id,omitempty"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one product line of an order. UnitPriceAtSale is frozen when
// the line is added; LineTotal = QuantitySold * UnitPriceAtSale - Discount.
type OrderItem struct {
	OrderItemID     uint     `gorm:"column:OrderItemID;primaryKey" json:"order_item_id"`
	OrderID         uint     `gorm:"column:OrderID;not null" json:"order_id"`
	Order           *Order   `gorm:"foreignKey:OrderID;references:OrderID;belongsTo;constraint:OnDelete:CASCADE" json:"-"`
	ProductID       uint     `gorm:"column:ProductID;not null" json:"product_id"`
	Product         *Product `gorm:"foreignKey:ProductID;references:ProductID;belongsTo;constraint:OnDelete:RESTRICT" json:"-"`
	QuantitySold    int      `gorm:"column:QuantitySold" json:"quantity_sold"`
	UnitPriceAtSale float64  `gorm:"column:UnitPriceAtSale" json:"unit_price_at_sale"`
	Discount        float64  `gorm:"column:Discount" json:"discount"`
	LineTotal       float64  `gorm:"column:LineTotal" json:"line_total"`

	ProductName  string `gorm:"column:ProductName;->;-:migration" json:"product_name,omitempty"`
	ProductSKU   string `gorm:"column:ProductSKU;->;-:migration" json:"product_sku,omitempty"`
	ProductRefID string `gorm:"column:ProductRefID;->;-:migration" json:"product_ref_id,omitempty"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
