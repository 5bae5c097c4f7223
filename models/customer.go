package models

// Customer is a person or business the workshop sells to
type Customer struct {
	CustomerID       uint      `gorm:"column:CustomerID;primaryKey" json:"customer_id"`
	CustomerName     string    `gorm:"column:CustomerName;not null" json:"customer_name"`
	Email            string    `gorm:"column:Email" json:"email"`
	Phone            string    `gorm:"column:Phone" json:"phone"`
	BillingAddress   string    `gorm:"column:BillingAddress" json:"billing_address"`
	ShippingAddress  string    `gorm:"column:ShippingAddress" json:"shipping_address"`
	RegistrationDate Timestamp `gorm:"column:RegistrationDate" json:"registration_date"`
	Notes            string    `gorm:"column:Notes" json:"notes"`
	ReferenceID      *string   `gorm:"column:ReferenceID;uniqueIndex:idx_customers_ReferenceID" json:"reference_id"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// Supplier provides materials, products or services to the workshop
type Supplier struct {
	SupplierID    uint    `gorm:"column:SupplierID;primaryKey" json:"supplier_id"`
	SupplierName  string  `gorm:"column:SupplierName;not null;uniqueIndex:idx_suppliers_SupplierName" json:"supplier_name"`
	ContactPerson string  `gorm:"column:ContactPerson" json:"contact_person"`
	Email         string  `gorm:"column:Email" json:"email"`
	Phone         string  `gorm:"column:Phone" json:"phone"`
	Address       string  `gorm:"column:Address" json:"address"`
	ReferenceID   *string `gorm:"column:ReferenceID;uniqueIndex:idx_suppliers_ReferenceID" json:"reference_id"`
}

// TableName specifies the table name for the Supplier model
func (Supplier) TableName() string {
	return "suppliers"
}
