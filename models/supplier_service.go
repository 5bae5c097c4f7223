package models

// SupplierService is an outsourced service (delivery, finishing, machining)
// bought from a supplier, optionally for a project. When its cost is positive
// an Expense is synthesised and IsExpenseLogged records whether that succeeded.
type SupplierService struct {
	ServiceID       uint      `gorm:"column:ServiceID;primaryKey" json:"service_id"`
	SupplierID      uint      `gorm:"column:SupplierID;not null" json:"supplier_id"`
	Supplier        *Supplier `gorm:"foreignKey:SupplierID;references:SupplierID;belongsTo;constraint:OnDelete:CASCADE" json:"-"`
	ProjectID       *uint     `gorm:"column:ProjectID" json:"project_id"`
	Project         *Project  `gorm:"foreignKey:ProjectID;references:ProjectID;belongsTo;constraint:OnDelete:SET NULL" json:"-"`
	ServiceName     string    `gorm:"column:ServiceName;not null" json:"service_name"`
	ServiceType     string    `gorm:"column:ServiceType;not null" json:"service_type"`
	ServiceDate     Date      `gorm:"column:ServiceDate;not null" json:"service_date"`
	Cost            float64   `gorm:"column:Cost;not null" json:"cost"`
	ReceiptPath     string    `gorm:"column:ReceiptPath" json:"receipt_path"`
	Description     string    `gorm:"column:Description" json:"description"`
	IsExpenseLogged bool      `gorm:"column:IsExpenseLogged;default:0" json:"is_expense_logged"`
	ReferenceID     *string   `gorm:"column:ReferenceID;uniqueIndex:idx_supplier_services_ReferenceID" json:"reference_id"`

	SupplierName string `gorm:"column:SupplierName;->;-:migration" json:"supplier_name,omitempty"`
	ProjectName  string `gorm:"column:ProjectName;->;-:migration" json:"project_name,omitempty"`
}

// TableName specifies the table name for the SupplierService model
func (SupplierService) TableName() string {
	return "supplier_services"
}
