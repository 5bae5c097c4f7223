package models

// Expense is money spent by the workshop. Expenses synthesised from a
// supplier service carry SupplierServiceID as a back-reference.
type Expense struct {
	ExpenseID         uint             `gorm:"column:ExpenseID;primaryKey" json:"expense_id"`
	ExpenseDate       Date             `gorm:"column:ExpenseDate;not null" json:"expense_date"`
	Description       string           `gorm:"column:Description;not null" json:"description"`
	Category          string           `gorm:"column:Category" json:"category"`
	Amount            float64          `gorm:"column:Amount;not null" json:"amount"`
	Vendor            string           `gorm:"column:Vendor" json:"vendor"`
	ProjectID         *uint            `gorm:"column:ProjectID" json:"project_id"`
	Project           *Project         `gorm:"foreignKey:ProjectID;references:ProjectID;belongsTo;constraint:OnDelete:SET NULL" json:"-"`
	SupplierServiceID *uint            `gorm:"column:SupplierServiceID" json:"supplier_service_id"`
	SupplierService   *SupplierService `gorm:"foreignKey:SupplierServiceID;references:ServiceID;belongsTo;constraint:OnDelete:SET NULL" json:"-"`
	ReceiptReference  string           `gorm:"column:ReceiptReference" json:"receipt_reference"`
	ReferenceID       *string          `gorm:"column:ReferenceID;uniqueIndex:idx_expenses_ReferenceID" json:"reference_id"`

	ProjectName  string `gorm:"column:ProjectName;->;-:migration" json:"project_name,omitempty"`
	ServiceRefID string `gorm:"column:ServiceRefID;->;-:migration" json:"service_ref_id,omitempty"`
}

// TableName specifies the table name for the Expense model
func (Expense) TableName() string {
	return "expenses"
}

// Invoice bills a customer for a project. Its reference is mandatory and
// never generated from the row id.
type Invoice struct {
	InvoiceID          uint          `gorm:"column:InvoiceID;primaryKey" json:"invoice_id"`
	InvoiceReferenceID string        `gorm:"column:InvoiceReferenceID;not null;uniqueIndex:idx_invoices_InvoiceReferenceID" json:"invoice_reference_id"`
	ProjectID          uint          `gorm:"column:ProjectID;not null" json:"project_id"`
	Project            *Project      `gorm:"foreignKey:ProjectID;references:ProjectID;belongsTo;constraint:OnDelete:RESTRICT" json:"-"`
	CustomerID         uint          `gorm:"column:CustomerID;not null" json:"customer_id"`
	Customer           *Customer     `gorm:"foreignKey:CustomerID;references:CustomerID;belongsTo;constraint:OnDelete:RESTRICT" json:"-"`
	IssueDate          Date          `gorm:"column:IssueDate;not null" json:"issue_date"`
	DueDate            Date          `gorm:"column:DueDate;not null" json:"due_date"`
	PaymentDate        Date          `gorm:"column:PaymentDate" json:"payment_date"`
	TotalAmount        float64       `gorm:"column:TotalAmount;not null" json:"total_amount"`
	Status             InvoiceStatus `gorm:"column:Status;not null" json:"status"`
	Notes              string        `gorm:"column:Notes" json:"notes"`

	ProjectName  string `gorm:"column:ProjectName;->;-:migration" json:"project_name,omitempty"`
	CustomerName string `gorm:"column:CustomerName;->;-:migration" json:"customer_name,omitempty"`
}

// TableName specifies the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}
