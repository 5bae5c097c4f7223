package models

// Material is raw stock (timber, hardware, finishes) consumed by projects
type Material struct {
	MaterialID      uint      `gorm:"column:MaterialID;primaryKey" json:"material_id"`
	MaterialName    string    `gorm:"column:MaterialName;not null;uniqueIndex:idx_materials_MaterialName" json:"material_name"`
	Category        string    `gorm:"column:Category" json:"category"`
	SubType         string    `gorm:"column:SubType" json:"sub_type"`
	UnitOfMeasure   string    `gorm:"column:UnitOfMeasure" json:"unit_of_measure"`
	CostPerUnit     float64   `gorm:"column:CostPerUnit" json:"cost_per_unit"`
	QuantityInStock float64   `gorm:"column:QuantityInStock" json:"quantity_in_stock"`
	SupplierID      *uint     `gorm:"column:SupplierID" json:"supplier_id"`
	Supplier        *Supplier `gorm:"foreignKey:SupplierID;references:SupplierID;belongsTo;constraint:OnDelete:SET NULL" json:"-"`
	LastStockUpdate Timestamp `gorm:"column:LastStockUpdate" json:"last_stock_update"`
	ReferenceID     *string   `gorm:"column:ReferenceID;uniqueIndex:idx_materials_ReferenceID" json:"reference_id"`

	SupplierName string `gorm:"column:SupplierName;->;-:migration" json:"supplier_name,omitempty"`
}

// TableName specifies the table name for the Material model
func (Material) TableName() string {
	return "materials"
}

// Product is a finished item the workshop sells through orders
type Product struct {
	ProductID       uint      `gorm:"column:ProductID;primaryKey" json:"product_id"`
	ProductName     string    `gorm:"column:ProductName;not null" json:"product_name"`
	SKU             *string   `gorm:"column:SKU;uniqueIndex:idx_products_SKU" json:"sku"`
	Description     string    `gorm:"column:Description" json:"description"`
	Category        string    `gorm:"column:Category" json:"category"`
	MaterialType    string    `gorm:"column:MaterialType" json:"material_type"`
	Dimensions      string    `gorm:"column:Dimensions" json:"dimensions"`
	CostPrice       float64   `gorm:"column:CostPrice" json:"cost_price"`
	SellingPrice    float64   `gorm:"column:SellingPrice" json:"selling_price"`
	QuantityInStock int       `gorm:"column:QuantityInStock" json:"quantity_in_stock"`
	ReorderLevel    int       `gorm:"column:ReorderLevel" json:"reorder_level"`
	SupplierID      *uint     `gorm:"column:SupplierID" json:"supplier_id"`
	Supplier        *Supplier `gorm:"foreignKey:SupplierID;references:SupplierID;belongsTo;constraint:OnDelete:SET NULL" json:"-"`
	ImagePath       string    `gorm:"column:ImagePath" json:"image_path"`
	LastStockUpdate Timestamp `gorm:"column:LastStockUpdate" json:"last_stock_update"`
	ReferenceID     *string   `gorm:"column:ReferenceID;uniqueIndex:idx_products_ReferenceID" json:"reference_id"`

	SupplierName string `gorm:"column:SupplierName;->;-:migration" json:"supplier_name,omitempty"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
