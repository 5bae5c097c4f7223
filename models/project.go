package models

// Project is a commissioned piece of work for a customer
type Project struct {
	ProjectID   uint          `gorm:"column:ProjectID;primaryKey" json:"project_id"`
	ProjectName string        `gorm:"column:ProjectName;not null" json:"project_name"`
	CustomerID  *uint         `gorm:"column:CustomerID" json:"customer_id"`
	Customer    *Customer     `gorm:"foreignKey:CustomerID;references:CustomerID;belongsTo;constraint:OnDelete:RESTRICT" json:"-"`
	StartDate   Date          `gorm:"column:StartDate" json:"start_date"`
	EndDate     Date          `gorm:"column:EndDate" json:"end_date"`
	Status      ProjectStatus `gorm:"column:Status" json:"status"`
	Budget      float64       `gorm:"column:Budget" json:"budget"`
	Description string        `gorm:"column:Description" json:"description"`
	ReferenceID *string       `gorm:"column:ReferenceID;uniqueIndex:idx_projects_ReferenceID" json:"reference_id"`

	CustomerName string `gorm:"column:CustomerName;->;-:migration" json:"customer_name,omitempty"`
}

// TableName specifies the table name for the Project model
func (Project) TableName() string {
	return "projects"
}

// ProjectMaterial records material consumed by a project, with the unit
// cost frozen at the time of allocation
type ProjectMaterial struct {
	ProjectMaterialID      uint      `gorm:"column:ProjectMaterialID;primaryKey" json:"project_material_id"`
	ProjectID              uint      `gorm:"column:ProjectID;not null" json:"project_id"`
	Project                *Project  `gorm:"foreignKey:ProjectID;references:ProjectID;belongsTo;constraint:OnDelete:CASCADE" json:"-"`
	MaterialID             uint      `gorm:"column:MaterialID;not null" json:"material_id"`
	Material               *Material `gorm:"foreignKey:MaterialID;references:MaterialID;belongsTo;constraint:OnDelete:CASCADE" json:"-"`
	QuantityUsed           float64   `gorm:"column:QuantityUsed;not null" json:"quantity_used"`
	CostPerUnitAtTimeOfUse float64   `gorm:"column:CostPerUnitAtTimeOfUse" json:"cost_per_unit_at_time_of_use"`
	Notes                  string    `gorm:"column:Notes" json:"notes"`

	MaterialName  string `gorm:"column:MaterialName;->;-:migration" json:"material_name,omitempty"`
	UnitOfMeasure string `gorm:"column:UnitOfMeasure;->;-:migration" json:"unit_of_measure,omitempty"`
	MaterialRefID string `gorm:"column:MaterialRefID;->;-:migration" json:"material_ref_id,omitempty"`
}

// TableName specifies the table name for the ProjectMaterial model
func (ProjectMaterial) TableName() string {
	return "project_materials"
}
