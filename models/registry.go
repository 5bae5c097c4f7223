package models

// All returns every persisted model, parents before children, in the order
// tables must be created.
func All() []interface{} {
	return []interface{}{
		&Customer{},
		&Supplier{},
		&Material{},
		&Product{},
		&Project{},
		&ProjectMaterial{},
		&SupplierService{},
		&Order{},
		&OrderItem{},
		&Expense{},
		&Invoice{},
	}
}
