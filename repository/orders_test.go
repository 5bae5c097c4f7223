package repository

import (
	"errors"
	"testing"

	"github.com/kendall-kelly/workshop-manager/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		qty      int
		price    float64
		discount float64
		want     float64
	}{
		{"plain", 2, 100, 0, 200},
		{"discounted", 1, 50, 10, 40},
		{"cents do not drift", 3, 0.1, 0, 0.3},
		{"rounded to cents", 1, 10.005, 0, 10.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LineTotal(tt.qty, tt.price, tt.discount))
		})
	}
}

func TestCreateOrderComputesTotalAndTakesStock(t *testing.T) {
	env := setupTestEnv(t)
	customerID := env.createCustomer(t, "Buyer")
	chair := env.createProduct(t, "Chair", 100, 10)
	lamp := env.createProduct(t, "Lamp", 50, 5)

	order := &models.Order{CustomerID: &customerID, TotalAmount: 9999}
	id, err := env.repos.Orders.Create(env.ctx, order, []NewOrderItem{
		{ProductID: chair, Quantity: 2},
		{ProductID: lamp, Quantity: 1, Discount: 10},
	}, StockReject)
	require.NoError(t, err)

	assert.Equal(t, 240.0, order.TotalAmount)
	assert.Equal(t, DefaultReference(PrefixOrder, id), *order.ReferenceID)
	assert.Equal(t, models.OrderPending, order.OrderStatus)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	assert.Equal(t, "1 Bench Lane", order.ShippingAddress, "shipping address should come from the customer")
	assert.False(t, order.OrderDate.IsZero())

	stored, err := env.repos.Orders.Get(env.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 240.0, stored.TotalAmount)
	assert.Equal(t, "Buyer", stored.CustomerName)

	items, err := env.repos.Orders.Items(env.ctx, id)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Chair", items[0].ProductName)
	assert.Equal(t, 200.0, items[0].LineTotal)
	assert.Equal(t, 40.0, items[1].LineTotal)

	assert.Equal(t, 8, env.productStock(t, chair))
	assert.Equal(t, 4, env.productStock(t, lamp))
}

func TestUnitPriceIsFrozenAtSale(t *testing.T) {
	env := setupTestEnv(t)
	table := env.createProduct(t, "Table", 300, 3)

	id, err := env.repos.Orders.Create(env.ctx, &models.Order{}, []NewOrderItem{{ProductID: table, Quantity: 1}}, StockWarn)
	require.NoError(t, err)
	_, err = env.repos.Orders.AddItem(env.ctx, id, NewOrderItem{ProductID: table, Quantity: 1, UnitPrice: ptr(250.0)}, StockWarn)
	require.NoError(t, err)

	require.NoError(t, env.repos.Products.Update(env.ctx, table, &models.Product{ProductName: "Table", SellingPrice: 400, QuantityInStock: 1}))

	items, err := env.repos.Orders.Items(env.ctx, id)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 300.0, items[0].UnitPriceAtSale)
	assert.Equal(t, 250.0, items[1].UnitPriceAtSale)

	total, err := env.repos.Orders.RecomputeTotal(env.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 550.0, total)
}

func TestStockPolicies(t *testing.T) {
	env := setupTestEnv(t)
	box := env.createProduct(t, "Box", 20, 2)
	orderID, err := env.repos.Orders.Create(env.ctx, &models.Order{}, nil, StockReject)
	require.NoError(t, err)

	_, err = env.repos.Orders.AddItem(env.ctx, orderID, NewOrderItem{ProductID: box, Quantity: 3}, StockReject)
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr), "expected *InsufficientStockError, got %v", err)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 2, env.productStock(t, box))
	assert.Equal(t, int64(0), env.count(t, "order_items"))

	_, err = env.repos.Orders.AddItem(env.ctx, orderID, NewOrderItem{ProductID: box, Quantity: 3}, StockWarn)
	require.NoError(t, err)
	assert.Equal(t, -1, env.productStock(t, box))
}

func TestFailedItemRollsBackWholeOrder(t *testing.T) {
	env := setupTestEnv(t)
	chair := env.createProduct(t, "Chair", 100, 10)

	_, err := env.repos.Orders.Create(env.ctx, &models.Order{}, []NewOrderItem{
		{ProductID: chair, Quantity: 2},
		{ProductID: 9999, Quantity: 1},
	}, StockWarn)
	var cv *ConstraintViolationError
	require.True(t, errors.As(err, &cv), "expected *ConstraintViolationError, got %v", err)

	assert.Equal(t, int64(0), env.count(t, "orders"))
	assert.Equal(t, int64(0), env.count(t, "order_items"))
	assert.Equal(t, 10, env.productStock(t, chair), "stock must not move without an item row")
}

func TestRemoveItemRestoresStockAndTotal(t *testing.T) {
	env := setupTestEnv(t)
	chair := env.createProduct(t, "Chair", 100, 10)
	lamp := env.createProduct(t, "Lamp", 50, 5)

	orderID, err := env.repos.Orders.Create(env.ctx, &models.Order{}, []NewOrderItem{
		{ProductID: chair, Quantity: 2},
		{ProductID: lamp, Quantity: 1, Discount: 10},
	}, StockWarn)
	require.NoError(t, err)

	items, err := env.repos.Orders.Items(env.ctx, orderID)
	require.NoError(t, err)
	require.NoError(t, env.repos.Orders.RemoveItem(env.ctx, items[0].OrderItemID))

	order, err := env.repos.Orders.Get(env.ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, order.TotalAmount)
	assert.Equal(t, 10, env.productStock(t, chair))

	require.NoError(t, env.repos.Orders.RemoveItem(env.ctx, items[1].OrderItemID))
	total, err := env.repos.Orders.RecomputeTotal(env.ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
	assert.Equal(t, 5, env.productStock(t, lamp))

	assert.ErrorIs(t, env.repos.Orders.RemoveItem(env.ctx, items[1].OrderItemID), ErrNotFound)
}

func TestRecomputeTotalIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)
	chair := env.createProduct(t, "Chair", 33.33, 10)
	orderID, err := env.repos.Orders.Create(env.ctx, &models.Order{}, []NewOrderItem{{ProductID: chair, Quantity: 3}}, StockWarn)
	require.NoError(t, err)

	first, err := env.repos.Orders.RecomputeTotal(env.ctx, orderID)
	require.NoError(t, err)
	second, err := env.repos.Orders.RecomputeTotal(env.ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 99.99, first)
	assert.Equal(t, first, second)

	_, err = env.repos.Orders.RecomputeTotal(env.ctx, 424242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOrderKeepsItemsAndTotal(t *testing.T) {
	env := setupTestEnv(t)
	customerID := env.createCustomer(t, "Buyer")
	projectID := env.createProject(t, "Kitchen", customerID)
	chair := env.createProduct(t, "Chair", 100, 10)

	orderID, err := env.repos.Orders.Create(env.ctx, &models.Order{}, []NewOrderItem{{ProductID: chair, Quantity: 1}}, StockWarn)
	require.NoError(t, err)

	err = env.repos.Orders.Update(env.ctx, orderID, &models.Order{
		CustomerID:    &customerID,
		ProjectID:     &projectID,
		OrderStatus:   models.OrderShipped,
		TotalAmount:   1,
		Notes:         "left at the door",
		ReferenceID:   ptr("ORD-KITCHEN"),
		PaymentStatus: models.PaymentPaid,
	})
	require.NoError(t, err)

	order, err := env.repos.Orders.Get(env.ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, order.OrderStatus)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, 100.0, order.TotalAmount)
	assert.Equal(t, "ORD-KITCHEN", *order.ReferenceID)
	assert.Equal(t, "Kitchen", order.ProjectName)
	assert.Equal(t, 9, env.productStock(t, chair))

	err = env.repos.Orders.Update(env.ctx, orderID, &models.Order{OrderStatus: "Lost"})
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	env := setupTestEnv(t)
	chair := env.createProduct(t, "Chair", 100, 10)
	orderID, err := env.repos.Orders.Create(env.ctx, &models.Order{}, []NewOrderItem{{ProductID: chair, Quantity: 4}}, StockWarn)
	require.NoError(t, err)
	assert.Equal(t, 6, env.productStock(t, chair))

	require.NoError(t, env.repos.Orders.Delete(env.ctx, orderID))

	assert.Equal(t, 10, env.productStock(t, chair))
	assert.Equal(t, int64(0), env.count(t, "order_items"))
	assert.ErrorIs(t, env.repos.Orders.Delete(env.ctx, orderID), ErrNotFound)
}

func TestProductInOrderCannotBeDeleted(t *testing.T) {
	env := setupTestEnv(t)
	chair := env.createProduct(t, "Chair", 100, 10)
	_, err := env.repos.Orders.Create(env.ctx, &models.Order{}, []NewOrderItem{{ProductID: chair, Quantity: 1}}, StockWarn)
	require.NoError(t, err)

	err = env.repos.Products.Delete(env.ctx, chair)
	var depErr *DependentRecordsError
	require.True(t, errors.As(err, &depErr), "expected *DependentRecordsError, got %v", err)
	assert.Equal(t, int64(1), depErr.Count)

	_, err = env.repos.Products.Get(env.ctx, chair)
	assert.NoError(t, err)
}

func TestProductDeleteBlockedByDatabase(t *testing.T) {
	env := setupTestEnv(t)
	chair := env.createProduct(t, "Chair", 100, 10)
	orderID, err := env.repos.Orders.Create(env.ctx, &models.Order{}, nil, StockWarn)
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&models.OrderItem{OrderID: orderID, ProductID: chair, QuantitySold: 1}).Error)

	// bypass the probe to check the RESTRICT key itself
	err = classifyDelete("product", chair, "order items",
		env.db.Where(quote("ProductID")+" = ?", chair).Delete(&models.Product{}).Error)
	var depErr *DependentRecordsError
	assert.True(t, errors.As(err, &depErr), "expected *DependentRecordsError, got %v", err)
}

func TestListOrders(t *testing.T) {
	env := setupTestEnv(t)
	alice := env.createCustomer(t, "Alice")
	bob := env.createCustomer(t, "Bob")
	for _, c := range []uint{alice, bob, alice} {
		customerID := c
		_, err := env.repos.Orders.Create(env.ctx, &models.Order{CustomerID: &customerID}, nil, StockWarn)
		require.NoError(t, err)
	}

	all, err := env.repos.Orders.List(env.ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	recent, err := env.repos.Orders.List(env.ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	found, err := env.repos.Orders.List(env.ctx, "ALICE", 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	byBob, err := env.repos.Orders.ByCustomer(env.ctx, bob)
	require.NoError(t, err)
	require.Len(t, byBob, 1)
	assert.Equal(t, "Bob", byBob[0].CustomerName)
}
