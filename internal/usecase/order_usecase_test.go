package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/pricing"
)

type orderFixture struct {
	orders      OrderCoordinator
	carts       CartStore
	orderRepo   *memOrderRepo
	cartRepo    *memCartRepo
	productRepo *memProductRepo
}

func newOrderFixture(t *testing.T, reprice bool) *orderFixture {
	t.Helper()
	logger := testLogger()
	engine := pricing.NewEngine(pricing.DefaultConfig())

	productRepo := newMemProductRepo()
	cartRepo := newMemCartRepo()
	orderRepo := newMemOrderRepo()

	ledger := NewInventoryLedger(productRepo, logger)
	carts := NewCartStore(cartRepo, productRepo, engine, logger)
	orders := NewOrderCoordinator(orderRepo, productRepo, ledger, carts, engine, reprice, logger)

	return &orderFixture{
		orders:      orders,
		carts:       carts,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func validInput() CreateOrderInput {
	return CreateOrderInput{
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Keyboard", Quantity: 2, Price: 60},
		},
		ShippingAddress: domain.ShippingAddress{
			Address:    "221B Baker Street",
			City:       "London",
			PostalCode: "NW1 6XE",
			Country:    "UK",
		},
		PaymentMethod: "PayPal",
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newOrderFixture(t, false)
	f.productRepo.seed(domain.Product{ID: 1, Name: "Keyboard", Price: 60, Stock: 5})

	// User 7 has a cart that must be emptied once the order lands.
	_, err := f.carts.AddItem(context.Background(), 7, 1, 2)
	require.NoError(t, err)

	order, err := f.orders.CreateOrder(context.Background(), 7, validInput())
	require.NoError(t, err)

	assert.Equal(t, 7, order.UserID)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, 120.0, order.ItemsPrice)
	assert.Equal(t, 12.0, order.TaxPrice)
	assert.Equal(t, 0.0, order.ShippingPrice)
	assert.Equal(t, 132.0, order.TotalPrice)
	assert.False(t, order.IsPaid)
	assert.False(t, order.IsDelivered)

	// Stock decremented and cart cleared.
	assert.Equal(t, 3, f.productRepo.stockOf(1))
	cart, err := f.carts.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCreateOrderChargesShippingBelowThreshold(t *testing.T) {
	f := newOrderFixture(t, false)
	f.productRepo.seed(domain.Product{ID: 1, Name: "Keyboard", Price: 25, Stock: 5})

	input := validInput()
	input.Items[0].Price = 25

	order, err := f.orders.CreateOrder(context.Background(), 7, input)
	require.NoError(t, err)
	assert.Equal(t, 50.0, order.ItemsPrice)
	assert.Equal(t, 5.0, order.TaxPrice)
	assert.Equal(t, 10.0, order.ShippingPrice)
	assert.Equal(t, 65.0, order.TotalPrice)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t, false)
	f.productRepo.seed(domain.Product{ID: 1, Name: "Keyboard", Price: 60, Stock: 5})

	testCases := []struct {
		name   string
		userID int
		mutate func(*CreateOrderInput)
	}{
		{name: "Invalid user", userID: 0, mutate: func(in *CreateOrderInput) {}},
		{name: "No items", userID: 7, mutate: func(in *CreateOrderInput) { in.Items = nil }},
		{name: "Zero quantity", userID: 7, mutate: func(in *CreateOrderInput) { in.Items[0].Quantity = 0 }},
		{name: "Negative price", userID: 7, mutate: func(in *CreateOrderInput) { in.Items[0].Price = -1 }},
		{name: "Invalid product ID", userID: 7, mutate: func(in *CreateOrderInput) { in.Items[0].ProductID = 0 }},
		{name: "Missing address", userID: 7, mutate: func(in *CreateOrderInput) { in.ShippingAddress.Address = "" }},
		{name: "Missing payment method", userID: 7, mutate: func(in *CreateOrderInput) { in.PaymentMethod = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)

			_, err := f.orders.CreateOrder(context.Background(), tc.userID, input)
			assert.True(t, domain.IsKind(err, domain.KindValidation), "got %v", err)
		})
	}

	// Validation failures never touch stock.
	assert.Equal(t, 5, f.productRepo.stockOf(1))
	assert.Equal(t, 0, f.orderRepo.count())
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newOrderFixture(t, false)
	f.productRepo.seed(domain.Product{ID: 1, Name: "Keyboard", Price: 60, Stock: 1})

	_, err := f.orders.CreateOrder(context.Background(), 7, validInput())
	assert.True(t, domain.IsKind(err, domain.KindInsufficientStock))
	assert.Equal(t, 1, f.productRepo.stockOf(1))
	assert.Equal(t, 0, f.orderRepo.count())
}

func TestCreateOrderReleasesStockWhenPersistenceFails(t *testing.T) {
	f := newOrderFixture(t, false)
	f.productRepo.seed(domain.Product{ID: 1, Name: "Keyboard", Price: 60, Stock: 5})
	f.orderRepo.failCreate = true

	_, err := f.orders.CreateOrder(context.Background(), 7, validInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save order after reserving stock")

	// The reservation was compensated: stock back to 5, no order persisted.
	assert.Equal(t, 5, f.productRepo.stockOf(1))
	assert.Equal(t, 0, f.orderRepo.count())
}

func TestCreateOrderRepricesFromCatalog(t *testing.T) {
	f := newOrderFixture(t, true)
	f.productRepo.seed(domain.Product{ID: 1, Name: "Keyboard", Price: 80, Discount: 25, Stock: 5})

	// Caller claims $10 a unit; the catalog's effective price is 80 less 25% = 60.
	input := validInput()
	input.Items[0].Price = 10

	order, err := f.orders.CreateOrder(context.Background(), 7, input)
	require.NoError(t, err)
	assert.Equal(t, 60.0, order.Items[0].Price)
	assert.Equal(t, 120.0, order.ItemsPrice)
}

func TestGetOrderAuthorization(t *testing.T) {
	f := newOrderFixture(t, false)
	f.productRepo.seed(domain.Product{ID: 1, Name: "Keyboard", Price: 60, Stock: 5})

	created, err := f.orders.CreateOrder(context.Background(), 7, validInput())
	require.NoError(t, err)

	// Owner sees it.
	order, err := f.orders.GetOrder(context.Background(), created.ID, 7, "customer")
	require.NoError(t, err)
	assert.Equal(t, created.ID, order.ID)

	// Admin sees it too.
	_, err = f.orders.GetOrder(context.Background(), created.ID, 99, RoleAdmin)
	require.NoError(t, err)

	// Anyone else is denied.
	_, err = f.orders.GetOrder(context.Background(), created.ID, 8, "customer")
	assert.True(t, domain.IsKind(err, domain.KindAuthorization))

	_, err = f.orders.GetOrder(context.Background(), 404, 7, "customer")
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestMarkPaidOwnerOnly(t *testing.T) {
	f := newOrderFixture(t, false)
	f.productRepo.seed(domain.Product{ID: 1, Name: "Keyboard", Price: 60, Stock: 5})

	created, err := f.orders.CreateOrder(context.Background(), 7, validInput())
	require.NoError(t, err)

	result := domain.PaymentResult{ID: "PAY-123", Status: "COMPLETED", EmailAddress: "buyer@example.com"}

	// A different user cannot pay, admin or not.
	_, err = f.orders.MarkPaid(context.Background(), created.ID, 8, result)
	assert.True(t, domain.IsKind(err, domain.KindAuthorization))

	order, err := f.orders.MarkPaid(context.Background(), created.ID, 7, result)
	require.NoError(t, err)
	assert.True(t, order.IsPaid)
	require.NotNil(t, order.PaidAt)
	assert.Equal(t, domain.StatusProcessing, order.Status)
	require.NotNil(t, order.PaymentResult)
	assert.Equal(t, "PAY-123", order.PaymentResult.ID)
}

func TestMarkDelivered(t *testing.T) {
	f := newOrderFixture(t, false)
	f.productRepo.seed(domain.Product{ID: 1, Name: "Keyboard", Price: 60, Stock: 5})

	created, err := f.orders.CreateOrder(context.Background(), 7, validInput())
	require.NoError(t, err)

	order, err := f.orders.MarkDelivered(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, order.IsDelivered)
	require.NotNil(t, order.DeliveredAt)
	assert.Equal(t, domain.StatusDelivered, order.Status)

	_, err = f.orders.MarkDelivered(context.Background(), 404)
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestSetStatus(t *testing.T) {
	f := newOrderFixture(t, false)
	f.productRepo.seed(domain.Product{ID: 1, Name: "Keyboard", Price: 60, Stock: 5})

	created, err := f.orders.CreateOrder(context.Background(), 7, validInput())
	require.NoError(t, err)

	order, err := f.orders.SetStatus(context.Background(), created.ID, domain.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, order.Status)
	require.NotNil(t, order.ShippedAt)
	firstShippedAt := *order.ShippedAt

	// Re-entering Shipped keeps the original timestamp.
	order, err = f.orders.SetStatus(context.Background(), created.ID, domain.StatusShipped)
	require.NoError(t, err)
	require.NotNil(t, order.ShippedAt)
	assert.Equal(t, firstShippedAt, *order.ShippedAt)

	// Delivered via status change stamps the delivery fields too.
	order, err = f.orders.SetStatus(context.Background(), created.ID, domain.StatusDelivered)
	require.NoError(t, err)
	assert.True(t, order.IsDelivered)
	require.NotNil(t, order.DeliveredAt)

	// Any reassignment is allowed, including walking backwards.
	order, err = f.orders.SetStatus(context.Background(), created.ID, domain.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, order.Status)

	// Cancelling does not return stock.
	_, err = f.orders.SetStatus(context.Background(), created.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 3, f.productRepo.stockOf(1))

	_, err = f.orders.SetStatus(context.Background(), created.ID, domain.OrderStatus("Teleported"))
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestListOrders(t *testing.T) {
	f := newOrderFixture(t, false)
	f.productRepo.seed(domain.Product{ID: 1, Name: "Keyboard", Price: 60, Stock: 10})

	_, err := f.orders.CreateOrder(context.Background(), 7, validInput())
	require.NoError(t, err)
	_, err = f.orders.CreateOrder(context.Background(), 7, validInput())
	require.NoError(t, err)
	_, err = f.orders.CreateOrder(context.Background(), 8, validInput())
	require.NoError(t, err)

	mine, err := f.orders.ListOrdersByUser(context.Background(), 7, 20, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := f.orders.ListAllOrders(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.orders.ListOrdersByUser(context.Background(), 0, 20, 0)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}
