package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/pricing"
)

const RoleAdmin = "admin"

type CreateOrderInput struct {
	Items           []domain.OrderItem
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
}

// OrderCoordinator converts a cart's line items into an immutable order and
// drives the order status state machine thereafter.
type OrderCoordinator interface {
	CreateOrder(ctx context.Context, userID int, input CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID, requesterID int, requesterRole string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID, limit, offset int) ([]domain.Order, error)
	ListAllOrders(ctx context.Context, limit, offset int) ([]domain.Order, error)
	MarkPaid(ctx context.Context, orderID, requesterID int, result domain.PaymentResult) (*domain.Order, error)
	MarkDelivered(ctx context.Context, orderID int) (*domain.Order, error)
	SetStatus(ctx context.Context, orderID int, status domain.OrderStatus) (*domain.Order, error)
}

type orderCoordinator struct {
	orderRepo   domain.OrderRepository
	productRepo domain.ProductRepository
	ledger      InventoryLedger
	carts       CartStore
	engine      *pricing.Engine
	// repriceFromCatalog replaces caller-supplied line prices with the
	// catalog's current effective prices at order time. Off by default:
	// the recorded behavior trusts the client's prices.
	repriceFromCatalog bool
	log                *logrus.Logger
}

func NewOrderCoordinator(
	orderRepo domain.OrderRepository,
	productRepo domain.ProductRepository,
	ledger InventoryLedger,
	carts CartStore,
	engine *pricing.Engine,
	repriceFromCatalog bool,
	logger *logrus.Logger,
) OrderCoordinator {
	return &orderCoordinator{
		orderRepo:          orderRepo,
		productRepo:        productRepo,
		ledger:             ledger,
		carts:              carts,
		engine:             engine,
		repriceFromCatalog: repriceFromCatalog,
		log:                logger,
	}
}

func (c *orderCoordinator) CreateOrder(ctx context.Context, userID int, input CreateOrderInput) (*domain.Order, error) {
	if userID <= 0 {
		return nil, domain.ValidationError("invalid user ID")
	}
	if len(input.Items) == 0 {
		return nil, domain.ValidationError("no order items")
	}
	for i, item := range input.Items {
		if item.ProductID <= 0 {
			return nil, domain.ValidationError("item %d: invalid product ID", i)
		}
		if item.Quantity < 1 {
			return nil, domain.ValidationError("item %d (product %d): quantity must be at least 1", i, item.ProductID)
		}
		if item.Price < 0 {
			return nil, domain.ValidationError("item %d (product %d): price cannot be negative", i, item.ProductID)
		}
	}
	if input.ShippingAddress.Address == "" {
		return nil, domain.ValidationError("shipping address is required")
	}
	if input.PaymentMethod == "" {
		return nil, domain.ValidationError("payment method is required")
	}

	lines := make([]ReserveLine, 0, len(input.Items))
	for _, item := range input.Items {
		lines = append(lines, ReserveLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	c.log.Infof("Order: Reserving stock for %d line(s) (user %d)", len(lines), userID)
	reservation, err := c.ledger.ReserveAll(ctx, lines)
	if err != nil {
		c.log.Warnf("Order: Reservation failed for user %d: %v", userID, err)
		return nil, err
	}

	items := make([]domain.OrderItem, len(input.Items))
	copy(items, input.Items)

	if c.repriceFromCatalog {
		if err := c.repriceItems(items); err != nil {
			c.compensate(ctx, reservation, err)
			return nil, err
		}
	}

	priceLines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		priceLines = append(priceLines, pricing.Line{
			UnitPrice: decimal.NewFromFloat(item.Price),
			Quantity:  item.Quantity,
		})
	}
	breakdown := c.engine.ComputeBreakdown(priceLines)

	order := &domain.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
		ItemsPrice:      pricing.ToCurrency(breakdown.ItemsPrice),
		TaxPrice:        pricing.ToCurrency(breakdown.TaxPrice),
		ShippingPrice:   pricing.ToCurrency(breakdown.ShippingPrice),
		TotalPrice:      pricing.ToCurrency(breakdown.TotalPrice),
		Status:          domain.StatusPending,
	}

	created, err := c.orderRepo.CreateOrder(order)
	if err != nil {
		c.log.Errorf("Order: Persistence failed for user %d after reservation: %v. Releasing stock.", userID, err)
		c.compensate(ctx, reservation, err)
		return nil, fmt.Errorf("failed to save order after reserving stock: %w", err)
	}

	// Cart clearing failure leaves a stale cart but the order stands.
	if _, err := c.carts.Clear(ctx, userID); err != nil {
		c.log.Warnf("Order: Failed to clear cart for user %d after order %d: %v", userID, created.ID, err)
	}

	c.log.Infof("Order: Order %d created for user %d (total %.2f)", created.ID, created.UserID, created.TotalPrice)
	return created, nil
}

func (c *orderCoordinator) repriceItems(items []domain.OrderItem) error {
	for i := range items {
		product, err := c.productRepo.GetProductByID(items[i].ProductID)
		if err != nil {
			return err
		}
		items[i].Price = pricing.ToCurrency(c.engine.EffectiveUnitPrice(product.Price, product.Discount))
	}
	return nil
}

// compensate reverses a reservation after a post-reservation failure. The
// release must happen before the original error propagates so stock does not
// leak.
func (c *orderCoordinator) compensate(ctx context.Context, reservation *Reservation, cause error) {
	if err := c.ledger.Release(ctx, reservation); err != nil {
		c.log.Errorf("Order: CRITICAL! Compensating release failed (cause: %v): %v. Manual stock adjustment needed!", cause, err)
	}
}

func (c *orderCoordinator) GetOrder(ctx context.Context, orderID, requesterID int, requesterRole string) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, domain.ValidationError("invalid order ID")
	}

	order, err := c.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != requesterID && requesterRole != RoleAdmin {
		c.log.Warnf("Order: User %d denied access to order %d owned by user %d", requesterID, orderID, order.UserID)
		return nil, domain.AuthorizationError("not authorized to view this order")
	}
	return order, nil
}

func (c *orderCoordinator) ListOrdersByUser(ctx context.Context, userID, limit, offset int) ([]domain.Order, error) {
	if userID <= 0 {
		return nil, domain.ValidationError("invalid user ID")
	}
	return c.orderRepo.ListOrdersByUserID(userID, limit, offset)
}

func (c *orderCoordinator) ListAllOrders(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	return c.orderRepo.ListAllOrders(limit, offset)
}

func (c *orderCoordinator) MarkPaid(ctx context.Context, orderID, requesterID int, result domain.PaymentResult) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, domain.ValidationError("invalid order ID")
	}

	order, err := c.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID {
		c.log.Warnf("Order: User %d denied payment update on order %d owned by user %d", requesterID, orderID, order.UserID)
		return nil, domain.AuthorizationError("not authorized to pay for this order")
	}

	updated, err := c.orderRepo.MarkPaid(orderID, time.Now(), &result)
	if err != nil {
		return nil, err
	}
	c.log.Infof("Order: Order %d marked paid by user %d, status now %s", orderID, requesterID, updated.Status)
	return updated, nil
}

func (c *orderCoordinator) MarkDelivered(ctx context.Context, orderID int) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, domain.ValidationError("invalid order ID")
	}

	updated, err := c.orderRepo.MarkDelivered(orderID, time.Now())
	if err != nil {
		return nil, err
	}
	c.log.Infof("Order: Order %d marked delivered", orderID)
	return updated, nil
}

func (c *orderCoordinator) SetStatus(ctx context.Context, orderID int, status domain.OrderStatus) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, domain.ValidationError("invalid order ID")
	}
	if !domain.IsValidStatus(status) {
		return nil, domain.ValidationError("invalid order status: %s", status)
	}

	order, err := c.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	// Free-form reassignment: no forward-only check, matching the recorded
	// behavior. Shipped stamps shippedAt once; Delivered stamps the delivery
	// fields as well.
	var shippedAt, deliveredAt *time.Time
	now := time.Now()
	if status == domain.StatusShipped && order.ShippedAt == nil {
		shippedAt = &now
	}
	if status == domain.StatusDelivered {
		deliveredAt = &now
	}

	updated, err := c.orderRepo.UpdateStatus(orderID, status, shippedAt, deliveredAt)
	if err != nil {
		return nil, err
	}
	c.log.Infof("Order: Order %d status set to %s", orderID, status)
	return updated, nil
}
