package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/pricing"
)

// CartStore owns a user's in-progress item list. Every mutation recomputes
// the cached total before the cart is persisted.
type CartStore interface {
	Get(ctx context.Context, userID int) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, userID int, itemID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID int, itemID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID int) (*domain.Cart, error)
}

type cartStore struct {
	cartRepo    domain.CartRepository
	productRepo domain.ProductRepository
	engine      *pricing.Engine
	log         *logrus.Logger
}

func NewCartStore(cartRepo domain.CartRepository, productRepo domain.ProductRepository, engine *pricing.Engine, logger *logrus.Logger) CartStore {
	return &cartStore{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		engine:      engine,
		log:         logger,
	}
}

func (s *cartStore) Get(ctx context.Context, userID int) (*domain.Cart, error) {
	if userID <= 0 {
		return nil, domain.ValidationError("invalid user ID")
	}

	cart, err := s.cartRepo.GetByUserID(userID)
	if err == nil {
		return cart, nil
	}
	if !domain.IsKind(err, domain.KindNotFound) {
		return nil, err
	}

	s.log.Infof("Cart: Creating empty cart for user %d on first access", userID)
	return s.cartRepo.Create(&domain.Cart{UserID: userID, Items: []domain.CartItem{}})
}

func (s *cartStore) AddItem(ctx context.Context, userID, productID, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ValidationError("quantity must be at least 1")
	}

	product, err := s.productRepo.GetProductByID(productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	requested := quantity
	item := cart.FindItemByProduct(productID)
	if item != nil {
		// Quantities are summed, not replaced, and the summed amount is
		// what must fit in stock.
		requested += item.Quantity
	}
	if product.Stock < requested {
		s.log.Warnf("Cart: Insufficient stock for product %d (requested total: %d, available: %d)", productID, requested, product.Stock)
		return nil, domain.InsufficientStockError("insufficient stock for product %d (requested: %d, available: %d)", productID, requested, product.Stock)
	}

	unitPrice := pricing.ToCurrency(s.engine.EffectiveUnitPrice(product.Price, product.Discount))
	if item != nil {
		item.Quantity = requested
		// The snapshot tracks the catalog's current effective price until
		// the item is ordered.
		item.UnitPrice = unitPrice
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        uuid.NewString(),
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		})
	}

	s.recomputeTotal(cart)
	s.log.Infof("Cart: User %d now has %d unit(s) of product %d at %.2f", userID, requested, productID, unitPrice)
	return s.cartRepo.Save(cart)
}

func (s *cartStore) UpdateItem(ctx context.Context, userID int, itemID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.ValidationError("quantity must be at least 1")
	}

	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	item := cart.FindItemByID(itemID)
	if item == nil {
		return nil, domain.NotFoundError("item %s not found in cart", itemID)
	}

	product, err := s.productRepo.GetProductByID(item.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		s.log.Warnf("Cart: Insufficient stock for product %d on update (requested: %d, available: %d)", item.ProductID, quantity, product.Stock)
		return nil, domain.InsufficientStockError("insufficient stock for product %d (requested: %d, available: %d)", item.ProductID, quantity, product.Stock)
	}

	item.Quantity = quantity
	s.recomputeTotal(cart)
	s.log.Infof("Cart: User %d set item %s to quantity %d", userID, itemID, quantity)
	return s.cartRepo.Save(cart)
}

func (s *cartStore) RemoveItem(ctx context.Context, userID int, itemID string) (*domain.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	// Removing an item that is already gone is a no-op; only a missing cart
	// is an error.
	if !cart.RemoveItemByID(itemID) {
		s.log.Infof("Cart: Item %s already absent from user %d's cart", itemID, userID)
		return cart, nil
	}

	s.recomputeTotal(cart)
	s.log.Infof("Cart: User %d removed item %s", userID, itemID)
	return s.cartRepo.Save(cart)
}

func (s *cartStore) Clear(ctx context.Context, userID int) (*domain.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(userID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			// Nothing to clear; hand back an empty cart without creating one.
			return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
		}
		return nil, err
	}

	cart.Items = []domain.CartItem{}
	cart.TotalPrice = 0
	s.log.Infof("Cart: Cleared cart for user %d", userID)
	return s.cartRepo.Save(cart)
}

func (s *cartStore) recomputeTotal(cart *domain.Cart) {
	lines := make([]pricing.Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, pricing.Line{
			UnitPrice: decimal.NewFromFloat(item.UnitPrice),
			Quantity:  item.Quantity,
		})
	}
	cart.TotalPrice = pricing.ToCurrency(s.engine.ItemsTotal(lines))
}
