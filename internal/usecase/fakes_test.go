package usecase

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// In-memory repositories for usecase tests. The product fake guards every
// operation with a mutex and keeps the conditional-decrement semantics of
// the SQL repository, so the concurrency tests exercise the same guarantees.

type memProductRepo struct {
	mu       sync.Mutex
	products map[int]*domain.Product
	nextID   int
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[int]*domain.Product), nextID: 1}
}

func (r *memProductRepo) seed(p domain.Product) *domain.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	} else if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	if p.Reviews == nil {
		p.Reviews = []domain.Review{}
	}
	stored := copyProduct(&p)
	r.products[p.ID] = stored
	return copyProduct(stored)
}

func copyProduct(p *domain.Product) *domain.Product {
	cp := *p
	cp.Reviews = append([]domain.Review{}, p.Reviews...)
	cp.Images = append([]string{}, p.Images...)
	return &cp
}

func (r *memProductRepo) CreateProduct(product *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product.ID = r.nextID
	r.nextID++
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	if product.Reviews == nil {
		product.Reviews = []domain.Review{}
	}
	r.products[product.ID] = copyProduct(product)
	return copyProduct(product), nil
}

func (r *memProductRepo) GetProductByID(id int) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.NotFoundError("product with id %d not found", id)
	}
	return copyProduct(p), nil
}

func (r *memProductRepo) UpdateProduct(id int, updates map[string]interface{}) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, domain.NotFoundError("product with id %d not found for update", id)
	}
	for key, value := range updates {
		switch key {
		case "name":
			p.Name = value.(string)
		case "description":
			p.Description = value.(string)
		case "brand":
			p.Brand = value.(string)
		case "price":
			p.Price = value.(float64)
		case "discount":
			p.Discount = value.(float64)
		case "stock":
			p.Stock = value.(int)
		case "category":
			p.Category = value.(string)
		case "featured":
			p.Featured = value.(bool)
		case "images":
			p.Images = value.([]string)
		}
	}
	p.UpdatedAt = time.Now()
	return copyProduct(p), nil
}

func (r *memProductRepo) DeleteProduct(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return domain.NotFoundError("product with id %d not found for deletion", id)
	}
	delete(r.products, id)
	return nil
}

func (r *memProductRepo) DecrementStock(productID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return domain.NotFoundError("product with id %d not found", productID)
	}
	if p.Stock < quantity {
		return domain.InsufficientStockError("insufficient stock for product %d (requested: %d, available: %d)", productID, quantity, p.Stock)
	}
	p.Stock -= quantity
	return nil
}

func (r *memProductRepo) IncrementStock(productID, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return domain.NotFoundError("product with id %d not found", productID)
	}
	p.Stock += quantity
	return nil
}

func (r *memProductRepo) AddReview(review *domain.Review, rating float64, numReviews int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[review.ProductID]
	if !ok {
		return domain.NotFoundError("product with id %d not found", review.ProductID)
	}
	for _, existing := range p.Reviews {
		if existing.UserID == review.UserID {
			return domain.ConflictError("product already reviewed")
		}
	}
	review.CreatedAt = time.Now()
	p.Reviews = append(p.Reviews, *review)
	p.Rating = rating
	p.NumReviews = numReviews
	return nil
}

func (r *memProductRepo) stockOf(id int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].Stock
}

type memCartRepo struct {
	mu     sync.Mutex
	carts  map[int]*domain.Cart
	nextID int
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[int]*domain.Cart), nextID: 1}
}

func copyCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = append([]domain.CartItem{}, c.Items...)
	return &cp
}

func (r *memCartRepo) GetByUserID(userID int) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.carts[userID]
	if !ok {
		return nil, domain.NotFoundError("cart not found for user %d", userID)
	}
	return copyCart(cart), nil
}

func (r *memCartRepo) Create(cart *domain.Cart) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart.ID = r.nextID
	r.nextID++
	cart.CreatedAt = time.Now()
	cart.UpdatedAt = cart.CreatedAt
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	r.carts[cart.UserID] = copyCart(cart)
	return copyCart(cart), nil
}

func (r *memCartRepo) Save(cart *domain.Cart) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.carts[cart.UserID]
	if !ok || stored.ID != cart.ID {
		return nil, domain.NotFoundError("cart with id %d not found", cart.ID)
	}
	cart.UpdatedAt = time.Now()
	r.carts[cart.UserID] = copyCart(cart)
	return copyCart(cart), nil
}

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[int]*domain.Order
	nextID int

	// failCreate simulates a persistence outage during order creation.
	failCreate bool
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[int]*domain.Order), nextID: 1}
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem{}, o.Items...)
	return &cp
}

func (r *memOrderRepo) CreateOrder(order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return nil, domain.ServerError("could not create order entry: storage unavailable")
	}
	order.ID = r.nextID
	r.nextID++
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = copyOrder(order)
	return copyOrder(order), nil
}

func (r *memOrderRepo) GetOrderByID(id int) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NotFoundError("order with id %d not found", id)
	}
	return copyOrder(order), nil
}

func (r *memOrderRepo) MarkPaid(id int, paidAt time.Time, result *domain.PaymentResult) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NotFoundError("order with id %d not found", id)
	}
	order.IsPaid = true
	order.PaidAt = &paidAt
	order.Status = domain.StatusProcessing
	order.PaymentResult = result
	order.UpdatedAt = time.Now()
	return copyOrder(order), nil
}

func (r *memOrderRepo) MarkDelivered(id int, deliveredAt time.Time) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NotFoundError("order with id %d not found", id)
	}
	order.IsDelivered = true
	order.DeliveredAt = &deliveredAt
	order.Status = domain.StatusDelivered
	order.UpdatedAt = time.Now()
	return copyOrder(order), nil
}

func (r *memOrderRepo) UpdateStatus(id int, status domain.OrderStatus, shippedAt, deliveredAt *time.Time) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NotFoundError("order with id %d not found for update", id)
	}
	order.Status = status
	if shippedAt != nil {
		order.ShippedAt = shippedAt
	}
	if deliveredAt != nil {
		order.IsDelivered = true
		order.DeliveredAt = deliveredAt
	}
	order.UpdatedAt = time.Now()
	return copyOrder(order), nil
}

func (r *memOrderRepo) ListOrdersByUserID(userID, limit, offset int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := []domain.Order{}
	for _, order := range r.orders {
		if order.UserID == userID {
			orders = append(orders, *copyOrder(order))
		}
	}
	return orders, nil
}

func (r *memOrderRepo) ListAllOrders(limit, offset int) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := []domain.Order{}
	for _, order := range r.orders {
		orders = append(orders, *copyOrder(order))
	}
	return orders, nil
}

func (r *memOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}
