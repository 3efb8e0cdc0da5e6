package domain

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

func IsValidStatus(status OrderStatus) bool {
	switch status {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PaymentResult is the confirmation payload handed over by the payment
// collaborator, stored verbatim.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

// Order is an immutable snapshot of a completed purchase. Item lines copy
// name/price/quantity/image at purchase time and are deliberately decoupled
// from live product state; only the status, payment and delivery fields
// change after creation.
type Order struct {
	ID              int             `json:"id"`
	UserID          int             `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	ItemsPrice      float64         `json:"items_price"`
	TaxPrice        float64         `json:"tax_price"`
	ShippingPrice   float64         `json:"shipping_price"`
	TotalPrice      float64         `json:"total_price"`
	IsPaid          bool            `json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	IsDelivered     bool            `json:"is_delivered"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	Status          OrderStatus     `json:"status"`
	PaymentResult   *PaymentResult  `json:"payment_result,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderRepository interface {
	CreateOrder(order *Order) (*Order, error)
	GetOrderByID(id int) (*Order, error)
	MarkPaid(id int, paidAt time.Time, result *PaymentResult) (*Order, error)
	MarkDelivered(id int, deliveredAt time.Time) (*Order, error)
	// UpdateStatus applies a status reassignment. shippedAt and deliveredAt
	// are stamped only when non-nil; deliveredAt also sets is_delivered.
	UpdateStatus(id int, status OrderStatus, shippedAt, deliveredAt *time.Time) (*Order, error)
	ListOrdersByUserID(userID, limit, offset int) ([]Order, error)
	ListAllOrders(limit, offset int) ([]Order, error)
}
