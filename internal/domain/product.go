package domain

import "time"

type Product struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Discount    float64   `json:"discount"` // percent, 0-100
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand"`
	Images      []string  `json:"images"`
	VendorID    int       `json:"vendor_id"`
	Featured    bool      `json:"featured"`
	Rating      float64   `json:"rating"`
	NumReviews  int       `json:"num_reviews"`
	Reviews     []Review  `json:"reviews"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Review struct {
	ID        string    `json:"id"`
	ProductID int       `json:"product_id"`
	UserID    int       `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

var Categories = []string{
	"Electronics",
	"Fashion",
	"Home & Garden",
	"Sports",
	"Books",
	"Toys",
	"Other",
}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// FindReviewByUser returns the review left by userID, or nil. Reviews are an
// owned sub-collection of the product, so a linear scan is enough.
func (p *Product) FindReviewByUser(userID int) *Review {
	for i := range p.Reviews {
		if p.Reviews[i].UserID == userID {
			return &p.Reviews[i]
		}
	}
	return nil
}

type ProductRepository interface {
	CreateProduct(product *Product) (*Product, error)
	GetProductByID(id int) (*Product, error)
	UpdateProduct(id int, updates map[string]interface{}) (*Product, error)
	DeleteProduct(id int) error

	// DecrementStock atomically subtracts quantity, failing with an
	// insufficient-stock error when the guard stock >= quantity no longer
	// holds. The check and the write are a single conditional update.
	DecrementStock(productID, quantity int) error
	IncrementStock(productID, quantity int) error

	// AddReview inserts the review and persists the recomputed rating and
	// review count in the same transaction. A duplicate (product, author)
	// pair fails with a conflict error.
	AddReview(review *Review, rating float64, numReviews int) error
}
