package domain

import "time"

// Cart is a user's in-progress item list. Exactly one cart exists per user,
// created lazily on first access and emptied (not deleted) when an order is
// placed.
type Cart struct {
	ID         int        `json:"id"`
	UserID     int        `json:"user_id"`
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CartItem struct {
	ID        string  `json:"id"`
	ProductID int     `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"` // effective price snapshot at add/update time
}

func (c *Cart) FindItemByProduct(productID int) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) FindItemByID(itemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveItemByID drops the item if present and reports whether it was found.
// Removing an absent item is not an error.
func (c *Cart) RemoveItemByID(itemID string) bool {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

type CartRepository interface {
	// GetByUserID fails with a not-found error when the user has no cart yet.
	GetByUserID(userID int) (*Cart, error)
	Create(cart *Cart) (*Cart, error)
	// Save replaces the cart's items and total as one write. Concurrent
	// saves of the same cart resolve last-write-wins.
	Save(cart *Cart) (*Cart, error)
}
