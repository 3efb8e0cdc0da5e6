package repository

import (
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type postgresCartRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresCartRepository(db *sql.DB, logger *logrus.Logger) domain.CartRepository {
	return &postgresCartRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresCartRepository) GetByUserID(userID int) (*domain.Cart, error) {
	query := `
        SELECT id, user_id, total_price, created_at, updated_at
        FROM carts
        WHERE user_id = $1`

	cart := &domain.Cart{}
	err := r.db.QueryRow(query, userID).Scan(&cart.ID, &cart.UserID, &cart.TotalPrice, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("cart not found for user %d", userID)
		}
		r.log.Errorf("Failed to get cart for user ID %d: %v", userID, err)
		return nil, domain.ServerError("could not retrieve cart: %v", err)
	}

	items, err := r.getCartItems(cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

func (r *postgresCartRepository) getCartItems(cartID int) ([]domain.CartItem, error) {
	query := `
        SELECT id, product_id, quantity, unit_price
        FROM cart_items
        WHERE cart_id = $1
        ORDER BY position ASC`

	rows, err := r.db.Query(query, cartID)
	if err != nil {
		r.log.Errorf("Failed to query cart items for cart ID %d: %v", cartID, err)
		return nil, domain.ServerError("could not retrieve cart items: %v", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			r.log.Errorf("Failed to scan cart item row for cart ID %d: %v", cartID, err)
			return nil, domain.ServerError("error scanning cart item data: %v", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Error during cart items iteration for cart ID %d: %v", cartID, err)
		return nil, domain.ServerError("error iterating cart items: %v", err)
	}
	return items, nil
}

func (r *postgresCartRepository) Create(cart *domain.Cart) (*domain.Cart, error) {
	query := `
        INSERT INTO carts (user_id, total_price)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(query, cart.UserID, cart.TotalPrice).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		r.log.Errorf("Failed to create cart for user ID %d: %v", cart.UserID, err)
		return nil, domain.ServerError("could not create cart: %v", err)
	}

	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	r.log.Infof("Cart created with ID %d for user %d", cart.ID, cart.UserID)
	return cart, nil
}

// Save rewrites the cart's item rows and total in one transaction. The whole
// document is replaced, so concurrent saves of the same cart resolve
// last-write-wins.
func (r *postgresCartRepository) Save(cart *domain.Cart) (*domain.Cart, error) {
	tx, err := r.db.Begin()
	if err != nil {
		r.log.Errorf("Failed to begin transaction for cart save: %v", err)
		return nil, domain.ServerError("could not start transaction: %v", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.log.Errorf("Save: Failed to rollback cart transaction: %v (original error: %v)", rbErr, err)
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				err = domain.ServerError("failed to commit cart transaction: %v", cErr)
				r.log.Errorf("Save: %v", err)
			}
		}
	}()

	updateQuery := `
        UPDATE carts
        SET total_price = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at`
	err = tx.QueryRow(updateQuery, cart.ID, cart.TotalPrice).Scan(&cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.NotFoundError("cart with id %d not found", cart.ID)
			return nil, err
		}
		r.log.Errorf("Failed to update cart %d: %v", cart.ID, err)
		err = domain.ServerError("could not update cart: %v", err)
		return nil, err
	}

	_, err = tx.Exec(`DELETE FROM cart_items WHERE cart_id = $1`, cart.ID)
	if err != nil {
		r.log.Errorf("Failed to clear cart items for cart %d: %v", cart.ID, err)
		err = domain.ServerError("could not replace cart items: %v", err)
		return nil, err
	}

	itemQuery := `
        INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, position)
        VALUES ($1, $2, $3, $4, $5, $6)`
	var stmt *sql.Stmt
	stmt, err = tx.Prepare(itemQuery)
	if err != nil {
		r.log.Errorf("Failed to prepare cart item statement: %v", err)
		err = domain.ServerError("could not prepare item statement: %v", err)
		return nil, err
	}
	defer stmt.Close()

	for i := range cart.Items {
		item := &cart.Items[i]
		_, err = stmt.Exec(item.ID, cart.ID, item.ProductID, item.Quantity, item.UnitPrice, i)
		if err != nil {
			r.log.Errorf("Failed to insert cart item %s for cart %d: %v", item.ID, cart.ID, err)
			err = domain.ServerError("could not save cart item: %v", err)
			return nil, err
		}
	}

	r.log.Infof("Cart %d saved with %d item(s), total %.2f", cart.ID, len(cart.Items), cart.TotalPrice)
	return cart, nil
}
