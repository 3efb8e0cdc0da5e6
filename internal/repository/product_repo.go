package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type postgresProductRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *logrus.Logger) domain.ProductRepository {
	return &postgresProductRepository{
		db:  db,
		log: logger,
	}
}

func (r *postgresProductRepository) CreateProduct(product *domain.Product) (*domain.Product, error) {
	query := `
        INSERT INTO products (name, description, price, discount, stock, category, brand, images, vendor_id, featured)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, rating, num_reviews, created_at, updated_at`

	err := r.db.QueryRow(query,
		product.Name,
		product.Description,
		product.Price,
		product.Discount,
		product.Stock,
		product.Category,
		product.Brand,
		pq.Array(product.Images),
		product.VendorID,
		product.Featured,
	).Scan(&product.ID, &product.Rating, &product.NumReviews, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			r.log.Warnf("Check constraint violation for product '%s': %s", product.Name, pqErr.Message)
			return nil, domain.ValidationError("product data constraint violation: %s", pqErr.Message)
		}
		r.log.Errorf("Failed to create product '%s': %v", product.Name, err)
		return nil, domain.ServerError("could not create product: %v", err)
	}

	product.Reviews = []domain.Review{}
	r.log.Infof("Product created successfully with ID: %d, Name: %s", product.ID, product.Name)
	return product, nil
}

func (r *postgresProductRepository) GetProductByID(id int) (*domain.Product, error) {
	query := `
        SELECT id, name, description, price, discount, stock, category, brand, images,
               vendor_id, featured, rating, num_reviews, created_at, updated_at
        FROM products
        WHERE id = $1`

	product := &domain.Product{}
	err := r.db.QueryRow(query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Discount,
		&product.Stock,
		&product.Category,
		&product.Brand,
		pq.Array(&product.Images),
		&product.VendorID,
		&product.Featured,
		&product.Rating,
		&product.NumReviews,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Product with ID %d not found", id)
			return nil, domain.NotFoundError("product with id %d not found", id)
		}
		r.log.Errorf("Failed to get product by ID %d: %v", id, err)
		return nil, domain.ServerError("could not get product by id: %v", err)
	}

	reviews, err := r.getProductReviews(id)
	if err != nil {
		return nil, err
	}
	product.Reviews = reviews

	return product, nil
}

func (r *postgresProductRepository) getProductReviews(productID int) ([]domain.Review, error) {
	query := `
        SELECT id, product_id, user_id, user_name, rating, comment, created_at
        FROM reviews
        WHERE product_id = $1
        ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(query, productID)
	if err != nil {
		r.log.Errorf("Failed to query reviews for product ID %d: %v", productID, err)
		return nil, domain.ServerError("could not retrieve reviews: %v", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(&review.ID, &review.ProductID, &review.UserID, &review.UserName, &review.Rating, &review.Comment, &review.CreatedAt); err != nil {
			r.log.Errorf("Failed to scan review row for product ID %d: %v", productID, err)
			return nil, domain.ServerError("error scanning review data: %v", err)
		}
		reviews = append(reviews, review)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Error during reviews iteration for product ID %d: %v", productID, err)
		return nil, domain.ServerError("error iterating reviews: %v", err)
	}
	return reviews, nil
}

func (r *postgresProductRepository) UpdateProduct(id int, updates map[string]interface{}) (*domain.Product, error) {
	if len(updates) == 0 {
		return r.GetProductByID(id)
	}

	setClauses := []string{}
	args := []interface{}{}
	argCounter := 1

	for key, value := range updates {
		switch key {
		case "name", "description", "price", "discount", "stock", "category", "brand", "featured":
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", key, argCounter))
			args = append(args, value)
		case "images":
			images, ok := value.([]string)
			if !ok {
				r.log.Errorf("Repository: Invalid type received for images for product ID %d: %T", id, value)
				return nil, domain.ServerError("internal error: invalid type for images in repository")
			}
			setClauses = append(setClauses, fmt.Sprintf("images = $%d", argCounter))
			args = append(args, pq.Array(images))
		default:
			r.log.Warnf("Repository: Skipping unknown field '%s' in product update ID %d", key, id)
			continue
		}
		argCounter++
	}
	if len(setClauses) == 0 {
		return r.GetProductByID(id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	query := "UPDATE products SET " + strings.Join(setClauses, ", ") + fmt.Sprintf(" WHERE id = $%d", argCounter)
	args = append(args, id)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			r.log.Warnf("Check constraint violation for product update ID %d: %s", id, pqErr.Message)
			return nil, domain.ValidationError("product data constraint violation: %s", pqErr.Message)
		}
		r.log.Errorf("Failed to update product ID %d: %v", id, err)
		return nil, domain.ServerError("could not update product: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Failed to get rows affected after product update ID %d: %v", id, err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Product with ID %d not found for update (0 rows affected)", id)
		return nil, domain.NotFoundError("product with id %d not found for update", id)
	}

	return r.GetProductByID(id)
}

func (r *postgresProductRepository) DeleteProduct(id int) error {
	result, err := r.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.log.Errorf("Failed to delete product ID %d: %v", id, err)
		return domain.ServerError("could not delete product: %v", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Failed to get rows affected after deleting product ID %d: %v", id, err)
		return domain.ServerError("could not confirm product deletion: %v", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Attempted to delete non-existent product ID %d", id)
		return domain.NotFoundError("product with id %d not found for deletion", id)
	}
	r.log.Infof("Product deleted successfully with ID: %d", id)
	return nil
}

// DecrementStock is a single conditional update: the availability check and
// the write happen in one statement, so two concurrent decrements of the
// last unit cannot both pass the guard.
func (r *postgresProductRepository) DecrementStock(productID, quantity int) error {
	query := `
        UPDATE products
        SET stock = stock - $2, updated_at = NOW()
        WHERE id = $1 AND stock >= $2`

	result, err := r.db.Exec(query, productID, quantity)
	if err != nil {
		r.log.Errorf("Failed to decrement stock for product ID %d by %d: %v", productID, quantity, err)
		return domain.ServerError("could not decrement stock: %v", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Failed to get rows affected after stock decrement for product ID %d: %v", productID, err)
		return domain.ServerError("could not confirm stock decrement: %v", err)
	}
	if rowsAffected == 0 {
		// Distinguish a missing product from a failed guard.
		var stock int
		err := r.db.QueryRow(`SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Product with ID %d not found for stock decrement", productID)
			return domain.NotFoundError("product with id %d not found", productID)
		}
		if err != nil {
			r.log.Errorf("Failed to re-check stock for product ID %d: %v", productID, err)
			return domain.ServerError("could not check stock: %v", err)
		}
		r.log.Warnf("Insufficient stock for product ID %d (requested: %d, available: %d)", productID, quantity, stock)
		return domain.InsufficientStockError("insufficient stock for product %d (requested: %d, available: %d)", productID, quantity, stock)
	}

	r.log.Infof("Stock decremented by %d for product ID %d", quantity, productID)
	return nil
}

func (r *postgresProductRepository) IncrementStock(productID, quantity int) error {
	query := `
        UPDATE products
        SET stock = stock + $2, updated_at = NOW()
        WHERE id = $1`

	result, err := r.db.Exec(query, productID, quantity)
	if err != nil {
		r.log.Errorf("Failed to increment stock for product ID %d by %d: %v", productID, quantity, err)
		return domain.ServerError("could not increment stock: %v", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Failed to get rows affected after stock increment for product ID %d: %v", productID, err)
		return domain.ServerError("could not confirm stock increment: %v", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Product with ID %d not found for stock increment", productID)
		return domain.NotFoundError("product with id %d not found", productID)
	}

	r.log.Infof("Stock incremented by %d for product ID %d", quantity, productID)
	return nil
}

// AddReview inserts the review and the recomputed aggregates in one
// transaction. The (product_id, user_id) unique index backstops the
// usecase's duplicate check against concurrent submissions.
func (r *postgresProductRepository) AddReview(review *domain.Review, rating float64, numReviews int) error {
	tx, err := r.db.Begin()
	if err != nil {
		r.log.Errorf("Failed to begin transaction for review insert: %v", err)
		return domain.ServerError("could not start transaction: %v", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.log.Errorf("AddReview: Failed to rollback transaction: %v (original error: %v)", rbErr, err)
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				err = domain.ServerError("failed to commit review transaction: %v", cErr)
				r.log.Errorf("AddReview: %v", err)
			}
		}
	}()

	insertQuery := `
        INSERT INTO reviews (id, product_id, user_id, user_name, rating, comment)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at`
	err = tx.QueryRow(insertQuery, review.ID, review.ProductID, review.UserID, review.UserName, review.Rating, review.Comment).Scan(&review.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			r.log.Warnf("Duplicate review by user %d on product %d", review.UserID, review.ProductID)
			err = domain.ConflictError("product already reviewed")
			return err
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			r.log.Warnf("Review references non-existent product %d", review.ProductID)
			err = domain.NotFoundError("product with id %d not found", review.ProductID)
			return err
		}
		r.log.Errorf("Failed to insert review for product %d by user %d: %v", review.ProductID, review.UserID, err)
		err = domain.ServerError("could not insert review: %v", err)
		return err
	}

	updateQuery := `
        UPDATE products
        SET rating = $2, num_reviews = $3, updated_at = NOW()
        WHERE id = $1`
	var result sql.Result
	result, err = tx.Exec(updateQuery, review.ProductID, rating, numReviews)
	if err != nil {
		r.log.Errorf("Failed to update rating aggregates for product %d: %v", review.ProductID, err)
		err = domain.ServerError("could not update product rating: %v", err)
		return err
	}
	var rowsAffected int64
	rowsAffected, err = result.RowsAffected()
	if err != nil {
		r.log.Errorf("Failed to get rows affected after rating update for product %d: %v", review.ProductID, err)
		err = domain.ServerError("could not confirm rating update: %v", err)
		return err
	}
	if rowsAffected == 0 {
		err = domain.NotFoundError("product with id %d not found", review.ProductID)
		return err
	}

	r.log.Infof("Review %s inserted for product %d (rating %.2f over %d reviews)", review.ID, review.ProductID, rating, numReviews)
	return nil
}
