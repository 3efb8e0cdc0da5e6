package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type postgresOrderRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresOrderRepository(db *sql.DB, logger *logrus.Logger) domain.OrderRepository {
	return &postgresOrderRepository{
		db:  db,
		log: logger,
	}
}

const orderColumns = `
    id, user_id, address, city, postal_code, country, payment_method,
    items_price, tax_price, shipping_price, total_price,
    is_paid, paid_at, is_delivered, delivered_at, shipped_at,
    status, payment_result, created_at, updated_at`

func (r *postgresOrderRepository) CreateOrder(order *domain.Order) (*domain.Order, error) {
	tx, err := r.db.Begin()
	if err != nil {
		r.log.Errorf("Failed to begin transaction: %v", err)
		return nil, domain.ServerError("could not start transaction: %v", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.log.Errorf("CreateOrder: Failed to rollback transaction: %v (original error: %v)", rbErr, err)
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				err = domain.ServerError("failed to commit order transaction: %v", cErr)
				r.log.Errorf("CreateOrder: %v", err)
			}
		}
	}()

	orderQuery := `
        INSERT INTO orders (user_id, address, city, postal_code, country, payment_method,
                            items_price, tax_price, shipping_price, total_price, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, status, created_at, updated_at`
	err = tx.QueryRow(orderQuery,
		order.UserID,
		order.ShippingAddress.Address,
		order.ShippingAddress.City,
		order.ShippingAddress.PostalCode,
		order.ShippingAddress.Country,
		order.PaymentMethod,
		order.ItemsPrice,
		order.TaxPrice,
		order.ShippingPrice,
		order.TotalPrice,
		order.Status,
	).Scan(&order.ID, &order.Status, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.log.Errorf("Failed to insert order for user %d: %v", order.UserID, err)
		err = domain.ServerError("could not create order entry: %v", err)
		return nil, err
	}

	itemQuery := `
        INSERT INTO order_items (order_id, product_id, name, image, quantity, price)
        VALUES ($1, $2, $3, $4, $5, $6)`
	var stmt *sql.Stmt
	stmt, err = tx.Prepare(itemQuery)
	if err != nil {
		r.log.Errorf("Failed to prepare order item statement: %v", err)
		err = domain.ServerError("could not prepare item statement: %v", err)
		return nil, err
	}
	defer stmt.Close()

	for i := range order.Items {
		item := &order.Items[i]
		_, err = stmt.Exec(order.ID, item.ProductID, item.Name, item.Image, item.Quantity, item.Price)
		if err != nil {
			r.log.Errorf("Failed to insert order item (product_id: %d) for order %d: %v", item.ProductID, order.ID, err)
			err = domain.ServerError("could not create order item (product_id: %d): %v", item.ProductID, err)
			return nil, err
		}
	}

	r.log.Infof("Order %d created successfully with %d items.", order.ID, len(order.Items))
	return order, nil
}

func (r *postgresOrderRepository) GetOrderByID(id int) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Order with ID %d not found", id)
			return nil, domain.NotFoundError("order with id %d not found", id)
		}
		r.log.Errorf("Failed to get order by ID %d: %v", id, err)
		return nil, domain.ServerError("could not retrieve order: %v", err)
	}

	items, err := r.getOrderItems(id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *postgresOrderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var paidAt, deliveredAt, shippedAt sql.NullTime
	var paymentResult []byte

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.ShippingAddress.Address,
		&order.ShippingAddress.City,
		&order.ShippingAddress.PostalCode,
		&order.ShippingAddress.Country,
		&order.PaymentMethod,
		&order.ItemsPrice,
		&order.TaxPrice,
		&order.ShippingPrice,
		&order.TotalPrice,
		&order.IsPaid,
		&paidAt,
		&order.IsDelivered,
		&deliveredAt,
		&shippedAt,
		&order.Status,
		&paymentResult,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paidAt.Valid {
		order.PaidAt = &paidAt.Time
	}
	if deliveredAt.Valid {
		order.DeliveredAt = &deliveredAt.Time
	}
	if shippedAt.Valid {
		order.ShippedAt = &shippedAt.Time
	}
	if len(paymentResult) > 0 {
		result := &domain.PaymentResult{}
		if err := json.Unmarshal(paymentResult, result); err != nil {
			r.log.Errorf("Failed to decode payment result for order %d: %v", order.ID, err)
			return nil, err
		}
		order.PaymentResult = result
	}

	return order, nil
}

func (r *postgresOrderRepository) getOrderItems(orderID int) ([]domain.OrderItem, error) {
	query := `
        SELECT product_id, name, image, quantity, price
        FROM order_items
        WHERE order_id = $1
        ORDER BY id ASC`

	rows, err := r.db.Query(query, orderID)
	if err != nil {
		r.log.Errorf("Failed to query order items for order ID %d: %v", orderID, err)
		return nil, domain.ServerError("could not retrieve order items: %v", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Image, &item.Quantity, &item.Price); err != nil {
			r.log.Errorf("Failed to scan order item row for order ID %d: %v", orderID, err)
			return nil, domain.ServerError("error scanning order item: %v", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Error during order items iteration for order ID %d: %v", orderID, err)
		return nil, domain.ServerError("error iterating order items: %v", err)
	}
	return items, nil
}

func (r *postgresOrderRepository) MarkPaid(id int, paidAt time.Time, result *domain.PaymentResult) (*domain.Order, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		r.log.Errorf("Failed to encode payment result for order %d: %v", id, err)
		return nil, domain.ServerError("could not encode payment result: %v", err)
	}

	query := `
        UPDATE orders
        SET is_paid = TRUE, paid_at = $2, status = $3, payment_result = $4, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + orderColumns

	order, err := r.scanOrder(r.db.QueryRow(query, id, paidAt, domain.StatusProcessing, payload))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Order with ID %d not found for payment update", id)
			return nil, domain.NotFoundError("order with id %d not found", id)
		}
		r.log.Errorf("Failed to mark order %d paid: %v", id, err)
		return nil, domain.ServerError("could not update order payment: %v", err)
	}

	items, err := r.getOrderItems(id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	r.log.Infof("Order %d marked paid, status now %s", id, order.Status)
	return order, nil
}

func (r *postgresOrderRepository) MarkDelivered(id int, deliveredAt time.Time) (*domain.Order, error) {
	query := `
        UPDATE orders
        SET is_delivered = TRUE, delivered_at = $2, status = $3, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + orderColumns

	order, err := r.scanOrder(r.db.QueryRow(query, id, deliveredAt, domain.StatusDelivered))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Order with ID %d not found for delivery update", id)
			return nil, domain.NotFoundError("order with id %d not found", id)
		}
		r.log.Errorf("Failed to mark order %d delivered: %v", id, err)
		return nil, domain.ServerError("could not update order delivery: %v", err)
	}

	items, err := r.getOrderItems(id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	r.log.Infof("Order %d marked delivered", id)
	return order, nil
}

func (r *postgresOrderRepository) UpdateStatus(id int, status domain.OrderStatus, shippedAt, deliveredAt *time.Time) (*domain.Order, error) {
	query := `
        UPDATE orders
        SET status = $2,
            shipped_at = COALESCE($3, shipped_at),
            is_delivered = (CASE WHEN $4::timestamptz IS NOT NULL THEN TRUE ELSE is_delivered END),
            delivered_at = COALESCE($4, delivered_at),
            updated_at = NOW()
        WHERE id = $1
        RETURNING ` + orderColumns

	order, err := r.scanOrder(r.db.QueryRow(query, id, status, shippedAt, deliveredAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Order with ID %d not found for status update", id)
			return nil, domain.NotFoundError("order with id %d not found for update", id)
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23514" {
			r.log.Warnf("Invalid status value '%s' for order ID %d: %v", status, id, err)
			return nil, domain.ValidationError("invalid order status provided: %s", status)
		}
		r.log.Errorf("Failed to update status for order ID %d: %v", id, err)
		return nil, domain.ServerError("could not update order status: %v", err)
	}

	items, err := r.getOrderItems(id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	r.log.Infof("Order %d status updated to '%s'", id, order.Status)
	return order, nil
}

func (r *postgresOrderRepository) ListOrdersByUserID(userID, limit, offset int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + `
        FROM orders
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3`

	return r.listOrders(query, userID, limit, offset)
}

func (r *postgresOrderRepository) ListAllOrders(limit, offset int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + `
        FROM orders
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`

	return r.listOrders(query, limit, offset)
}

func (r *postgresOrderRepository) listOrders(query string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.log.Errorf("Failed to list orders: %v", err)
		return nil, domain.ServerError("could not retrieve orders: %v", err)
	}
	defer rows.Close()

	var orders []domain.Order
	orderIDs := []int{}
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			r.log.Errorf("Failed to scan order row: %v", err)
			return nil, domain.ServerError("error scanning order data: %v", err)
		}
		orders = append(orders, *order)
		orderIDs = append(orderIDs, order.ID)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Error during orders iteration: %v", err)
		return nil, domain.ServerError("error iterating orders: %v", err)
	}

	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	itemsQuery := `
        SELECT order_id, product_id, name, image, quantity, price
        FROM order_items
        WHERE order_id = ANY($1::int[])
        ORDER BY order_id, id`
	itemRows, err := r.db.Query(itemsQuery, pq.Array(orderIDs))
	if err != nil {
		r.log.Errorf("Failed to query items for orders %v: %v", orderIDs, err)
		return nil, domain.ServerError("could not retrieve order items for list: %v", err)
	}
	defer itemRows.Close()

	itemsMap := make(map[int][]domain.OrderItem)
	for itemRows.Next() {
		var item domain.OrderItem
		var orderID int
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Name, &item.Image, &item.Quantity, &item.Price); err != nil {
			r.log.Errorf("Failed to scan order item row during multi-order fetch: %v", err)
			return nil, domain.ServerError("error scanning order item data for list: %v", err)
		}
		itemsMap[orderID] = append(itemsMap[orderID], item)
	}
	if err = itemRows.Err(); err != nil {
		r.log.Errorf("Error during multi-order items iteration: %v", err)
		return nil, domain.ServerError("error iterating order items for list: %v", err)
	}

	for i := range orders {
		if items, ok := itemsMap[orders[i].ID]; ok {
			orders[i].Items = items
		} else {
			orders[i].Items = []domain.OrderItem{}
		}
	}

	r.log.Infof("Retrieved %d orders", len(orders))
	return orders, nil
}
