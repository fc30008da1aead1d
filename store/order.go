package store

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	models "storefront/model"

	"github.com/lib/pq"
)

const maxOrderNumberAttempts = 3

const (
	// Locks the user's cart rows and the referenced product rows. Product id
	// order keeps lock acquisition consistent across concurrent checkouts.
	lockCartLinesSQL = cartLinesSelect + `
		ORDER BY p.id
		FOR UPDATE`
	insertOrderSQL = `
		INSERT INTO orders (order_number, user_id, subtotal, shipping_fee, total_amount,
		                    shipping_address, billing_address, payment_method, payment_status, order_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	insertOrderItemSQL = `
		INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	decrementStockSQL = `UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`
	clearCartSQL      = `DELETE FROM cart_items WHERE id = ANY($1)`

	orderColumns = `
		SELECT id, order_number, user_id, subtotal, shipping_fee, total_amount,
		       shipping_address, billing_address, payment_method, payment_status,
		       order_status, tracking_number, created_at, updated_at
		FROM orders`
	selectOrderSQL          = orderColumns + ` WHERE id = $1`
	selectOrderForUpdateSQL = orderColumns + ` WHERE id = $1 FOR UPDATE`
	selectUserOrdersSQL     = orderColumns + ` WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	selectOrderItemsSQL     = `
		SELECT id, order_id, product_id, product_name, quantity, unit_price, line_total
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id`
	updateOrderStatusSQL = `
		UPDATE orders
		SET order_status = $1, payment_status = $2, tracking_number = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`
)

// CreateOrder converts the user's cart into an order. The order row, every
// order line, every stock decrement and the cart clear commit together or not
// at all. Errors are ErrEmptyCart, ErrInsufficientStock or
// ErrOrderCreationFailed.
func (s *PostgresStore) CreateOrder(ctx context.Context, c models.Checkout) (models.Order, error) {
	unlock := s.lockForUser(c.UserID)
	defer unlock()

	var (
		order models.Order
		err   error
	)
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order, err = s.createOrderTx(ctx, c)
		if !isOrderNumberConflict(err) {
			break
		}
	}

	switch {
	case err == nil:
		return order, nil
	case errors.Is(err, models.ErrEmptyCart), errors.Is(err, models.ErrInsufficientStock):
		return models.Order{}, err
	default:
		return models.Order{}, fmt.Errorf("%w: %v", models.ErrOrderCreationFailed, err)
	}
}

func (s *PostgresStore) createOrderTx(ctx context.Context, c models.Checkout) (models.Order, error) {
	var order models.Order

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		lines, err := queryCartLines(ctx, tx, lockCartLinesSQL, c.UserID)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		if len(lines) == 0 {
			return models.ErrEmptyCart
		}
		for _, l := range lines {
			if l.Stock < l.Quantity {
				return fmt.Errorf("%w: %s (available %d, requested %d)",
					models.ErrInsufficientStock, l.ProductName, l.Stock, l.Quantity)
			}
		}

		// order lines follow cart insertion order
		slices.SortFunc(lines, func(a, b models.CartLine) int { return cmp.Compare(a.ID, b.ID) })
		totals := s.Pricing.Totals(lines)

		order = models.Order{
			OrderNumber:     s.nextOrderNumber(),
			UserID:          c.UserID,
			Subtotal:        totals.Subtotal,
			ShippingFee:     totals.ShippingFee,
			TotalAmount:     totals.Total,
			ShippingAddress: c.ShippingAddress,
			BillingAddress:  c.BillingAddress,
			PaymentMethod:   c.PaymentMethod,
			PaymentStatus:   models.PaymentStatusPending,
			OrderStatus:     models.OrderStatusPending,
			Lines:           make([]models.OrderLine, 0, len(lines)),
		}
		if err := tx.QueryRowContext(ctx, insertOrderSQL,
			order.OrderNumber, order.UserID, order.Subtotal, order.ShippingFee, order.TotalAmount,
			order.ShippingAddress, order.BillingAddress, order.PaymentMethod,
			order.PaymentStatus, order.OrderStatus,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i, l := range lines {
			line := models.OrderLine{
				OrderID:     order.ID,
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Quantity:    l.Quantity,
				UnitPrice:   l.Price,
				LineTotal:   l.LineTotal(),
			}
			if err := tx.QueryRowContext(ctx, insertOrderItemSQL,
				line.OrderID, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice, line.LineTotal,
			).Scan(&line.ID); err != nil {
				return fmt.Errorf("insert line %d: %w", i, err)
			}

			res, err := tx.ExecContext(ctx, decrementStockSQL, l.Quantity, l.ProductID)
			if err != nil {
				return fmt.Errorf("decrement stock of product %d: %w", l.ProductID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("decrement stock of product %d: %w", l.ProductID, err)
			}
			if n == 0 {
				return fmt.Errorf("%w: %s", models.ErrInsufficientStock, l.ProductName)
			}

			order.Lines = append(order.Lines, line)
		}

		// only the lines priced above; a line added meanwhile stays in the cart
		ids := make([]int64, len(lines))
		for i, l := range lines {
			ids[i] = l.ID
		}
		if _, err := tx.ExecContext(ctx, clearCartSQL, pq.Array(ids)); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// GetOrder returns the order with its lines. Ownership is checked by the caller.
func (s *PostgresStore) GetOrder(ctx context.Context, orderID int64) (models.Order, error) {
	o, err := scanOrder(s.DB.QueryRowContext(ctx, selectOrderSQL, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, models.ErrNotFound
	}
	if err != nil {
		return models.Order{}, storageErr("get order", err)
	}

	orders := []models.Order{o}
	if err := loadLines(ctx, s.DB, orders); err != nil {
		return models.Order{}, storageErr("get order lines", err)
	}
	return orders[0], nil
}

// ListOrdersByUser returns the user's orders newest first, lines included.
func (s *PostgresStore) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	rows, err := s.DB.QueryContext(ctx, selectUserOrdersSQL, userID)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, storageErr("list orders", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list orders", err)
	}
	rows.Close()

	if err := loadLines(ctx, s.DB, orders); err != nil {
		return nil, storageErr("list order lines", err)
	}
	return orders, nil
}

// UpdateOrderStatus applies an administrative status change under a row lock.
func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, orderID int64, u models.StatusUpdate) (models.Order, error) {
	var order models.Order

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		o, err := scanOrder(tx.QueryRowContext(ctx, selectOrderForUpdateSQL, orderID))
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}

		if err := u.Apply(&o); err != nil {
			return err
		}

		tracking := sql.NullString{String: o.TrackingNumber, Valid: o.TrackingNumber != ""}
		if err := tx.QueryRowContext(ctx, updateOrderStatusSQL,
			o.OrderStatus, o.PaymentStatus, tracking, o.ID,
		).Scan(&o.UpdatedAt); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		orders := []models.Order{o}
		if err := loadLines(ctx, tx, orders); err != nil {
			return fmt.Errorf("load lines: %w", err)
		}
		order = orders[0]
		return nil
	})

	switch {
	case err == nil:
		return order, nil
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrInvalidInput):
		return models.Order{}, err
	default:
		return models.Order{}, storageErr("update order status", err)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(r rowScanner) (models.Order, error) {
	var (
		o        models.Order
		tracking sql.NullString
	)
	err := r.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Subtotal, &o.ShippingFee, &o.TotalAmount,
		&o.ShippingAddress, &o.BillingAddress, &o.PaymentMethod, &o.PaymentStatus,
		&o.OrderStatus, &tracking, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return models.Order{}, err
	}
	o.TrackingNumber = strings.TrimSpace(tracking.String)
	return o, nil
}

// loadLines fills Lines of every order with one query.
func loadLines(ctx context.Context, q queryer, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Lines = []models.OrderLine{}
	}

	rows, err := q.QueryContext(ctx, selectOrderItemsSQL, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return err
		}
		if i, ok := index[l.OrderID]; ok {
			orders[i].Lines = append(orders[i].Lines, l)
		}
	}
	return rows.Err()
}
