package store

import (
	"context"
	"database/sql"
	"fmt"

	models "storefront/model"

	"github.com/shopspring/decimal"
)

const (
	upsertCartItemSQL = `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`
	updateCartItemSQL = `UPDATE cart_items SET quantity = $1 WHERE id = $2 AND user_id = $3`
	deleteCartItemSQL = `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`

	cartLinesSelect = `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at,
		       p.name, p.price, p.sale_price, p.image, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1`
	listCartItemsSQL = cartLinesSelect + `
		ORDER BY ci.id`
)

// AddItem increments the (user, product) line by qty, creating it if needed.
// The upsert is a single statement, so concurrent adds never duplicate a line.
func (s *PostgresStore) AddItem(ctx context.Context, userID, productID int64, qty int) error {
	if qty < 1 {
		return models.ErrInvalidQuantity
	}
	if _, err := s.DB.ExecContext(ctx, upsertCartItemSQL, userID, productID, qty); err != nil {
		return cartErr("add item", err)
	}
	return nil
}

// UpdateQuantity sets the quantity of a line owned by userID.
func (s *PostgresStore) UpdateQuantity(ctx context.Context, userID, lineID int64, qty int) error {
	if qty < 1 {
		return models.ErrInvalidQuantity
	}
	res, err := s.DB.ExecContext(ctx, updateCartItemSQL, qty, lineID, userID)
	if err != nil {
		return cartErr("update quantity", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update quantity", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RemoveItem deletes a line owned by userID. Missing lines are not an error.
func (s *PostgresStore) RemoveItem(ctx context.Context, userID, lineID int64) error {
	if _, err := s.DB.ExecContext(ctx, deleteCartItemSQL, lineID, userID); err != nil {
		return storageErr("remove item", err)
	}
	return nil
}

func (s *PostgresStore) ListItems(ctx context.Context, userID int64) ([]models.CartLine, error) {
	lines, err := queryCartLines(ctx, s.DB, listCartItemsSQL, userID)
	if err != nil {
		return nil, storageErr("list items", err)
	}
	return lines, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryCartLines reads every row before returning so the caller can issue
// further statements on the same transaction.
func queryCartLines(ctx context.Context, q queryer, query string, userID int64) ([]models.CartLine, error) {
	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CartLine{}
	for rows.Next() {
		var (
			l     models.CartLine
			price decimal.Decimal
			sale  decimal.NullDecimal
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.CreatedAt,
			&l.ProductName, &price, &sale, &l.Image, &l.Stock); err != nil {
			return nil, err
		}
		l.Price = models.EffectivePrice(price, sale)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func cartErr(op string, err error) error {
	switch pqCode(err) {
	case pqForeignKeyViolation:
		return fmt.Errorf("%s: %w: unknown user or product", op, models.ErrNotFound)
	case pqCheckViolation:
		return models.ErrInvalidQuantity
	}
	return storageErr(op, err)
}
