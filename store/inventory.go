package store

import (
	"context"
	"fmt"

	models "storefront/model"
)

const updateStockSQL = `UPDATE products SET stock = $1 WHERE id = $2`

// UpdateStock sets the absolute stock for a product (admin operation).
func (s *PostgresStore) UpdateStock(ctx context.Context, productID int64, newStock int) error {
	if newStock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", models.ErrInvalidInput)
	}
	res, err := s.DB.ExecContext(ctx, updateStockSQL, newStock, productID)
	if err != nil {
		return storageErr("update stock", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return storageErr("update stock", err)
	}
	if ra == 0 {
		return models.ErrNotFound
	}
	return nil
}
