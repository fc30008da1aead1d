package store

import (
	"context"
	"database/sql"
	"errors"

	models "storefront/model"
)

const (
	insertProductSQL = `
		INSERT INTO products (name, description, image, price, sale_price, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	selectProductSQL = `
		SELECT id, name, description, image, price, sale_price, stock, created_at
		FROM products
		WHERE id = $1`
)

// CreateProduct inserts a product and returns its id
func (s *PostgresStore) CreateProduct(ctx context.Context, p models.Product) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, insertProductSQL,
		p.Name, p.Description, p.Image, p.Price, p.SalePrice, p.Stock,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("create product", err)
	}
	return id, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	var p models.Product
	err := s.DB.QueryRowContext(ctx, selectProductSQL, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Image, &p.Price, &p.SalePrice, &p.Stock, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, models.ErrNotFound
	}
	if err != nil {
		return models.Product{}, storageErr("get product", err)
	}
	return p, nil
}
