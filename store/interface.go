package store

import (
	"context"

	models "storefront/model"
)

// Store is the storage boundary of the cart and checkout core.
type Store interface {
	CreateProduct(ctx context.Context, p models.Product) (int64, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	UpdateStock(ctx context.Context, productID int64, newStock int) error
	GetUser(ctx context.Context, id int64) (models.User, error)

	AddItem(ctx context.Context, userID, productID int64, qty int) error
	UpdateQuantity(ctx context.Context, userID, lineID int64, qty int) error
	RemoveItem(ctx context.Context, userID, lineID int64) error
	ListItems(ctx context.Context, userID int64) ([]models.CartLine, error)

	CreateOrder(ctx context.Context, c models.Checkout) (models.Order, error)
	GetOrder(ctx context.Context, orderID int64) (models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, u models.StatusUpdate) (models.Order, error)

	Close() error
}
