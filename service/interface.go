package service

import (
	"context"

	models "storefront/model"
)

type ServiceInterface interface {
	AddItem(ctx context.Context, userID, productID int64, qty int) error
	UpdateQuantity(ctx context.Context, userID, lineID int64, qty int) error
	RemoveItem(ctx context.Context, userID, lineID int64) error
	GetCart(ctx context.Context, userID int64) (CartSummary, error)
	Quote(ctx context.Context, userID int64) (CartSummary, error)

	CreateOrder(ctx context.Context, userID int64, req OrderRequest) (models.Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (models.Order, error)
	ListOrders(ctx context.Context, userID int64) ([]models.Order, error)

	GetProduct(ctx context.Context, productID int64) (models.Product, error)
	CreateProduct(ctx context.Context, p models.Product) (int64, error)
	UpdateStock(ctx context.Context, productID int64, newStock int) error
	UpdateOrderStatus(ctx context.Context, orderID int64, req StatusRequest) (models.Order, error)
}

// OrderCache keeps a user's order history between requests. A miss is
// reported with ok == false and a nil error.
//
// Every Invalidate bumps the user's generation. SetOrders stores the list only
// if the generation still equals gen, the value read before loading it, so a
// list loaded before an invalidation is never written back after it.
type OrderCache interface {
	GetOrders(ctx context.Context, userID int64) (orders []models.Order, ok bool, err error)
	Generation(ctx context.Context, userID int64) (int64, error)
	SetOrders(ctx context.Context, userID, gen int64, orders []models.Order) error
	Invalidate(ctx context.Context, userID int64) error
}

// EventPublisher announces order lifecycle changes to other systems.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, o models.Order) error
	PublishOrderStatusChanged(ctx context.Context, o models.Order) error
}

type nopCache struct{}

func (nopCache) GetOrders(context.Context, int64) ([]models.Order, bool, error) {
	return nil, false, nil
}
func (nopCache) Generation(context.Context, int64) (int64, error)             { return 0, nil }
func (nopCache) SetOrders(context.Context, int64, int64, []models.Order) error { return nil }
func (nopCache) Invalidate(context.Context, int64) error                       { return nil }

type nopPublisher struct{}

func (nopPublisher) PublishOrderPlaced(context.Context, models.Order) error        { return nil }
func (nopPublisher) PublishOrderStatusChanged(context.Context, models.Order) error { return nil }
