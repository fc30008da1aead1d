package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	models "storefront/model"
	"storefront/pricing"
	"storefront/store"
)

type Service struct {
	store     store.Store
	cache     OrderCache
	publisher EventPublisher
	pricing   pricing.Policy
	log       *slog.Logger
}

type Option func(*Service)

func WithCache(c OrderCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithPricing(p pricing.Policy) Option {
	return func(s *Service) { s.pricing = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:     st,
		cache:     nopCache{},
		publisher: nopPublisher{},
		pricing:   pricing.Default(),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---- cart ----

func (s *Service) AddItem(ctx context.Context, userID, productID int64, qty int) error {
	if userID <= 0 || productID <= 0 {
		return fmt.Errorf("%w: user_id and product_id required", models.ErrInvalidInput)
	}
	if qty < 1 {
		return models.ErrInvalidQuantity
	}
	return s.store.AddItem(ctx, userID, productID, qty)
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID int64, qty int) error {
	if userID <= 0 || lineID <= 0 {
		return fmt.Errorf("%w: user_id and line_id required", models.ErrInvalidInput)
	}
	if qty < 1 {
		return models.ErrInvalidQuantity
	}
	return s.store.UpdateQuantity(ctx, userID, lineID, qty)
}

func (s *Service) RemoveItem(ctx context.Context, userID, lineID int64) error {
	if userID <= 0 || lineID <= 0 {
		return fmt.Errorf("%w: user_id and line_id required", models.ErrInvalidInput)
	}
	return s.store.RemoveItem(ctx, userID, lineID)
}

// GetCart returns the lines with the same totals the checkout page and
// order creation will compute. An empty cart has all-zero totals.
func (s *Service) GetCart(ctx context.Context, userID int64) (CartSummary, error) {
	if userID <= 0 {
		return CartSummary{}, fmt.Errorf("%w: user_id required", models.ErrInvalidInput)
	}
	lines, err := s.store.ListItems(ctx, userID)
	if err != nil {
		return CartSummary{}, err
	}
	if len(lines) == 0 {
		return emptySummary(), nil
	}
	return CartSummary{Lines: lines, Totals: s.pricing.Totals(lines)}, nil
}

// Quote is the checkout page view of the cart. Unlike GetCart it refuses
// an empty cart, since nothing can be ordered from it.
func (s *Service) Quote(ctx context.Context, userID int64) (CartSummary, error) {
	sum, err := s.GetCart(ctx, userID)
	if err != nil {
		return CartSummary{}, err
	}
	if len(sum.Lines) == 0 {
		return CartSummary{}, models.ErrEmptyCart
	}
	return sum, nil
}

// ---- orders ----

func (s *Service) CreateOrder(ctx context.Context, userID int64, req OrderRequest) (models.Order, error) {
	if userID <= 0 {
		return models.Order{}, fmt.Errorf("%w: user_id required", models.ErrInvalidInput)
	}
	method, err := models.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return models.Order{}, err
	}

	shipping := strings.TrimSpace(req.ShippingAddress)
	if shipping == "" {
		// an empty cart outranks a missing address
		lines, err := s.store.ListItems(ctx, userID)
		if err != nil {
			return models.Order{}, err
		}
		if len(lines) == 0 {
			return models.Order{}, models.ErrEmptyCart
		}
		// profile address is read now, not from whatever the session cached
		u, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return models.Order{}, err
		}
		shipping = strings.TrimSpace(u.Address)
	}
	if shipping == "" {
		return models.Order{}, fmt.Errorf("%w: shipping address required", models.ErrInvalidInput)
	}
	billing := strings.TrimSpace(req.BillingAddress)
	if billing == "" {
		billing = shipping
	}

	o, err := s.store.CreateOrder(ctx, models.Checkout{
		UserID:          userID,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		PaymentMethod:   method,
	})
	if err != nil {
		if errors.Is(err, models.ErrOrderCreationFailed) {
			s.log.ErrorContext(ctx, "order creation failed", "user_id", userID, "error", err)
		}
		return models.Order{}, err
	}

	s.log.InfoContext(ctx, "order placed",
		"order_id", o.ID, "order_number", o.OrderNumber, "user_id", userID,
		"total", o.TotalAmount.String(), "lines", len(o.Lines))
	s.invalidate(ctx, userID)
	if err := s.publisher.PublishOrderPlaced(ctx, o); err != nil {
		s.log.WarnContext(ctx, "publish order.placed failed", "order_number", o.OrderNumber, "error", err)
	}
	return o, nil
}

// GetOrder hides orders of other users behind ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, userID, orderID int64) (models.Order, error) {
	if userID <= 0 || orderID <= 0 {
		return models.Order{}, models.ErrNotFound
	}
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}
	if o.UserID != userID {
		return models.Order{}, models.ErrNotFound
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user_id required", models.ErrInvalidInput)
	}
	if orders, ok, err := s.cache.GetOrders(ctx, userID); err != nil {
		s.log.WarnContext(ctx, "order cache read failed", "user_id", userID, "error", err)
	} else if ok {
		return orders, nil
	}

	gen, genErr := s.cache.Generation(ctx, userID)
	if genErr != nil {
		s.log.WarnContext(ctx, "order cache generation read failed", "user_id", userID, "error", genErr)
	}

	orders, err := s.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		if err := s.cache.SetOrders(ctx, userID, gen, orders); err != nil {
			s.log.WarnContext(ctx, "order cache write failed", "user_id", userID, "error", err)
		}
	}
	return orders, nil
}

// ---- catalog ----

func (s *Service) GetProduct(ctx context.Context, productID int64) (models.Product, error) {
	if productID <= 0 {
		return models.Product{}, models.ErrNotFound
	}
	return s.store.GetProduct(ctx, productID)
}

// ---- admin ----

func (s *Service) CreateProduct(ctx context.Context, p models.Product) (int64, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return 0, fmt.Errorf("%w: name required", models.ErrInvalidInput)
	}
	if p.Price.IsNegative() {
		return 0, fmt.Errorf("%w: price must be >= 0", models.ErrInvalidInput)
	}
	if p.SalePrice.Valid && (p.SalePrice.Decimal.IsNegative() || p.SalePrice.Decimal.GreaterThan(p.Price)) {
		return 0, fmt.Errorf("%w: sale price must be between 0 and price", models.ErrInvalidInput)
	}
	if p.Stock < 0 {
		return 0, fmt.Errorf("%w: stock cannot be negative", models.ErrInvalidInput)
	}
	return s.store.CreateProduct(ctx, p)
}

func (s *Service) UpdateStock(ctx context.Context, productID int64, newStock int) error {
	if productID <= 0 {
		return fmt.Errorf("%w: product_id required", models.ErrInvalidInput)
	}
	if newStock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", models.ErrInvalidInput)
	}
	return s.store.UpdateStock(ctx, productID, newStock)
}

func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, req StatusRequest) (models.Order, error) {
	if orderID <= 0 {
		return models.Order{}, models.ErrNotFound
	}
	u, err := req.toUpdate()
	if err != nil {
		return models.Order{}, err
	}
	o, err := s.store.UpdateOrderStatus(ctx, orderID, u)
	if err != nil {
		return models.Order{}, err
	}

	s.log.InfoContext(ctx, "order status changed",
		"order_id", o.ID, "order_status", o.OrderStatus, "payment_status", o.PaymentStatus)
	s.invalidate(ctx, o.UserID)
	if err := s.publisher.PublishOrderStatusChanged(ctx, o); err != nil {
		s.log.WarnContext(ctx, "publish order.status_changed failed", "order_number", o.OrderNumber, "error", err)
	}
	return o, nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.log.WarnContext(ctx, "order cache invalidate failed", "user_id", userID, "error", err)
	}
}

func emptySummary() CartSummary {
	return CartSummary{Lines: []models.CartLine{}}
}

// DTOs
type CartSummary struct {
	Lines []models.CartLine `json:"lines"`
	pricing.Totals
}

type OrderRequest struct {
	ShippingAddress string `json:"shipping_address,omitempty"`
	BillingAddress  string `json:"billing_address,omitempty"`
	PaymentMethod   string `json:"payment_method"`
}

type StatusRequest struct {
	OrderStatus    *string `json:"order_status,omitempty"`
	PaymentStatus  *string `json:"payment_status,omitempty"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
}

func (r StatusRequest) toUpdate() (models.StatusUpdate, error) {
	var u models.StatusUpdate
	if r.OrderStatus != nil {
		st, err := models.ParseOrderStatus(*r.OrderStatus)
		if err != nil {
			return u, err
		}
		u.OrderStatus = &st
	}
	if r.PaymentStatus != nil {
		st, err := models.ParsePaymentStatus(*r.PaymentStatus)
		if err != nil {
			return u, err
		}
		u.PaymentStatus = &st
	}
	u.TrackingNumber = r.TrackingNumber
	return u, nil
}
