package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	UserID          int64           `json:"user_id"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	BillingAddress  string          `json:"billing_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	OrderStatus     OrderStatus     `json:"order_status"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	Lines           []OrderLine     `json:"lines"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderLine is a snapshot of a cart line at checkout time. Later catalog
// changes never touch it.
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Checkout carries what the caller supplies when converting a cart to an order.
type Checkout struct {
	UserID          int64
	ShippingAddress string
	BillingAddress  string
	PaymentMethod   PaymentMethod
}

// StatusUpdate is an administrative change to an order. Nil fields are left as is.
type StatusUpdate struct {
	OrderStatus    *OrderStatus   `json:"order_status,omitempty"`
	PaymentStatus  *PaymentStatus `json:"payment_status,omitempty"`
	TrackingNumber *string        `json:"tracking_number,omitempty"`
}
