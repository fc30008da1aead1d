package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one (user, product) row of a cart joined with the current
// product snapshot.
type CartLine struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`

	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Stock       int             `json:"stock"`
}

// LineTotal is the effective price times the quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
