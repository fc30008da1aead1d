package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Image       string              `json:"image,omitempty"`
	Price       decimal.Decimal     `json:"price"`
	SalePrice   decimal.NullDecimal `json:"sale_price"`
	Stock       int                 `json:"stock"`
	CreatedAt   time.Time           `json:"created_at"`
}

// EffectivePrice returns the sale price when one is set, else the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	return EffectivePrice(p.Price, p.SalePrice)
}

func EffectivePrice(price decimal.Decimal, sale decimal.NullDecimal) decimal.Decimal {
	if sale.Valid {
		return sale.Decimal
	}
	return price
}

// User is the stored profile behind an authenticated identity. Only the id
// travels with a request; the rest is read fresh when needed.
type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}
