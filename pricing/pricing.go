// Package pricing holds the subtotal and shipping rules shared by the cart
// page, the checkout page and order creation.
package pricing

import (
	models "storefront/model"

	"github.com/shopspring/decimal"
)

var (
	DefaultFreeShippingThreshold = decimal.NewFromInt(5000)
	DefaultFlatFee               = decimal.NewFromInt(100)
)

// Policy charges FlatFee unless the subtotal is strictly above
// FreeShippingThreshold. The zero value ships everything for free; use
// Default() for the storefront rates.
type Policy struct {
	FreeShippingThreshold decimal.Decimal
	FlatFee               decimal.Decimal
}

func Default() Policy {
	return Policy{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatFee:               DefaultFlatFee,
	}
}

type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

// ComputeSubtotal sums effective price times quantity over lines.
func ComputeSubtotal(lines []models.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

func (p Policy) ShippingFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.FlatFee
}

func (p Policy) Totals(lines []models.CartLine) Totals {
	sub := ComputeSubtotal(lines)
	fee := p.ShippingFee(sub)
	return Totals{Subtotal: sub, ShippingFee: fee, Total: sub.Add(fee)}
}
