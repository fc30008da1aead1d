package pricing

import (
	"testing"

	models "storefront/model"

	"github.com/shopspring/decimal"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestTotalsMixedSalePrice(t *testing.T) {
	// A: 1000 x 2, B: sale price 400 x 1
	lines := []models.CartLine{
		{ProductID: 1, Quantity: 2, Price: d(1000)},
		{ProductID: 2, Quantity: 1, Price: models.EffectivePrice(d(500), decimal.NewNullDecimal(d(400)))},
	}

	got := Default().Totals(lines)
	if !got.Subtotal.Equal(d(2400)) {
		t.Fatalf("subtotal: got %s, want 2400", got.Subtotal)
	}
	if !got.ShippingFee.Equal(d(100)) {
		t.Fatalf("shipping: got %s, want 100", got.ShippingFee)
	}
	if !got.Total.Equal(d(2500)) {
		t.Fatalf("total: got %s, want 2500", got.Total)
	}
}

func TestShippingWaivedAboveThreshold(t *testing.T) {
	lines := []models.CartLine{{Quantity: 3, Price: d(2000)}}
	got := Default().Totals(lines)
	if !got.ShippingFee.IsZero() || !got.Total.Equal(d(6000)) {
		t.Fatalf("got %+v, want free shipping and total 6000", got)
	}
}

func TestShippingAtThresholdIsCharged(t *testing.T) {
	if fee := Default().ShippingFee(d(5000)); !fee.Equal(d(100)) {
		t.Fatalf("subtotal equal to threshold must pay the flat fee, got %s", fee)
	}
}

func TestZeroPolicyShipsFree(t *testing.T) {
	var p Policy
	for _, sub := range []int64{0, 10, 5000} {
		if fee := p.ShippingFee(d(sub)); !fee.IsZero() {
			t.Fatalf("zero policy, subtotal %d: got fee %s, want 0", sub, fee)
		}
	}
	got := p.Totals([]models.CartLine{{Quantity: 1, Price: d(10)}})
	if !got.Total.Equal(d(10)) {
		t.Fatalf("zero policy total: got %s, want 10", got.Total)
	}
}

func TestCustomPolicy(t *testing.T) {
	p := Policy{FreeShippingThreshold: d(100), FlatFee: d(7)}
	if fee := p.ShippingFee(d(101)); !fee.IsZero() {
		t.Fatalf("expected free shipping, got %s", fee)
	}
	if fee := p.ShippingFee(d(50)); !fee.Equal(d(7)) {
		t.Fatalf("expected flat 7, got %s", fee)
	}
}

func TestComputeSubtotalEmpty(t *testing.T) {
	if s := ComputeSubtotal(nil); !s.IsZero() {
		t.Fatalf("expected zero, got %s", s)
	}
}
