package store

import (
	"testing"
	"time"

	"storefront/pricing"

	"github.com/DATA-DOG/go-sqlmock"
)

var cartLineColumns = []string{
	"id", "user_id", "product_id", "quantity", "created_at",
	"name", "price", "sale_price", "image", "stock",
}

var orderColumnNames = []string{
	"id", "order_number", "user_id", "subtotal", "shipping_fee", "total_amount",
	"shipping_address", "billing_address", "payment_method", "payment_status",
	"order_status", "tracking_number", "created_at", "updated_at",
}

var orderItemColumns = []string{
	"id", "order_id", "product_id", "product_name", "quantity", "unit_price", "line_total",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := &PostgresStore{
		DB:          db,
		Pricing:     pricing.Default(),
		OrderNumber: func() string { return "ORD-TEST-1" },
	}
	return s, mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

var fixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
