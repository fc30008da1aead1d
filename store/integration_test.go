package store

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	models "storefront/model"
	"storefront/pricing"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// openTestStore connects to TEST_DATABASE_URL and applies the schema.
func openTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(dsn, pricing.Default())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func seedUser(t *testing.T, s *PostgresStore, name string) int64 {
	t.Helper()
	var id int64
	err := s.DB.QueryRow(`INSERT INTO users (name, address) VALUES ($1, $2) RETURNING id`, name, name+" street").Scan(&id)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func seedProduct(t *testing.T, s *PostgresStore, stock int) int64 {
	t.Helper()
	id, err := s.CreateProduct(context.Background(), models.Product{
		Name:  "Last One",
		Price: decimal.NewFromInt(1000),
		Stock: stock,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return id
}

func stockOf(t *testing.T, s *PostgresStore, productID int64) int {
	t.Helper()
	p, err := s.GetProduct(context.Background(), productID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	return p.Stock
}

// waitForLockWaiter blocks until some session of this database waits on a lock.
func waitForLockWaiter(t *testing.T, s *PostgresStore) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var n int
		err := s.DB.QueryRow(`SELECT count(*) FROM pg_stat_activity
			WHERE datname = current_database() AND wait_event_type = 'Lock'`).Scan(&n)
		if err != nil {
			t.Fatalf("pg_stat_activity: %v", err)
		}
		if n > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("checkout never blocked on the product lock")
}

func checkoutFor(userID int64) models.Checkout {
	return models.Checkout{
		UserID:          userID,
		ShippingAddress: "somewhere",
		BillingAddress:  "somewhere",
		PaymentMethod:   models.PaymentMethodCOD,
	}
}

func TestIntegration_AddItemAccumulates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "acc")
	product := seedProduct(t, s, 100)

	const n = 20
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error { return s.AddItem(gctx, user, product, 2) })
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent AddItem failed: %v", err)
	}

	lines, err := s.ListItems(ctx, user)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 2*n {
		t.Fatalf("expected one line with quantity %d, got %+v", 2*n, lines)
	}
}

func TestIntegration_LastUnitRace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	product := seedProduct(t, s, 1)

	for _, u := range []int64{alice, bob} {
		if err := s.AddItem(ctx, u, product, 1); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}

	var succeeded, outOfStock atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range []int64{alice, bob} {
		u := u
		g.Go(func() error {
			_, err := s.CreateOrder(gctx, checkoutFor(u))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, models.ErrInsufficientStock):
				outOfStock.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}
	if succeeded.Load() != 1 || outOfStock.Load() != 1 {
		t.Fatalf("expected one success and one InsufficientStock, got %d/%d", succeeded.Load(), outOfStock.Load())
	}

	if stock := stockOf(t, s, product); stock != 0 {
		t.Fatalf("expected stock 0, got %d", stock)
	}
}

func TestIntegration_SameUserDoubleCheckout(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "double")
	product := seedProduct(t, s, 10)

	if err := s.AddItem(ctx, user, product, 3); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	var succeeded, empty atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := s.CreateOrder(gctx, checkoutFor(user))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, models.ErrEmptyCart):
				empty.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected checkout error: %v", err)
	}
	if succeeded.Load() != 1 || empty.Load() != 1 {
		t.Fatalf("cart was spent twice: %d successes, %d empty", succeeded.Load(), empty.Load())
	}

	if stock := stockOf(t, s, product); stock != 7 {
		t.Fatalf("expected stock 7, got %d", stock)
	}

	orders, err := s.ListOrdersByUser(ctx, user)
	if err != nil || len(orders) != 1 || len(orders[0].Lines) != 1 || orders[0].Lines[0].Quantity != 3 {
		t.Fatalf("unexpected order history: %+v, %v", orders, err)
	}
}

func TestIntegration_EmptyCartLeavesNoState(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "empty")

	if _, err := s.CreateOrder(ctx, checkoutFor(user)); !errors.Is(err, models.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	orders, err := s.ListOrdersByUser(ctx, user)
	if err != nil || len(orders) != 0 {
		t.Fatalf("expected no orders, got (%v, %v)", orders, err)
	}
}

func TestIntegration_LineAddedDuringCheckoutSurvives(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s, "late")
	ordered := seedProduct(t, s, 5)
	late := seedProduct(t, s, 5)

	if err := s.AddItem(ctx, user, ordered, 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	// hold the product row so the checkout parks inside its lock query
	blocker, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer blocker.Rollback()
	if _, err := blocker.ExecContext(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, ordered); err != nil {
		t.Fatalf("lock product: %v", err)
	}

	var g errgroup.Group
	var order models.Order
	g.Go(func() error {
		var err error
		order, err = s.CreateOrder(ctx, checkoutFor(user))
		return err
	})

	waitForLockWaiter(t, s)
	if err := s.AddItem(ctx, user, late, 2); err != nil {
		t.Fatalf("AddItem during checkout: %v", err)
	}
	if err := blocker.Commit(); err != nil {
		t.Fatalf("release lock: %v", err)
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if len(order.Lines) != 1 || order.Lines[0].ProductID != ordered {
		t.Fatalf("order should only hold the locked line: %+v", order.Lines)
	}
	lines, err := s.ListItems(ctx, user)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(lines) != 1 || lines[0].ProductID != late || lines[0].Quantity != 2 {
		t.Fatalf("line added during checkout was lost: %+v", lines)
	}
	if stock := stockOf(t, s, late); stock != 5 {
		t.Fatalf("late product stock touched: %d", stock)
	}
}
