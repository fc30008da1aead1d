package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	models "storefront/model"
	"storefront/pricing"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed migrations.sql
var migrationSQL string

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// PostgresStore is a Store backed by Postgres. It also keeps in-process
// per-user locks so checkouts of one user never interleave inside this process.
type PostgresStore struct {
	DB *sql.DB

	// Pricing is shared with the service layer so that displayed and charged
	// totals come from the same rules.
	Pricing pricing.Policy

	// OrderNumber generates order numbers; nil means NewOrderNumber.
	OrderNumber func() string

	locks sync.Map // map[int64]*sync.Mutex
}

func NewPostgresStore(dsn string, policy pricing.Policy) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{DB: db, Pricing: policy}, nil
}

func (s *PostgresStore) Close() error { return s.DB.Close() }

// Migrate applies the embedded schema. Statements are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, migrationSQL)
	return err
}

// helper: acquire per-user lock (process-local). Returns unlock func.
func (s *PostgresStore) lockForUser(userID int64) func() {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// withTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back on every other path.
func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) nextOrderNumber() string {
	if s.OrderNumber != nil {
		return s.OrderNumber()
	}
	return NewOrderNumber()
}

// NewOrderNumber returns "ORD-<unix millis>-<8 random hex>". Uniqueness is
// enforced by the orders_order_number_key constraint; CreateOrder retries on
// conflict.
func NewOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), suffix)
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isOrderNumberConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pqUniqueViolation && pqErr.Constraint == "orders_order_number_key"
}

// storageErr hides the driver error behind models.ErrStorage.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, models.ErrStorage, err)
}
