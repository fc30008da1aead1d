// Package cache keeps per-user order history in Redis so the orders page
// does not hit PostgreSQL on every view.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	models "storefront/model"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 5 * time.Minute

type OrderCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &OrderCache{rdb: rdb, ttl: ttl}
}

// Connect opens a client for addr and pings it once.
func Connect(ctx context.Context, addr string, ttl time.Duration) (*OrderCache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return New(rdb, ttl), nil
}

func ordersKey(userID int64) string {
	return fmt.Sprintf("orders:user:%d", userID)
}

func genKey(userID int64) string {
	return fmt.Sprintf("orders:user:%d:gen", userID)
}

func (c *OrderCache) GetOrders(ctx context.Context, userID int64) ([]models.Order, bool, error) {
	raw, err := c.rdb.Get(ctx, ordersKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get orders of user %d: %w", userID, err)
	}
	var orders []models.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		// unreadable entry counts as a miss; the next SetOrders overwrites it
		return nil, false, nil
	}
	return orders, true, nil
}

// Generation returns the user's invalidation counter; 0 when never invalidated.
func (c *OrderCache) Generation(ctx context.Context, userID int64) (int64, error) {
	n, err := c.rdb.Get(ctx, genKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation of user %d: %w", userID, err)
	}
	return n, nil
}

// SetOrders stores orders unless the user's generation has moved past gen.
// A skipped write is not an error.
func (c *OrderCache) SetOrders(ctx context.Context, userID, gen int64, orders []models.Order) error {
	if orders == nil {
		orders = []models.Order{}
	}
	raw, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode orders: %w", err)
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey(userID)).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, ordersKey(userID), raw, c.ttl)
			return nil
		})
		return err
	}, genKey(userID))
	if errors.Is(err, redis.TxFailedErr) {
		// invalidated between the check and the write
		return nil
	}
	if err != nil {
		return fmt.Errorf("set orders of user %d: %w", userID, err)
	}
	return nil
}

func (c *OrderCache) Invalidate(ctx context.Context, userID int64) error {
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, genKey(userID))
		p.Del(ctx, ordersKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate orders of user %d: %w", userID, err)
	}
	return nil
}

func (c *OrderCache) Close() error {
	return c.rdb.Close()
}
