package main

// GET  /healthz                    - liveness
// GET  /products/{id}               - product with current price and stock
// POST /cart/add                   - add a product to the caller's cart
// POST /cart/update                - set a cart line quantity
// POST /cart/remove                - remove a cart line
// GET  /cart/list                  - cart lines with subtotal, shipping, total
// GET  /checkout/quote             - same totals, refused for an empty cart
// POST /checkout/order             - convert the cart into an order
// GET  /orders/list                - order history, newest first
// GET  /orders/{id}                - one order with its lines
// POST /admin/products             - create a product
// POST /admin/products/stock       - set a product's stock
// POST /admin/orders/{id}/status   - advance order / payment status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"storefront/cache"
	"storefront/config"
	"storefront/events"
	"storefront/handler"
	"storefront/logger"
	"storefront/service"
	"storefront/shutdown"
	"storefront/store"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "storefront", Env: cfg.AppEnv, Level: cfg.LogLevel})

	if err := run(cfg, log); err != nil {
		log.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	// --- Store ---
	st, err := store.NewPostgresStore(cfg.DatabaseURL, cfg.Pricing())
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer st.Close()
	st.DB.SetMaxOpenConns(cfg.DBMaxOpenConns)

	if cfg.RunMigrations {
		if err := st.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("database migrations applied")
	}

	opts := []service.Option{service.WithLogger(log), service.WithPricing(cfg.Pricing())}

	// --- Cache ---
	if cfg.RedisAddr != "" {
		oc, err := cache.Connect(ctx, cfg.RedisAddr, cfg.OrderCacheTTL)
		if err != nil {
			return err
		}
		defer oc.Close()
		opts = append(opts, service.WithCache(oc))
		log.Info("order cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.OrderCacheTTL.String())
	}

	// --- Events ---
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := events.Dial(ctx, cfg.KafkaBrokers, cfg.KafkaOrderTopic, events.DialOptions{Logger: log})
		if err != nil {
			return err
		}
		defer prod.Close()
		opts = append(opts, service.WithPublisher(prod))
	}

	// --- Service / Handlers ---
	svc := service.NewService(st, opts...)
	var serviceInterface service.ServiceInterface = svc

	r := mux.NewRouter()
	handler.NewHandler(serviceInterface, []byte(cfg.JWTSecret), log).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
