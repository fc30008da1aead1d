package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var keys = []string{
	"APP_ENV", "LOG_LEVEL", "HTTP_PORT", "DATABASE_URL", "DB_MAX_OPEN_CONNS",
	"RUN_MIGRATIONS", "REDIS_ADDR", "ORDER_CACHE_TTL", "KAFKA_BROKERS",
	"KAFKA_ORDER_TOPIC", "JWT_SECRET", "SHIPPING_FLAT_FEE", "FREE_SHIPPING_THRESHOLD",
}

// clearEnv blanks every key for the duration of the test.
func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c := Load(filepath.Join(t.TempDir(), "missing.env"))

	if c.AppEnv != "dev" || c.LogLevel != "info" || c.HTTPPort != 8082 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.DatabaseURL != defaultDSN || c.DBMaxOpenConns != 20 || !c.RunMigrations {
		t.Fatalf("unexpected db defaults: %+v", c)
	}
	if c.RedisAddr != "" || c.KafkaBrokers != nil || c.KafkaOrderTopic != "orders" {
		t.Fatalf("optional backends should be off by default: %+v", c)
	}
	if c.OrderCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected ttl %v", c.OrderCacheTTL)
	}
	p := c.Pricing()
	if !p.FlatFee.Equal(decimal.NewFromInt(100)) || !p.FreeShippingThreshold.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected pricing: %+v", p)
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("missing JWT_SECRET should fail validation")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ORDER_CACHE_TTL", "30s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SHIPPING_FLAT_FEE", "49.90")
	t.Setenv("RUN_MIGRATIONS", "false")

	c := Load(filepath.Join(t.TempDir(), "missing.env"))
	if c.HTTPPort != 9000 || c.RedisAddr != "localhost:6379" || c.OrderCacheTTL != 30*time.Second {
		t.Fatalf("unexpected config: %+v", c)
	}
	if len(c.KafkaBrokers) != 2 || c.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers: %v", c.KafkaBrokers)
	}
	if !c.ShippingFlatFee.Equal(decimal.RequireFromString("49.9")) || c.RunMigrations {
		t.Fatalf("unexpected config: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestMalformedValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "eighty")
	t.Setenv("ORDER_CACHE_TTL", "-1m")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "lots")

	c := Load(filepath.Join(t.TempDir(), "missing.env"))
	if c.HTTPPort != 8082 || c.OrderCacheTTL != 5*time.Minute || !c.FreeShippingThreshold.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("expected defaults, got %+v", c)
	}
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("APP_ENV")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("JWT_SECRET=from-file\nAPP_ENV=staging\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("APP_ENV")
	})

	c := Load(path)
	if c.JWTSecret != "from-file" || c.AppEnv != "staging" {
		t.Fatalf("unexpected config: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	c := Config{JWTSecret: "x", DatabaseURL: "postgres://", HTTPPort: 0}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected port error")
	}
	c.HTTPPort = 8080
	c.ShippingFlatFee = decimal.NewFromInt(-1)
	if err := c.Validate(); err == nil {
		t.Fatalf("expected negative fee error")
	}
}

func TestZeroShippingSettingsMeanFreeShipping(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHIPPING_FLAT_FEE", "0")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "0")

	p := Load(filepath.Join(t.TempDir(), "missing.env")).Pricing()
	if fee := p.ShippingFee(decimal.NewFromInt(10)); !fee.IsZero() {
		t.Fatalf("expected free shipping, got fee %s", fee)
	}
}
