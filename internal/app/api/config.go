package api

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

// DefaultOrderEventsTopic receives every outbox event.
const DefaultOrderEventsTopic = "storefront.orders"

// Config carries environment-driven settings for the storefront processes.
type Config struct {
	Port              string
	Environment       string
	PostgresDSN       string
	PostgresDriver    string
	TxIsolation       sql.IsolationLevel
	Retry             orderapp.RetryPolicy
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	KafkaBrokers      string
	KafkaTopic        string
	OutboxInterval    time.Duration
	OutboxBatchSize   int
	SeedDemoCatalog   bool
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	defaults := orderapp.DefaultRetryPolicy()
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		Environment:       envDefault("ENVIRONMENT", "local"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		PostgresDriver:    strings.ToLower(envDefault("POSTGRES_DRIVER", platformpostgres.DriverPgx)),
		TxIsolation:       sql.LevelReadCommitted,
		Retry:             defaults,
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		KafkaBrokers:      strings.TrimSpace(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        envDefault("KAFKA_TOPIC", DefaultOrderEventsTopic),
		OutboxInterval:    time.Second,
		OutboxBatchSize:   100,
		SeedDemoCatalog:   isTruthy(os.Getenv("SEED_DEMO_CATALOG")),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("PORT must be numeric, got %q", cfg.Port)
	}
	switch cfg.PostgresDriver {
	case platformpostgres.DriverPgx, platformpostgres.DriverPQ:
	default:
		return Config{}, fmt.Errorf("POSTGRES_DRIVER must be %q or %q, got %q", platformpostgres.DriverPgx, platformpostgres.DriverPQ, cfg.PostgresDriver)
	}
	if raw := strings.TrimSpace(os.Getenv("ORDER_TX_ISOLATION")); raw != "" {
		level, err := parseIsolation(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.TxIsolation = level
	}

	var err error
	if cfg.Retry.MaxAttempts, err = positiveInt("STORE_RETRY_MAX_ATTEMPTS", defaults.MaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.Retry.InitialInterval, err = positiveMillis("STORE_RETRY_INITIAL_INTERVAL_MS", defaults.InitialInterval); err != nil {
		return Config{}, err
	}
	if cfg.Retry.MaxInterval, err = positiveMillis("STORE_RETRY_MAX_INTERVAL_MS", defaults.MaxInterval); err != nil {
		return Config{}, err
	}
	if cfg.Retry.InitialInterval > cfg.Retry.MaxInterval {
		return Config{}, fmt.Errorf("STORE_RETRY_INITIAL_INTERVAL_MS must not exceed STORE_RETRY_MAX_INTERVAL_MS")
	}
	if cfg.OutboxInterval, err = positiveMillis("OUTBOX_POLL_INTERVAL_MS", cfg.OutboxInterval); err != nil {
		return Config{}, err
	}
	if cfg.OutboxBatchSize, err = positiveInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseIsolation(raw string) (sql.IsolationLevel, error) {
	normalized := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(raw))
	switch normalized {
	case "readcommitted":
		return sql.LevelReadCommitted, nil
	case "repeatableread":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	}
	return 0, fmt.Errorf("ORDER_TX_ISOLATION must be read-committed, repeatable-read or serializable, got %q", raw)
}

func positiveInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func positiveMillis(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
