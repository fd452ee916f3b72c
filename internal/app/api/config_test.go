package api

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
)

var configKeys = []string{
	"PORT", "ENVIRONMENT", "POSTGRES_DSN", "POSTGRES_DRIVER", "ORDER_TX_ISOLATION",
	"STORE_RETRY_MAX_ATTEMPTS", "STORE_RETRY_INITIAL_INTERVAL_MS", "STORE_RETRY_MAX_INTERVAL_MS",
	"TEMPORAL_ADDRESS", "TEMPORAL_NAMESPACE", "TEMPORAL_DISABLED", "KAFKA_BROKERS", "KAFKA_TOPIC",
	"OUTBOX_POLL_INTERVAL_MS", "OUTBOX_BATCH_SIZE", "SEED_DEMO_CATALOG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "pgx", cfg.PostgresDriver)
	assert.Equal(t, sql.LevelReadCommitted, cfg.TxIsolation)
	assert.Equal(t, orderapp.DefaultRetryPolicy(), cfg.Retry)
	assert.Equal(t, DefaultOrderEventsTopic, cfg.KafkaTopic)
	assert.Equal(t, time.Second, cfg.OutboxInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.False(t, cfg.TemporalDisabled)
	assert.False(t, cfg.SeedDemoCatalog)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_DRIVER", "Postgres")
	t.Setenv("ORDER_TX_ISOLATION", "SERIALIZABLE")
	t.Setenv("STORE_RETRY_MAX_ATTEMPTS", "6")
	t.Setenv("STORE_RETRY_INITIAL_INTERVAL_MS", "20")
	t.Setenv("STORE_RETRY_MAX_INTERVAL_MS", "400")
	t.Setenv("TEMPORAL_DISABLED", "yes")
	t.Setenv("OUTBOX_POLL_INTERVAL_MS", "250")
	t.Setenv("SEED_DEMO_CATALOG", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.PostgresDriver)
	assert.Equal(t, sql.LevelSerializable, cfg.TxIsolation)
	assert.Equal(t, orderapp.RetryPolicy{MaxAttempts: 6, InitialInterval: 20 * time.Millisecond, MaxInterval: 400 * time.Millisecond}, cfg.Retry)
	assert.True(t, cfg.TemporalDisabled)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxInterval)
	assert.True(t, cfg.SeedDemoCatalog)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"port":           {"PORT": "http"},
		"driver":         {"POSTGRES_DRIVER": "mysql"},
		"isolation":      {"ORDER_TX_ISOLATION": "read-uncommitted"},
		"attempts":       {"STORE_RETRY_MAX_ATTEMPTS": "0"},
		"interval order": {"STORE_RETRY_INITIAL_INTERVAL_MS": "2000", "STORE_RETRY_MAX_INTERVAL_MS": "100"},
		"batch":          {"OUTBOX_BATCH_SIZE": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
