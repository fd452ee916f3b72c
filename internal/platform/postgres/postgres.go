package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Apurer/go-gin-storefront/internal/platform/migrations"
)

const (
	// DriverPgx uses the pgx stdlib driver bundled with the GORM dialector.
	DriverPgx = "pgx"
	// DriverPQ routes connections through github.com/lib/pq.
	DriverPQ = "postgres"
)

// Options tunes the connection pool. Zero values keep database/sql defaults.
type Options struct {
	Driver          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// SkipMigrations leaves the schema untouched, for processes that only read.
	SkipMigrations bool
}

// Connect opens PostgreSQL through GORM, verifies connectivity and applies the schema.
func Connect(ctx context.Context, dsn string, opts Options) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	dialector, err := dialectorFor(opts.Driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if !opts.SkipMigrations {
		if err := migrations.Run(db.WithContext(ctx)); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	return db, nil
}

// DriverName reports the database/sql driver a connection made with driver uses.
func DriverName(driver string) string {
	if strings.EqualFold(strings.TrimSpace(driver), DriverPQ) {
		return DriverPQ
	}
	return DriverPgx
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverPgx:
		return postgres.Open(dsn), nil
	case DriverPQ:
		return postgres.New(postgres.Config{DriverName: DriverPQ, DSN: dsn}), nil
	default:
		return nil, fmt.Errorf("unsupported postgres driver %q", driver)
	}
}

// ConnectOrFallback dials PostgreSQL and returns the DB plus a cleanup function.
// An empty DSN or a failed connection is logged and yields nil with a no-op cleanup.
func ConnectOrFallback(ctx context.Context, dsn string, opts Options, logger *slog.Logger) (*gorm.DB, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(dsn) == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory order store")
		return nil, func() {}
	}
	db, err := Connect(ctx, dsn, opts)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory order store", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to in-memory order store", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("postgres connection established", slog.String("driver", DriverName(opts.Driver)))
	return db, func() { _ = sqlDB.Close() }
}
