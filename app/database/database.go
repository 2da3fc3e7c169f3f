package database

import (
	"context"
	"fmt"
	"time"

	// registers the "postgres" database/sql driver used by the dialector
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mytheresa/product-catalog/app/config"
	"github.com/mytheresa/product-catalog/app/logging"
	"github.com/mytheresa/product-catalog/models"
)

// Database is the process-wide store handle. It is built once at startup,
// handed to the repositories and closed on shutdown.
type Database struct {
	DB *gorm.DB
}

// Open connects to PostgreSQL, configures the pool and migrates the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, l *zap.Logger) (*Database, error) {
	dialector := postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        cfg.DSN(),
	})
	d, err := New(dialector, l, cfg.SlowThreshold)
	if err != nil {
		return nil, err
	}

	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := d.Ping(ctx); err != nil {
		_ = d.Close()
		return nil, err
	}
	if err := d.Init(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// New opens a handle over any gorm dialector without touching the schema.
func New(dialector gorm.Dialector, l *zap.Logger, slowThreshold time.Duration) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormLogger(l, gormlogger.Warn, slowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Database{DB: db}, nil
}

// Init creates the schema. Running it again on a migrated store is a no-op.
func (d *Database) Init() error {
	return models.Migrate(d.DB)
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
