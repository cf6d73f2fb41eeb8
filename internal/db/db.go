package db

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opscore/orderflow/internal/config"
	"github.com/opscore/orderflow/internal/models"
)

// ConnectAndMigrate opens the database, runs migrations, and provisions the
// numbering schemes. An empty DSN falls back to a local sqlite file; a
// postgres DSN selects the postgres driver.
func ConnectAndMigrate(cfg config.Config) (*gorm.DB, error) {
	dsn := NormalizeDSN(cfg.DatabaseDSN)
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var conn *gorm.DB
	var err error
	if dsn != "" && IsPostgresDSN(dsn) {
		for i := 0; i < 10; i++ {
			conn, err = gorm.Open(postgres.Open(dsn), gcfg)
			if err == nil {
				break
			}
			fmt.Println("Retrying DB connection...", err)
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to connect database after retries: %w", err)
		}
	} else {
		if dsn == "" {
			dsn = "orderflow.db"
		}
		conn, err = gorm.Open(sqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
	}

	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	// SQL migrations via golang-migrate when explicitly requested; otherwise
	// AutoMigrate (dev convenience, and the only path for sqlite).
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); (v == "1" || v == "true" || v == "yes") && IsPostgresDSN(dsn) {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(conn); err != nil {
			return nil, err
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"numbering_schemes", "quotes", "sales_orders", "delivery_orders"} {
		if !conn.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}

	numbering, err := config.LoadNumbering(cfg.NumberingFile)
	if err != nil {
		return nil, err
	}
	if err := SeedNumbering(conn, numbering); err != nil {
		return nil, err
	}
	return conn, nil
}

// AutoMigrate creates or updates the schema for all models.
func AutoMigrate(conn *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.User{}, &models.Customer{}, &models.Product{}, &models.Supplier{},
		&models.NumberingScheme{},
		&models.Quote{}, &models.QuoteItem{},
		&models.SalesOrder{}, &models.SalesOrderItem{},
		&models.DeliveryOrder{}, &models.DeliveryOrderItem{},
		&models.PurchaseOrder{}, &models.PurchaseOrderItem{},
	}
	for _, m := range modelsToMigrate {
		if migErr := conn.AutoMigrate(m); migErr != nil {
			return fmt.Errorf("automigrate %T: %w", m, migErr)
		}
	}
	return nil
}

// SeedNumbering creates any missing scheme rows. Existing rows are left
// alone: counters are live state and must never be reset by a restart.
func SeedNumbering(conn *gorm.DB, numbering config.NumberingConfig) error {
	for _, sc := range numbering.Schemes {
		scheme := models.NumberingScheme{
			DocumentType:  sc.DocumentType,
			Prefix:        sc.Prefix,
			CurrentNumber: sc.Start,
		}
		err := conn.Where("document_type = ?", sc.DocumentType).FirstOrCreate(&scheme).Error
		if err != nil {
			return fmt.Errorf("provision numbering for %s: %w", sc.DocumentType, err)
		}
	}
	return nil
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
