package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jimmer89/bloop-tracker/src/model"
)

// MainDB is the primary read/write database connection used by the application.
var MainDB *gorm.DB

// ActiveBackend records which adapter was selected at startup. Read by the
// health endpoint; never consulted by the trading logic.
var ActiveBackend string

// Init opens the configured backend, tunes the pool and applies the current
// schema. The schema is declared once and applied idempotently: AutoMigrate
// only ever adds missing tables and nullable columns, so rows written by
// older revisions survive untouched.
func Init() error {
	config := GetConfig()

	dialector, err := openDialector(config)
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", config.Backend, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB from GORM: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	if err := Migrate(db); err != nil {
		return err
	}

	// Assign to the globals only after the connection is migrated and usable.
	MainDB = db
	ActiveBackend = config.Backend

	logrus.WithField("backend", config.Backend).Info("[database] MainDB connection established")

	logrus.Info("[database] MainDB migrations completed")

	return nil
}

// Migrate applies the current schema to the given connection. Exposed so
// tests can run it against an in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Signal{},
		&model.OpenPosition{},
		&model.ClosedTrade{},
	); err != nil {
		return fmt.Errorf("failed to run migrations on MainDB: %w", err)
	}
	return nil
}

func openDialector(config Config) (gorm.Dialector, error) {
	switch config.Backend {
	case BackendSQLite:
		return sqlite.Open(config.SQLitePath), nil
	case BackendPostgres:
		return postgres.Open(config.DatabaseURL), nil
	default:
		return nil, fmt.Errorf("unknown DB_BACKEND %q (want %q or %q)", config.Backend, BackendSQLite, BackendPostgres)
	}
}
