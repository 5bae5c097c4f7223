package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// SQLiteDSN builds the connection string for the workshop database file.
// Foreign keys are switched on per connection and lock waits are bounded.
func SQLiteDSN(path string, busyTimeoutMS int) string {
	return fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d", path, busyTimeoutMS)
}

// GormLogger returns the SQL logger matching the configured log level
func GormLogger(cfg *Config) logger.Interface {
	switch {
	case cfg.IsTest():
		return logger.Default.LogMode(logger.Silent)
	case cfg.LogLevel == "debug":
		return logger.Default.LogMode(logger.Info)
	default:
		return logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		})
	}
}

// OpenDatabase opens the workshop database described by cfg without
// touching the package-level connection.
func OpenDatabase(cfg *Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         GormLogger(cfg),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	if cfg.UsesPostgres() {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		dialector = sqlite.Open(SQLiteDSN(cfg.DatabasePath, cfg.BusyTimeoutMS))
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if !cfg.UsesPostgres() {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		// One writer connection keeps statements from the same process serialised.
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// ConnectDatabase establishes the shared database connection
func ConnectDatabase(cfg *Config) error {
	db, err := OpenDatabase(cfg)
	if err != nil {
		return err
	}
	SetDB(db)

	if cfg.UsesPostgres() {
		log.Println("Database connection established successfully (postgres)")
	} else {
		log.Printf("Database connection established successfully (%s)", cfg.DatabasePath)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (primarily for testing)
func SetDB(db *gorm.DB) {
	DB = db
}
