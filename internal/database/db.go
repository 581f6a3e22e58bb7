package database

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"dealflow/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the PostgreSQL pool and migrates the schema.
func NewConnection(dsn string, verbose bool, slogger *slog.Logger) (*gorm.DB, error) {
	level := logger.Silent
	if verbose {
		level = logger.Info
	}
	gormConfig := &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.User{},
		&model.KnownUser{},
		&model.DealRequest{},
	); err != nil {
		slogger.Warn("failed to auto-migrate models", slog.String("error", err.Error()))
	}

	return db, nil
}
