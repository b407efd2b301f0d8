// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/config"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
)

func gormConfig(level string) *gorm.Config {
	mode := logger.Silent
	switch level {
	case "error":
		mode = logger.Error
	case "warn":
		mode = logger.Warn
	case "info":
		mode = logger.Info
	}
	return &gorm.Config{Logger: logger.Default.LogMode(mode)}
}

func Initialize(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB, log logrus.FieldLogger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("Error closing database connection")
	} else {
		log.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB, log logrus.FieldLogger) error {
	log.Info("Running database migrations")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	if err := db.AutoMigrate(&models.StorageEntry{}, &models.AuditLog{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	createIndexes(db, log)

	log.Info("Database migrations completed")
	return nil
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
	"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
	"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	"CREATE INDEX IF NOT EXISTS idx_storage_entries_updated ON storage_entries(updated_at DESC)",
}

func createIndexes(db *gorm.DB, log logrus.FieldLogger) {
	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Index failures are not fatal.
			log.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}
}
