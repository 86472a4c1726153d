package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/justsurfingit/Application-Tracker/internal/models"
)

// Connect opens the Postgres journal database and migrates its tables.
func Connect(dsn string, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the journal and inbox tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.ApplicationEvent{}, &models.InboxState{}, &models.ProcessedEmail{}); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
