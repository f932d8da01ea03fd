package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trade-journal-go/internal/models"
)

// NewDatabase opens the database and migrates the schema.
// TranslateError is required so duplicate inserts surface as
// gorm.ErrDuplicatedKey regardless of the underlying driver.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the tables for all journal models.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.TradingJournal{},
		&models.TradingSession{},
		&models.BrokerConnection{},
		&models.AdvancedTrade{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return nil
}
