// Package orderstore implements the OrderRepository interface on top of GORM.
// Production runs against PostgreSQL; when no database URL is configured it
// falls back to a local SQLite file for development.
package orderstore

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fitstack/fitstack-orders/internal/domain"
)

// Open connects to the order database and runs migrations.
func Open(databaseURL string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	if databaseURL == "" {
		db, err = gorm.Open(sqlite.Open("fitstack-orders.db"), cfg)
	} else {
		db, err = gorm.Open(postgres.Open(databaseURL), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Order{}, &orderCounter{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
