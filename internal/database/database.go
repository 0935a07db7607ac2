package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase opens the database named by databaseURL and runs any pending
// migrations. Postgres URLs are recognized by their scheme; anything else is
// treated as a sqlite file path.
func NewDatabase(databaseURL string) (*gorm.DB, error) {
	log.Println("Connecting to database...")

	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	if err := GetMigrator(db).Migrate(); err != nil {
		return nil, fmt.Errorf("unable to migrate database: %w", err)
	}

	return db, nil
}
