package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/perpwatch/perpwatch-api/internal/favorites"
	"github.com/perpwatch/perpwatch-api/internal/snapshots"
)

// NewDatabase opens the sqlite database at the given path and migrates the
// persisted schemas. Only the favorites and snapshot stores are persisted;
// the live trade feed is process-lifetime state.
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.AutoMigrate(
		&favorites.FavoriteAddress{},
		&snapshots.WalletSnapshot{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return db, nil
}
