package snapshots

import (
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateSnapshot(snapshot *WalletSnapshot) error {
	return d.db.Create(snapshot).Error
}

// LatestSnapshots returns the most recent snapshots for a wallet, newest
// first.
func (d *Database) LatestSnapshots(address string, limit int) ([]WalletSnapshot, error) {
	var out []WalletSnapshot
	err := d.db.Where("address = ?", address).
		Order("timestamp desc").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
