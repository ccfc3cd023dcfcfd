package favorites

import (
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateFavorite(favorite *FavoriteAddress) error {
	return d.db.Create(favorite).Error
}

// ListFavorites returns all bookmarked wallets ordered by tag.
func (d *Database) ListFavorites() ([]FavoriteAddress, error) {
	var favorites []FavoriteAddress
	if err := d.db.Order("tag").Find(&favorites).Error; err != nil {
		return nil, err
	}
	return favorites, nil
}
