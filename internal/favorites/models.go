package favorites

import (
	"time"

	"gorm.io/gorm"
)

// FavoriteAddress is a saved wallet with the stats it was bookmarked at.
// TopCoins and TopProfits are stored as JSON arrays.
type FavoriteAddress struct {
	gorm.Model `json:"-"`
	Address    string    `gorm:"uniqueIndex" json:"address"`
	Winrate    float64   `json:"winrate"`
	Tag        string    `json:"tag"`
	TopCoins   string    `json:"top_coins"`
	TopProfits string    `json:"top_profits"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AddFavoriteRequest is the payload for bookmarking a wallet.
type AddFavoriteRequest struct {
	Address    string    `json:"address" binding:"required"`
	Winrate    float64   `json:"winrate"`
	Tag        string    `json:"tag"`
	TopCoins   []string  `json:"top_coins"`
	TopProfits []float64 `json:"top_profits"`
}

// FavoriteSummary is the list view of a bookmarked wallet.
type FavoriteSummary struct {
	Address string `json:"address"`
	Tag     string `json:"tag"`
}
