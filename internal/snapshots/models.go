package snapshots

import (
	"time"

	"gorm.io/gorm"
)

// WalletSnapshot is one recorded point of a wallet's performance, written by
// the snapshot tool on each run.
type WalletSnapshot struct {
	gorm.Model    `json:"-"`
	SnapshotID    string    `gorm:"uniqueIndex" json:"snapshot_id"`
	Address       string    `gorm:"index" json:"address"`
	RealizedPnl   float64   `json:"realized_pnl"` // trailing 30d net PnL
	UnrealizedPnl float64   `json:"unrealized_pnl"`
	AccountValue  float64   `json:"account_value"`
	ROE           float64   `json:"roe"` // (realized + unrealized) / account value
	Timestamp     time.Time `json:"timestamp"`
}
