package snapshots

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/perpwatch/perpwatch-api/internal/analytics"
)

// Service records point-in-time performance snapshots for tracked wallets.
type Service struct {
	db        *Database
	analytics *analytics.Service
	source    analytics.DataSource
	now       func() time.Time
}

// NewService creates a snapshot service over the given database and upstream
// source.
func NewService(gormDB *gorm.DB, source analytics.DataSource) *Service {
	return &Service{
		db:        NewDatabase(gormDB),
		analytics: analytics.NewService(source),
		source:    source,
		now:       time.Now,
	}
}

// Record computes and persists one snapshot for a wallet: trailing-30d
// realized net PnL, current unrealized PnL, account value, and return on
// equity. ROE is zero when the account value is zero.
func (s *Service) Record(ctx context.Context, address string) (*WalletSnapshot, error) {
	logger := log.With().
		Str("service", "snapshots").
		Str("wallet", address).
		Logger()

	timeseries, err := s.analytics.Timeseries(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("computing timeseries: %w", err)
	}

	state, err := s.source.UserState(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetching user state: %w", err)
	}

	realized := timeseries.CumPnl30d
	unrealized := analytics.ReportedUnrealizedPnl(state.Positions)

	var roe float64
	if state.AccountValue != 0 {
		roe = (realized + unrealized) / state.AccountValue
	}

	snapshot := &WalletSnapshot{
		SnapshotID:    "SNAP_" + uuid.New().String(),
		Address:       address,
		RealizedPnl:   realized,
		UnrealizedPnl: unrealized,
		AccountValue:  state.AccountValue,
		ROE:           roe,
		Timestamp:     s.now().UTC(),
	}

	if err := s.db.CreateSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	logger.Info().
		Str("snapshot_id", snapshot.SnapshotID).
		Float64("realized_pnl", snapshot.RealizedPnl).
		Float64("unrealized_pnl", snapshot.UnrealizedPnl).
		Float64("account_value", snapshot.AccountValue).
		Float64("roe", snapshot.ROE).
		Msg("recorded wallet snapshot")

	return snapshot, nil
}

// RecordAll records a snapshot per wallet, continuing past individual
// failures and returning the first error encountered.
func (s *Service) RecordAll(ctx context.Context, addresses []string) error {
	var firstErr error
	for _, address := range addresses {
		if _, err := s.Record(ctx, address); err != nil {
			log.Error().
				Err(err).
				Str("service", "snapshots").
				Str("wallet", address).
				Msg("failed to record snapshot")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
