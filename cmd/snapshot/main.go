package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/perpwatch/perpwatch-api/internal/config"
	"github.com/perpwatch/perpwatch-api/internal/database"
	"github.com/perpwatch/perpwatch-api/internal/exchange"
	"github.com/perpwatch/perpwatch-api/internal/snapshots"
)

// init configures the logger for the snapshot tool with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// main records one performance snapshot per configured wallet and exits.
// Intended to run on a schedule (cron or similar).
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	wallets := cfg.SnapshotWallets
	if len(wallets) == 0 && cfg.WalletAddress != "" {
		wallets = []string{cfg.WalletAddress}
	}
	if len(wallets) == 0 {
		log.Fatal().Msg("No wallets configured: set SNAPSHOT_WALLETS or WALLET_ADDRESS")
	}

	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	infoClient := exchange.NewClient(cfg.APIURL)
	service := snapshots.NewService(db, infoClient)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := service.RecordAll(ctx, wallets); err != nil {
		log.Fatal().Err(err).Msg("Snapshot run finished with failures")
	}

	log.Info().Int("wallets", len(wallets)).Msg("Snapshot run complete")
}
