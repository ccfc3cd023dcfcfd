package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, loaded from the environment
// (optionally seeded from a .env file).
type Config struct {
	Port          string
	WalletAddress string // wallet the streaming ingest loop tracks

	APIURL string // Hyperliquid info endpoint
	WSURL  string // Hyperliquid websocket endpoint

	WebhookURL string // notification sink, empty disables notifications
	BotName    string

	DBPath string

	FeedCapacity int // in-memory trade feed size, 0 uses the default

	SnapshotWallets []string // wallets the snapshot tool records
}

const (
	defaultAPIURL = "https://api.hyperliquid.xyz/info"
	defaultWSURL  = "wss://api.hyperliquid.xyz/ws"
)

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            envStr("PORT", "8080"),
		WalletAddress:   envStr("WALLET_ADDRESS", ""),
		APIURL:          envStr("HYPERLIQUID_API_URL", defaultAPIURL),
		WSURL:           envStr("HYPERLIQUID_WS_URL", defaultWSURL),
		WebhookURL:      envStr("WEBHOOK_URL", ""),
		BotName:         envStr("BOT_NAME", "PerpWatch"),
		DBPath:          envStr("DB_PATH", "perpwatch.db"),
		FeedCapacity:    envInt("FEED_CAPACITY", 0),
		SnapshotWallets: envList("SNAPSHOT_WALLETS"),
	}

	return cfg, nil
}

// Validate checks the settings required to run the server.
func (c *Config) Validate() error {
	if c.WalletAddress == "" {
		return errors.New("WALLET_ADDRESS is required")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
