package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/perpwatch/perpwatch-api/internal/analytics"
	"github.com/perpwatch/perpwatch-api/internal/config"
	"github.com/perpwatch/perpwatch-api/internal/database"
	"github.com/perpwatch/perpwatch-api/internal/exchange"
	"github.com/perpwatch/perpwatch-api/internal/favorites"
	"github.com/perpwatch/perpwatch-api/internal/ingest"
	"github.com/perpwatch/perpwatch-api/internal/notify"
	"github.com/perpwatch/perpwatch-api/internal/trades"
	"github.com/perpwatch/perpwatch-api/internal/tradestore"
	"github.com/perpwatch/perpwatch-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the wallet tracker API server with graceful
// shutdown support. It wires the upstream exchange clients, the streaming
// ingest loop for the configured wallet, and all API routes.
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		zlog.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.DBPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Upstream exchange clients and shared trade state
	infoClient := exchange.NewClient(cfg.APIURL)
	wsDialer := exchange.NewStreamDialer(cfg.WSURL)
	store := tradestore.New(cfg.FeedCapacity)
	notifier := notify.NewWebhookNotifier(cfg.WebhookURL, cfg.BotName)

	// Initialize services and handlers
	tradesService := trades.NewService(store, infoClient)
	tradesHandlers := trades.NewGinHandlers(tradesService)

	analyticsService := analytics.NewService(infoClient)
	analyticsHandlers := analytics.NewGinHandlers(analyticsService)

	favoritesService := favorites.NewService(db)
	favoritesHandlers := favorites.NewGinHandlers(favoritesService)

	// Start the background notifier and ingest loop for the tracked wallet
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	go notifier.Start(bgCtx)

	ingestLoop := ingest.NewLoop(
		cfg.WalletAddress,
		ingest.DialerFunc(func(ctx context.Context, address string) (ingest.FillStream, error) {
			return wsDialer.Dial(ctx, address)
		}),
		store,
		notifier,
	)
	go ingestLoop.Start(bgCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, tradesHandlers, analyticsHandlers, favoritesHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Stop background tasks, then give outstanding requests 5 seconds
	bgCancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality:
// - Trade routes: live feed and historical trade views
// - Wallet routes: per-wallet analytics and state
// - Favorites routes: bookmarked wallets
// Parameters:
//   - router: The main Gin router instance
//   - tradesHandlers: Handlers for trade feed and history
//   - analyticsHandlers: Handlers for profitability analytics
//   - favoritesHandlers: Handlers for bookmarked wallets
func setupRoutes(
	router *gin.Engine,
	tradesHandlers *trades.GinHandlers,
	analyticsHandlers *analytics.GinHandlers,
	favoritesHandlers *favorites.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Trade routes
		tradesGroup := v1.Group("/trades")
		{
			tradesGroup.GET("", tradesHandlers.RecentTradesHandler())
			tradesGroup.GET("/history", tradesHandlers.HistoryHandler())
		}

		// Wallet routes
		wallets := v1.Group("/wallets")
		{
			wallets.GET("/:address/state", tradesHandlers.StateHandler())
			wallets.GET("/:address/pnl/timeseries", analyticsHandlers.TimeseriesHandler())
			wallets.GET("/:address/pnl/cumulative", analyticsHandlers.CumulativeHandler())
		}

		// Favorites routes
		favoritesGroup := v1.Group("/favorites")
		{
			favoritesGroup.POST("", favoritesHandlers.AddFavoriteHandler())
			favoritesGroup.GET("", favoritesHandlers.ListFavoritesHandler())
		}
	}
}
