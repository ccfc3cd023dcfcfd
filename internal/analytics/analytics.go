package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/perpwatch/perpwatch-api/internal/types"
	"github.com/perpwatch/perpwatch-api/pkg/response"
)

// DataSource is the upstream exchange surface the analytics engine consumes.
type DataSource interface {
	Fills(ctx context.Context, address string) ([]types.Fill, error)
	FillsByTime(ctx context.Context, address string, start, end int64) ([]types.Fill, error)
	UserState(ctx context.Context, address string) (*types.UserState, error)
	Funding(ctx context.Context, address string, start, end int64) ([]types.FundingRecord, error)
	AllMids(ctx context.Context) (map[string]float64, error)
}

// Service computes profitability analytics for arbitrary wallets on demand.
// It holds no mutable state; each request is independent.
type Service struct {
	source DataSource
	now    func() time.Time
}

// NewService creates an analytics service backed by the given data source.
func NewService(source DataSource) *Service {
	return &Service{
		source: source,
		now:    time.Now,
	}
}

// Timeseries fetches a wallet's fill history, open positions and mark
// prices, and derives the daily summary and overall statistics. Any upstream
// failure fails the whole request; partial results are never returned.
func (s *Service) Timeseries(ctx context.Context, address string) (*TimeseriesResponse, error) {
	logger := log.With().
		Str("service", "analytics").
		Str("wallet", address).
		Logger()

	fills, err := s.source.Fills(ctx, address)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch fills")
		return nil, fmt.Errorf("fetching fills: %w", err)
	}

	state, err := s.source.UserState(ctx, address)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch user state")
		return nil, fmt.Errorf("fetching user state: %w", err)
	}

	mids, err := s.source.AllMids(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch mid prices")
		return nil, fmt.Errorf("fetching mid prices: %w", err)
	}

	result := Summarize(SummarizeInput{
		Fills:      fills,
		Positions:  state.Positions,
		MarkPrices: mids,
		Now:        s.now().UTC(),
	})

	logger.Info().
		Int("fills", len(fills)).
		Int("days", len(result.DailySummary)).
		Int("total_trades", result.OverallStats.TotalTrades).
		Msg("computed pnl timeseries")

	return &result, nil
}

// Cumulative computes the point-in-time PnL decomposition over a trailing
// window of whole days anchored at now.
func (s *Service) Cumulative(ctx context.Context, address string, days int) (*CumulativePnl, error) {
	logger := log.With().
		Str("service", "analytics").
		Str("wallet", address).
		Int("days", days).
		Logger()

	end := s.now().UTC().UnixMilli()
	start := end - int64(days)*24*60*60*1000

	fills, err := s.source.FillsByTime(ctx, address, start, end)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch fills")
		return nil, fmt.Errorf("fetching fills: %w", err)
	}

	funding, err := s.source.Funding(ctx, address, start, end)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch funding history")
		return nil, fmt.Errorf("fetching funding history: %w", err)
	}

	state, err := s.source.UserState(ctx, address)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch user state")
		return nil, fmt.Errorf("fetching user state: %w", err)
	}

	realized := RealizedPnl(fills)
	fundingPnl := FundingPnl(funding)
	unrealized := ReportedUnrealizedPnl(state.Positions)

	result := &CumulativePnl{
		RealizedPnl:        realized,
		FundingPnl:         fundingPnl,
		UnrealizedPnl:      unrealized,
		TotalCumulativePnl: realized + fundingPnl + unrealized,
	}

	logger.Info().
		Float64("realized", realized).
		Float64("funding", fundingPnl).
		Float64("unrealized", unrealized).
		Msg("computed cumulative pnl")

	return result, nil
}

// GinHandlers contains HTTP handlers for analytics endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for analytics endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// TimeseriesHandler handles GET requests for a wallet's pnl timeseries
// URL parameter: address
func (h *GinHandlers) TimeseriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.Param("address")
		if address == "" {
			response.BadRequest(c, "Wallet address is required")
			return
		}

		result, err := h.service.Timeseries(c.Request.Context(), address)
		response.Handle(c, result, err)
	}
}

// CumulativeHandler handles GET requests for a wallet's cumulative pnl
// decomposition. Query parameter days defaults to 30.
func (h *GinHandlers) CumulativeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.Param("address")
		if address == "" {
			response.BadRequest(c, "Wallet address is required")
			return
		}

		days := 30
		if raw := c.Query("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				response.BadRequest(c, "days must be a positive integer")
				return
			}
			days = parsed
		}

		result, err := h.service.Cumulative(c.Request.Context(), address, days)
		response.Handle(c, result, err)
	}
}
