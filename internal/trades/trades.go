package trades

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/perpwatch/perpwatch-api/internal/aggregate"
	"github.com/perpwatch/perpwatch-api/internal/tradestore"
	"github.com/perpwatch/perpwatch-api/internal/types"
	"github.com/perpwatch/perpwatch-api/pkg/response"
)

// DataSource is the upstream surface the trade-history view consumes.
type DataSource interface {
	Fills(ctx context.Context, address string) ([]types.Fill, error)
	FillsByTime(ctx context.Context, address string, start, end int64) ([]types.Fill, error)
	UserState(ctx context.Context, address string) (*types.UserState, error)
}

// TradeView is the display-formatted shape of a streamed fill.
type TradeView struct {
	Timestamp string  `json:"timestamp"`
	Coin      string  `json:"coin"`
	Side      string  `json:"side"`
	Size      float64 `json:"size"`
	Price     float64 `json:"price"`
}

// Service exposes the live trade feed and the historical trade views.
type Service struct {
	store  *tradestore.Store
	source DataSource
}

// NewService creates a trades service over the shared dedup store and the
// upstream fill source.
func NewService(store *tradestore.Store, source DataSource) *Service {
	return &Service{
		store:  store,
		source: source,
	}
}

// Recent returns the retained streamed fills, newest first, display-formatted.
func (s *Service) Recent() []TradeView {
	fills := s.store.Recent()
	views := make([]TradeView, 0, len(fills))
	for _, fill := range fills {
		views = append(views, TradeView{
			Timestamp: fill.Timestamp().Format("2006-01-02 15:04:05"),
			Coin:      fill.Coin,
			Side:      fill.Side,
			Size:      fill.Size,
			Price:     fill.Price,
		})
	}
	return views
}

// History returns one page of the hour-bucketed trade history for a wallet.
// A zero start time means the full history the upstream API retains; a zero
// end time leaves the window open-ended at now.
func (s *Service) History(ctx context.Context, address string, page int, start, end int64) (*aggregate.Page, error) {
	logger := log.With().
		Str("service", "trades").
		Str("wallet", address).
		Int("page", page).
		Logger()

	var fills []types.Fill
	var err error
	if start > 0 {
		fills, err = s.source.FillsByTime(ctx, address, start, end)
	} else {
		fills, err = s.source.Fills(ctx, address)
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch fills")
		return nil, fmt.Errorf("fetching fills: %w", err)
	}

	result := aggregate.Paginate(aggregate.ByHour(fills), page)

	logger.Debug().
		Int("fills", len(fills)).
		Int("total", result.Total).
		Int("pages", result.Pages).
		Msg("built trade history page")

	return &result, nil
}

// State returns the wallet's normalized positions and account value.
func (s *Service) State(ctx context.Context, address string) (*types.UserState, error) {
	state, err := s.source.UserState(ctx, address)
	if err != nil {
		log.Error().
			Err(err).
			Str("service", "trades").
			Str("wallet", address).
			Msg("failed to fetch user state")
		return nil, fmt.Errorf("fetching user state: %w", err)
	}
	return state, nil
}

// GinHandlers contains HTTP handlers for trade endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for trade endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// RecentTradesHandler handles GET requests for the live trade feed
func (h *GinHandlers) RecentTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.service.Recent())
	}
}

// HistoryHandler handles GET requests for the paginated trade history
// Query parameters: address (required), page, start_time, end_time
func (h *GinHandlers) HistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.Query("address")
		if address == "" {
			response.BadRequest(c, "Wallet address is required")
			return
		}

		page := 1
		if raw := c.Query("page"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				response.BadRequest(c, "page must be a positive integer")
				return
			}
			page = parsed
		}

		start, ok := queryInt64(c, "start_time")
		if !ok {
			response.BadRequest(c, "start_time must be a millisecond timestamp")
			return
		}
		end, ok := queryInt64(c, "end_time")
		if !ok {
			response.BadRequest(c, "end_time must be a millisecond timestamp")
			return
		}

		result, err := h.service.History(c.Request.Context(), address, page, start, end)
		response.Handle(c, result, err)
	}
}

// StateHandler handles GET requests for a wallet's positions and margin
// URL parameter: address
func (h *GinHandlers) StateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.Param("address")
		if address == "" {
			response.BadRequest(c, "Wallet address is required")
			return
		}

		state, err := h.service.State(c.Request.Context(), address)
		response.Handle(c, state, err)
	}
}

func queryInt64(c *gin.Context, key string) (int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
