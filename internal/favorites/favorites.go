package favorites

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/perpwatch/perpwatch-api/pkg/response"
)

// Service handles bookmarked wallet addresses
type Service struct {
	db *Database
}

// NewService creates a new favorites service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// Add bookmarks a wallet with the stats it carried at save time.
func (s *Service) Add(req *AddFavoriteRequest) (*FavoriteAddress, error) {
	topCoins, err := json.Marshal(req.TopCoins)
	if err != nil {
		return nil, fmt.Errorf("encoding top coins: %w", err)
	}
	topProfits, err := json.Marshal(req.TopProfits)
	if err != nil {
		return nil, fmt.Errorf("encoding top profits: %w", err)
	}

	favorite := &FavoriteAddress{
		Address:    req.Address,
		Winrate:    req.Winrate,
		Tag:        req.Tag,
		TopCoins:   string(topCoins),
		TopProfits: string(topProfits),
	}

	if err := s.db.CreateFavorite(favorite); err != nil {
		return nil, err
	}

	log.Info().
		Str("service", "favorites").
		Str("wallet", favorite.Address).
		Str("tag", favorite.Tag).
		Msg("bookmarked wallet")

	return favorite, nil
}

// List returns the bookmarked wallets ordered by tag.
func (s *Service) List() ([]FavoriteSummary, error) {
	favorites, err := s.db.ListFavorites()
	if err != nil {
		return nil, err
	}

	summaries := make([]FavoriteSummary, 0, len(favorites))
	for _, f := range favorites {
		summaries = append(summaries, FavoriteSummary{
			Address: f.Address,
			Tag:     f.Tag,
		})
	}
	return summaries, nil
}

// GinHandlers contains HTTP handlers for favorites endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for favorites endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// AddFavoriteHandler handles POST requests to bookmark a wallet
func (h *GinHandlers) AddFavoriteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddFavoriteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		favorite, err := h.service.Add(&req)
		response.Handle(c, favorite, err)
	}
}

// ListFavoritesHandler handles GET requests for the bookmarked wallet list
func (h *GinHandlers) ListFavoritesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		favorites, err := h.service.List()
		response.Handle(c, favorites, err)
	}
}
