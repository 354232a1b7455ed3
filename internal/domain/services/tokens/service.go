package tokens

import (
	"context"

	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/domain/entities"
	"github.com/rail-service/bridge_service/internal/domain/services/responsecache"
	"github.com/rail-service/bridge_service/internal/infrastructure/adapters/bridgeapi"
	"github.com/rail-service/bridge_service/pkg/caip"
)

// PopularRequest selects the chains to list popular tokens for
type PopularRequest struct {
	ChainIDs      []string `json:"chainIds" binding:"required,min=1,dive,required"`
	IncludeAssets []string `json:"includeAssets,omitempty"`
}

// SearchRequest is a token search, optionally continuing from a cursor
type SearchRequest struct {
	ChainIDs      []string `json:"chainIds" binding:"required,min=1,dive,required"`
	IncludeAssets []string `json:"includeAssets,omitempty"`
	Query         string   `json:"query" binding:"required,max=128"`
	After         string   `json:"after,omitempty"`
}

// searchKeyBody identifies a search regardless of page, so every page of one
// search shares a cache entry
type searchKeyBody struct {
	ChainIDs      []string `json:"chainIds"`
	IncludeAssets []string `json:"includeAssets,omitempty"`
	Query         string   `json:"query"`
}

// Service lists bridgeable tokens through the response cache. Failures are
// logged and reported as empty results.
type Service struct {
	client bridgeapi.TokenClient
	cache  *responsecache.Cache
	logger *zap.Logger
}

// NewService creates a new token service
func NewService(client bridgeapi.TokenClient, cache *responsecache.Cache, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

func normalizeChainIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = caip.FormatChainIDToCaip(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// GetPopularAssets returns the popular tokens of the requested chains
func (s *Service) GetPopularAssets(ctx context.Context, req PopularRequest) []entities.Asset {
	body := bridgeapi.PopularTokensRequest{
		ChainIDs:      normalizeChainIDs(req.ChainIDs),
		IncludeAssets: req.IncludeAssets,
	}
	if len(body.ChainIDs) == 0 {
		return []entities.Asset{}
	}

	key, err := s.cache.Key(s.client.URL(bridgeapi.PopularTokensPath), body)
	if err != nil {
		s.logger.Error("Failed to build cache key", zap.Error(err))
		return []entities.Asset{}
	}

	assets, err := responsecache.Fetch(ctx, s.cache, key, responsecache.DefaultPage,
		func(ctx context.Context) ([]entities.Asset, error) {
			return s.client.FetchPopularTokens(ctx, body)
		})
	if err != nil {
		s.logger.Error("Failed to fetch popular tokens",
			zap.Strings("chain_ids", body.ChainIDs),
			zap.Error(err))
		return []entities.Asset{}
	}
	if assets == nil {
		assets = []entities.Asset{}
	}
	return assets
}

// SearchAssets returns one page of tokens matching the query. Pages are
// cached under the search's entry keyed by cursor.
func (s *Service) SearchAssets(ctx context.Context, req SearchRequest) entities.TokenSearchResult {
	empty := entities.TokenSearchResult{Data: []entities.Asset{}}

	body := bridgeapi.SearchTokensRequest{
		ChainIDs:      normalizeChainIDs(req.ChainIDs),
		IncludeAssets: req.IncludeAssets,
		Query:         req.Query,
		After:         req.After,
	}
	if len(body.ChainIDs) == 0 {
		return empty
	}

	key, err := s.cache.Key(s.client.URL(bridgeapi.SearchTokensPath), searchKeyBody{
		ChainIDs:      body.ChainIDs,
		IncludeAssets: body.IncludeAssets,
		Query:         body.Query,
	})
	if err != nil {
		s.logger.Error("Failed to build cache key", zap.Error(err))
		return empty
	}

	page := responsecache.DefaultPage
	if req.After != "" {
		page = req.After
	}

	result, err := responsecache.Fetch(ctx, s.cache, key, page,
		func(ctx context.Context) (*entities.TokenSearchResult, error) {
			return s.client.FetchTokensBySearchQuery(ctx, body)
		})
	if err != nil || result == nil {
		s.logger.Error("Failed to search tokens",
			zap.String("query", req.Query),
			zap.Strings("chain_ids", body.ChainIDs),
			zap.Error(err))
		return empty
	}
	if result.Data == nil {
		result.Data = []entities.Asset{}
	}
	return *result
}
