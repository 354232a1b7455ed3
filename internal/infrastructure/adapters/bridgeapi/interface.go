package bridgeapi

import (
	"context"

	"github.com/rail-service/bridge_service/internal/domain/entities"
)

// TokenClient defines the token list operations of the bridge API
type TokenClient interface {
	// FetchPopularTokens returns the popular tokens of the given chains
	FetchPopularTokens(ctx context.Context, req PopularTokensRequest) ([]entities.Asset, error)

	// FetchTokensBySearchQuery returns one page of tokens matching the query
	FetchTokensBySearchQuery(ctx context.Context, req SearchTokensRequest) (*entities.TokenSearchResult, error)

	// URL returns the absolute URL of an API path
	URL(path string) string
}

// Ensure Client implements TokenClient interface
var _ TokenClient = (*Client)(nil)
