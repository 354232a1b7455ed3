package bridgeapi

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/rail-service/bridge_service/internal/domain/entities"
)

// PopularTokensRequest is the body of POST /getTokens/popular
type PopularTokensRequest struct {
	ChainIDs      []string `json:"chainIds"`
	IncludeAssets []string `json:"includeAssets,omitempty"`
}

// SearchTokensRequest is the body of POST /getTokens/search
type SearchTokensRequest struct {
	ChainIDs      []string `json:"chainIds"`
	IncludeAssets []string `json:"includeAssets,omitempty"`
	After         string   `json:"after,omitempty"`
	Query         string   `json:"query"`
}

type searchResponse struct {
	Data     []jsoniter.RawMessage `json:"data"`
	PageInfo entities.PageInfo     `json:"pageInfo"`
}
