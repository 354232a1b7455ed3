package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rail-service/bridge_service/internal/domain/entities"
	apperrors "github.com/rail-service/bridge_service/internal/domain/errors"
	"github.com/rail-service/bridge_service/internal/domain/services/quote"
	"github.com/rail-service/bridge_service/internal/domain/services/responsecache"
	"github.com/rail-service/bridge_service/internal/domain/services/slippage"
	"github.com/rail-service/bridge_service/internal/domain/services/tokens"
	"github.com/rail-service/bridge_service/pkg/caip"
	"github.com/rail-service/bridge_service/pkg/logger"
)

// TokenService lists bridgeable tokens
type TokenService interface {
	GetPopularAssets(ctx context.Context, req tokens.PopularRequest) []entities.Asset
	SearchAssets(ctx context.Context, req tokens.SearchRequest) entities.TokenSearchResult
}

// CacheSweeper clears the response cache
type CacheSweeper interface {
	ClearAll(ctx context.Context) (responsecache.SweepResult, error)
}

// QuoteSettings are the quote evaluation settings from configuration
type QuoteSettings struct {
	MaxReturnDifference float64
	RefreshInterval     time.Duration
}

// BridgeHandlers serves token lists, slippage and quote economics
type BridgeHandlers struct {
	tokens   TokenService
	sweeper  CacheSweeper
	settings QuoteSettings
	logger   *logger.Logger
	now      func() time.Time
}

// NewBridgeHandlers creates new bridge handlers
func NewBridgeHandlers(tokenService TokenService, sweeper CacheSweeper, settings QuoteSettings, logger *logger.Logger) *BridgeHandlers {
	return &BridgeHandlers{
		tokens:   tokenService,
		sweeper:  sweeper,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// PopularTokens handles POST /api/v1/bridge/tokens/popular
func (h *BridgeHandlers) PopularTokens(c *gin.Context) {
	var req tokens.PopularRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.tokens.GetPopularAssets(c.Request.Context(), req))
}

// SearchTokens handles POST /api/v1/bridge/tokens/search
func (h *BridgeHandlers) SearchTokens(c *gin.Context) {
	var req tokens.SearchRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.tokens.SearchAssets(c.Request.Context(), req))
}

// SlippageRequest describes the bridge or swap to recommend slippage for
type SlippageRequest struct {
	FromChainID string                `json:"fromChainId" binding:"omitempty,chainid"`
	ToChainID   string                `json:"toChainId" binding:"omitempty,chainid"`
	FromToken   *entities.BridgeToken `json:"fromToken"`
	ToToken     *entities.BridgeToken `json:"toToken"`
	// IsSwap defaults to whether both chains are the same
	IsSwap *bool `json:"isSwap"`
}

// SlippageResponse carries the recommendation; a null slippage lets the provider decide
type SlippageResponse struct {
	Slippage *float64      `json:"slippage"`
	Rule     slippage.Rule `json:"rule"`
	Reason   string        `json:"reason"`
}

// Slippage handles POST /api/v1/bridge/slippage
func (h *BridgeHandlers) Slippage(c *gin.Context) {
	var req SlippageRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := slippage.Context{
		FromChainID: req.FromChainID,
		ToChainID:   req.ToChainID,
		FromToken:   req.FromToken,
		ToToken:     req.ToToken,
	}
	if req.IsSwap != nil {
		ctx.IsSwap = *req.IsSwap
	} else {
		ctx.IsSwap = caip.IsSwap(chainOf(req.FromChainID, req.FromToken), chainOf(req.ToChainID, req.ToToken))
	}

	decision := slippage.Decide(ctx)
	c.JSON(http.StatusOK, SlippageResponse{
		Slippage: decision.Value,
		Rule:     decision.Rule,
		Reason:   slippage.Reason(ctx),
	})
}

func chainOf(id string, token *entities.BridgeToken) string {
	if id == "" && token != nil {
		return token.ChainID.String()
	}
	return id
}

// PriceImpact handles GET /api/v1/bridge/price-impact?value=<ratio>
func (h *BridgeHandlers) PriceImpact(c *gin.Context) {
	value := c.Query("value")
	if value == "" {
		respondBadRequest(c, "value query parameter is required")
		return
	}
	formatted, err := quote.FormatPriceImpactString(value)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidAmount, err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value, "formatted": formatted})
}

// QuoteValidationRequest is the wallet state the active quote is checked against
type QuoteValidationRequest struct {
	FromToken     *entities.BridgeToken `json:"fromToken" binding:"required"`
	SrcAmount     *decimal.Decimal      `json:"srcAmount"`
	Balance       *decimal.Decimal      `json:"balance"`
	NativeBalance *decimal.Decimal      `json:"nativeBalance"`
	LastFetched   time.Time             `json:"lastFetched"`
	IsLoading     bool                  `json:"isLoading"`
	WillRefresh   bool                  `json:"willRefresh"`
}

// QuoteMetadataRequest prices a set of quotes
type QuoteMetadataRequest struct {
	Quotes      []entities.QuoteResponse `json:"quotes" binding:"max=50"`
	Rates       entities.QuoteRates      `json:"rates"`
	NetworkFees entities.NetworkFees     `json:"networkFees"`
	SortOrder   string                   `json:"sortOrder"`
	Validation  *QuoteValidationRequest  `json:"validation"`
}

// QuoteMetadataResponse holds the priced quotes, best first
type QuoteMetadataResponse struct {
	Quotes      []entities.QuoteMetadata `json:"quotes"`
	ActiveQuote *entities.QuoteMetadata  `json:"activeQuote"`
	Validation  *quote.ValidationResult  `json:"validation,omitempty"`
	IsExpired   bool                     `json:"isExpired"`
}

// QuoteMetadata handles POST /api/v1/bridge/quotes/metadata
func (h *BridgeHandlers) QuoteMetadata(c *gin.Context) {
	var req QuoteMetadataRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := quote.ParseSortOrder(req.SortOrder)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidSortOrder, err.Error(), nil)
		return
	}

	priced := make([]entities.QuoteMetadata, 0, len(req.Quotes))
	for i, q := range req.Quotes {
		md, err := quote.ToMetadata(q, req.Rates, req.NetworkFees)
		if err != nil {
			respondDomainError(c, apperrors.ValidationError(fmt.Sprintf("quotes[%d]", i), err.Error()).WithDetails(map[string]interface{}{
				"quote_index":      i,
				"quote_request_id": q.Quote.RequestID,
			}))
			return
		}
		priced = append(priced, *md)
	}
	quote.SortQuotes(priced, order)

	resp := QuoteMetadataResponse{Quotes: priced}
	if len(priced) > 0 {
		resp.ActiveQuote = &priced[0]
	}

	if v := req.Validation; v != nil {
		maxDiff := h.settings.MaxReturnDifference
		result := quote.Validate(quote.ValidationInput{
			FromToken:           v.FromToken,
			SrcAmount:           v.SrcAmount,
			Balance:             v.Balance,
			NativeBalance:       v.NativeBalance,
			ActiveQuote:         resp.ActiveQuote,
			LastFetched:         v.LastFetched,
			IsLoading:           v.IsLoading,
			MaxReturnDifference: &maxDiff,
		})
		resp.Validation = &result
		resp.IsExpired = quote.IsQuoteExpired(v.LastFetched, h.settings.RefreshInterval, v.WillRefresh, h.now())
	}

	c.JSON(http.StatusOK, resp)
}

// SortQuotesRequest reorders already priced quotes
type SortQuotesRequest struct {
	Quotes    []entities.QuoteMetadata `json:"quotes" binding:"max=50"`
	SortOrder string                   `json:"sortOrder"`
}

// SortQuotes handles POST /api/v1/bridge/quotes/sort
func (h *BridgeHandlers) SortQuotes(c *gin.Context) {
	var req SortQuotesRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := quote.ParseSortOrder(req.SortOrder)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidSortOrder, err.Error(), nil)
		return
	}
	if req.Quotes == nil {
		req.Quotes = []entities.QuoteMetadata{}
	}
	quote.SortQuotes(req.Quotes, order)
	c.JSON(http.StatusOK, gin.H{"quotes": req.Quotes})
}

// ClearCache handles DELETE /api/v1/bridge/cache
func (h *BridgeHandlers) ClearCache(c *gin.Context) {
	result, err := h.sweeper.ClearAll(c.Request.Context())
	if err != nil {
		requestLogger(c, h.logger).Error("Cache sweep finished with errors", "error", err)
		respondError(c, http.StatusInternalServerError, ErrCodeCacheSweepFailed, "Some cache entries could not be removed", map[string]interface{}{
			"scanned": result.Scanned,
			"removed": len(result.Removed),
		})
		return
	}
	c.JSON(http.StatusOK, result)
}
