package quote

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rail-service/bridge_service/internal/domain/entities"
	"github.com/rail-service/bridge_service/pkg/caip"
)

// DefaultMaxReturnDifference is the share of the sent value the adjusted
// return may fall below before a quote is flagged as low
const DefaultMaxReturnDifference = 0.35

// ValidationInput is the state a quote request is validated against
type ValidationInput struct {
	FromToken *entities.BridgeToken
	// SrcAmount is the normalized amount the user entered
	SrcAmount *decimal.Decimal
	// Balance of the source token; NativeBalance of the source chain's native currency
	Balance       *decimal.Decimal
	NativeBalance *decimal.Decimal
	ActiveQuote   *entities.QuoteMetadata
	LastFetched   time.Time
	IsLoading     bool
	// MaxReturnDifference overrides DefaultMaxReturnDifference when set
	MaxReturnDifference *float64
}

// ValidationResult holds the warnings shown for a quote request
type ValidationResult struct {
	IsNoQuotesAvailable       bool `json:"isNoQuotesAvailable"`
	IsInsufficientBalance     bool `json:"isInsufficientBalance"`
	IsInsufficientGasBalance  bool `json:"isInsufficientGasBalance"`
	IsInsufficientGasForQuote bool `json:"isInsufficientGasForQuote"`
	IsEstimatedReturnLow      bool `json:"isEstimatedReturnLow"`
}

// Validate evaluates every warning for in
func Validate(in ValidationInput) ValidationResult {
	maxDiff := DefaultMaxReturnDifference
	if in.MaxReturnDifference != nil {
		maxDiff = *in.MaxReturnDifference
	}
	fromNative := in.FromToken != nil && caip.IsNativeAddress(in.FromToken.Address)

	return ValidationResult{
		IsNoQuotesAvailable:       IsNoQuotesAvailable(in.ActiveQuote != nil, in.LastFetched, in.IsLoading),
		IsInsufficientBalance:     IsInsufficientBalance(in.Balance, in.SrcAmount),
		IsInsufficientGasBalance:  in.ActiveQuote == nil && in.FromToken != nil && IsInsufficientGasBalance(in.NativeBalance, fromNative, in.SrcAmount),
		IsInsufficientGasForQuote: in.FromToken != nil && IsInsufficientGasForQuote(in.NativeBalance, fromNative, in.ActiveQuote),
		IsEstimatedReturnLow:      IsEstimatedReturnLow(in.ActiveQuote, maxDiff),
	}
}

// IsNoQuotesAvailable is true once a fetch completed without producing a quote
func IsNoQuotesAvailable(hasActiveQuote bool, lastFetched time.Time, isLoading bool) bool {
	return !hasActiveQuote && !lastFetched.IsZero() && !isLoading
}

// IsInsufficientBalance is true when the balance is known and below the amount entered
func IsInsufficientBalance(balance, srcAmount *decimal.Decimal) bool {
	if balance == nil || srcAmount == nil {
		return false
	}
	return balance.LessThan(*srcAmount)
}

// IsInsufficientGasBalance applies before quotes are fetched. Sending the whole
// native balance leaves nothing for gas; otherwise any native balance suffices.
func IsInsufficientGasBalance(nativeBalance *decimal.Decimal, fromNative bool, srcAmount *decimal.Decimal) bool {
	if nativeBalance == nil || srcAmount == nil {
		return false
	}
	if fromNative {
		return nativeBalance.Equal(*srcAmount)
	}
	return !nativeBalance.IsPositive()
}

// IsInsufficientGasForQuote applies once a quote is active and checks the
// native balance against the quote's maximum network fee.
func IsInsufficientGasForQuote(nativeBalance *decimal.Decimal, fromNative bool, q *entities.QuoteMetadata) bool {
	if nativeBalance == nil || q == nil {
		return false
	}
	if fromNative {
		remaining := nativeBalance.Sub(q.TotalNetworkFee.Amount).Sub(q.SentAmount.Amount)
		return !remaining.IsPositive()
	}
	return nativeBalance.LessThanOrEqual(q.TotalNetworkFee.Amount)
}

// IsEstimatedReturnLow is true when the adjusted return is below
// (1 - maxDiff) of the sent value in the user's currency
func IsEstimatedReturnLow(q *entities.QuoteMetadata, maxDiff float64) bool {
	if q == nil || q.SentAmount.ValueInCurrency == nil || q.AdjustedReturn.ValueInCurrency == nil {
		return false
	}
	threshold := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(maxDiff)).Mul(*q.SentAmount.ValueInCurrency)
	return q.AdjustedReturn.ValueInCurrency.LessThan(threshold)
}
