package quote

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rail-service/bridge_service/internal/domain/entities"
)

// SortOrder selects how quotes are ranked
type SortOrder string

const (
	CostAscending SortOrder = "cost_ascending"
	EtaAscending  SortOrder = "time_descending"
)

// ParseSortOrder validates a client supplied sort order; empty means CostAscending
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", CostAscending:
		return CostAscending, nil
	case EtaAscending:
		return EtaAscending, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// SortQuotes orders quotes in place. Cost ordering uses the fiat cost in the
// user's currency, quotes without a cost go last, and ties fall back to ETA.
// ETA ordering ties fall back to cost.
func SortQuotes(quotes []entities.QuoteMetadata, order SortOrder) {
	sort.SliceStable(quotes, func(i, j int) bool {
		a, b := quotes[i], quotes[j]
		if order == EtaAscending {
			if a.EstimatedProcessingTimeInSeconds != b.EstimatedProcessingTimeInSeconds {
				return a.EstimatedProcessingTimeInSeconds < b.EstimatedProcessingTimeInSeconds
			}
			return costLess(a.Cost.ValueInCurrency, b.Cost.ValueInCurrency)
		}
		if !equalCost(a.Cost.ValueInCurrency, b.Cost.ValueInCurrency) {
			return costLess(a.Cost.ValueInCurrency, b.Cost.ValueInCurrency)
		}
		return a.EstimatedProcessingTimeInSeconds < b.EstimatedProcessingTimeInSeconds
	})
}

func costLess(a, b *decimal.Decimal) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.LessThan(*b)
	}
}

func equalCost(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// IsQuoteExpired reports whether quotes fetched at lastFetched are older than
// the refresh interval. Quotes about to be refreshed are never expired.
func IsQuoteExpired(lastFetched time.Time, refreshInterval time.Duration, willRefresh bool, now time.Time) bool {
	if willRefresh || lastFetched.IsZero() {
		return false
	}
	return now.Sub(lastFetched) > refreshInterval
}
