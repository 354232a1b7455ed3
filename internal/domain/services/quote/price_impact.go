package quote

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred          = decimal.NewFromInt(100)
	minDisplayPct    = decimal.RequireFromString("0.01")
	oneDecimalFrom   = decimal.NewFromInt(1)
	zeroDecimalsFrom = decimal.NewFromInt(10)
)

// FormatPriceImpact renders a signed price impact ratio (0.0314 = 3.14%) as a
// percentage string. Precision tiers by magnitude: below 1% two decimals, below
// 10% one decimal, otherwise whole percent. Magnitudes under 0.01% collapse to
// "<0.01%" keeping the sign.
func FormatPriceImpact(ratio decimal.Decimal) string {
	pct := ratio.Mul(hundred)
	if pct.IsZero() {
		return "0%"
	}

	abs := pct.Abs()
	switch {
	case abs.LessThan(minDisplayPct):
		if pct.IsNegative() {
			return "<-0.01%"
		}
		return "<0.01%"
	case abs.LessThan(oneDecimalFrom):
		return pct.StringFixed(2) + "%"
	case abs.LessThan(zeroDecimalsFrom):
		return pct.StringFixed(1) + "%"
	default:
		return pct.StringFixed(0) + "%"
	}
}

// FormatPriceImpactString parses a decimal ratio and formats it
func FormatPriceImpactString(s string) (string, error) {
	ratio, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid price impact %q: %w", s, err)
	}
	return FormatPriceImpact(ratio), nil
}
