package slippage

import (
	"github.com/rail-service/bridge_service/internal/domain/entities"
	"github.com/rail-service/bridge_service/internal/domain/services/stablecoin"
	"github.com/rail-service/bridge_service/pkg/caip"
)

// Recommended slippage percentages
const (
	BridgeDefault = 0.5
	EvmStablecoin = 0.5
	EvmDefault    = 2.0
)

// Rule identifies which decision produced a recommendation
type Rule string

const (
	RuleNoSourceChain      Rule = "no_source_chain"
	RuleBridge             Rule = "bridge"
	RuleUnknownDestination Rule = "unknown_destination"
	RuleCrossChainSwap     Rule = "cross_chain_swap"
	RuleSolanaSwap         Rule = "solana_swap"
	RuleStablecoinSwap     Rule = "stablecoin_swap"
	RuleEvmSwap            Rule = "evm_swap"
)

// Context describes the request a slippage value is recommended for.
// Empty chain ids fall back to the chain ids of the tokens.
type Context struct {
	FromChainID string                `json:"fromChainId,omitempty"`
	ToChainID   string                `json:"toChainId,omitempty"`
	FromToken   *entities.BridgeToken `json:"fromToken,omitempty"`
	ToToken     *entities.BridgeToken `json:"toToken,omitempty"`
	IsSwap      bool                  `json:"isSwap"`
}

func (c Context) fromChain() string {
	if c.FromChainID != "" {
		return c.FromChainID
	}
	if c.FromToken != nil {
		return c.FromToken.ChainID.String()
	}
	return ""
}

func (c Context) toChain() string {
	if c.ToChainID != "" {
		return c.ToChainID
	}
	if c.ToToken != nil {
		return c.ToToken.ChainID.String()
	}
	return ""
}

// Decision is a recommendation together with the rule that produced it.
// A nil Value means the quote provider should pick slippage itself.
type Decision struct {
	Value *float64
	Rule  Rule
}

// Decide applies the slippage rules in order; the first matching rule wins.
func Decide(ctx Context) Decision {
	from, to := ctx.fromChain(), ctx.toChain()

	switch {
	case from == "":
		return decision(BridgeDefault, RuleNoSourceChain)
	case !ctx.IsSwap:
		return decision(BridgeDefault, RuleBridge)
	case to == "":
		return decision(EvmDefault, RuleUnknownDestination)
	case !caip.SameChain(from, to):
		return decision(BridgeDefault, RuleCrossChainSwap)
	case caip.IsSolanaChainID(from):
		return Decision{Value: nil, Rule: RuleSolanaSwap}
	case ctx.FromToken != nil && ctx.ToToken != nil &&
		stablecoin.AreBothStablecoins(from, tokenAddress(ctx.FromToken), tokenAddress(ctx.ToToken)):
		return decision(EvmStablecoin, RuleStablecoinSwap)
	default:
		return decision(EvmDefault, RuleEvmSwap)
	}
}

// Calculate returns the recommended slippage percentage, or nil for provider auto-selection
func Calculate(ctx Context) *float64 {
	return Decide(ctx).Value
}

// Reason returns a human readable explanation of the recommendation
func Reason(ctx Context) string {
	return reasons[Decide(ctx).Rule]
}

var reasons = map[Rule]string{
	RuleNoSourceChain:      "Bridge default (no source chain)",
	RuleBridge:             "Bridge default",
	RuleUnknownDestination: "EVM default (destination chain unknown)",
	RuleCrossChainSwap:     "Cross-chain swap uses bridge default",
	RuleSolanaSwap:         "Solana swap (auto slippage)",
	RuleStablecoinSwap:     "EVM stablecoin pair",
	RuleEvmSwap:            "EVM token pair",
}

func decision(v float64, rule Rule) Decision {
	return Decision{Value: &v, Rule: rule}
}

func tokenAddress(t *entities.BridgeToken) string {
	if t.Address != "" {
		return t.Address
	}
	if t.AssetID != "" {
		if addr, err := caip.AddressFromAssetID(t.AssetID); err == nil {
			return addr
		}
	}
	return ""
}
