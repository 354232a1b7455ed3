package stablecoin

import (
	"sort"
	"strings"

	"github.com/rail-service/bridge_service/pkg/caip"
)

// Chain ids of the networks with registered stablecoins
const (
	ChainEthereum  = "eip155:1"
	ChainOptimism  = "eip155:10"
	ChainBSC       = "eip155:56"
	ChainPolygon   = "eip155:137"
	ChainZkSync    = "eip155:324"
	ChainBase      = "eip155:8453"
	ChainArbitrum  = "eip155:42161"
	ChainAvalanche = "eip155:43114"
	ChainLinea     = "eip155:59144"
)

// stablecoins maps CAIP-2 chain ids to lowercase token addresses
var stablecoins = map[string]map[string]struct{}{
	ChainEthereum: set(
		"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
		"0xdac17f958d2ee523a2206206994597c13d831ec7", // USDT
		"0x6b175474e89094c44da98b954eedeac495271d0f", // DAI
		"0x4c9edd5852cd905f086c759e8383e09bff1e68b3", // USDe
	),
	ChainOptimism: set(
		"0x0b2c639c533813f4aa9d7837caf62653d097ff85", // USDC
		"0x7f5c764cbc14f9669b88837ca1490cca17c31607", // USDC.e
		"0x94b008aa00579c1307b0ef2c499ad98a8ce58e58", // USDT
		"0xda10009cbd5d07dd0cecc66161fc93d7c9000da1", // DAI
	),
	ChainBSC: set(
		"0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d", // USDC
		"0x55d398326f99059ff775485246999027b3197955", // USDT
		"0x1af3f329e8be154074d8769d1ffa4ee058b1dbc3", // DAI
	),
	ChainPolygon: set(
		"0x3c499c542cef5e3811e1192ce70d8cc03d5c3359", // USDC
		"0x2791bca1f2de4661ed88a30c99a7a9449aa84174", // USDC.e
		"0xc2132d05d31c914a87c6611c10748aeb04b58e8f", // USDT
		"0x8f3cf7ad23cd3cadbd9735aff958023239c6a063", // DAI
	),
	ChainZkSync: set(
		"0x1d17cbcf0d6d143135ae902365d2e5e2a16538d4", // USDC
		"0x493257fd37edb34451f62edf8d2a0c418852ba4c", // USDT
	),
	ChainBase: set(
		"0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", // USDC
		"0xd9aaec86b65d86f6a7b5b1b0c42ffa531710b6ca", // USDbC
		"0x50c5725949a6f0c72e6c4a641f24049a917db0cb", // DAI
	),
	ChainArbitrum: set(
		"0xaf88d065e77c8cc2239327c5edb3a432268e5831", // USDC
		"0xff970a61a04b1ca14834a43f5de4533ebddb5cc8", // USDC.e
		"0xfd086bc7cd5c481dcc9c85ebe478a1c0b69fcbb9", // USDT
		"0xda10009cbd5d07dd0cecc66161fc93d7c9000da1", // DAI
	),
	ChainAvalanche: set(
		"0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e", // USDC
		"0x9702230a8ea53601f5cd2dc00fdbc13d4df4a8c7", // USDT
		"0xd586e7f844cea2f87f50152665bcbc2c279d8d70", // DAI.e
	),
	ChainLinea: set(
		"0x176211869ca2b568f2a7d4ee941e073a821ee1ff", // USDC
		"0xa219439258ca9da29e9cc4ce5596924745e12b93", // USDT
		"0x4af15ec2a0bd43db75dd04e62faa3b8ef36b00d5", // DAI
	),
}

func set(addresses ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(addresses))
	for _, a := range addresses {
		m[strings.ToLower(a)] = struct{}{}
	}
	return m
}

// IsStablecoin reports whether address is a registered stablecoin on chainID.
// The chain may be given as hex, decimal or CAIP-2; the address match is case-insensitive.
func IsStablecoin(chainID, address string) bool {
	if address == "" {
		return false
	}
	tokens, ok := stablecoins[caip.FormatChainIDToCaip(chainID)]
	if !ok {
		return false
	}
	_, ok = tokens[strings.ToLower(strings.TrimSpace(address))]
	return ok
}

// AreBothStablecoins reports whether both addresses are registered stablecoins on chainID
func AreBothStablecoins(chainID, a, b string) bool {
	return IsStablecoin(chainID, a) && IsStablecoin(chainID, b)
}

// Addresses returns the registered stablecoin addresses of chainID in sorted order
func Addresses(chainID string) []string {
	tokens := stablecoins[caip.FormatChainIDToCaip(chainID)]
	out := make([]string, 0, len(tokens))
	for a := range tokens {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Chains returns every chain with at least one registered stablecoin
func Chains() []string {
	out := make([]string, 0, len(stablecoins))
	for c := range stablecoins {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
