package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ChainID is a chain identifier as received from clients or the bridge API.
// Accepts JSON numbers (10), hex strings ("0xa") and CAIP-2 strings ("eip155:10").
type ChainID string

// UnmarshalJSON accepts both numeric and string chain ids
func (c *ChainID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid chain id: %w", err)
		}
		*c = ChainID(s)
		return nil
	}
	if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
		return fmt.Errorf("invalid numeric chain id %q", raw)
	}
	*c = ChainID(raw)
	return nil
}

func (c ChainID) String() string {
	return string(c)
}

// Asset represents a token as returned by the bridge API
type Asset struct {
	Address  string           `json:"address"`
	AssetID  string           `json:"assetId,omitempty"`
	ChainID  ChainID          `json:"chainId"`
	Symbol   string           `json:"symbol"`
	Name     string           `json:"name"`
	Decimals int32            `json:"decimals"`
	CoinKey  string           `json:"coinKey,omitempty"`
	IconURL  string           `json:"iconUrl,omitempty"`
	LogoURI  string           `json:"logoURI,omitempty"`
	PriceUSD *decimal.Decimal `json:"priceUSD,omitempty"`
}

// BridgeToken is a token selected by the user for a bridge or swap
type BridgeToken struct {
	ChainID  ChainID          `json:"chainId"`
	Address  string           `json:"address"`
	AssetID  string           `json:"assetId,omitempty"`
	Symbol   string           `json:"symbol"`
	Name     string           `json:"name,omitempty"`
	Decimals int32            `json:"decimals"`
	Balance  *decimal.Decimal `json:"balance,omitempty"`
}

// MetabridgeFee is the protocol fee taken in the source asset
type MetabridgeFee struct {
	Amount decimal.Decimal `json:"amount"`
	Asset  *Asset          `json:"asset,omitempty"`
}

// FeeData groups the fees attached to a quote
type FeeData struct {
	Metabridge MetabridgeFee `json:"metabridge"`
}

// Protocol identifies the bridge or dex used by a quote step
type Protocol struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// Step is a single hop of a quote
type Step struct {
	Action      string          `json:"action"`
	SrcChainID  ChainID         `json:"srcChainId"`
	DestChainID ChainID         `json:"destChainId,omitempty"`
	Protocol    Protocol        `json:"protocol"`
	SrcAsset    Asset           `json:"srcAsset"`
	DestAsset   Asset           `json:"destAsset"`
	SrcAmount   decimal.Decimal `json:"srcAmount"`
	DestAmount  decimal.Decimal `json:"destAmount"`
}

// Quote is the economic part of a quote response. Amounts are base-unit integers.
type Quote struct {
	RequestID       string          `json:"requestId"`
	SrcChainID      ChainID         `json:"srcChainId"`
	SrcAsset        Asset           `json:"srcAsset"`
	SrcTokenAmount  decimal.Decimal `json:"srcTokenAmount"`
	DestChainID     ChainID         `json:"destChainId"`
	DestAsset       Asset           `json:"destAsset"`
	DestTokenAmount decimal.Decimal `json:"destTokenAmount"`
	FeeData         FeeData         `json:"feeData"`
	BridgeID        string          `json:"bridgeId,omitempty"`
	Bridges         []string        `json:"bridges,omitempty"`
	Steps           []Step          `json:"steps,omitempty"`
}

// TxData is an unsigned transaction descriptor for a trade or an approval
type TxData struct {
	ChainID  ChainID `json:"chainId"`
	To       string  `json:"to"`
	From     string  `json:"from"`
	Value    string  `json:"value"`
	Data     string  `json:"data"`
	GasLimit *uint64 `json:"gasLimit"`
}

// QuoteResponse is a quote together with the transactions needed to execute it
type QuoteResponse struct {
	Quote                            Quote   `json:"quote"`
	Approval                         *TxData `json:"approval,omitempty"`
	Trade                            TxData  `json:"trade"`
	EstimatedProcessingTimeInSeconds int64   `json:"estimatedProcessingTimeInSeconds"`
	// L1GasFeesInHexWei is set for rollups that publish calldata to L1
	L1GasFeesInHexWei string `json:"l1GasFeesInHexWei,omitempty"`
}

// ExchangeRate converts one unit of a token into the user's currency and into USD.
// A nil field means no rate is available, which is distinct from a zero rate.
type ExchangeRate struct {
	ValueInCurrency *decimal.Decimal `json:"valueInCurrency,omitempty"`
	USD             *decimal.Decimal `json:"usd,omitempty"`
}

// HasRate reports whether any conversion is available
func (r ExchangeRate) HasRate() bool {
	return r.ValueInCurrency != nil || r.USD != nil
}

// Amount is a normalized token amount with its fiat equivalents
type Amount struct {
	Amount          decimal.Decimal  `json:"amount"`
	ValueInCurrency *decimal.Decimal `json:"valueInCurrency"`
	USD             *decimal.Decimal `json:"usd"`
}

// FiatAmount is a fiat-only value
type FiatAmount struct {
	ValueInCurrency *decimal.Decimal `json:"valueInCurrency"`
	USD             *decimal.Decimal `json:"usd"`
}

// NetworkFees are per-gas prices in gwei for the source chain
type NetworkFees struct {
	EstimatedBaseFee     decimal.Decimal `json:"estimatedBaseFee"`
	MaxFeePerGas         decimal.Decimal `json:"maxFeePerGas"`
	MaxPriorityFeePerGas decimal.Decimal `json:"maxPriorityFeePerGas"`
}

// QuoteRates bundles every exchange rate needed to price a quote
type QuoteRates struct {
	SrcToken  ExchangeRate `json:"srcToken"`
	DestToken ExchangeRate `json:"destToken"`
	Native    ExchangeRate `json:"native"`
}

// QuoteMetadata is the derived display economics of a quote
type QuoteMetadata struct {
	QuoteResponse
	SentAmount    Amount `json:"sentAmount"`
	ToTokenAmount Amount `json:"toTokenAmount"`
	GasFee        Amount `json:"gasFee"`
	RelayerFee    Amount `json:"relayerFee"`
	// TotalNetworkFee prices gas at maxFeePerGas; EstimatedNetworkFee at the estimated base fee
	TotalNetworkFee     Amount          `json:"totalNetworkFee"`
	EstimatedNetworkFee Amount          `json:"estimatedNetworkFee"`
	AdjustedReturn      FiatAmount      `json:"adjustedReturn"`
	SwapRate            decimal.Decimal `json:"swapRate"`
	Cost                FiatAmount      `json:"cost"`
	EtaInMinutes        string          `json:"etaInMinutes"`
}

// PageInfo is the pagination state of a token search
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

// TokenSearchResult is a page of token search results
type TokenSearchResult struct {
	Data     []Asset  `json:"data"`
	PageInfo PageInfo `json:"pageInfo"`
}
