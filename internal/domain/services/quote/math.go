// Package quote derives display economics from bridge and swap quotes.
// All arithmetic is done in arbitrary precision decimals.
package quote

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/rail-service/bridge_service/internal/domain/entities"
	"github.com/rail-service/bridge_service/pkg/caip"
)

const (
	// NativeDecimals is the precision of the native currency of EVM chains
	NativeDecimals int32 = 18

	gweiDecimals int32 = 9
)

var sixty = decimal.NewFromInt(60)

// CalcTokenAmount scales a base-unit integer amount down by 10^decimals
func CalcTokenAmount(value decimal.Decimal, decimals int32) decimal.Decimal {
	return value.Shift(-decimals)
}

// fiat multiplies amount by rate. A missing rate yields nil, a zero rate yields zero.
func fiat(amount decimal.Decimal, rate *decimal.Decimal) *decimal.Decimal {
	if rate == nil {
		return nil
	}
	v := amount.Mul(*rate)
	return &v
}

func toAmount(amount decimal.Decimal, rate entities.ExchangeRate) entities.Amount {
	return entities.Amount{
		Amount:          amount,
		ValueInCurrency: fiat(amount, rate.ValueInCurrency),
		USD:             fiat(amount, rate.USD),
	}
}

// CalcToAmount returns the normalized amount received and its fiat value
func CalcToAmount(q entities.Quote, destTokenRate entities.ExchangeRate) entities.Amount {
	return toAmount(CalcTokenAmount(q.DestTokenAmount, q.DestAsset.Decimals), destTokenRate)
}

// CalcSentAmount returns the normalized amount sent, including the metabridge fee
// which is deducted from the same asset.
func CalcSentAmount(q entities.Quote, srcTokenRate entities.ExchangeRate) entities.Amount {
	total := q.SrcTokenAmount.Add(q.FeeData.Metabridge.Amount)
	return toAmount(CalcTokenAmount(total, q.SrcAsset.Decimals), srcTokenRate)
}

// HexWeiToDecimal parses a 0x-prefixed wei quantity. Leading zeros are tolerated.
func HexWeiToDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return decimal.Zero, fmt.Errorf("hex quantity %q lacks 0x prefix", s)
	}
	digits := strings.TrimLeft(s[2:], "0")
	if digits == "" {
		digits = "0"
	}
	n, err := hexutil.DecodeBig("0x" + digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid hex quantity %q: %w", s, err)
	}
	return decimal.NewFromBigInt(n, 0), nil
}

func gasLimit(tx *entities.TxData) decimal.Decimal {
	if tx == nil || tx.GasLimit == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(*tx.GasLimit))
}

// totalGasLimit sums the trade gas limit and, when present, the approval gas limit
func totalGasLimit(resp entities.QuoteResponse) decimal.Decimal {
	return gasLimit(&resp.Trade).Add(gasLimit(resp.Approval))
}

// calcGasInNative computes (feePerGas + priorityFee) * gasLimit + l1Fee in native units
func calcGasInNative(resp entities.QuoteResponse, feePerGasGwei, priorityFeeGwei decimal.Decimal) (decimal.Decimal, error) {
	l1FeeWei, err := HexWeiToDecimal(resp.L1GasFeesInHexWei)
	if err != nil {
		return decimal.Zero, fmt.Errorf("l1 gas fee: %w", err)
	}
	gwei := totalGasLimit(resp).Mul(feePerGasGwei.Add(priorityFeeGwei))
	return CalcTokenAmount(gwei, gweiDecimals).Add(CalcTokenAmount(l1FeeWei, NativeDecimals)), nil
}

// CalcGasFee prices the transactions at maxFeePerGas + maxPriorityFeePerGas
func CalcGasFee(resp entities.QuoteResponse, fees entities.NetworkFees, nativeRate entities.ExchangeRate) (entities.Amount, error) {
	native, err := calcGasInNative(resp, fees.MaxFeePerGas, fees.MaxPriorityFeePerGas)
	if err != nil {
		return entities.Amount{}, err
	}
	return toAmount(native, nativeRate), nil
}

// CalcEstimatedGasFee prices the transactions at estimatedBaseFee + maxPriorityFeePerGas
func CalcEstimatedGasFee(resp entities.QuoteResponse, fees entities.NetworkFees, nativeRate entities.ExchangeRate) (entities.Amount, error) {
	native, err := calcGasInNative(resp, fees.EstimatedBaseFee, fees.MaxPriorityFeePerGas)
	if err != nil {
		return entities.Amount{}, err
	}
	return toAmount(native, nativeRate), nil
}

// CalcRelayerFee is the native value of the trade not accounted for by the
// principal: trade.value - (srcTokenAmount + metabridge fee) when the source
// asset is native, or the whole trade value otherwise.
func CalcRelayerFee(resp entities.QuoteResponse, nativeRate entities.ExchangeRate) (entities.Amount, error) {
	valueWei, err := HexWeiToDecimal(resp.Trade.Value)
	if err != nil {
		return entities.Amount{}, fmt.Errorf("trade value: %w", err)
	}
	q := resp.Quote
	if caip.IsNativeAddress(q.SrcAsset.Address) {
		valueWei = valueWei.Sub(q.SrcTokenAmount.Add(q.FeeData.Metabridge.Amount))
	}
	return toAmount(CalcTokenAmount(valueWei, NativeDecimals), nativeRate), nil
}

func addAmounts(a, b entities.Amount) entities.Amount {
	return entities.Amount{
		Amount:          a.Amount.Add(b.Amount),
		ValueInCurrency: addFiat(a.ValueInCurrency, b.ValueInCurrency),
		USD:             addFiat(a.USD, b.USD),
	}
}

func addFiat(a, b *decimal.Decimal) *decimal.Decimal {
	if a == nil || b == nil {
		return nil
	}
	v := a.Add(*b)
	return &v
}

func subFiat(a, b *decimal.Decimal) *decimal.Decimal {
	if a == nil || b == nil {
		return nil
	}
	v := a.Sub(*b)
	return &v
}

// CalcTotalNetworkFee is the gas fee at maxFeePerGas plus the relayer fee, in native units and fiat
func CalcTotalNetworkFee(resp entities.QuoteResponse, fees entities.NetworkFees, nativeRate entities.ExchangeRate) (entities.Amount, error) {
	gas, err := CalcGasFee(resp, fees, nativeRate)
	if err != nil {
		return entities.Amount{}, err
	}
	relayer, err := CalcRelayerFee(resp, nativeRate)
	if err != nil {
		return entities.Amount{}, err
	}
	return addAmounts(gas, relayer), nil
}

// CalcEstimatedNetworkFee is the estimated gas fee plus the relayer fee
func CalcEstimatedNetworkFee(resp entities.QuoteResponse, fees entities.NetworkFees, nativeRate entities.ExchangeRate) (entities.Amount, error) {
	gas, err := CalcEstimatedGasFee(resp, fees, nativeRate)
	if err != nil {
		return entities.Amount{}, err
	}
	relayer, err := CalcRelayerFee(resp, nativeRate)
	if err != nil {
		return entities.Amount{}, err
	}
	return addAmounts(gas, relayer), nil
}

// CalcAdjustedReturn is the fiat value received minus the network fee.
// Each currency is nil when either operand lacks a rate.
func CalcAdjustedReturn(toAmount, totalNetworkFee entities.Amount) entities.FiatAmount {
	return entities.FiatAmount{
		ValueInCurrency: subFiat(toAmount.ValueInCurrency, totalNetworkFee.ValueInCurrency),
		USD:             subFiat(toAmount.USD, totalNetworkFee.USD),
	}
}

// CalcCost is what the user gives up: sent value minus adjusted return
func CalcCost(sent entities.Amount, adjustedReturn entities.FiatAmount) entities.FiatAmount {
	return entities.FiatAmount{
		ValueInCurrency: subFiat(sent.ValueInCurrency, adjustedReturn.ValueInCurrency),
		USD:             subFiat(sent.USD, adjustedReturn.USD),
	}
}

// CalcSwapRate is destination amount per unit sent. A zero destination amount
// or a zero sent amount yields zero.
func CalcSwapRate(sentAmount, destTokenAmount decimal.Decimal) decimal.Decimal {
	if destTokenAmount.IsZero() || sentAmount.IsZero() {
		return decimal.Zero
	}
	return destTokenAmount.Div(sentAmount)
}

// FormatEtaInMinutes rounds seconds to the nearest whole minute
func FormatEtaInMinutes(seconds int64) string {
	return decimal.NewFromInt(seconds).Div(sixty).Round(0).String()
}

// ToMetadata computes every derived field of a quote
func ToMetadata(resp entities.QuoteResponse, rates entities.QuoteRates, fees entities.NetworkFees) (*entities.QuoteMetadata, error) {
	sent := CalcSentAmount(resp.Quote, rates.SrcToken)
	received := CalcToAmount(resp.Quote, rates.DestToken)

	gasFee, err := CalcEstimatedGasFee(resp, fees, rates.Native)
	if err != nil {
		return nil, err
	}
	relayerFee, err := CalcRelayerFee(resp, rates.Native)
	if err != nil {
		return nil, err
	}
	totalFee, err := CalcTotalNetworkFee(resp, fees, rates.Native)
	if err != nil {
		return nil, err
	}
	adjusted := CalcAdjustedReturn(received, totalFee)

	return &entities.QuoteMetadata{
		QuoteResponse:       resp,
		SentAmount:          sent,
		ToTokenAmount:       received,
		GasFee:              gasFee,
		RelayerFee:          relayerFee,
		TotalNetworkFee:     totalFee,
		EstimatedNetworkFee: addAmounts(gasFee, relayerFee),
		AdjustedReturn:      adjusted,
		SwapRate:            CalcSwapRate(sent.Amount, received.Amount),
		Cost:                CalcCost(sent, adjusted),
		EtaInMinutes:        FormatEtaInMinutes(resp.EstimatedProcessingTimeInSeconds),
	}, nil
}
