package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rail-service/bridge_service/internal/domain/entities"
	"github.com/rail-service/bridge_service/internal/domain/services/slippage"
	"github.com/rail-service/bridge_service/pkg/caip"
)

func newSlippageCmd() *cobra.Command {
	var (
		fromChain, toChain string
		fromToken, toToken string
		swap               bool
	)

	cmd := &cobra.Command{
		Use:   "slippage",
		Short: "Show the recommended slippage for a bridge or swap",
		Long: `Show the recommended slippage percentage for a request. Without --swap the
request counts as a swap when both chains are the same.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := slippage.Context{
				FromChainID: fromChain,
				ToChainID:   toChain,
				IsSwap:      caip.IsSwap(fromChain, toChain),
			}
			if cmd.Flags().Changed("swap") {
				ctx.IsSwap = swap
			}
			if fromToken != "" {
				ctx.FromToken = &entities.BridgeToken{ChainID: entities.ChainID(fromChain), Address: fromToken}
			}
			if toToken != "" {
				ctx.ToToken = &entities.BridgeToken{ChainID: entities.ChainID(toChain), Address: toToken}
			}

			decision := slippage.Decide(ctx)
			reason := slippage.Reason(ctx)

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"slippage": decision.Value,
					"rule":     decision.Rule,
					"reason":   reason,
				})
			}

			value := "auto"
			if decision.Value != nil {
				value = fmt.Sprintf("%g%%", *decision.Value)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", value, reason)
			return err
		},
	}

	cmd.Flags().StringVar(&fromChain, "from-chain", "", "Source chain id (decimal, hex or CAIP-2)")
	cmd.Flags().StringVar(&toChain, "to-chain", "", "Destination chain id")
	cmd.Flags().StringVar(&fromToken, "from-token", "", "Source token address")
	cmd.Flags().StringVar(&toToken, "to-token", "", "Destination token address")
	cmd.Flags().BoolVar(&swap, "swap", false, "Treat the request as a swap")
	return cmd
}
