package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rail-service/bridge_service/internal/domain/services/tokens"
)

func newTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Query bridgeable tokens through the response cache",
	}
	cmd.AddCommand(newPopularTokensCmd())
	return cmd
}

func newPopularTokensCmd() *cobra.Command {
	var (
		chains        []string
		includeAssets []string
	)

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "List the popular tokens of one or more chains",
		Example: `  bridgectl tokens popular --chain 1
  bridgectl tokens popular --chain eip155:10 --include eip155:10/slip44:60`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(chains) == 0 {
				return fmt.Errorf("at least one --chain is required")
			}

			container, err := loadContainer(cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			assets := container.TokenService.GetPopularAssets(cmd.Context(), tokens.PopularRequest{
				ChainIDs:      chains,
				IncludeAssets: includeAssets,
			})
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), assets)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CHAIN\tSYMBOL\tDECIMALS\tADDRESS")
			for _, a := range assets {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.ChainID, a.Symbol, a.Decimals, a.Address)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringSliceVar(&chains, "chain", nil, "Chain id, repeatable")
	cmd.Flags().StringSliceVar(&includeAssets, "include", nil, "CAIP-19 asset id to always include, repeatable")
	return cmd
}
