package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rail-service/bridge_service/internal/domain/services/quote"
)

func newPriceImpactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price-impact <ratio>",
		Short: "Format a price impact ratio as a percentage",
		Example: `  bridgectl price-impact 0.0314
  bridgectl price-impact -- -0.00005`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatted, err := quote.FormatPriceImpactString(args[0])
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), map[string]string{"value": args[0], "formatted": formatted})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), formatted)
			return err
		},
	}
}
