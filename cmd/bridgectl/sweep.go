package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale, unreadable and search entries from the response cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := loadContainer(cmd)
			if err != nil {
				return err
			}
			defer container.Close()

			result, err := container.ResponseCache.ClearAll(cmd.Context())
			if jsonOutput(cmd) {
				if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
					return perr
				}
				return err
			}

			out := cmd.OutOrStdout()
			for _, key := range result.Removed {
				fmt.Fprintf(out, "  removed %s\n", key)
			}
			if err != nil {
				return fmt.Errorf("sweep incomplete: %w", err)
			}
			printSuccess(out, "Scanned %d keys, removed %d", result.Scanned, len(result.Removed))
			return nil
		},
	}
}
